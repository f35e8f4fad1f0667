package middleware

import (
	"context"
	"net/http"
	"strings"

	"glammate/auth"
	"glammate/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	viewerKey = "viewer"

	LoginRequiredFlash = "Login is required to perform this action."
	LoginRequiredJSON  = "Login required"
)

// ViewerResolver maps session state to the acting user.
type ViewerResolver interface {
	Resolve(ctx context.Context, sess *models.Session) (*auth.Viewer, error)
}

// LoadViewer resolves the acting user for every request. It must run after
// SessionManager.Middleware. Store failures are logged and the request
// proceeds anonymously.
func LoadViewer(r ViewerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var data *models.Session
		if s := SessionFrom(c); s != nil {
			d := s.Data()
			data = &d
		}
		viewer, err := r.Resolve(c.Request.Context(), data)
		if err != nil {
			// treat the request as anonymous
			log.Error().Err(err).Msg("resolve viewer")
		}
		if viewer != nil {
			c.Set(viewerKey, viewer)
		}
		c.Next()
	}
}

// CurrentViewer returns the logged-in user, or nil.
func CurrentViewer(c *gin.Context) *auth.Viewer {
	if v, ok := c.Get(viewerKey); ok {
		return v.(*auth.Viewer)
	}
	return nil
}

// WantsJSON reports whether the client asked for a JSON answer.
func WantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// RequireLogin gates pages: anonymous requests are sent to /auth with a
// flash, or get a 401 when they asked for JSON.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentViewer(c) != nil {
			c.Next()
			return
		}
		if WantsJSON(c) {
			unauthorized(c)
			return
		}
		if s := SessionFrom(c); s != nil {
			s.SetFlash("error", LoginRequiredFlash)
		}
		c.Redirect(http.StatusFound, "/auth")
		c.Abort()
	}
}

// RequireLoginJSON gates JSON endpoints.
func RequireLoginJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentViewer(c) == nil {
			unauthorized(c)
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "message": LoginRequiredJSON})
}
