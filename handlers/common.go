package handlers

import (
	"context"
	"net/http"
	"time"

	"glammate/auth"
	"glammate/database"
	"glammate/media"
	"glammate/middleware"
	"glammate/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const requestTimeout = 10 * time.Second

// GoogleAuth is the part of the OAuth provider the handlers drive.
type GoogleAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (auth.FederatedProfile, error)
}

// Deps wires the handlers. Google and Images may be nil.
type Deps struct {
	Store   *database.Store
	Auth    *auth.Service
	Linker  *auth.Linker
	Google  GoogleAuth
	State   *auth.StateSigner
	Images  media.ImageStore
	Healthy func(ctx context.Context) error
}

type Handler struct {
	store   *database.Store
	auth    *auth.Service
	linker  *auth.Linker
	google  GoogleAuth
	state   *auth.StateSigner
	images  media.ImageStore
	healthy func(ctx context.Context) error
}

func New(d Deps) *Handler {
	return &Handler{
		store:   d.Store,
		auth:    d.Auth,
		linker:  d.Linker,
		google:  d.Google,
		state:   d.State,
		images:  d.Images,
		healthy: d.Healthy,
	}
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func session(c *gin.Context) *middleware.Session {
	return middleware.SessionFrom(c)
}

// viewer returns the logged-in user. Only call it behind RequireLogin.
func viewer(c *gin.Context) *models.User {
	return middleware.CurrentViewer(c).User
}

func flashRedirect(c *gin.Context, kind, text, to string) {
	session(c).SetFlash(kind, text)
	c.Redirect(http.StatusFound, to)
}

func profilePath(u *models.User) string {
	if u.Username == "" {
		return "/"
	}
	return "/profile/" + u.Username
}

// back returns the page the form was posted from, or fallback.
func back(c *gin.Context, fallback string) string {
	if ref := c.GetHeader("Referer"); ref != "" {
		return ref
	}
	return fallback
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func logError(c *gin.Context, where string, err error) {
	_ = c.Error(err)
	log.Error().Err(err).Str("handler", where).Str("path", c.Request.URL.Path).Msg("request failed")
}

func (h *Handler) Landing(c *gin.Context) {
	resp := gin.H{
		"user":          nil,
		"message":       session(c).TakeFlash(),
		"needsUsername": false,
	}
	if v := middleware.CurrentViewer(c); v != nil {
		resp["user"] = v.User.Profile()
		resp["needsUsername"] = v.User.Username == ""
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Health(c *gin.Context) {
	if h.healthy != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.healthy(ctx); err != nil {
			log.Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}
