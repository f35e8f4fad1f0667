package handlers

import (
	"net/http"

	"glammate/auth"
	"glammate/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const googleLoginFailed = "Google login failed."

// GoogleLogin starts the OAuth flow with a state bound to this session.
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		h.googleFailed(c, "Google login is not configured.")
		return
	}
	sess := session(c)
	state, err := h.state.Issue(sess.ID())
	if err != nil {
		logError(c, "GoogleLogin", err)
		h.googleFailed(c, googleLoginFailed)
		return
	}
	sess.Touch()
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		h.googleFailed(c, "Google login is not configured.")
		return
	}
	if reason := c.Query("error"); reason != "" {
		log.Info().Str("reason", reason).Msg("google login cancelled")
		h.googleFailed(c, googleLoginFailed)
		return
	}

	sess := session(c)
	if err := h.state.Verify(c.Query("state"), sess.ID()); err != nil {
		log.Warn().Str("ip", c.ClientIP()).Msg("google callback with invalid state")
		h.googleFailed(c, auth.Message(err))
		return
	}
	code := c.Query("code")
	if code == "" {
		h.googleFailed(c, googleLoginFailed)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := h.google.Exchange(ctx, code)
	if err != nil {
		logError(c, "GoogleCallback", err)
		h.googleFailed(c, googleLoginFailed)
		return
	}

	user, err := h.linker.Link(ctx, profile)
	if err != nil {
		if !auth.IsUserError(err) {
			logError(c, "GoogleCallback", err)
			h.googleFailed(c, googleLoginFailed)
			return
		}
		h.googleFailed(c, auth.Message(err))
		return
	}

	id := user.ID
	sess.Regenerate()
	sess.Update(func(s *models.Session) {
		s.FederatedUserID = &id
		s.UserID = nil
		s.LoginError = ""
	})
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) googleFailed(c *gin.Context, msg string) {
	session(c).Update(func(s *models.Session) { s.LoginError = msg })
	c.Redirect(http.StatusFound, "/auth")
}
