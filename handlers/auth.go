package handlers

import (
	"errors"
	"net/http"

	"glammate/auth"
	"glammate/models"

	"github.com/gin-gonic/gin"
)

type signupForm struct {
	Name            string `form:"name" json:"name"`
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword"`
}

type loginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type verifyForm struct {
	OTP string `form:"otp" json:"otp"`
}

type usernameForm struct {
	Username string `form:"username" json:"username"`
}

// ShowAuth hands out the pending login/signup errors once.
func (h *Handler) ShowAuth(c *gin.Context) {
	sess := session(c)
	data := sess.Data()
	if data.LoginError != "" || data.SignupError != "" {
		sess.Update(func(s *models.Session) {
			s.LoginError = ""
			s.SignupError = ""
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"loginError":    nullable(data.LoginError),
		"signupError":   nullable(data.SignupError),
		"message":       sess.TakeFlash(),
		"googleEnabled": h.google != nil,
	})
}

func (h *Handler) Signup(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		h.signupFailed(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	email, err := h.auth.Signup(ctx, auth.SignupInput{
		Name:            form.Name,
		Username:        form.Username,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		if !auth.IsUserError(err) {
			logError(c, "Signup", err)
		}
		h.signupFailed(c, err)
		return
	}

	session(c).Update(func(s *models.Session) {
		s.PendingEmail = email
		s.SignupError = ""
	})
	c.Redirect(http.StatusFound, "/verify")
}

func (h *Handler) signupFailed(c *gin.Context, err error) {
	session(c).Update(func(s *models.Session) { s.SignupError = auth.Message(err) })
	c.Redirect(http.StatusFound, "/auth")
}

func (h *Handler) ShowVerify(c *gin.Context) {
	sess := session(c)
	c.JSON(http.StatusOK, gin.H{
		"email":   sess.Data().PendingEmail,
		"message": sess.TakeFlash(),
	})
}

func (h *Handler) Verify(c *gin.Context) {
	var form verifyForm
	if err := c.ShouldBind(&form); err != nil {
		flashRedirect(c, "error", auth.Message(err), "/verify")
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sess := session(c)
	user, err := h.auth.Verify(ctx, sess.Data().PendingEmail, form.OTP)
	if err != nil {
		if !auth.IsUserError(err) {
			logError(c, "Verify", err)
		}
		flashRedirect(c, "error", auth.Message(err), "/verify")
		return
	}

	id := user.ID
	sess.Regenerate()
	sess.Update(func(s *models.Session) {
		s.UserID = &id
		s.FederatedUserID = nil
		s.PendingEmail = ""
	})
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.loginFailed(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sess := session(c)
	user, err := h.auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		if !auth.IsUserError(err) {
			logError(c, "Login", err)
		}
		h.loginFailed(c, err)
		return
	}

	id := user.ID
	sess.Regenerate()
	sess.Update(func(s *models.Session) {
		s.UserID = &id
		s.FederatedUserID = nil
		s.LoginError = ""
	})
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) loginFailed(c *gin.Context, err error) {
	session(c).Update(func(s *models.Session) { s.LoginError = auth.Message(err) })
	c.Redirect(http.StatusFound, "/auth")
}

func (h *Handler) Logout(c *gin.Context) {
	session(c).Destroy()
	c.Redirect(http.StatusFound, "/auth")
}

// SetUsername lets an account without a username (Google signups) pick one.
func (h *Handler) SetUsername(c *gin.Context) {
	var form usernameForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": auth.Message(err)})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	username, err := h.auth.SetUsername(ctx, viewer(c).ID, form.Username)
	switch {
	case errors.Is(err, auth.ErrUsernameEmpty):
		c.JSON(http.StatusOK, gin.H{"ok": false, "message": "Username cannot be empty"})
	case errors.Is(err, auth.ErrUsernameTaken):
		c.JSON(http.StatusOK, gin.H{"ok": false, "message": "Username already taken"})
	case err != nil:
		logError(c, "SetUsername", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "Server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "username": username})
	}
}
