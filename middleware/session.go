package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"glammate/database"
	"glammate/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	SessionCookie = "glammate.sid"
	sessionKey    = "session"
)

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Session is the per-request handle on the stored session. Changes are
// written back once, right before the response headers go out.
type Session struct {
	data      *models.Session
	fresh     bool
	dirty     bool
	destroyed bool
	// replaced is the stored id this session was issued under before
	// Regenerate; it is deleted on commit.
	replaced string
}

func (s *Session) ID() string { return s.data.ID }

// Data exposes the stored fields read-only; use Update to change them.
func (s *Session) Data() models.Session { return *s.data }

func (s *Session) Update(fn func(*models.Session)) {
	fn(s.data)
	s.dirty = true
}

// Touch forces the session to be stored even when nothing changed, so its id
// survives to the next request.
func (s *Session) Touch() { s.dirty = true }

func (s *Session) SetFlash(kind, text string) {
	s.Update(func(d *models.Session) { d.Message = &models.Flash{Type: kind, Text: text} })
}

// TakeFlash returns the pending flash message and clears it.
func (s *Session) TakeFlash() *models.Flash {
	f := s.data.Message
	if f != nil {
		s.Update(func(d *models.Session) { d.Message = nil })
	}
	return f
}

// Regenerate moves the session data to a new id and cookie. Call it whenever
// the session is granted a login.
func (s *Session) Regenerate() {
	if !s.fresh && s.replaced == "" {
		s.replaced = s.data.ID
	}
	s.data.ID = uuid.NewString()
	s.fresh = true
	s.dirty = true
}

// Destroy drops the session and expires the cookie.
func (s *Session) Destroy() {
	s.destroyed = true
}

// SessionManager loads sessions from a signed cookie and the session store.
type SessionManager struct {
	store  database.SessionRepository
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessionManager(store database.SessionRepository, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// SessionFrom returns the session loaded by SessionManager.Middleware.
func SessionFrom(c *gin.Context) *Session {
	if v, ok := c.Get(sessionKey); ok {
		return v.(*Session)
	}
	return nil
}

func (m *SessionManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := m.load(c.Request.Context(), c)
		if err != nil {
			log.Error().Err(err).Msg("load session")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(sessionKey, sess)

		w := &sessionWriter{ResponseWriter: c.Writer}
		w.commit = func() { m.commit(c, w.ResponseWriter, sess) }
		c.Writer = w

		c.Next()
		w.flush()
	}
}

func (m *SessionManager) load(ctx context.Context, c *gin.Context) (*Session, error) {
	id := ""
	if raw, err := c.Cookie(SessionCookie); err == nil {
		id = m.parse(raw)
	}
	if id == "" {
		return m.fresh(), nil
	}

	data, err := m.store.Find(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return m.fresh(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !data.ExpiresAt.After(m.now()) {
		return m.fresh(), nil
	}
	return &Session{data: data}, nil
}

func (m *SessionManager) fresh() *Session {
	return &Session{
		data:  &models.Session{ID: uuid.NewString(), ExpiresAt: m.now().Add(m.ttl)},
		fresh: true,
	}
}

func (m *SessionManager) parse(raw string) string {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return ""
	}
	return claims.SessionID
}

func (m *SessionManager) sign(s *models.Session) (string, error) {
	claims := sessionClaims{
		SessionID: s.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// commit persists the session and sets the cookie. It runs before the first
// byte of the response is written.
func (m *SessionManager) commit(c *gin.Context, w http.ResponseWriter, s *Session) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 5*time.Second)
	defer cancel()

	if s.replaced != "" {
		m.delete(ctx, s.replaced)
		s.replaced = ""
		s.data.ExpiresAt = m.now().Add(m.ttl)
	}
	if s.destroyed {
		if !s.fresh {
			m.delete(ctx, s.data.ID)
		}
		http.SetCookie(w, m.cookie("", -1))
		return
	}
	if !s.dirty {
		return
	}
	if err := m.store.Save(ctx, s.data); err != nil {
		log.Error().Err(err).Str("session", s.data.ID).Msg("save session")
		return
	}
	if s.fresh {
		value, err := m.sign(s.data)
		if err != nil {
			log.Error().Err(err).Msg("sign session cookie")
			return
		}
		http.SetCookie(w, m.cookie(value, int(m.ttl.Seconds())))
		s.fresh = false
	}
	s.dirty = false
}

func (m *SessionManager) delete(ctx context.Context, id string) {
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, database.ErrNotFound) {
		log.Error().Err(err).Str("session", id).Msg("delete session")
	}
}

func (m *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionWriter commits the session when the handler starts its response.
type sessionWriter struct {
	gin.ResponseWriter
	commit    func()
	committed bool
}

func (w *sessionWriter) flush() {
	if !w.committed {
		w.committed = true
		w.commit()
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.flush()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) WriteHeaderNow() {
	w.flush()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) WriteString(s string) (int, error) {
	w.flush()
	return w.ResponseWriter.WriteString(s)
}
