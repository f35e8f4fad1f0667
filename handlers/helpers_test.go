package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"glammate/auth"
	"glammate/database"
	"glammate/handlers"
	"glammate/media"
	"glammate/middleware"
	"glammate/models"
	"glammate/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (f *fakeSender) SendOTP(_ context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.codes == nil {
		f.codes = map[string]string{}
	}
	f.codes[email] = code
	return nil
}

func (f *fakeSender) code(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[email]
}

type fakeGoogle struct {
	profile auth.FederatedProfile
}

func (g *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (g *fakeGoogle) Exchange(_ context.Context, code string) (auth.FederatedProfile, error) {
	if code != "good" {
		return auth.FederatedProfile{}, errors.New("invalid_grant")
	}
	return g.profile, nil
}

type testApp struct {
	router http.Handler
	store  *database.Store
	sender *fakeSender
	google *fakeGoogle
}

func newApp(t *testing.T, opts ...func(*routes.Options)) *testApp {
	t.Helper()
	return newAppWithImages(t, media.NewDiskStore(t.TempDir(), "/uploads"), opts...)
}

// newAppWithImages builds the app around images, which may be nil.
func newAppWithImages(t *testing.T, images media.ImageStore, opts ...func(*routes.Options)) *testApp {
	t.Helper()
	store := database.NewMemory().Store()
	sender := &fakeSender{}
	google := &fakeGoogle{}

	h := handlers.New(handlers.Deps{
		Store:  store,
		Auth:   auth.NewService(store.Users, sender),
		Linker: auth.NewLinker(store.Users),
		Google: google,
		State:  auth.NewStateSigner("test-secret"),
		Images: images,
	})
	o := routes.Options{AuthRateLimit: 1000}
	for _, fn := range opts {
		fn(&o)
	}
	sessions := middleware.NewSessionManager(store.Sessions, "test-secret", time.Hour, false)
	return &testApp{
		router: routes.SetupRouter(h, sessions, auth.NewResolver(store.Users), o),
		store:  store,
		sender: sender,
		google: google,
	}
}

// client is a browser with a single-cookie jar.
type client struct {
	t      *testing.T
	app    *testApp
	cookie *http.Cookie
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, app: a}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.app.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name != middleware.SessionCookie {
			continue
		}
		if ck.MaxAge < 0 {
			c.cookie = nil
		} else {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) getJSON(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	return c.postRaw(path, "application/x-www-form-urlencoded", form.Encode())
}

func (c *client) postRaw(path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

func (c *client) post(path string) *httptest.ResponseRecorder {
	return c.postForm(path, url.Values{})
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// seedUser stores a verified password account.
func (a *testApp) seedUser(t *testing.T, email, username, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := models.NewUser(email)
	u.Username = username
	u.Name = username
	u.PasswordHash = hash
	u.IsVerified = true
	require.NoError(t, a.store.Users.Create(context.Background(), u))
	return u
}

// loggedIn returns a client logged in as a fresh password account.
func (a *testApp) loggedIn(t *testing.T, username string) (*client, *models.User) {
	t.Helper()
	u := a.seedUser(t, username+"@x.com", username, "Abc123!@")
	c := a.client(t)
	w := c.postForm("/login", url.Values{"email": {u.Email}, "password": {"Abc123!@"}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
	return c, u
}

func (a *testApp) seedPost(t *testing.T, title string) *models.Post {
	t.Helper()
	p := models.NewPost([]string{"https://example.com/" + title + ".jpg"})
	p.Title = title
	require.NoError(t, a.store.Posts.Create(context.Background(), p))
	return p
}
