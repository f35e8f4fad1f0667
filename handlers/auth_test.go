package handlers_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"glammate/auth"
	"glammate/models"
	"glammate/routes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupForm(email string) url.Values {
	return url.Values{
		"name":            {"Alice"},
		"username":        {"alice"},
		"email":           {email},
		"password":        {"Abc123!@"},
		"confirmPassword": {"Abc123!@"},
	}
}

func TestSignupVerifyLogsIn(t *testing.T) {
	app := newApp(t)
	c := app.client(t)

	w := c.postForm("/signup", signupForm("a@x.com"))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/verify", w.Header().Get("Location"))

	w = c.get("/verify")
	assert.Equal(t, "a@x.com", decode(t, w)["email"])

	code := app.sender.code("a@x.com")
	require.Len(t, code, 6)

	before := c.cookie
	require.NotNil(t, before)
	w = c.postForm("/verify", url.Values{"otp": {code}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assertRotated(t, app, before, c)

	body := decode(t, c.get("/"))
	user, ok := body["user"].(map[string]any)
	require.True(t, ok, "landing should see the logged-in user")
	assert.Equal(t, "alice", user["username"])

	stored, err := app.store.Users.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Empty(t, stored.OTP)
}

func TestVerifyWrongCode(t *testing.T) {
	app := newApp(t)
	c := app.client(t)
	c.postForm("/signup", signupForm("a@x.com"))

	wrong := "000000"
	if app.sender.code("a@x.com") == wrong {
		wrong = "111111"
	}
	w := c.postForm("/verify", url.Values{"otp": {wrong}})
	assert.Equal(t, "/verify", w.Header().Get("Location"))

	body := decode(t, c.get("/verify"))
	msg := body["message"].(map[string]any)
	assert.Equal(t, "Invalid or expired OTP", msg["text"])

	assert.Nil(t, decode(t, c.get("/"))["user"])
}

func TestSignupRejectsGoogleEmail(t *testing.T) {
	app := newApp(t)
	g := models.NewUser("a@x.com")
	g.GoogleID = "g-1"
	g.IsVerified = true
	require.NoError(t, app.store.Users.Create(context.Background(), g))

	c := app.client(t)
	w := c.postForm("/signup", signupForm("a@x.com"))
	assert.Equal(t, "/auth", w.Header().Get("Location"))

	body := decode(t, c.get("/auth"))
	assert.Equal(t, "This email is already registered via Google. Please sign in with Google.", body["signupError"])

	// errors are shown once
	assert.Nil(t, decode(t, c.get("/auth"))["signupError"])
}

func TestSignupValidationMessages(t *testing.T) {
	app := newApp(t)
	app.seedUser(t, "taken@x.com", "alice", "Abc123!@")

	tests := []struct {
		name string
		edit func(url.Values)
		want string
	}{
		{"username taken", func(v url.Values) {}, "Username already taken. Please choose another."},
		{"mismatch", func(v url.Values) { v.Set("username", "bob"); v.Set("confirmPassword", "x") }, "Passwords do not match"},
		{"weak", func(v url.Values) {
			v.Set("username", "bob")
			v.Set("password", "password")
			v.Set("confirmPassword", "password")
		}, "Password must be at least 8 characters, include one uppercase, one number, and one special symbol."},
		{"exists", func(v url.Values) { v.Set("username", "bob"); v.Set("email", "taken@x.com") }, "User already exists."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			form := signupForm("new@x.com")
			tc.edit(form)
			c := app.client(t)
			w := c.postForm("/signup", form)
			assert.Equal(t, "/auth", w.Header().Get("Location"))
			assert.Equal(t, tc.want, decode(t, c.get("/auth"))["signupError"])
		})
	}
}

func TestLoginMessages(t *testing.T) {
	app := newApp(t)
	app.seedUser(t, "kate@x.com", "kate", "Abc123!@")
	g := models.NewUser("g@x.com")
	g.GoogleID = "g-1"
	g.IsVerified = true
	require.NoError(t, app.store.Users.Create(context.Background(), g))

	tests := []struct {
		email, password, want string
	}{
		{"kate@x.com", "wrong", "Wrong email or password."},
		{"nobody@x.com", "Abc123!@", "Wrong email or password."},
		{"g@x.com", "Abc123!@", "This email is registered with Google. Please sign in using Google."},
	}
	for _, tc := range tests {
		c := app.client(t)
		w := c.postForm("/login", url.Values{"email": {tc.email}, "password": {tc.password}})
		assert.Equal(t, "/auth", w.Header().Get("Location"), tc.email)
		assert.Equal(t, tc.want, decode(t, c.get("/auth"))["loginError"], tc.email)
		assert.Nil(t, decode(t, c.get("/"))["user"])
	}
}

// assertRotated checks that logging in replaced the session cookie and that
// the cookie from before the login is no longer logged in.
func assertRotated(t *testing.T, app *testApp, before *http.Cookie, c *client) {
	t.Helper()
	require.NotNil(t, c.cookie)
	assert.NotEqual(t, before.Value, c.cookie.Value)
	stale := &client{t: t, app: app, cookie: before}
	assert.Nil(t, decode(t, stale.get("/"))["user"])
	require.NotNil(t, decode(t, c.get("/"))["user"])
}

func TestLoginRotatesSession(t *testing.T) {
	app := newApp(t)
	app.seedUser(t, "kate@x.com", "kate", "Abc123!@")
	c := app.client(t)

	c.postForm("/login", url.Values{"email": {"kate@x.com"}, "password": {"wrong"}})
	before := c.cookie
	require.NotNil(t, before, "failed login leaves a session behind")

	w := c.postForm("/login", url.Values{"email": {"kate@x.com"}, "password": {"Abc123!@"}})
	require.Equal(t, "/", w.Header().Get("Location"))
	assertRotated(t, app, before, c)
}

func TestLogout(t *testing.T) {
	app := newApp(t)
	c, _ := app.loggedIn(t, "kate")
	require.NotNil(t, decode(t, c.get("/"))["user"])

	w := c.get("/logout")
	assert.Equal(t, "/auth", w.Header().Get("Location"))
	assert.Nil(t, decode(t, c.get("/"))["user"])
}

func TestAuthRateLimit(t *testing.T) {
	app := newApp(t, func(o *routes.Options) { o.AuthRateLimit = 2 })
	c := app.client(t)
	form := url.Values{"email": {"x@x.com"}, "password": {"nope"}}

	assert.Equal(t, http.StatusFound, c.postForm("/login", form).Code)
	assert.Equal(t, http.StatusFound, c.postForm("/login", form).Code)
	assert.Equal(t, http.StatusTooManyRequests, c.postForm("/login", form).Code)
}

func TestSetUsername(t *testing.T) {
	app := newApp(t)
	app.seedUser(t, "kate@x.com", "kate", "Abc123!@")
	c, u := app.loggedIn(t, "someone")

	body := decode(t, c.postForm("/set-username", url.Values{"username": {""}}))
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "Username cannot be empty", body["message"])

	body = decode(t, c.postForm("/set-username", url.Values{"username": {"Kate"}}))
	assert.Equal(t, "Username already taken", body["message"])

	body = decode(t, c.postForm("/set-username", url.Values{"username": {"katya"}}))
	assert.Equal(t, true, body["ok"])

	got, err := app.store.Users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "katya", got.Username)

	anon := app.client(t)
	w := anon.postForm("/set-username", url.Values{"username": {"x"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGoogleLogin(t *testing.T) {
	app := newApp(t)
	app.google.profile = auth.FederatedProfile{ID: "g-9", Email: "Kate@Gmail.com", Name: "Kate"}
	c := app.client(t)

	w := c.get("/auth/google")
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	before := c.cookie
	require.NotNil(t, before)
	w = c.get("/auth/google/callback?code=good&state=" + url.QueryEscape(state))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assertRotated(t, app, before, c)

	body := decode(t, c.get("/"))
	require.NotNil(t, body["user"])
	assert.Equal(t, true, body["needsUsername"])

	u, err := app.store.Users.FindByGoogleID(context.Background(), "g-9")
	require.NoError(t, err)
	assert.Equal(t, "kate@gmail.com", u.Email)
	assert.True(t, u.IsVerified)
}

func TestGoogleCallbackRejections(t *testing.T) {
	app := newApp(t)
	app.seedUser(t, "kate@x.com", "kate", "Abc123!@")
	app.google.profile = auth.FederatedProfile{ID: "g-9", Email: "kate@x.com", Name: "Kate"}

	start := func(c *client) string {
		loc, err := url.Parse(c.get("/auth/google").Header().Get("Location"))
		require.NoError(t, err)
		return loc.Query().Get("state")
	}

	t.Run("email owned by password account", func(t *testing.T) {
		c := app.client(t)
		state := start(c)
		w := c.get("/auth/google/callback?code=good&state=" + url.QueryEscape(state))
		assert.Equal(t, "/auth", w.Header().Get("Location"))
		assert.Equal(t,
			"This email is already registered manually. Please login using email and password.",
			decode(t, c.get("/auth"))["loginError"])
	})

	t.Run("state from another session", func(t *testing.T) {
		victim := app.client(t)
		attacker := app.client(t)
		state := start(attacker)
		w := victim.get("/auth/google/callback?code=good&state=" + url.QueryEscape(state))
		assert.Equal(t, "/auth", w.Header().Get("Location"))
		assert.Equal(t, "Google login failed.", decode(t, victim.get("/auth"))["loginError"])
	})

	t.Run("failed exchange", func(t *testing.T) {
		c := app.client(t)
		state := start(c)
		w := c.get("/auth/google/callback?code=bad&state=" + url.QueryEscape(state))
		assert.Equal(t, "/auth", w.Header().Get("Location"))
		assert.Equal(t, "Google login failed.", decode(t, c.get("/auth"))["loginError"])
	})
}

func TestUnreadableBodies(t *testing.T) {
	app := newApp(t)
	const form = "application/x-www-form-urlencoded"

	anon := app.client(t)
	w := anon.postRaw("/login", form, "email=%zz")
	assert.Equal(t, "/auth", w.Header().Get("Location"))
	assert.Equal(t, auth.GenericFailure, decode(t, anon.get("/auth"))["loginError"])

	w = anon.postRaw("/verify", form, "otp=%zz")
	assert.Equal(t, "/verify", w.Header().Get("Location"))
	msg := decode(t, anon.get("/verify"))["message"].(map[string]any)
	assert.Equal(t, auth.GenericFailure, msg["text"])

	c, _ := app.loggedIn(t, "kate")
	w = c.postRaw("/posts/add", form, "images=%zz")
	assert.Equal(t, "/posts/add", w.Header().Get("Location"))
	msg = decode(t, c.get("/posts/add"))["message"].(map[string]any)
	assert.Equal(t, auth.GenericFailure, msg["text"])

	for _, path := range []string{"/set-username", "/collections"} {
		w = c.postRaw(path, "application/json", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.JSONEq(t, `{"ok":false,"message":"`+auth.GenericFailure+`"}`, w.Body.String(), path)
	}
}
