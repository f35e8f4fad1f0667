package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"glammate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, path, field string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(field, "upload.bin")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngFile(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestProfile(t *testing.T) {
	app := newApp(t)
	owner, u := app.loggedIn(t, "kate")
	visitor, _ := app.loggedIn(t, "noor")

	w := owner.get("/profile/nobody")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", w.Body.String())

	col := &models.Collection{Name: "fav", Owner: u.ID}
	require.NoError(t, app.store.Collections.Create(context.Background(), col))

	body := decode(t, owner.get("/profile/KATE"))
	assert.Equal(t, true, body["isOwner"])
	assert.Equal(t, float64(1), body["collectionsCount"])
	profile := body["profileUser"].(map[string]any)
	assert.Equal(t, "kate", profile["username"])
	assert.NotContains(t, profile, "email")

	body = decode(t, visitor.get("/profile/kate"))
	assert.Equal(t, false, body["isOwner"])
	assert.Equal(t, float64(0), body["collectionsCount"])
	assert.Equal(t, false, body["isFollowing"])
}

func TestFollowToggle(t *testing.T) {
	app := newApp(t)
	c, me := app.loggedIn(t, "noor")
	app.seedUser(t, "kate@x.com", "kate", "Abc123!@")

	body := decode(t, c.post("/profile/kate/follow"))
	assert.Equal(t, map[string]any{"ok": true, "following": true, "followersCount": float64(1)}, body)
	assert.Equal(t, true, decode(t, c.get("/profile/kate"))["isFollowing"])

	got, err := app.store.Users.FindByID(context.Background(), me.ID)
	require.NoError(t, err)
	assert.Len(t, got.Following, 1)

	body = decode(t, c.post("/profile/kate/follow"))
	assert.Equal(t, map[string]any{"ok": true, "following": false, "followersCount": float64(0)}, body)

	w := c.post("/profile/noor/follow")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.post("/profile/ghost/follow")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchUsers(t *testing.T) {
	app := newApp(t)
	for i := 0; i < 15; i++ {
		app.seedUser(t, fmt.Sprintf("k%d@x.com", i), fmt.Sprintf("kate%d", i), "Abc123!@")
	}
	app.seedUser(t, "noor@x.com", "noor", "Abc123!@")
	c := app.client(t)

	var results []map[string]any
	w := c.get("/api/users/search?q=KAT")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Len(t, results, 10)
	for _, r := range results {
		assert.True(t, strings.HasPrefix(r["username"].(string), "kate"))
		assert.ElementsMatch(t, []string{"username", "name", "avatar"}, keys(r))
	}

	w = c.get("/api/users/search?q=")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = c.get("/api/users/search?q=" + url.QueryEscape(".*"))
	assert.JSONEq(t, `[]`, w.Body.String(), "query is matched literally")
}

func TestUpdateProfile(t *testing.T) {
	app := newApp(t)
	c, u := app.loggedIn(t, "kate")

	req := multipartRequest(t, "/profile/update", "avatar", pngFile(t), map[string]string{"bio": "hello"})
	req.Header.Set("Accept", "application/json")
	w := c.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	got, err := app.store.Users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, "/uploads/avatars/"+u.ID.Hex()+".png", got.Avatar)
	assert.Empty(t, got.AboutMe)

	w = c.do(multipartRequest(t, "/profile/update", "avatar", []byte("not an image"), nil))
	assert.Equal(t, http.StatusFound, w.Code)

	w = c.postForm("/profile/update", url.Values{"aboutMe": {"stylist"}})
	assert.Equal(t, "/profile/kate", w.Header().Get("Location"))
	got, err = app.store.Users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "stylist", got.AboutMe)
	assert.Equal(t, "hello", got.Bio, "absent fields are left alone")
}

func TestUpdateBanner(t *testing.T) {
	app := newApp(t)
	c, u := app.loggedIn(t, "kate")

	req := multipartRequest(t, "/profile/update-banner", "banner", nil, nil)
	req.Header.Set("Accept", "application/json")
	w := c.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(multipartRequest(t, "/profile/update-banner", "banner", pngFile(t), nil))
	assert.Equal(t, "/profile/kate", w.Header().Get("Location"))

	got, err := app.store.Users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/banners/"+u.ID.Hex()+".png", got.Banner)
}

func TestUpdateProfileAnonymousJSON(t *testing.T) {
	app := newApp(t)
	req := multipartRequest(t, "/profile/update", "avatar", nil, map[string]string{"bio": "x"})
	req.Header.Set("Accept", "application/json")
	w := app.client(t).do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
