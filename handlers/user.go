package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"glammate/auth"
	"glammate/database"
	"glammate/media"
	"glammate/middleware"
	"glammate/models"

	"github.com/gin-gonic/gin"
)

const maxSearchResults = 10

// profileView is the public face of a user on their profile page.
type profileView struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar"`
	Banner         string `json:"banner"`
	Bio            string `json:"bio"`
	AboutMe        string `json:"aboutMe"`
	FollowersCount int    `json:"followersCount"`
	FollowingCount int    `json:"followingCount"`
}

func viewProfile(u *models.User) profileView {
	return profileView{
		ID:             u.ID.Hex(),
		Username:       u.Username,
		Name:           u.Name,
		Avatar:         u.Avatar,
		Banner:         u.Banner,
		Bio:            u.Bio,
		AboutMe:        u.AboutMe,
		FollowersCount: len(u.Followers),
		FollowingCount: len(u.Following),
	}
}

func (h *Handler) Profile(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.store.Users.FindByUsername(ctx, auth.NormalizeUsername(c.Param("username")))
	if errors.Is(err, database.ErrNotFound) {
		c.String(http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		logError(c, "Profile", err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}

	posts, err := h.store.Posts.ListByUploader(ctx, user.ID)
	if err != nil {
		logError(c, "Profile", err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}

	me := viewerUser(c)
	isOwner := me != nil && me.ID == user.ID
	isFollowing := me != nil && !isOwner && models.NewIDSet(user.Followers).Has(me.ID)

	var collectionsCount int64
	savedCount := 0
	if isOwner {
		collectionsCount, err = h.store.Collections.CountByOwner(ctx, user.ID)
		if err != nil {
			logError(c, "Profile", err)
			c.String(http.StatusInternalServerError, "Server error")
			return
		}
		savedCount = len(user.Saves)
	}

	c.JSON(http.StatusOK, gin.H{
		"profileUser":      viewProfile(user),
		"posts":            viewPosts(posts, me),
		"postsCount":       len(posts),
		"collectionsCount": collectionsCount,
		"savedCount":       savedCount,
		"isOwner":          isOwner,
		"isFollowing":      isFollowing,
		"message":          session(c).TakeFlash(),
	})
}

// respond answers a profile form either as JSON or with a flash and redirect.
func respond(c *gin.Context, status int, ok bool, msg, redirect string) {
	if middleware.WantsJSON(c) {
		body := gin.H{"ok": ok}
		if !ok {
			body["message"] = msg
		}
		c.JSON(status, body)
		return
	}
	kind := "success"
	if !ok {
		kind = "error"
	}
	flashRedirect(c, kind, msg, redirect)
}

// upload stores an image posted in field. It returns "" when the field is
// absent.
func (h *Handler) upload(c *gin.Context, field string, kind media.Kind) (string, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	img, err := readUpload(fh)
	if err != nil {
		return "", err
	}
	if h.images == nil {
		return "", errors.New("no image store configured")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	return h.images.Save(ctx, kind, viewer(c).ID.Hex(), img)
}

func readUpload(fh *multipart.FileHeader) (media.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return media.Image{}, err
	}
	defer f.Close()
	return media.Read(f)
}

func imageError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, media.ErrNotImage):
		return http.StatusBadRequest, "Please upload an image file.", true
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusBadRequest, "Image is too large.", true
	}
	return 0, "", false
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	user := viewer(c)
	failed := "Failed to update profile. Server error."

	var upd database.ProfileUpdate
	if bio, ok := c.GetPostForm("bio"); ok {
		upd.Bio = &bio
	}
	if about, ok := c.GetPostForm("aboutMe"); ok {
		upd.AboutMe = &about
	}

	avatar, err := h.upload(c, "avatar", media.KindAvatar)
	if err != nil {
		if status, msg, ok := imageError(err); ok {
			respond(c, status, false, msg, back(c, profilePath(user)))
			return
		}
		logError(c, "UpdateProfile", err)
		respond(c, http.StatusInternalServerError, false, failed, back(c, profilePath(user)))
		return
	}
	if avatar != "" {
		upd.Avatar = &avatar
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.store.Users.UpdateProfile(ctx, user.ID, upd); err != nil {
		logError(c, "UpdateProfile", err)
		respond(c, http.StatusInternalServerError, false, failed, back(c, profilePath(user)))
		return
	}
	respond(c, http.StatusOK, true, "Profile updated successfully!", profilePath(user))
}

func (h *Handler) UpdateBanner(c *gin.Context) {
	user := viewer(c)
	failed := "Failed to update banner. Server error."

	banner, err := h.upload(c, "banner", media.KindBanner)
	if err != nil {
		if status, msg, ok := imageError(err); ok {
			respond(c, status, false, msg, back(c, profilePath(user)))
			return
		}
		logError(c, "UpdateBanner", err)
		respond(c, http.StatusInternalServerError, false, failed, back(c, profilePath(user)))
		return
	}
	if banner == "" {
		respond(c, http.StatusBadRequest, false, "Please choose a banner image.", back(c, profilePath(user)))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.store.Users.UpdateProfile(ctx, user.ID, database.ProfileUpdate{Banner: &banner}); err != nil {
		logError(c, "UpdateBanner", err)
		respond(c, http.StatusInternalServerError, false, failed, back(c, profilePath(user)))
		return
	}
	respond(c, http.StatusOK, true, "Banner updated successfully!", profilePath(user))
}

func (h *Handler) Follow(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	target, err := h.store.Users.FindByUsername(ctx, auth.NormalizeUsername(c.Param("username")))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false})
		return
	}
	if err != nil {
		logError(c, "Follow", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	me := viewer(c)
	if me.ID == target.ID {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "You cannot follow yourself."})
		return
	}

	res, err := h.store.Users.ToggleFollow(ctx, me.ID, target.ID)
	if err != nil {
		logError(c, "Follow", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "following": res.Member, "followersCount": res.Count})
}

type searchResult struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

func (h *Handler) SearchUsers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusOK, []searchResult{})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profiles, err := h.store.Users.Search(ctx, q, maxSearchResults)
	if err != nil {
		logError(c, "SearchUsers", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	out := make([]searchResult, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, searchResult{Username: p.Username, Name: p.Name, Avatar: p.Avatar})
	}
	c.JSON(http.StatusOK, out)
}
