package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"glammate/auth"
	"glammate/database"
	"glammate/media"
	"glammate/middleware"
	"glammate/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageSize = 20
	maxPageSize     = 30
	maxPostImages   = 10

	badImageMessage = "Images must be uploaded pictures or image links."
)

type addPostForm struct {
	Title       string   `form:"title" json:"title"`
	Description string   `form:"description" json:"description"`
	Caption     string   `form:"caption" json:"caption"`
	Tags        string   `form:"tags" json:"tags"`
	Filter      string   `form:"filter" json:"filter"`
	Images      []string `form:"images" json:"images"`
}

// postView is a post as seen by the current viewer.
type postView struct {
	models.Post
	LikesCount int  `json:"likesCount"`
	SavesCount int  `json:"savesCount"`
	Liked      bool `json:"liked"`
	Saved      bool `json:"saved"`
}

func viewPost(p models.Post, v *models.User) postView {
	pv := postView{Post: p, LikesCount: len(p.Likes), SavesCount: len(p.Saves)}
	if v != nil {
		pv.Liked = models.NewIDSet(p.Likes).Has(v.ID)
		pv.Saved = models.NewIDSet(p.Saves).Has(v.ID)
	}
	return pv
}

func viewPosts(posts []models.Post, v *models.User) []postView {
	out := make([]postView, 0, len(posts))
	for _, p := range posts {
		out = append(out, viewPost(p, v))
	}
	return out
}

func viewerUser(c *gin.Context) *models.User {
	if v := middleware.CurrentViewer(c); v != nil {
		return v.User
	}
	return nil
}

// pageParams parses page and limit. page is at least 1 and small enough that
// its offset fits an int; limit defaults to 20 and never exceeds 30.
func pageParams(c *gin.Context) (page, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

func (h *Handler) Explore(c *gin.Context) {
	page, limit := pageParams(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := h.store.Posts.List(ctx, int64(page-1)*int64(limit), int64(limit))
	if err != nil {
		logError(c, "Explore", err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}
	count, err := h.store.Posts.Count(ctx)
	if err != nil {
		logError(c, "Explore", err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      viewPosts(posts, viewerUser(c)),
		"page":       page,
		"totalPages": int(math.Ceil(float64(count) / float64(limit))),
	})
}

func (h *Handler) ShowPost(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, "Post not found")
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.store.Posts.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		c.String(http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		logError(c, "ShowPost", err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": viewPost(*post, viewerUser(c))})
}

func (h *Handler) LikePost(c *gin.Context) {
	h.toggle(c, "LikePost", h.store.Posts.ToggleLike, "likesCount", "liked")
}

func (h *Handler) SavePost(c *gin.Context) {
	h.toggle(c, "SavePost", h.store.Posts.ToggleSave, "savesCount", "saved")
}

type toggleFunc func(ctx context.Context, postID, userID primitive.ObjectID) (database.ToggleResult, error)

func (h *Handler) toggle(c *gin.Context, where string, fn toggleFunc, countKey, memberKey string) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := fn(ctx, postID, viewer(c).ID)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false})
		return
	}
	if err != nil {
		logError(c, where, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, countKey: res.Count, memberKey: res.Member})
}

func (h *Handler) ShowAddPost(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   session(c).TakeFlash(),
		"maxImages": maxPostImages,
	})
}

func (h *Handler) AddPost(c *gin.Context) {
	var form addPostForm
	if err := c.ShouldBind(&form); err != nil {
		flashRedirect(c, "error", auth.Message(err), "/posts/add")
		return
	}

	images := make([]string, 0, len(form.Images))
	for _, img := range form.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		flashRedirect(c, "error", "Please upload at least one image", "/posts/add")
		return
	}
	if len(images) > maxPostImages {
		images = images[:maxPostImages]
	}
	inline := map[int]media.Image{}
	for i, img := range images {
		if err := media.ValidateRef(img); err != nil {
			flashRedirect(c, "error", badImageMessage, "/posts/add")
			return
		}
		if !media.IsDataURI(img) {
			continue
		}
		decoded, err := media.DecodeDataURI(img)
		if err != nil {
			flashRedirect(c, "error", badImageMessage, "/posts/add")
			return
		}
		inline[i] = decoded
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user := viewer(c)
	post := models.NewPost(nil)

	var stored []string
	if h.images != nil {
		for i := range images {
			decoded, ok := inline[i]
			if !ok {
				continue
			}
			name := fmt.Sprintf("%s_%d", post.ID.Hex(), i)
			url, err := h.images.Save(ctx, media.KindPost, name, decoded)
			if err != nil {
				logError(c, "AddPost", err)
				h.discardImages(c, stored)
				flashRedirect(c, "error", "Server error while adding post", "/posts/add")
				return
			}
			stored = append(stored, name)
			images[i] = url
		}
	}

	post.Images = images
	post.Title = strings.TrimSpace(form.Title)
	post.Description = strings.TrimSpace(form.Description)
	post.Caption = strings.TrimSpace(form.Caption)
	post.Filter = strings.TrimSpace(form.Filter)
	post.Tags = splitTags(form.Tags)
	post.AttributeTo(user)

	if err := h.store.Posts.Create(ctx, post); err != nil {
		logError(c, "AddPost", err)
		h.discardImages(c, stored)
		flashRedirect(c, "error", "Server error while adding post", "/posts/add")
		return
	}
	flashRedirect(c, "success", "Post added successfully!", profilePath(user))
}

// discardImages removes post images stored for a post that was not created.
func (h *Handler) discardImages(c *gin.Context, names []string) {
	if len(names) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), requestTimeout)
	defer cancel()
	for _, name := range names {
		if err := h.images.Delete(ctx, media.KindPost, name); err != nil {
			logError(c, "AddPost", err)
		}
	}
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (h *Handler) ViewPosts(c *gin.Context) {
	c.Redirect(http.StatusFound, profilePath(viewer(c))+"#posts")
}
