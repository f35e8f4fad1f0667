package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"glammate/auth"
	"glammate/database"
	"glammate/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type collectionForm struct {
	Name string `form:"name" json:"name"`
}

func (h *Handler) ListCollections(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	cols, err := h.store.Collections.ListByOwner(ctx, viewer(c).ID)
	if err != nil {
		logError(c, "ListCollections", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	if cols == nil {
		cols = []models.Collection{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "collections": cols})
}

func (h *Handler) CreateCollection(c *gin.Context) {
	var form collectionForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": auth.Message(err)})
		return
	}
	name := strings.TrimSpace(form.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "Collection name cannot be empty"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user := viewer(c)
	col := &models.Collection{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Owner:     user.ID,
		Posts:     []primitive.ObjectID{},
		CreatedAt: time.Now(),
	}
	if err := h.store.Collections.Create(ctx, col); err != nil {
		logError(c, "CreateCollection", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	if err := h.store.Users.AddCollection(ctx, user.ID, col.ID); err != nil {
		logError(c, "CreateCollection", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "collection": col})
}

// AddToCollection files a post into one of the viewer's collections.
func (h *Handler) AddToCollection(c *gin.Context) {
	colID, err1 := primitive.ObjectIDFromHex(c.Param("id"))
	postID, err2 := primitive.ObjectIDFromHex(c.Param("postId"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	col, err := h.store.Collections.FindByID(ctx, colID)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false})
		return
	}
	if err != nil {
		logError(c, "AddToCollection", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	if col.Owner != viewer(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"ok": false})
		return
	}

	if _, err := h.store.Posts.FindByID(ctx, postID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false})
			return
		}
		logError(c, "AddToCollection", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	if err := h.store.Collections.AddPost(ctx, colID, postID); err != nil {
		logError(c, "AddToCollection", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
