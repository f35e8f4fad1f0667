package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const OfficialUploader = "GlamMate"

type Post struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title            string               `bson:"title" json:"title"`
	Description      string               `bson:"description" json:"description"`
	Caption          string               `bson:"caption" json:"caption"`
	Images           []string             `bson:"images" json:"images"`
	Tags             []string             `bson:"tags" json:"tags"`
	Filter           string               `bson:"filter,omitempty" json:"filter,omitempty"`
	UploadedBy       *primitive.ObjectID  `bson:"uploadedBy,omitempty" json:"uploadedBy,omitempty"` // nil for official posts
	UploadedByName   string               `bson:"uploadedByName" json:"uploadedByName"`
	UploadedByAvatar string               `bson:"uploadedByAvatar" json:"uploadedByAvatar"`
	Likes            []primitive.ObjectID `bson:"likes" json:"likes"`
	Saves            []primitive.ObjectID `bson:"saves" json:"saves"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
}

// NewPost returns an unattributed post with empty like/save sets.
func NewPost(images []string) *Post {
	return &Post{
		ID:               primitive.NewObjectID(),
		Images:           images,
		Tags:             []string{},
		UploadedByName:   OfficialUploader,
		UploadedByAvatar: DefaultAvatar,
		Likes:            []primitive.ObjectID{},
		Saves:            []primitive.ObjectID{},
		CreatedAt:        time.Now(),
	}
}

// AttributeTo snapshots the uploader's name and avatar onto the post.
func (p *Post) AttributeTo(u *User) {
	id := u.ID
	p.UploadedBy = &id
	if u.Username != "" {
		p.UploadedByName = u.Username
	}
	if u.Avatar != "" {
		p.UploadedByAvatar = u.Avatar
	}
}
