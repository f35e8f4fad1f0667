package database

import (
	"context"

	"glammate/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToggleResult is the state of a membership set after a toggle.
type ToggleResult struct {
	Count  int
	Member bool
}

// ProfileUpdate carries the profile fields to overwrite; nil fields are left alone.
type ProfileUpdate struct {
	Bio     *string
	AboutMe *string
	Avatar  *string
	Banner  *string
}

func (p ProfileUpdate) empty() bool {
	return p.Bio == nil && p.AboutMe == nil && p.Avatar == nil && p.Banner == nil
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	// ConfirmOTP marks the user verified and clears the code, but only while
	// the stored code still equals code. Otherwise it returns ErrNotFound.
	ConfirmOTP(ctx context.Context, id primitive.ObjectID, code string) (*models.User, error)
	SetUsername(ctx context.Context, id primitive.ObjectID, username string) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error
	Search(ctx context.Context, q string, limit int64) ([]models.Profile, error)
	// ToggleFollow flips actor in target's followers and mirrors the change
	// into actor's following. The result describes target's followers.
	ToggleFollow(ctx context.Context, actor, target primitive.ObjectID) (ToggleResult, error)
	AddCollection(ctx context.Context, userID, collectionID primitive.ObjectID) error
}

type PostRepository interface {
	Create(ctx context.Context, p *models.Post) error
	InsertMany(ctx context.Context, posts []*models.Post) error
	// ExistsUnattributed reports whether an official post with this title and
	// display name is already stored.
	ExistsUnattributed(ctx context.Context, title, uploadedByName string) (bool, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	// List returns posts newest first.
	List(ctx context.Context, skip, limit int64) ([]models.Post, error)
	Count(ctx context.Context) (int64, error)
	ListByUploader(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error)
	ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (ToggleResult, error)
	ToggleSave(ctx context.Context, postID, userID primitive.ObjectID) (ToggleResult, error)
}

type CollectionRepository interface {
	Create(ctx context.Context, c *models.Collection) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Collection, error)
	ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Collection, error)
	CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
	AddPost(ctx context.Context, id, postID primitive.ObjectID) error
}

type SessionRepository interface {
	Find(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id string) error
}
