package auth

import (
	"context"
	"errors"
	"fmt"

	"glammate/database"
	"glammate/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resolver turns session state into the acting user.
type Resolver struct {
	users database.UserRepository
}

func NewResolver(users database.UserRepository) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the viewer for sess, or nil for an anonymous request. The
// federated signal wins over the local one; ids that point at missing users
// are ignored. Only store failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, sess *models.Session) (*Viewer, error) {
	if sess == nil {
		return nil, nil
	}

	if sess.FederatedUserID != nil {
		user, err := r.load(ctx, *sess.FederatedUserID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return &Viewer{User: user, Source: SourceFederated}, nil
		}
	}

	if sess.UserID != nil {
		user, err := r.load(ctx, *sess.UserID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return &Viewer{User: user, Source: SourceLocal}, nil
		}
	}
	return nil, nil
}

func (r *Resolver) load(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := r.users.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user %s: %w", id.Hex(), err)
	}
	return user, nil
}
