package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"glammate/database"
	"glammate/models"

	"github.com/rs/zerolog/log"
)

// FederatedProfile is what the OAuth provider tells us about the user.
type FederatedProfile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// Linker maps federated logins onto accounts, keeping one account per email.
type Linker struct {
	users database.UserRepository
}

func NewLinker(users database.UserRepository) *Linker {
	return &Linker{users: users}
}

// Link returns the account for p, creating it on first login. An email that
// belongs to a password account is refused with ErrEmailRegisteredLocally.
func (l *Linker) Link(ctx context.Context, p FederatedProfile) (*models.User, error) {
	p.Email = NormalizeEmail(p.Email)
	if p.ID == "" || p.Email == "" {
		return nil, ErrIncompleteProfile
	}

	user, err := l.lookup(ctx, p)
	if err == nil || !errors.Is(err, database.ErrNotFound) {
		return user, err
	}

	user = models.NewUser(p.Email)
	user.GoogleID = p.ID
	user.Name = strings.TrimSpace(p.Name)
	user.IsVerified = true
	if p.Picture != "" {
		user.Avatar = p.Picture
	}

	if err := l.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// a concurrent callback created it first
			return l.lookup(ctx, p)
		}
		return nil, fmt.Errorf("create federated user: %w", err)
	}

	log.Info().Str("user_id", user.ID.Hex()).Msg("created user from google profile")
	return user, nil
}

// lookup resolves p against existing accounts and returns ErrNotFound when
// none claims it.
func (l *Linker) lookup(ctx context.Context, p FederatedProfile) (*models.User, error) {
	user, err := l.users.FindByGoogleID(ctx, p.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("find by google id: %w", err)
	}

	user, err = l.users.FindByEmail(ctx, p.Email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find by email: %w", err)
	}
	if !user.IsFederated() {
		return nil, ErrEmailRegisteredLocally
	}
	return user, nil
}
