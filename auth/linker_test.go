package auth

import (
	"context"
	"testing"

	"glammate/database"
	"glammate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinker_Link(t *testing.T) {
	ctx := context.Background()
	profile := FederatedProfile{ID: "g-42", Email: "Kate@X.com", Name: "Kate", Picture: "https://lh3/p.jpg"}

	t.Run("existing google id", func(t *testing.T) {
		store := database.NewMemory().Store()
		u := models.NewUser("old@x.com")
		u.GoogleID = "g-42"
		require.NoError(t, store.Users.Create(ctx, u))

		got, err := NewLinker(store.Users).Link(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("email owned by another google link", func(t *testing.T) {
		store := database.NewMemory().Store()
		u := models.NewUser("kate@x.com")
		u.GoogleID = "g-older"
		require.NoError(t, store.Users.Create(ctx, u))

		got, err := NewLinker(store.Users).Link(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("email owned by password account", func(t *testing.T) {
		store := database.NewMemory().Store()
		u := models.NewUser("kate@x.com")
		u.PasswordHash = "hash"
		u.IsVerified = true
		require.NoError(t, store.Users.Create(ctx, u))

		_, err := NewLinker(store.Users).Link(ctx, profile)
		assert.ErrorIs(t, err, ErrEmailRegisteredLocally)

		got, err := store.Users.FindByEmail(ctx, "kate@x.com")
		require.NoError(t, err)
		assert.Empty(t, got.GoogleID, "password account must not be taken over")
	})

	t.Run("new user", func(t *testing.T) {
		store := database.NewMemory().Store()

		got, err := NewLinker(store.Users).Link(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, "kate@x.com", got.Email)
		assert.Equal(t, "Kate", got.Name)
		assert.Equal(t, "g-42", got.GoogleID)
		assert.True(t, got.IsVerified)
		assert.Empty(t, got.Username)
		assert.Equal(t, "https://lh3/p.jpg", got.Avatar)

		again, err := NewLinker(store.Users).Link(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, got.ID, again.ID)
	})

	t.Run("incomplete profile", func(t *testing.T) {
		store := database.NewMemory().Store()
		_, err := NewLinker(store.Users).Link(ctx, FederatedProfile{ID: "g-1"})
		assert.ErrorIs(t, err, ErrIncompleteProfile)
	})
}
