package seed

import (
	"context"
	"testing"

	"glammate/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemory().Store()

	n, err := Run(ctx, store.Posts)
	require.NoError(t, err)
	assert.Equal(t, len(samples), n)

	n, err = Run(ctx, store.Posts)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := store.Posts.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(samples), count)

	posts, err := store.Posts.List(ctx, 0, 10)
	require.NoError(t, err)
	for _, p := range posts {
		assert.Nil(t, p.UploadedBy, "seeded posts are unattributed")
		assert.NotEmpty(t, p.Images)
		assert.NotNil(t, p.Likes)
	}
}
