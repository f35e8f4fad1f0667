// Package seed fills the explore feed with official posts.
package seed

import (
	"context"
	"fmt"

	"glammate/database"
	"glammate/models"

	"github.com/rs/zerolog/log"
)

type samplePost struct {
	Title       string
	Description string
	Image       string
	Name        string
	Avatar      string
	Tags        []string
}

var samples = []samplePost{
	{
		Title:       "Chic Summer Set",
		Description: "Light linen matching set.",
		Image:       "https://i.pinimg.com/1200x/73/d2/c2/73d2c29012fdaab259bb4fb3f76e8bf8.jpg",
		Name:        "GlamKate",
		Avatar:      "/images/reviewer1.jpg",
		Tags:        []string{"summer", "linen"},
	},
	{
		Title:       "Midnight Gown",
		Description: "Silk evening gown with minimal jewelry.",
		Image:       "https://i.pinimg.com/1200x/fd/f1/a8/fdf1a81488a31a71d71ded8c5da2405f.jpg",
		Name:        "Noor",
		Avatar:      "/images/reviewer2.jpg",
		Tags:        []string{"evening", "gown"},
	},
	{
		Title:       "Street Sport Luxe",
		Description: "Chunky sneakers and oversized jacket.",
		Image:       "https://i.pinimg.com/736x/ae/72/da/ae72da6254a002f127121d7bf9722aab.jpg",
		Name:        "Aanya",
		Avatar:      "/images/reviewer3.jpg",
		Tags:        []string{"street", "casual"},
	},
}

// Run inserts the sample posts that are not stored yet and returns how many
// were added. Running it twice adds nothing.
func Run(ctx context.Context, posts database.PostRepository) (int, error) {
	var missing []*models.Post
	for _, s := range samples {
		exists, err := posts.ExistsUnattributed(ctx, s.Title, s.Name)
		if err != nil {
			return 0, fmt.Errorf("check %q: %w", s.Title, err)
		}
		if exists {
			log.Info().Str("title", s.Title).Msg("skipped, already exists")
			continue
		}
		p := models.NewPost([]string{s.Image})
		p.Title = s.Title
		p.Description = s.Description
		p.UploadedByName = s.Name
		p.UploadedByAvatar = s.Avatar
		p.Tags = append([]string(nil), s.Tags...)
		missing = append(missing, p)
	}

	if err := posts.InsertMany(ctx, missing); err != nil {
		return 0, fmt.Errorf("insert posts: %w", err)
	}
	for _, p := range missing {
		log.Info().Str("title", p.Title).Msg("inserted")
	}
	return len(missing), nil
}
