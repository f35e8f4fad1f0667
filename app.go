package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"glammate/auth"
	"glammate/config"
	"glammate/database"
	"glammate/mailer"
	"glammate/media"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsRelease() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
}

// storage is an opened store with its health check and shutdown hook.
type storage struct {
	store   *database.Store
	healthy func(ctx context.Context) error
	close   func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.Store == "memory" {
		log.Warn().Msg("using in-memory store, data is lost on exit")
		return &storage{
			store: database.NewMemory().Store(),
			close: func(context.Context) error { return nil },
		}, nil
	}

	var (
		db  *database.DB
		err error
	)
	for attempt := 1; attempt <= 3; attempt++ {
		db, err = database.ConnectMongo(ctx, cfg.MongoURL, cfg.MongoDB)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("MongoDB connection failed")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = db.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return &storage{
		store:   db.Store(),
		healthy: func(ctx context.Context) error { return db.Client.Ping(ctx, nil) },
		close:   db.Disconnect,
	}, nil
}

func newCodeSender(cfg *config.Config) (auth.CodeSender, error) {
	if !cfg.MailEnabled() {
		log.Warn().Msg("EMAIL_USER/EMAIL_PASS not set, OTP codes are only logged")
		return mailer.LogMailer{}, nil
	}
	return mailer.NewSMTPMailer(mailer.Settings{
		Host:            cfg.EmailHost,
		Port:            cfg.EmailPort,
		Username:        cfg.EmailUser,
		Password:        cfg.EmailPass,
		ValidityMinutes: int(auth.OTPValidity / time.Minute),
	})
}

func newImageStore(cfg *config.Config) (media.ImageStore, error) {
	if cfg.CloudinaryURL != "" {
		log.Info().Msg("storing images on Cloudinary")
		return media.NewCloudinaryStore(cfg.CloudinaryURL, "glammate")
	}
	log.Info().Str("dir", cfg.UploadDir).Msg("storing images on local disk")
	return media.NewDiskStore(cfg.UploadDir, "/uploads"), nil
}
