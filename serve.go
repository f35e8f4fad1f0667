package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"glammate/auth"
	"glammate/config"
	"glammate/handlers"
	"glammate/media"
	"glammate/middleware"
	"glammate/routes"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg)
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	sender, err := newCodeSender(cfg)
	if err != nil {
		return err
	}
	images, err := newImageStore(cfg)
	if err != nil {
		return err
	}

	var google handlers.GoogleAuth
	if cfg.GoogleEnabled() {
		google = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
		log.Info().Msg("Google OAuth configured")
	} else {
		log.Warn().Msg("Google OAuth not configured, set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}

	h := handlers.New(handlers.Deps{
		Store:   st.store,
		Auth:    auth.NewService(st.store.Users, sender),
		Linker:  auth.NewLinker(st.store.Users),
		Google:  google,
		State:   auth.NewStateSigner(cfg.SessionSecret),
		Images:  images,
		Healthy: st.healthy,
	})
	sessions := middleware.NewSessionManager(st.store.Sessions, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)

	opts := routes.Options{
		CORSOrigins:   cfg.CORSOrigins,
		AuthRateLimit: cfg.AuthRateLimit,
	}
	if _, ok := images.(*media.DiskStore); ok {
		opts.UploadDir = cfg.UploadDir
	}
	router := routes.SetupRouter(h, sessions, auth.NewResolver(st.store.Users), opts)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
	return nil
}
