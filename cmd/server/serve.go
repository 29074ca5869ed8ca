package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"inkpost/internal/db"
	"inkpost/internal/handlers"
	"inkpost/internal/identity"
	"inkpost/internal/ratelimit"
	"inkpost/internal/router"
	"inkpost/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.PersistentFlags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not run migrations before serving")
}

func runServe(ctx context.Context) error {
	cfg, gdb, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeDB(gdb)

	if !skipMigrate {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	imageHost, err := services.NewImageHost(ctx, cfg.Image)
	if err != nil {
		return fmt.Errorf("image host: %w", err)
	}

	limiter := ratelimit.New(cfg.Suggestion.RPS, cfg.Suggestion.Burst)
	defer limiter.Stop()

	tags := services.NewTagService(gdb)
	engine := router.New(router.Handlers{
		Posts:     handlers.NewPostHandler(services.NewPostService(gdb, tags), services.NewListingService(gdb)),
		Upvotes:   handlers.NewUpvoteHandler(services.NewUpvoteService(gdb)),
		Bookmarks: handlers.NewBookmarkHandler(services.NewBookmarkService(gdb)),
		Suggestions: handlers.NewSuggestionHandler(
			services.NewLLMService(cfg.Suggestion),
			services.NewSummaryService(cfg.Suggestion),
			services.NewImageSearchService(cfg.Suggestion),
		),
		Images: handlers.NewImageHandler(imageHost),
		Health: handlers.NewHealthHandler(gdb),
	}, router.Options{
		SessionSecret: cfg.Auth.SessionSecret,
		SecureCookies: cfg.IsProduction(),
		Verifier:      identity.NewVerifier(cfg.Auth.IdentityTokenSecret),
		Users:         services.NewUserService(gdb),
		Limiter:       limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Inkpost server starting", "port", cfg.Server.Port, "env", cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
