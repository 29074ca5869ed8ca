package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"inkpost/internal/config"
	"inkpost/internal/db"
	"inkpost/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// rootCmd runs the HTTP server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "inkpost",
	Short: "Inkpost blogging API",
	Long: `Inkpost serves the blogging API: posts with markdown content and tags,
upvotes and bookmarks, and AI-assisted writing suggestions.

Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config, installs the logger and opens the database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(logger.Config{
		Environment: cfg.App.Environment,
		Level:       cfg.App.LogLevel,
	})

	gdb, err := db.Open(cfg.Database, cfg.IsProduction())
	if err != nil {
		return nil, nil, err
	}
	return cfg, gdb, nil
}

func closeDB(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}
