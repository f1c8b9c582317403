// Package main is the entry point for the travel journal server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
//  1. Read configuration (config file, then environment variables)
//  2. Create dependencies (logger)
//  3. Hand over to the server, or run a maintenance command
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, ...).
//
// COMMANDS:
//
//	travel-journal              same as "serve"
//	travel-journal serve        run the HTTP API
//	travel-journal migrate up   apply pending migrations
//	travel-journal migrate down roll back the latest migration
//	travel-journal migrate status
//	travel-journal version
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/travel-journal/internal/config"
	sqliteRepo "github.com/sakif/travel-journal/internal/repository/sqlite"
	"github.com/sakif/travel-journal/internal/server"
)

const (
	Version = "0.1.0"
	appName = "travel-journal"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Travel journal API server",
		Long: `Travel journal is a REST API for recording trips: routes through
cities, photos, a public feed and per-user travel statistics.

Configuration comes from an optional YAML file (--config) and environment
variables (PORT, DB_PATH, JWT_SECRET, UPLOAD_DIR, ...), the latter winning.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), flags)
			},
		},
		migrateCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func migrateCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(flags, func(logger *slog.Logger, db *sqliteRepo.DB) error {
					results, err := db.MigrateUp(cmd.Context())
					if err != nil {
						return err
					}
					if len(results) == 0 {
						logger.Info("schema is up to date")
					}
					for _, r := range results {
						logger.Info("migration applied",
							slog.Int64("version", r.Source.Version),
							slog.String("file", r.Source.Path),
							slog.Duration("took", r.Duration),
						)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(flags, func(logger *slog.Logger, db *sqliteRepo.DB) error {
					r, err := db.MigrateDown(cmd.Context())
					if err != nil {
						return err
					}
					logger.Info("migration rolled back",
						slog.Int64("version", r.Source.Version),
						slog.String("file", r.Source.Path),
					)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(flags, func(logger *slog.Logger, db *sqliteRepo.DB) error {
					statuses, err := db.MigrationStatus(cmd.Context())
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					for _, s := range statuses {
						applied := "pending"
						if !s.AppliedAt.IsZero() {
							applied = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
						fmt.Fprintf(out, "%5d  %-40s  %s\n", s.Source.Version, s.Source.Path, applied)
					}
					return nil
				})
			},
		},
	)

	return cmd
}

func runServe(ctx context.Context, flags *globalFlags) error {
	cfg, err := loadConfig(flags, true)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	return srv.Start(ctx)
}

// withDB opens the configured database without migrating it and hands it
// to fn. Migrations need no JWT secret, so the config is not validated as a
// whole.
func withDB(flags *globalFlags, fn func(*slog.Logger, *sqliteRepo.DB) error) error {
	cfg, err := loadConfig(flags, false)
	if err != nil {
		return err
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path (DB_PATH) is required")
	}
	logger := newLogger(cfg, os.Stderr)

	db, err := sqliteRepo.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return fn(logger.With(slog.String("database", cfg.Database.Path)), db)
}

func loadConfig(flags *globalFlags, validate bool) (*config.Config, error) {
	cfg, err := config.Resolve(flags.configPath, os.Getenv)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	} else if _, err := cfg.Log.SlogLevel(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger: JSON in production (or when
// log.format says so), human-readable text otherwise.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.Log.SlogLevel() // validated by loadConfig
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.JSONLogs() {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With(slog.String("service", appName))
}
