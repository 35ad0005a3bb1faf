// Package main implements the entry point for the parcel API server, which
// publishes the frontend settings, serves the static frontend assets and
// answers parcel lookups.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/phrazzld/parcel-api/internal/config"
	"github.com/phrazzld/parcel-api/internal/platform/logger"
	"github.com/phrazzld/parcel-api/internal/platform/postgres"
	"github.com/spf13/pflag"
)

// options holds the command-line flags.
type options struct {
	configPath string
	migrateCmd string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to a config file (default: ./config.yaml if present)")
	fs.StringVar(&opts.migrateCmd, "migrate", "", "run a migration command (up, up-by-one, down, reset, status, version) and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.migrateCmd != "" && !postgres.IsMigrationCommand(opts.migrateCmd) {
		return options{}, fmt.Errorf("unknown migration command %q", opts.migrateCmd)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	if err := run(context.Background(), opts); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, sets up logging and either executes a migration
// command or starts the HTTP server until it is shut down.
func run(ctx context.Context, opts options) error {
	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"api_base", cfg.Frontend.APIBase,
		"using_api", cfg.Frontend.UsingAPI,
		"database_configured", cfg.Database.URL != "",
		"cache_enabled", cfg.Cache.Enabled())

	if opts.migrateCmd != "" {
		return runMigration(ctx, cfg, opts.migrateCmd, l)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

func runMigration(ctx context.Context, cfg *config.Config, command string, l *slog.Logger) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url must be set to run migrations")
	}
	db, err := setupAppDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return postgres.Migrate(ctx, db, command, l)
}
