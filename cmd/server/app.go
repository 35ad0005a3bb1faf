package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/parcel-api/internal/config"
	"github.com/phrazzld/parcel-api/internal/domain"
	"github.com/phrazzld/parcel-api/internal/frontend"
	"github.com/phrazzld/parcel-api/internal/metrics"
	"github.com/phrazzld/parcel-api/internal/platform/cache"
	"github.com/phrazzld/parcel-api/internal/platform/postgres"
	"github.com/phrazzld/parcel-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	settings frontend.Settings
	metrics  *metrics.Metrics

	db          *sql.DB
	redis       *redis.Client
	parcelStore store.ParcelStore
}

// newApplication creates a new application instance with all dependencies initialized.
// The database and cache are optional: without a database URL parcel lookups
// answer 503, without a redis address lookups go straight to the database.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	settings, err := frontend.New(cfg.Frontend)
	if err != nil {
		return nil, fmt.Errorf("invalid frontend settings: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := &application{
		config:      cfg,
		logger:      logger,
		settings:    settings,
		metrics:     metrics.New(reg),
		parcelStore: unavailableParcelStore(),
	}

	if cfg.Database.URL == "" {
		logger.Warn("no database configured, parcel lookups will be unavailable")
		return app, nil
	}

	app.db, err = setupAppDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	app.parcelStore = postgres.NewPostgresParcelStore(app.db, logger)

	if cfg.Cache.Enabled() {
		app.redis, err = cache.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to connect to cache: %w", err)
		}
		app.parcelStore = cache.NewCachedParcelStore(
			app.parcelStore,
			app.redis,
			time.Duration(cfg.Cache.TTLSeconds)*time.Second,
			app.metrics,
			logger,
		)
		logger.Info("Parcel cache enabled", "ttl_seconds", cfg.Cache.TTLSeconds)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis connection", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
	app.logger.Info("Application shutdown completed")
}

// unavailableParcelStore answers every lookup with store.ErrUnavailable.
func unavailableParcelStore() store.ParcelStore {
	return store.ParcelStoreFunc(func(ctx context.Context, parcelID string) (*domain.ParcelView, error) {
		return nil, fmt.Errorf("%w: no database configured", store.ErrUnavailable)
	})
}
