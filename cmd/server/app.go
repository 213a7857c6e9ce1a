package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/lingdou-api/internal/api"
	"github.com/phrazzld/lingdou-api/internal/config"
	"github.com/phrazzld/lingdou-api/internal/domain/mastery"
	"github.com/phrazzld/lingdou-api/internal/events"
	"github.com/phrazzld/lingdou-api/internal/platform/cache"
	"github.com/phrazzld/lingdou-api/internal/platform/grader"
	"github.com/phrazzld/lingdou-api/internal/platform/postgres"
	"github.com/phrazzld/lingdou-api/internal/platform/tracing"
	"github.com/phrazzld/lingdou-api/internal/service/auth"
	"github.com/phrazzld/lingdou-api/internal/service/catalog"
	"github.com/phrazzld/lingdou-api/internal/service/ledger"
	"github.com/phrazzld/lingdou-api/internal/service/progress"
	"github.com/phrazzld/lingdou-api/internal/service/shop"
	"github.com/phrazzld/lingdou-api/internal/service/training"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// cacheKeyPrefix namespaces every Redis key of the application.
const cacheKeyPrefix = "lingdou:"

// application holds the shared dependencies and releases them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	uow     store.UnitOfWork
	cache   cache.Cache
	emitter *events.InMemoryEventEmitter

	jwtService      auth.JWTService
	catalogService  catalog.Service
	progressService *progress.DefaultService
	ledgerService   ledger.Service
	shopService     shop.Service
	trainingService training.Service

	closers []func(context.Context) error
}

// newApplication wires the services on top of an open database.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{config: cfg, logger: logger, db: db}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.closers = append(app.closers, shutdownTracing)

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.cache, err = newCache(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	if c, ok := app.cache.(*cache.RedisCache); ok {
		app.closers = append(app.closers, func(context.Context) error { return c.Close() })
	}
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second

	policy, err := mastery.LoadPolicy(cfg.Policy.MasteryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load mastery policy: %w", err)
	}

	gr, err := grader.New(ctx, cfg.Grader, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize grader: %w", err)
	}
	logger.Info("grader initialized", slog.String("provider", cfg.Grader.Provider))

	app.uow = postgres.NewUnitOfWork(db, logger)
	app.emitter = events.NewInMemoryEventEmitter(logger)

	app.catalogService, err = catalog.NewService(app.uow.Stores().Catalog, app.cache, ttl, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog service: %w", err)
	}
	app.progressService, err = progress.NewService(progress.Deps{
		UnitOfWork: app.uow,
		Catalog:    app.catalogService,
		Policy:     policy,
		Cache:      app.cache,
		CacheTTL:   ttl,
		Emitter:    app.emitter,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create progress service: %w", err)
	}
	app.ledgerService, err = ledger.NewService(app.uow, app.emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger service: %w", err)
	}
	app.shopService, err = shop.NewService(app.uow, app.emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create shop service: %w", err)
	}
	app.trainingService, err = training.NewService(training.Deps{
		UnitOfWork: app.uow,
		Catalog:    app.catalogService,
		Grader:     gr,
		Policy:     policy,
		Emitter:    app.emitter,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create training service: %w", err)
	}

	// Progress changes invalidate the cached leaderboards.
	app.emitter.RegisterHandler(app.progressService, events.SessionFinished, events.TopicLearned)

	logger.Info("application initialized")
	return app, nil
}

// newCache connects to Redis when an address is configured and falls back
// to an in-process cache otherwise.
func newCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-process cache")
		return cache.NewMemoryCache(), nil
	}
	c, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cacheKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("using redis cache")
	return c, nil
}

func (app *application) router() http.Handler {
	return api.NewRouter(api.RouterDeps{
		JWT:      app.jwtService,
		Training: app.trainingService,
		Ledger:   app.ledgerService,
		Progress: app.progressService,
		Shop:     app.shopService,
		Ping:     app.db.PingContext,
		Logger:   app.logger,
	})
}

// Run serves HTTP until ctx is canceled or a shutdown signal arrives.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.router()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources in reverse order of acquisition.
func (app *application) cleanup(ctx context.Context) error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	app.logger.Info("application shutdown completed")
	return errors.Join(errs...)
}
