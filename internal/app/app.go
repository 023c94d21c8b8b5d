// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/appstore-api/internal/api"
	"github.com/JakeFAU/appstore-api/internal/cache"
	"github.com/JakeFAU/appstore-api/internal/cache/memory"
	"github.com/JakeFAU/appstore-api/internal/cache/postgres"
	"github.com/JakeFAU/appstore-api/internal/cache/redis"
	"github.com/JakeFAU/appstore-api/internal/config"
	"github.com/JakeFAU/appstore-api/internal/metrics"
	"github.com/JakeFAU/appstore-api/internal/policy/ratelimit"
	"github.com/JakeFAU/appstore-api/internal/scraper"
	"github.com/JakeFAU/appstore-api/internal/scraper/itunes"
)

// App holds the shared, long-lived services for the process: the scraper
// stack, the optional cache backend, and the HTTP server built on top of them.
type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Cache   cache.Store
	Scraper scraper.Scraper
	Server  *api.Server
}

// NewApp builds the collaborator stack from cfg. The returned scraper is the
// iTunes client wrapped with instrumentation and, when a backend is
// configured, a memoizing cache. It fails fast if the cache cannot be set up.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.RateLimit.RPS,
		DefaultBurst: cfg.RateLimit.Burst,
	})
	client := itunes.New(itunes.Config{
		ITunesBaseURL: cfg.Store.ITunesBaseURL,
		AppsBaseURL:   cfg.Store.AppsBaseURL,
		HintsBaseURL:  cfg.Store.HintsBaseURL,
		Country:       cfg.Store.Country,
		Lang:          cfg.Store.Lang,
		UserAgent:     cfg.Store.UserAgent,
		Timeout:       cfg.UpstreamTimeout(),
	}, limiter)

	var s scraper.Scraper = scraper.NewInstrumented(client, logger.Named("scraper"))

	store, err := newStore(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	var ready api.Pinger
	if store != nil {
		s = cache.New(s, store, cfg.CacheTTL(), logger.Named("cache"))
		ready = store
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Cache:   store,
		Scraper: s,
		Server:  api.NewServer(s, ready, cfg, logger.Named("api")),
	}, nil
}

func newStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (cache.Store, error) {
	switch cfg.Backend {
	case config.CacheNone, "":
		logger.Info("response cache disabled")
		return nil, nil
	case config.CacheMemory:
		logger.Info("using in-memory response cache")
		return memory.New(nil), nil
	case config.CacheRedis:
		logger.Info("using redis response cache", zap.String("addr", cfg.RedisAddr))
		store, err := redis.New(redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		return store, nil
	case config.CachePostgres:
		logger.Info("using postgres response cache", zap.String("table", cfg.PostgresTable))
		store, err := postgres.New(ctx, postgres.Config{
			DSN:   cfg.PostgresDSN,
			Table: cfg.PostgresTable,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres cache: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

// Close releases the cache backend and flushes the logger.
func (a *App) Close() {
	a.Logger.Info("shutting down application services")
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn("error closing cache backend", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
