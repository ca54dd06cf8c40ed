// Package app assembles the store, cache, provider adapter and services from
// a Config. Both the server and the CLI commands start from here.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linkbridge/linkbridge/internal/cache"
	"github.com/linkbridge/linkbridge/internal/config"
	"github.com/linkbridge/linkbridge/internal/provider"
	"github.com/linkbridge/linkbridge/internal/repository"
	"github.com/linkbridge/linkbridge/internal/services"
	"github.com/linkbridge/linkbridge/internal/store"
)

// App holds the wired components. Close releases them.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB           *gorm.DB
	LinkRepo     *repository.GormLinkRepository
	ProviderRepo *repository.GormProviderRepository
	Cache        cache.LinkCache
	Adapter      *provider.Adapter
	Links        *services.LinkService
	Bridge       *services.BridgeService
	Providers    *services.ProviderService

	local *cache.LocalCache
	redis *redis.Client
}

// New opens the database (migrating it) and builds every service that does
// not run in the background.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := store.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		LinkRepo:     repository.NewLinkRepository(db),
		ProviderRepo: repository.NewProviderRepository(db),
		Cache:        cache.Nop{},
	}

	if err := a.buildCache(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Adapter = provider.NewAdapter(&http.Client{}, provider.Options{
		Timeout:        cfg.Provider.Timeout,
		MaxCorrections: cfg.Provider.MaxCorrections,
		MaxBodyBytes:   cfg.Provider.MaxBodyBytes,
		RawBodyLimit:   cfg.Provider.RawBodyLimit,
		UserAgent:      cfg.Provider.UserAgent,
	}, logger.Named("provider"))

	a.Links = services.NewLinkService(a.LinkRepo, a.Cache, services.LinkOptions{
		TokenLength: cfg.Token.Length,
		MaxAttempts: cfg.Token.MaxAttempts,
	}, logger.Named("links"))
	a.Bridge = services.NewBridgeService(a.Adapter, a.Links, a.ProviderRepo, cfg.Provider.DefaultName, logger.Named("bridge"))
	a.Providers = services.NewProviderService(a.ProviderRepo)
	return a, nil
}

func (a *App) buildCache(ctx context.Context) error {
	if !a.Config.Cache.Enabled {
		return nil
	}
	local, err := cache.NewLocalCache(a.Config.Cache.MaxItems, a.Config.Cache.TTL)
	if err != nil {
		return err
	}
	a.local = local
	a.Cache = local

	if a.Config.Cache.RedisAddr == "" {
		return nil
	}
	client, err := cache.Dial(ctx, a.Config.Cache.RedisAddr, a.Config.Cache.RedisPassword, a.Config.Cache.RedisDB)
	if err != nil {
		return fmt.Errorf("redirect cache: %w", err)
	}
	a.redis = client
	a.Cache = cache.NewTiered(local, cache.NewRedisCache(client, a.Config.Cache.TTL))
	a.Logger.Info("redis redirect cache enabled", zap.String("addr", a.Config.Cache.RedisAddr))
	return nil
}

// Redirects builds the redirect resolver around a visit recorder.
func (a *App) Redirects(visits services.VisitRecorder) *services.RedirectService {
	return services.NewRedirectService(a.LinkRepo, a.Cache, visits, a.Logger.Named("redirects"))
}

// Close releases the caches and the database. Errors are logged.
func (a *App) Close() {
	if a.local != nil {
		a.local.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.DB != nil {
		if err := store.Close(a.DB); err != nil {
			a.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
