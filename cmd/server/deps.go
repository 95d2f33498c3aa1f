package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/printforge/printforge/api/internal/config"
	"github.com/printforge/printforge/api/internal/middleware"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Databases    *Databases
	Repositories *Repositories
	Services     *Services
	Handlers     *Handlers

	// Middleware
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	CSRFMiddleware      *middleware.CSRFMiddleware
}

// initDependencies initializes all application dependencies
func initDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	ctx := context.Background()

	dbs, err := initDatabases(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	repos := initRepositories(dbs)
	svcs := initServices(cfg, logger, repos, dbs)
	handlers := initHandlers(logger, svcs, dbs, appVersion)

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimit.RequestsPerSecond > 0 {
		rateLimitCfg.Max = cfg.RateLimit.RequestsPerSecond
		rateLimitCfg.Window = time.Second
	}
	if !cfg.RateLimit.Enabled {
		rateLimitCfg.Skip = func(*fiber.Ctx) bool { return true }
	}

	return &Dependencies{
		Config:       cfg,
		Logger:       logger,
		Databases:    dbs,
		Repositories: repos,
		Services:     svcs,
		Handlers:     handlers,

		AuthMiddleware:      middleware.NewAuthMiddleware(svcs.Auth),
		RateLimitMiddleware: middleware.NewRateLimitMiddleware(dbs.Redis.Client, rateLimitCfg),
		CSRFMiddleware:      middleware.NewCSRFMiddleware(),
	}, nil
}

// Close closes all resources held by the dependencies
func (d *Dependencies) Close() {
	if d.Databases != nil {
		d.Databases.Close()
	}
}
