// Package main is the entry point for the aquamap map API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecomonitor/aquamap/internal/app"
	"github.com/ecomonitor/aquamap/internal/authority"
	"github.com/ecomonitor/aquamap/internal/config"
	"github.com/ecomonitor/aquamap/internal/geo"
	"github.com/ecomonitor/aquamap/internal/handler"
	"github.com/ecomonitor/aquamap/internal/middleware"
	"github.com/ecomonitor/aquamap/internal/repo"
	"github.com/ecomonitor/aquamap/internal/service"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	ctx := context.Background()
	pool, err := app.OpenPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := app.Migrate(ctx, pool); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}

	// --- Services ---------------------------------------------------------
	authorityClient := authority.NewClient(cfg.AuthorityURL, cfg.AuthorityTimeout)
	pinSvc := service.NewPinService(repo.NewPinRepo(pool))
	mapSvc := service.NewMapService(pinSvc, authorityClient, geo.Hidalgo)
	users := repo.NewUserRepo(pool)

	// --- Router -----------------------------------------------------------
	// RequestID → RealIP → SlogLogger → Recoverer → Metrics → CORS → body limit → identity.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewIdentity(cfg.JWTSecret, users))

	r.Handle("/metrics", promhttp.Handler())
	handler.NewServer(pinSvc, mapSvc).Routes(r, middleware.NewRateLimiter(cfg.RateLimitPerMinute))

	// --- HTTP Server ------------------------------------------------------
	if err := app.Serve(app.NewHTTPServer(cfg.Port, r)); err != nil {
		slog.Error("server error", "error", err)
		pool.Close()
		os.Exit(1)
	}
}
