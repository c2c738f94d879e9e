// Package main runs the bundled coordinate authority: a small HTTP service
// that owns pin positions in the pin_positions table. The map API reaches it
// through AUTHORITY_URL.
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
	"github.com/ecomonitor/aquamap/internal/middleware"
	"github.com/ecomonitor/aquamap/internal/repo"
)

func main() {
	cfg, err := config.LoadAuthority()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := app.OpenPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := app.Migrate(ctx, pool); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Handle("/metrics", promhttp.Handler())
	authority.NewServer(repo.NewPositionRepo(pool)).Routes(r)

	if err := app.Serve(app.NewHTTPServer(cfg.Port, r)); err != nil {
		slog.Error("server error", "error", err)
		pool.Close()
		os.Exit(1)
	}
}
