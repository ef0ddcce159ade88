// Package main is the entrypoint for the ops API server.
//
// The ops API exposes watchlist inspection and reload plus dry-run
// classification for scoring-config previews. It runs as a standard HTTP
// server with graceful shutdown; deployments front it with a load balancer
// that probes GET /health.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"platewatch/internal/api"
	"platewatch/internal/config"
	"platewatch/internal/db"
	"platewatch/internal/plate"
	"platewatch/internal/risk"
	"platewatch/internal/watchlist"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With("service", cfg.Service)

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	store := watchlist.NewStore(
		db.NewWatchlistRepository(pool),
		logger,
		watchlist.WithAllowEmpty(cfg.Watchlist.AllowEmpty),
	)
	if err := store.Load(ctx); err != nil {
		logger.Warn("initial watchlist load failed, will retry on first lookup", "error", err)
	}

	srv, err := api.NewServer(api.ServerConfig{
		Store:      store,
		Resolver:   plate.NewResolver(store, logger),
		Classifier: risk.NewClassifier(risk.ScoringConfigFrom(cfg.Risk)),
		Logger:     logger,
		APIKeyHash: cfg.Server.APIKeyHash,
		Probes:     []api.HealthProbe{db.NewPingProbe(pool)},
	})
	if err != nil {
		logger.Error("failed to construct server", "error", err)
		os.Exit(1)
	}

	if err := run(srv, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run starts the HTTP server and blocks until a shutdown signal or a fatal
// server error, then drains with a 10-second deadline.
func run(srv *api.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}
