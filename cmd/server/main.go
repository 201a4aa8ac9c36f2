// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

// Command server hosts the Quillfeed core over HTTP. It is the composition
// root: every service instance is constructed here and passed down by
// reference; there is no ambient global state.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/quillfeed/quillfeed/internal/api"
	"github.com/quillfeed/quillfeed/internal/config"
	"github.com/quillfeed/quillfeed/internal/feed"
	"github.com/quillfeed/quillfeed/internal/logging"
	"github.com/quillfeed/quillfeed/internal/metrics"
	"github.com/quillfeed/quillfeed/internal/pagecache"
	"github.com/quillfeed/quillfeed/internal/paginate"
)

// shutdownGrace bounds how long in-flight requests get on shutdown.
const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	catalog, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info().Int("stories", len(catalog)).Msg("catalog loaded")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := api.Deps{
		Logger:   logger,
		Metrics:  metrics.New(registry),
		Registry: registry,
		Catalog:  catalog,
		Builder:  feed.NewBuilder(cfg.Feed, logger),
		Explorer: feed.NewExplorer(cfg.Explore, logger),
		Paginator: paginate.NewEngine(cfg.Pagination.Layout, paginate.FixedMetrics{
			CharWidth:  cfg.Pagination.CharWidth,
			LineHeight: cfg.Pagination.LineHeight,
		}, logger),
		Cache: pagecache.New(cfg.Cache.Capacity),
		Viewport: paginate.Viewport{
			Width:  cfg.Pagination.ViewportWidth,
			Height: cfg.Pagination.ViewportHeight,
		},
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.New(cfg.Server, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	return serve(srv, logger)
}

// serve runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func serve(srv *http.Server, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// loadCatalog reads the ordered story list from a JSON file. An empty path
// yields an empty catalog so the server can start without content.
func loadCatalog(path string) ([]feed.Story, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var catalog []feed.Story
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	return catalog, nil
}
