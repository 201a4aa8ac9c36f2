// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

// Package api exposes the Quillfeed core over HTTP. The handlers are thin
// glue: all selection and pagination semantics live in the core packages.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/quillfeed/quillfeed/internal/config"
	"github.com/quillfeed/quillfeed/internal/feed"
	"github.com/quillfeed/quillfeed/internal/logging"
	"github.com/quillfeed/quillfeed/internal/metrics"
	"github.com/quillfeed/quillfeed/internal/pagecache"
	"github.com/quillfeed/quillfeed/internal/paginate"
)

// Deps are the constructed core services the handlers delegate to. The
// composition root owns every instance; the API holds references only.
type Deps struct {
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Catalog   []feed.Story
	Builder   *feed.Builder
	Explorer  *feed.Explorer
	Paginator *paginate.Engine
	Cache     *pagecache.Cache
	Viewport  paginate.Viewport
}

// New builds the HTTP handler tree.
func New(cfg config.ServerConfig, deps Deps) http.Handler {
	s := newServer(deps)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(correlationMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))
	r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/feed", s.handleFeed)
		r.Post("/explore", s.handleExplore)
		r.Get("/stories/{storyID}/pages", s.handlePages)
		r.Post("/cache/pressure", s.handleCachePressure)

		r.Route("/readers/{readerID}", func(r chi.Router) {
			r.Get("/stats", s.handleReaderStats)
			r.Post("/sessions/start", s.handleSessionStart)
			r.Post("/sessions/page", s.handleSessionPage)
			r.Post("/sessions/like", s.handleSessionLike)
			r.Post("/sessions/end", s.handleSessionEnd)
		})
	})

	return r
}

// correlationMiddleware stamps every request context with a correlation ID
// for log tracing.
func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWithNewCorrelationID(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
