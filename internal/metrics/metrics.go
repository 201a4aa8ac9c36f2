// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

// Package metrics defines the Prometheus collectors for the feed,
// pagination, and cache subsystems.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace prefixes all Quillfeed metric names.
const namespace = "quillfeed"

// Metrics holds the application collectors, registered on construction.
type Metrics struct {
	FeedRequests     prometheus.Counter
	ExploreRequests  prometheus.Counter
	FeedBuildSeconds prometheus.Histogram

	PaginatedPages      prometheus.Counter
	PaginationTruncated prometheus.Counter

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	SessionsCompleted prometheus.Counter
}

// New registers and returns the application metrics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FeedRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Personalized feed builds requested.",
		}),
		ExploreRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explore_requests_total",
			Help:      "Exploration feed builds requested.",
		}),
		FeedBuildSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_build_seconds",
			Help:      "Feed assembly latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		PaginatedPages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paginated_pages_total",
			Help:      "Pages produced by the pagination engine.",
		}),
		PaginationTruncated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pagination_truncated_total",
			Help:      "Stories truncated at the page ceiling.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_cache_hits_total",
			Help:      "Page cache hits.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_cache_misses_total",
			Help:      "Page cache misses.",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Reading sessions finalized and folded into stats.",
		}),
	}
}
