// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/quillfeed/quillfeed/internal/feed"
	"github.com/quillfeed/quillfeed/internal/logging"
)

// Feed limits applied when the request leaves them unset or out of range.
const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// server holds the handler state. Core services are shared and safe for
// concurrent use; per-reader session state is guarded by readersMu.
type server struct {
	deps         Deps
	catalogIndex map[string]feed.Story

	readersMu sync.Mutex
	readers   map[string]*readerState
}

// readerState is the host-held mutable state for one reader: a session
// tracker and the stats that finished sessions fold into.
type readerState struct {
	stats   *feed.EngagementStats
	tracker *feed.Tracker
}

func newServer(deps Deps) *server {
	index := make(map[string]feed.Story, len(deps.Catalog))
	for _, story := range deps.Catalog {
		index[story.ID] = story
	}
	return &server{
		deps:         deps,
		catalogIndex: index,
		readers:      make(map[string]*readerState),
	}
}

// reader returns the state for a reader id, creating it on first use.
func (s *server) reader(id string) *readerState {
	s.readersMu.Lock()
	defer s.readersMu.Unlock()

	st, ok := s.readers[id]
	if !ok {
		st = &readerState{
			stats:   feed.NewEngagementStats(),
			tracker: feed.NewTracker(s.deps.Logger),
		}
		s.readers[id] = st
	}
	return st
}

// feedRequest is the snapshot-in-request contract: the profile and stats
// are supplied by the persistence collaborator, never stored here.
type feedRequest struct {
	Profile     feed.PreferenceProfile `json:"profile"`
	Stats       feed.EngagementStats   `json:"stats"`
	Limit       int                    `json:"limit"`
	ExcludeRead bool                   `json:"exclude_read"`
}

func (s *server) handleFeed(w http.ResponseWriter, r *http.Request) {
	var req feedRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.deps.Metrics.FeedRequests.Inc()
	start := time.Now()
	stories := s.deps.Builder.PersonalizedFeed(
		s.deps.Catalog, &req.Profile, &req.Stats, clampLimit(req.Limit), req.ExcludeRead)
	s.deps.Metrics.FeedBuildSeconds.Observe(time.Since(start).Seconds())

	s.writeJSON(w, http.StatusOK, map[string]any{"stories": storiesOrEmpty(stories)})
}

func (s *server) handleExplore(w http.ResponseWriter, r *http.Request) {
	var req feedRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.deps.Metrics.ExploreRequests.Inc()
	stories := s.deps.Explorer.Feed(s.deps.Catalog, &req.Profile, &req.Stats, clampLimit(req.Limit))

	s.writeJSON(w, http.StatusOK, map[string]any{"stories": storiesOrEmpty(stories)})
}

// handlePages returns the page sequence for a story, computing and caching
// it on first request. The cache is only ever written with a complete
// sequence.
func (s *server) handlePages(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "storyID")

	if doc, ok := s.deps.Cache.Get(storyID); ok {
		s.deps.Metrics.CacheHits.Inc()
		s.writeJSON(w, http.StatusOK, doc)
		return
	}
	s.deps.Metrics.CacheMisses.Inc()

	story, ok := s.catalogIndex[storyID]
	if !ok {
		s.writeError(w, http.StatusNotFound, "story not found")
		return
	}

	doc := s.deps.Paginator.Paginate(story.Title, story.Category, story.Text(), s.deps.Viewport)
	s.deps.Metrics.PaginatedPages.Add(float64(len(doc.Pages)))
	if doc.Truncated {
		s.deps.Metrics.PaginationTruncated.Inc()
	}
	s.deps.Cache.Set(storyID, doc)

	s.writeJSON(w, http.StatusOK, doc)
}

// handleCachePressure is the host's memory-pressure signal: it evicts the
// least-recently-used half of the page cache.
func (s *server) handleCachePressure(w http.ResponseWriter, r *http.Request) {
	evicted := s.deps.Cache.HandleMemoryPressure()

	s.deps.Logger.Info().
		Str("correlation_id", logging.CorrelationIDFromContext(r.Context())).
		Int("evicted", evicted).
		Msg("memory pressure eviction")

	s.writeJSON(w, http.StatusOK, map[string]int{"evicted": evicted})
}

func (s *server) handleReaderStats(w http.ResponseWriter, r *http.Request) {
	st := s.reader(chi.URLParam(r, "readerID"))

	s.readersMu.Lock()
	defer s.readersMu.Unlock()
	s.writeJSON(w, http.StatusOK, st.stats)
}

type sessionStartRequest struct {
	StoryID    string `json:"story_id"`
	TotalPages int    `json:"total_pages"`
}

func (s *server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req sessionStartRequest
	if !s.decode(w, r, &req) {
		return
	}

	story, ok := s.catalogIndex[req.StoryID]
	if !ok {
		s.writeError(w, http.StatusNotFound, "story not found")
		return
	}

	st := s.reader(chi.URLParam(r, "readerID"))
	st.tracker.StartReading(story, req.TotalPages)
	w.WriteHeader(http.StatusNoContent)
}

type sessionPageRequest struct {
	Index int `json:"index"`
}

func (s *server) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	var req sessionPageRequest
	if !s.decode(w, r, &req) {
		return
	}

	st := s.reader(chi.URLParam(r, "readerID"))
	st.tracker.RecordPageView(req.Index)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSessionLike(w http.ResponseWriter, r *http.Request) {
	st := s.reader(chi.URLParam(r, "readerID"))
	st.tracker.RecordLike()
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionEnd finalizes the active session, folds it into the reader's
// stats, and returns the record for the persistence collaborator. Ending
// with no active session is a no-op, not an error.
func (s *server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	st := s.reader(chi.URLParam(r, "readerID"))

	rec, ok := st.tracker.EndReading()
	if !ok {
		s.writeJSON(w, http.StatusOK, map[string]any{"session": nil})
		return
	}

	s.readersMu.Lock()
	st.stats.Fold(rec)
	s.readersMu.Unlock()
	s.deps.Metrics.SessionsCompleted.Inc()

	s.writeJSON(w, http.StatusOK, map[string]any{"session": rec})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clampLimit applies the default and maximum feed limits.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultFeedLimit
	}
	if limit > maxFeedLimit {
		return maxFeedLimit
	}
	return limit
}

// storiesOrEmpty keeps JSON responses at [] instead of null.
func storiesOrEmpty(stories []feed.Story) []feed.Story {
	if stories == nil {
		return []feed.Story{}
	}
	return stories
}

// decode reads the JSON request body, writing a 400 response on failure.
func (s *server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.deps.Logger.Error().Err(err).Msg("encode response")
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
