// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/quillfeed/quillfeed/internal/config"
	"github.com/quillfeed/quillfeed/internal/feed"
	"github.com/quillfeed/quillfeed/internal/metrics"
	"github.com/quillfeed/quillfeed/internal/pagecache"
	"github.com/quillfeed/quillfeed/internal/paginate"
)

// testHarness bundles the handler with the collaborators tests inspect.
type testHarness struct {
	handler http.Handler
	cache   *pagecache.Cache
}

func newTestHarness(catalog []feed.Story) *testHarness {
	logger := zerolog.Nop()
	reg := prometheus.NewRegistry()
	cache := pagecache.New(8)

	deps := Deps{
		Logger:    logger,
		Metrics:   metrics.New(reg),
		Registry:  reg,
		Catalog:   catalog,
		Builder:   feed.NewBuilder(feed.DefaultBuilderConfig(), logger),
		Explorer:  feed.NewExplorer(feed.DefaultExplorerConfig(), logger),
		Paginator: paginate.NewEngine(paginate.DefaultConfig(), paginate.NewFixedMetrics(), logger),
		Cache:     cache,
		Viewport:  paginate.Viewport{Width: 390, Height: 744},
	}

	cfg := config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            8712,
		Timeout:         5 * time.Second,
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
		CORSOrigins:     []string{"*"},
	}
	return &testHarness{handler: New(cfg, deps), cache: cache}
}

func testCatalog() []feed.Story {
	categories := []string{"Science", "Art", "Crime", "War"}
	stories := make([]feed.Story, 0, 12)
	for i := 0; i < 12; i++ {
		stories = append(stories, feed.Story{
			ID:       fmt.Sprintf("s%02d", i),
			Title:    fmt.Sprintf("Story %d", i),
			Category: categories[i%len(categories)],
			Body:     strings.Repeat("lorem ipsum dolor sit amet ", 30),
		})
	}
	return stories
}

func (h *testHarness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
	return v
}

func TestHandleHealth(t *testing.T) {
	h := newTestHarness(nil)
	rec := h.do(t, http.MethodGet, "/healthz", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "ok" {
		t.Errorf("status body = %v", body)
	}
}

func TestHandleFeed(t *testing.T) {
	h := newTestHarness(testCatalog())

	req := map[string]any{
		"profile": feed.PreferenceProfile{Categories: []string{"Science", "Art"}},
		"limit":   6,
	}
	rec := h.do(t, http.MethodPost, "/api/v1/feed", req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string][]feed.Story](t, rec)
	stories := body["stories"]
	if len(stories) == 0 || len(stories) > 6 {
		t.Errorf("got %d stories, want 1..6", len(stories))
	}
}

func TestHandleFeed_BadJSON(t *testing.T) {
	h := newTestHarness(testCatalog())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/feed", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["error"] == "" {
		t.Error("error body missing")
	}
}

func TestHandleFeed_EmptyCatalogYieldsEmptyArray(t *testing.T) {
	h := newTestHarness(nil)

	rec := h.do(t, http.MethodPost, "/api/v1/feed", map[string]any{"limit": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"stories":[]`) {
		t.Errorf("empty feed should serialize as [], got %s", rec.Body.String())
	}
}

func TestHandleExplore(t *testing.T) {
	h := newTestHarness(testCatalog())

	req := map[string]any{
		"profile": feed.PreferenceProfile{Categories: []string{"Science"}},
		"limit":   10,
	}
	rec := h.do(t, http.MethodPost, "/api/v1/explore", req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody[map[string][]feed.Story](t, rec)
	for _, story := range body["stories"] {
		if story.Category == "Science" {
			t.Errorf("explore returned selected-category story %s", story.ID)
		}
	}
}

func TestHandlePages(t *testing.T) {
	h := newTestHarness(testCatalog())

	rec := h.do(t, http.MethodGet, "/api/v1/stories/s00/pages", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rec.Code, rec.Body.String())
	}
	// Decoding drains the recorder body, so keep the raw bytes first.
	firstBody := rec.Body.String()
	doc := decodeBody[paginate.Document](t, rec)
	if len(doc.Pages) == 0 || !doc.Pages[0].IsTitle() {
		t.Fatalf("expected title-led pages, got %d pages", len(doc.Pages))
	}

	if !h.cache.Contains("s00") {
		t.Error("document was not cached after first request")
	}

	// Second request must serve the identical cached document.
	rec2 := h.do(t, http.MethodGet, "/api/v1/stories/s00/pages", nil)
	if rec2.Body.String() != firstBody {
		t.Error("cached response differs from computed response")
	}
}

func TestHandlePages_UnknownStory(t *testing.T) {
	h := newTestHarness(testCatalog())

	rec := h.do(t, http.MethodGet, "/api/v1/stories/ghost/pages", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleCachePressure(t *testing.T) {
	h := newTestHarness(testCatalog())

	for _, id := range []string{"s00", "s01", "s02", "s03"} {
		h.do(t, http.MethodGet, "/api/v1/stories/"+id+"/pages", nil)
	}

	rec := h.do(t, http.MethodPost, "/api/v1/cache/pressure", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody[map[string]int](t, rec)
	if body["evicted"] != 2 {
		t.Errorf("evicted = %d, want 2", body["evicted"])
	}
	if h.cache.Len() != 2 {
		t.Errorf("cache len = %d, want 2", h.cache.Len())
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestHarness(testCatalog())
	base := "/api/v1/readers/r1/sessions"

	rec := h.do(t, http.MethodPost, base+"/start", map[string]any{"story_id": "s01", "total_pages": 4})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("start status = %d, want 204", rec.Code)
	}

	for _, idx := range []int{0, 1, 2} {
		rec = h.do(t, http.MethodPost, base+"/page", map[string]any{"index": idx})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("page status = %d, want 204", rec.Code)
		}
	}
	if rec = h.do(t, http.MethodPost, base+"/like", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("like status = %d, want 204", rec.Code)
	}

	rec = h.do(t, http.MethodPost, base+"/end", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("end status = %d, want 200", rec.Code)
	}
	body := decodeBody[map[string]feed.ArticleEngagement](t, rec)
	session := body["session"]
	if session.StoryID != "s01" || session.PagesViewed != 3 || !session.Liked {
		t.Errorf("session = %+v", session)
	}

	// The finished session is folded into the reader's stats.
	rec = h.do(t, http.MethodGet, "/api/v1/readers/r1/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", rec.Code)
	}
	stats := decodeBody[feed.EngagementStats](t, rec)
	if len(stats.ReadIDs) != 1 || stats.ReadIDs[0] != "s01" {
		t.Errorf("ReadIDs = %v, want [s01]", stats.ReadIDs)
	}
	if stats.CategoryLikes["Art"] != 1 {
		t.Errorf("CategoryLikes = %v, want Art:1", stats.CategoryLikes)
	}
}

func TestSessionStart_UnknownStory(t *testing.T) {
	h := newTestHarness(testCatalog())

	rec := h.do(t, http.MethodPost, "/api/v1/readers/r1/sessions/start",
		map[string]any{"story_id": "ghost", "total_pages": 4})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSessionEnd_NoActiveSession(t *testing.T) {
	h := newTestHarness(testCatalog())

	rec := h.do(t, http.MethodPost, "/api/v1/readers/r9/sessions/end", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"session":null`) {
		t.Errorf("expected null session, got %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHarness(testCatalog())
	h.do(t, http.MethodPost, "/api/v1/feed", map[string]any{"limit": 5})

	rec := h.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "quillfeed_feed_requests_total") {
		t.Error("feed request counter missing from exposition")
	}
}
