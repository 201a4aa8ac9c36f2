// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

package feed

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Story is a single article in the catalog. Stories are read-only inputs to
// this package; they are owned by the catalog-fetching collaborator.
type Story struct {
	// ID is the unique story identifier.
	ID string `json:"id"`

	// Title is the story title.
	Title string `json:"title"`

	// Category is the single coarse-grained tag (may be empty).
	Category string `json:"category,omitempty"`

	// Tags is an optional list of fine-grained tags.
	Tags []string `json:"tags,omitempty"`

	// Body is the full article text. Empty when Sections is used instead.
	Body string `json:"body,omitempty"`

	// Sections is an optional structured representation of the body.
	Sections []Section `json:"sections,omitempty"`
}

// Section is one structured body fragment of a story.
type Section struct {
	Heading string `json:"heading,omitempty"`
	Body    string `json:"body"`
}

// Text reduces the story to a single body string. Stories with structured
// sections concatenate the section bodies; otherwise Body is returned as-is.
func (s Story) Text() string {
	if len(s.Sections) == 0 {
		return s.Body
	}

	parts := make([]string, 0, len(s.Sections))
	for _, sec := range s.Sections {
		if sec.Body != "" {
			parts = append(parts, sec.Body)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Era is the reader's preferred historical era.
type Era int

const (
	// EraBoth indicates no era preference.
	EraBoth Era = iota
	// EraAncient prefers pre-modern categories.
	EraAncient
	// EraModern prefers modern categories.
	EraModern
)

// String returns a human-readable era name.
func (e Era) String() string {
	switch e {
	case EraAncient:
		return "ancient"
	case EraModern:
		return "modern"
	case EraBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Tone is the reader's preferred narrative tone.
// Stories carry no tone metadata in the current catalog, so the scorer
// resolves this factor to a neutral constant; the preference is kept so the
// profile contract is stable when tone metadata arrives.
type Tone int

const (
	// ToneNeutral indicates no tone preference.
	ToneNeutral Tone = iota
	// ToneDramatic prefers dramatic storytelling.
	ToneDramatic
	// ToneLighthearted prefers lighter storytelling.
	ToneLighthearted
)

// String returns a human-readable tone name.
func (t Tone) String() string {
	switch t {
	case ToneDramatic:
		return "dramatic"
	case ToneLighthearted:
		return "lighthearted"
	case ToneNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// DiscoveryMode controls how adventurous feed assembly is.
type DiscoveryMode int

const (
	// DiscoveryBalanced mixes familiar and new content.
	DiscoveryBalanced DiscoveryMode = iota
	// DiscoveryComfort stays close to stated preferences.
	DiscoveryComfort
	// DiscoverySurprise favors out-of-preference content.
	DiscoverySurprise
)

// String returns a human-readable mode name.
func (m DiscoveryMode) String() string {
	switch m {
	case DiscoveryComfort:
		return "comfort"
	case DiscoveryBalanced:
		return "balanced"
	case DiscoverySurprise:
		return "surprise"
	default:
		return "unknown"
	}
}

// VarietyFactor maps the discovery mode to the probability of out-of-order
// picks in the fallback feed path.
func (m DiscoveryMode) VarietyFactor() float64 {
	switch m {
	case DiscoveryComfort:
		return 0.2
	case DiscoverySurprise:
		return 0.9
	default:
		return 0.5
	}
}

// PreferenceProfile is the reader's stated preferences. It is owned and
// persisted by the caller between invocations; this package only reads it.
type PreferenceProfile struct {
	// Categories is the ordered set of selected categories. The order is
	// used for round-robin quota allocation in the feed builder.
	Categories []string `json:"categories"`

	// Era is the preferred historical era.
	Era Era `json:"era"`

	// Tone is the preferred narrative tone.
	Tone Tone `json:"tone"`

	// Discovery controls the comfort/surprise balance.
	Discovery DiscoveryMode `json:"discovery"`

	// Tags is the set of selected fine-grained tags.
	Tags []string `json:"tags,omitempty"`

	// Conversions counts, per category, how often a discovery story from
	// that category was later liked.
	Conversions map[string]int `json:"conversions,omitempty"`
}

// HasCategory reports whether the category is explicitly selected.
func (p *PreferenceProfile) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// engagementHalfTime is the session duration treated as full engagement.
const engagementHalfTime = 120.0 // seconds

// ArticleEngagement is one reading session's measured interaction.
type ArticleEngagement struct {
	// StoryID is the story that was read.
	StoryID string `json:"story_id"`

	// Category is the story's category at session start.
	Category string `json:"category,omitempty"`

	// EnterTime is when the session started.
	EnterTime time.Time `json:"enter_time"`

	// ExitTime is when the session ended. Zero while the session is active.
	ExitTime time.Time `json:"exit_time,omitempty"`

	// PagesViewed is the highest page index reached plus one.
	PagesViewed int `json:"pages_viewed"`

	// TotalPages is the story's page count.
	TotalPages int `json:"total_pages"`

	// Liked reports whether the reader liked the story during the session.
	Liked bool `json:"liked"`
}

// Duration returns the session length, or zero for an unfinished session.
func (a ArticleEngagement) Duration() time.Duration {
	if a.ExitTime.IsZero() || a.ExitTime.Before(a.EnterTime) {
		return 0
	}
	return a.ExitTime.Sub(a.EnterTime)
}

// CompletionRate returns the fraction of pages viewed, in [0, 1].
func (a ArticleEngagement) CompletionRate() float64 {
	if a.TotalPages <= 0 {
		return 0
	}
	r := float64(a.PagesViewed) / float64(a.TotalPages)
	return math.Min(1, r)
}

// EngagementScore combines dwell time and completion into a [0, 1] score.
func (a ArticleEngagement) EngagementScore() float64 {
	t := math.Min(1, a.Duration().Seconds()/engagementHalfTime)
	return 0.5*t + 0.5*a.CompletionRate()
}

// CategoryEngagement is the rolling engagement aggregate for one category.
type CategoryEngagement struct {
	// AvgCompletionRate is the rolling average completion rate.
	AvgCompletionRate float64 `json:"avg_completion_rate"`

	// AvgDurationSeconds is the rolling average session duration.
	AvgDurationSeconds float64 `json:"avg_duration_seconds"`

	// TotalReads only ever increases.
	TotalReads int `json:"total_reads"`

	// TotalLikes only ever increases.
	TotalLikes int `json:"total_likes"`
}

// EngagementScore combines the rolling averages into a [0, 1] score.
func (c CategoryEngagement) EngagementScore() float64 {
	t := math.Min(1, c.AvgDurationSeconds/engagementHalfTime)
	return 0.5*t + 0.5*c.AvgCompletionRate
}

// maxTrackedArticles bounds the per-story engagement map; the oldest record
// by enter time is evicted when the cap is exceeded.
const maxTrackedArticles = 100

// EngagementStats is the reader's historical engagement, supplied as a
// read-only snapshot to the scorer and mutated only through Fold.
type EngagementStats struct {
	// ReadIDs is the append-only history of read story ids.
	ReadIDs []string `json:"read_ids,omitempty"`

	// CategoryReads counts finished sessions per category.
	CategoryReads map[string]int `json:"category_reads,omitempty"`

	// CategoryLikes counts likes per category.
	CategoryLikes map[string]int `json:"category_likes,omitempty"`

	// Articles holds the most recent session per story, capped at
	// maxTrackedArticles entries.
	Articles map[string]ArticleEngagement `json:"articles,omitempty"`

	// Categories holds the rolling per-category aggregates.
	Categories map[string]CategoryEngagement `json:"categories,omitempty"`
}

// NewEngagementStats returns empty, initialized stats.
func NewEngagementStats() *EngagementStats {
	return &EngagementStats{
		CategoryReads: make(map[string]int),
		CategoryLikes: make(map[string]int),
		Articles:      make(map[string]ArticleEngagement),
		Categories:    make(map[string]CategoryEngagement),
	}
}

// HasRead reports whether the story id appears in the read history.
// Callers scoring many stories should build a set once instead (see Scorer).
func (s *EngagementStats) HasRead(storyID string) bool {
	for _, id := range s.ReadIDs {
		if id == storyID {
			return true
		}
	}
	return false
}

// readSet returns the read history as a set for O(1) membership checks.
func (s *EngagementStats) readSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.ReadIDs))
	for _, id := range s.ReadIDs {
		set[id] = struct{}{}
	}
	return set
}

// Fold records a finalized reading session into the rolling statistics.
// The rolling averages follow newAvg = (oldAvg*n + x) / (n+1).
func (s *EngagementStats) Fold(rec ArticleEngagement) {
	if s.CategoryReads == nil {
		s.CategoryReads = make(map[string]int)
	}
	if s.CategoryLikes == nil {
		s.CategoryLikes = make(map[string]int)
	}
	if s.Articles == nil {
		s.Articles = make(map[string]ArticleEngagement)
	}
	if s.Categories == nil {
		s.Categories = make(map[string]CategoryEngagement)
	}

	s.ReadIDs = append(s.ReadIDs, rec.StoryID)
	s.CategoryReads[rec.Category]++
	if rec.Liked {
		s.CategoryLikes[rec.Category]++
	}

	s.Articles[rec.StoryID] = rec
	s.pruneArticles()

	ce := s.Categories[rec.Category]
	n := float64(ce.TotalReads)
	ce.AvgCompletionRate = (ce.AvgCompletionRate*n + rec.CompletionRate()) / (n + 1)
	ce.AvgDurationSeconds = (ce.AvgDurationSeconds*n + rec.Duration().Seconds()) / (n + 1)
	ce.TotalReads++
	if rec.Liked {
		ce.TotalLikes++
	}
	s.Categories[rec.Category] = ce
}

// pruneArticles evicts the oldest sessions by enter time until the map is
// back under the cap.
func (s *EngagementStats) pruneArticles() {
	for len(s.Articles) > maxTrackedArticles {
		oldestID := ""
		var oldest time.Time
		for id, rec := range s.Articles {
			if oldestID == "" || rec.EnterTime.Before(oldest) {
				oldestID = id
				oldest = rec.EnterTime
			}
		}
		delete(s.Articles, oldestID)
	}
}

// topLikedCategories returns up to n categories ranked by like count
// descending, ties broken by name for determinism.
func (s *EngagementStats) topLikedCategories(n int) []string {
	type likes struct {
		category string
		count    int
	}

	ranked := make([]likes, 0, len(s.CategoryLikes))
	for c, count := range s.CategoryLikes {
		if count > 0 {
			ranked = append(ranked, likes{category: c, count: count})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].category < ranked[j].category
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}

	top := make([]string, len(ranked))
	for i, r := range ranked {
		top[i] = r.category
	}
	return top
}

// averageCategoryReads returns the mean read count across categories with
// at least one read, or zero with no history.
func (s *EngagementStats) averageCategoryReads() float64 {
	if len(s.CategoryReads) == 0 {
		return 0
	}
	total := 0
	for _, n := range s.CategoryReads {
		total += n
	}
	return float64(total) / float64(len(s.CategoryReads))
}
