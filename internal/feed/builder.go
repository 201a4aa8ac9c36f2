// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

package feed

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// defaultReinsertWindow is how far ahead the fallback path may reach when a
// variety roll succeeds.
const defaultReinsertWindow = 10

// BuilderConfig configures the feed builder.
type BuilderConfig struct {
	// Weights are the scoring weights, validated at construction.
	Weights ScoringWeights `koanf:"weights"`

	// Seed is the random seed for the discovery slot and the fallback
	// reinsertion pass. If zero, a fixed default seed is used.
	Seed int64 `koanf:"seed"`

	// ReinsertWindow is the candidate window for variety reinsertion on
	// the fallback path. Defaults to 10.
	ReinsertWindow int `koanf:"reinsert_window"`
}

// DefaultBuilderConfig returns the reference builder configuration.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		Weights:        DefaultScoringWeights(),
		Seed:           42,
		ReinsertWindow: defaultReinsertWindow,
	}
}

// Builder assembles personalized feeds from a story catalog. It is safe for
// concurrent use; the only mutable state is the seeded random source, which
// is mutex-guarded.
type Builder struct {
	cfg    BuilderConfig
	logger zerolog.Logger

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewBuilder creates a feed builder.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBuilder(cfg BuilderConfig, logger zerolog.Logger) *Builder {
	if cfg.ReinsertWindow <= 0 {
		cfg.ReinsertWindow = defaultReinsertWindow
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Builder{
		cfg:    cfg,
		logger: logger.With().Str("component", "feed").Logger(),
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for feed shuffling
	}
}

// scoredStory pairs a story with its relevance score for sorting.
type scoredStory struct {
	story Story
	score float64
}

// PersonalizedFeed assembles an ordered feed of at most limit stories.
//
// With selected categories, stories are allocated round-robin across
// score-sorted per-category buckets so every selected category gets near-equal
// representation, and exactly one final discovery slot is drawn at random
// from outside the selected set. Without selected categories, the feed falls
// back to a score-sorted list with variety-controlled random reinsertion and
// an anti-repetition pass.
//
// The inputs are never mutated. Marking stories read is the caller's
// responsibility.
func (b *Builder) PersonalizedFeed(catalog []Story, profile *PreferenceProfile, stats *EngagementStats, limit int, excludeRead bool) []Story {
	if limit <= 0 || len(catalog) == 0 {
		return nil
	}
	if profile == nil {
		profile = &PreferenceProfile{}
	}
	if stats == nil {
		stats = NewEngagementStats()
	}

	scorer := NewScorer(b.cfg.Weights, profile, stats)
	candidates := b.scoreCandidates(catalog, scorer, excludeRead)
	if len(candidates) == 0 {
		return nil
	}

	var result []Story
	if len(profile.Categories) == 0 {
		result = b.fallbackFeed(candidates, profile.Discovery.VarietyFactor(), limit)
		b.fixRepetition(result)
	} else {
		result = b.quotaFeed(candidates, profile, limit)
	}

	b.logger.Debug().
		Int("candidates", len(candidates)).
		Int("returned", len(result)).
		Int("limit", limit).
		Bool("exclude_read", excludeRead).
		Msg("feed assembled")

	return result
}

// scoreCandidates scores the catalog in order, optionally dropping
// already-read stories, and returns candidates sorted by score descending.
// Equal scores keep catalog order for determinism.
func (b *Builder) scoreCandidates(catalog []Story, scorer *Scorer, excludeRead bool) []scoredStory {
	candidates := make([]scoredStory, 0, len(catalog))
	for i, story := range catalog {
		if excludeRead {
			if _, read := scorer.read[story.ID]; read {
				continue
			}
		}
		candidates = append(candidates, scoredStory{
			story: story,
			score: scorer.Score(story, i, len(catalog)),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates
}

// quotaFeed allocates slots round-robin across the selected categories in
// profile order, preserving each bucket's internal score order, then appends
// the single discovery slot.
func (b *Builder) quotaFeed(candidates []scoredStory, profile *PreferenceProfile, limit int) []Story {
	buckets := make(map[string][]Story, len(profile.Categories))
	for _, c := range candidates {
		if profile.HasCategory(c.story.Category) {
			buckets[c.story.Category] = append(buckets[c.story.Category], c.story)
		}
	}

	slots := (limit - 1) / len(profile.Categories)
	if slots < 1 {
		slots = 1
	}

	used := make(map[string]struct{}, limit)
	result := make([]Story, 0, limit)

	for round := 0; round < slots && len(result) < limit-1; round++ {
		for _, category := range profile.Categories {
			if len(result) >= limit-1 {
				break
			}
			bucket := buckets[category]
			if round >= len(bucket) {
				continue
			}
			story := bucket[round]
			if _, ok := used[story.ID]; ok {
				continue
			}
			used[story.ID] = struct{}{}
			result = append(result, story)
		}
	}

	if discovery, ok := b.discoveryPick(candidates, profile, used); ok {
		result = append(result, discovery)
	}
	return result
}

// discoveryPick draws one not-yet-used story uniformly at random from
// outside the selected categories. Reports false when no such story exists.
func (b *Builder) discoveryPick(candidates []scoredStory, profile *PreferenceProfile, used map[string]struct{}) (Story, bool) {
	pool := make([]Story, 0, len(candidates))
	for _, c := range candidates {
		if profile.HasCategory(c.story.Category) {
			continue
		}
		if _, ok := used[c.story.ID]; ok {
			continue
		}
		pool = append(pool, c.story)
	}

	if len(pool) == 0 {
		return Story{}, false
	}
	return pool[b.intn(len(pool))], true
}

// fallbackFeed walks the score-sorted candidates, picking the next item in
// order, or with probability varietyFactor a random item from the next
// reinsertWindow candidates. This keeps the ranking roughly intact while
// injecting variety.
func (b *Builder) fallbackFeed(candidates []scoredStory, varietyFactor float64, limit int) []Story {
	remaining := make([]Story, len(candidates))
	for i, c := range candidates {
		remaining[i] = c.story
	}

	result := make([]Story, 0, limit)
	for len(result) < limit && len(remaining) > 0 {
		idx := 0
		if b.float64() < varietyFactor {
			window := b.cfg.ReinsertWindow
			if window > len(remaining) {
				window = len(remaining)
			}
			idx = b.intn(window)
		}
		result = append(result, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return result
}

// fixRepetition breaks up runs of three consecutive stories sharing a
// category by swapping in the next differing story. Runs with no forward
// swap candidate are left uncorrected rather than dropping items.
func (b *Builder) fixRepetition(result []Story) {
	for i := 2; i < len(result); i++ {
		category := result[i].Category
		if category == "" {
			continue
		}
		if result[i-1].Category != category || result[i-2].Category != category {
			continue
		}
		for j := i + 1; j < len(result); j++ {
			if result[j].Category != category {
				result[i], result[j] = result[j], result[i]
				break
			}
		}
	}
}

func (b *Builder) intn(n int) int {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return b.rng.Intn(n)
}

func (b *Builder) float64() float64 {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return b.rng.Float64()
}
