// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

package feed

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Exploration scoring constants. Candidates start at the baseline and earn
// weighted boosts for conversion history, topic adjacency, and tag overlap.
const (
	exploreBaseline = 0.5

	conversionWeight = 0.4
	conversionStep   = 0.25

	adjacencyWeight  = 0.3
	adjacentScore    = 0.7
	nonAdjacentScore = 0.3

	tagAffinityWeight  = 0.3
	tagAffinityBase    = 0.3
	tagAffinityStep    = 0.2
	tagAffinityNeutral = 0.3
)

// defaultDirectSharePercent is the portion of the exploration feed taken
// directly from the top of the score ranking; the rest is shuffled in.
const defaultDirectSharePercent = 40

// topicClusters groups categories that readers tend to enjoy together. A
// candidate category is adjacent to the profile when any cluster-mate is
// selected.
var topicClusters = [][]string{
	{"Ancient World", "Medieval"},
	{"19th Century", "20th Century"},
	{"Crime", "Exploration", "War"},
	{"Art", "Science", "Economics"},
}

// ExplorerConfig configures the exploration engine.
type ExplorerConfig struct {
	// Seed is the random seed for selection shuffling. If zero, a fixed
	// default seed is used.
	Seed int64 `koanf:"seed"`

	// DirectSharePercent is the percentage of the feed taken directly
	// from the top of the ranking. Defaults to 40.
	DirectSharePercent int `koanf:"direct_share_percent"`
}

// DefaultExplorerConfig returns the reference exploration configuration.
func DefaultExplorerConfig() ExplorerConfig {
	return ExplorerConfig{
		Seed:               42,
		DirectSharePercent: defaultDirectSharePercent,
	}
}

// Explorer selects discovery stories from categories the reader has not
// chosen. It biases toward higher-scored candidates without being perfectly
// predictable. Safe for concurrent use.
type Explorer struct {
	cfg    ExplorerConfig
	logger zerolog.Logger

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewExplorer creates an exploration engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewExplorer(cfg ExplorerConfig, logger zerolog.Logger) *Explorer {
	if cfg.DirectSharePercent <= 0 || cfg.DirectSharePercent > 100 {
		cfg.DirectSharePercent = defaultDirectSharePercent
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Explorer{
		cfg:    cfg,
		logger: logger.With().Str("component", "explore").Logger(),
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for exploration shuffling
	}
}

// Feed returns up to limit stories from categories outside the reader's
// selected set that have not been read yet. Returns nil with no eligible
// candidates.
func (x *Explorer) Feed(catalog []Story, profile *PreferenceProfile, stats *EngagementStats, limit int) []Story {
	if limit <= 0 || len(catalog) == 0 {
		return nil
	}
	if profile == nil {
		profile = &PreferenceProfile{}
	}
	if stats == nil {
		stats = NewEngagementStats()
	}

	read := stats.readSet()
	candidates := make([]scoredStory, 0, len(catalog))
	for _, story := range catalog {
		if profile.HasCategory(story.Category) {
			continue
		}
		if _, ok := read[story.ID]; ok {
			continue
		}
		candidates = append(candidates, scoredStory{
			story: story,
			score: exploreScore(story, profile),
		})
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].story.ID < candidates[j].story.ID
	})

	result := x.selectCandidates(candidates, limit)

	x.logger.Debug().
		Int("candidates", len(candidates)).
		Int("returned", len(result)).
		Msg("exploration feed assembled")

	return result
}

// selectCandidates takes the top direct share of the ranking, fills the rest
// from a shuffle of the remainder, and shuffles the combined result so the
// engine stays biased but not predictable.
func (x *Explorer) selectCandidates(candidates []scoredStory, limit int) []Story {
	if limit > len(candidates) {
		limit = len(candidates)
	}

	direct := limit * x.cfg.DirectSharePercent / 100
	if direct > len(candidates) {
		direct = len(candidates)
	}

	result := make([]Story, 0, limit)
	for _, c := range candidates[:direct] {
		result = append(result, c.story)
	}

	remainder := make([]Story, 0, len(candidates)-direct)
	for _, c := range candidates[direct:] {
		remainder = append(remainder, c.story)
	}

	x.rngMu.Lock()
	defer x.rngMu.Unlock()

	x.rng.Shuffle(len(remainder), func(i, j int) {
		remainder[i], remainder[j] = remainder[j], remainder[i]
	})
	for _, s := range remainder {
		if len(result) >= limit {
			break
		}
		result = append(result, s)
	}

	x.rng.Shuffle(len(result), func(i, j int) {
		result[i], result[j] = result[j], result[i]
	})
	return result
}

// exploreScore rates a discovery candidate: a baseline plus weighted boosts
// for the reader's conversion history with the category, topic adjacency to
// the selected categories, and overlap with the selected tags.
func exploreScore(story Story, profile *PreferenceProfile) float64 {
	score := exploreBaseline

	conversions := float64(profile.Conversions[story.Category])
	score += conversionWeight * math.Min(1, conversions*conversionStep)

	score += adjacencyWeight * adjacencyScore(story.Category, profile)
	score += tagAffinityWeight * tagAffinity(story.Tags, profile.Tags)

	return score
}

// adjacencyScore reports whether any cluster-mate of the candidate category
// is among the selected categories.
func adjacencyScore(category string, profile *PreferenceProfile) float64 {
	for _, cluster := range topicClusters {
		if !containsString(cluster, category) {
			continue
		}
		for _, mate := range cluster {
			if mate != category && profile.HasCategory(mate) {
				return adjacentScore
			}
		}
	}
	return nonAdjacentScore
}

// tagAffinity scores overlap between the candidate's tags and the reader's
// selected tags, neutral when either set is empty.
func tagAffinity(storyTags, profileTags []string) float64 {
	if len(storyTags) == 0 || len(profileTags) == 0 {
		return tagAffinityNeutral
	}

	selected := make(map[string]struct{}, len(profileTags))
	for _, t := range profileTags {
		selected[t] = struct{}{}
	}

	overlap := 0
	for _, t := range storyTags {
		if _, ok := selected[t]; ok {
			overlap++
		}
	}
	return math.Min(1, tagAffinityBase+tagAffinityStep*float64(overlap))
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
