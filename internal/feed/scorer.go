// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

package feed

import (
	"fmt"
	"math"
)

// Neutral factor scores used when metadata or history is absent. These are
// named so tests can assert on them directly.
const (
	// neutralCategory applies to categories neither selected nor implied.
	neutralCategory = 0.3
	// impliedCategory applies to categories implied by the era preference.
	impliedCategory = 0.7
	// neutralTag applies when either the profile or the story has no tags.
	neutralTag = 0.5
	// neutralEngagement applies to categories with no reading history.
	neutralEngagement = 0.5
	// neutralTone applies to all stories; the catalog carries no tone
	// metadata, a known simplification rather than a defect.
	neutralTone = 0.7
	// neutralVariety applies to adequately explored categories.
	neutralVariety = 0.5
	// neutralLike applies to categories outside the top three by likes.
	neutralLike = 0.5
	// readPenalty softly suppresses already-read stories without
	// excluding them.
	readPenalty = 0.3
)

// era category buckets used by the era and implied-category factors.
var (
	ancientCategories = map[string]struct{}{
		"Ancient World": {},
		"Medieval":      {},
	}
	modernCategories = map[string]struct{}{
		"19th Century": {},
		"20th Century": {},
		"Science":      {},
	}
)

// ScoringWeights is the relative contribution of each relevance factor.
// The weights must sum to 100; the final score divides by 100 so each
// factor's [0, 1] range contributes its weight in percent.
type ScoringWeights struct {
	CategoryMatch float64 `json:"category_match" koanf:"category_match"`
	TagMatch      float64 `json:"tag_match" koanf:"tag_match"`
	EraMatch      float64 `json:"era_match" koanf:"era_match"`
	Engagement    float64 `json:"engagement" koanf:"engagement"`
	Tone          float64 `json:"tone" koanf:"tone"`
	Recency       float64 `json:"recency" koanf:"recency"`
	Variety       float64 `json:"variety" koanf:"variety"`
	LikeBoost     float64 `json:"like_boost" koanf:"like_boost"`
}

// DefaultScoringWeights returns the reference weights.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		CategoryMatch: 22,
		TagMatch:      13,
		EraMatch:      12,
		Engagement:    15,
		Tone:          8,
		Recency:       10,
		Variety:       5,
		LikeBoost:     15,
	}
}

// Validate checks that all weights are non-negative and sum to 100.
func (w ScoringWeights) Validate() error {
	weights := []float64{
		w.CategoryMatch, w.TagMatch, w.EraMatch, w.Engagement,
		w.Tone, w.Recency, w.Variety, w.LikeBoost,
	}

	sum := 0.0
	for _, v := range weights {
		if v < 0 {
			return fmt.Errorf("scoring weight must be non-negative, got %v", v)
		}
		sum += v
	}

	if math.Abs(sum-100) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 100, got %v", sum)
	}
	return nil
}

// Scorer computes relevance scores for stories against one profile and
// stats snapshot. It precomputes the derived lookups once so scoring a
// catalog is O(1) per story. A Scorer is a pure reader of its inputs and
// is safe for concurrent use.
type Scorer struct {
	weights ScoringWeights

	profile *PreferenceProfile
	stats   *EngagementStats

	selected  map[string]struct{}
	tags      map[string]struct{}
	read      map[string]struct{}
	likedRank map[string]int // category -> 1-based rank among top liked
	avgReads  float64
}

// NewScorer builds a scorer over one profile and stats snapshot.
func NewScorer(weights ScoringWeights, profile *PreferenceProfile, stats *EngagementStats) *Scorer {
	if profile == nil {
		profile = &PreferenceProfile{}
	}
	if stats == nil {
		stats = NewEngagementStats()
	}

	selected := make(map[string]struct{}, len(profile.Categories))
	for _, c := range profile.Categories {
		selected[c] = struct{}{}
	}

	tags := make(map[string]struct{}, len(profile.Tags))
	for _, t := range profile.Tags {
		tags[t] = struct{}{}
	}

	likedRank := make(map[string]int, 3)
	for i, c := range stats.topLikedCategories(3) {
		likedRank[c] = i + 1
	}

	return &Scorer{
		weights:   weights,
		profile:   profile,
		stats:     stats,
		selected:  selected,
		tags:      tags,
		read:      stats.readSet(),
		likedRank: likedRank,
		avgReads:  stats.averageCategoryReads(),
	}
}

// Score returns the relevance score for a story at the given position in a
// catalog of catalogSize stories. Position feeds the recency factor; the
// result is deterministic for fixed inputs.
func (s *Scorer) Score(story Story, position, catalogSize int) float64 {
	w := s.weights

	score := w.CategoryMatch * s.categoryFactor(story.Category)
	score += w.TagMatch * s.tagFactor(story.Tags)
	score += w.EraMatch * s.eraFactor(story.Category)
	score += w.Engagement * s.engagementFactor(story.Category)
	score += w.Tone * neutralTone
	score += w.Recency * recencyFactor(position, catalogSize)
	score += w.Variety * s.varietyFactor(story.Category)
	score += w.LikeBoost * s.likeFactor(story.Category)
	score /= 100

	if _, read := s.read[story.ID]; read {
		score *= readPenalty
	}
	return score
}

// categoryFactor scores explicit selections highest, era-implied categories
// in between, and everything else at the neutral floor.
func (s *Scorer) categoryFactor(category string) float64 {
	if _, ok := s.selected[category]; ok {
		return 1.0
	}

	switch s.profile.Era {
	case EraAncient:
		if _, ok := ancientCategories[category]; ok {
			return impliedCategory
		}
	case EraModern:
		if _, ok := modernCategories[category]; ok {
			return impliedCategory
		}
	}
	return neutralCategory
}

// tagFactor scores fine-grained tag overlap. Missing tags on either side
// resolve to neutral rather than penalizing the story.
func (s *Scorer) tagFactor(storyTags []string) float64 {
	if len(s.tags) == 0 || len(storyTags) == 0 {
		return neutralTag
	}

	overlap := 0
	for _, t := range storyTags {
		if _, ok := s.tags[t]; ok {
			overlap++
		}
	}

	switch {
	case overlap >= 2:
		return 1.0
	case overlap == 1:
		return 0.7
	default:
		return 0.3
	}
}

// eraFactor buckets the category into ancient or modern and scores the
// match against the profile's era preference.
func (s *Scorer) eraFactor(category string) float64 {
	if s.profile.Era == EraBoth {
		return 0.7
	}

	_, ancient := ancientCategories[category]
	_, modern := modernCategories[category]

	switch s.profile.Era {
	case EraAncient:
		if ancient {
			return 1.0
		}
	case EraModern:
		if modern {
			return 1.0
		}
	}
	return 0.3
}

// engagementFactor uses the category's rolling engagement score, or the
// neutral constant with no history.
func (s *Scorer) engagementFactor(category string) float64 {
	ce, ok := s.stats.Categories[category]
	if !ok || ce.TotalReads == 0 {
		return neutralEngagement
	}
	return ce.EngagementScore()
}

// recencyFactor decays linearly from 1.0 for the first catalog position to
// 0.5 for the last.
func recencyFactor(position, catalogSize int) float64 {
	if catalogSize <= 1 || position <= 0 {
		return 1.0
	}
	if position >= catalogSize {
		position = catalogSize - 1
	}
	return 1.0 - 0.5*float64(position)/float64(catalogSize-1)
}

// varietyFactor boosts underexplored categories, with a smaller boost for
// out-of-preference categories in surprise mode.
func (s *Scorer) varietyFactor(category string) float64 {
	if s.avgReads > 0 && float64(s.stats.CategoryReads[category]) < s.avgReads/2 {
		return 1.0
	}
	if s.profile.Discovery == DiscoverySurprise {
		if _, ok := s.selected[category]; !ok {
			return 0.8
		}
	}
	return neutralVariety
}

// likeFactor boosts the reader's three most-liked categories by rank.
func (s *Scorer) likeFactor(category string) float64 {
	switch s.likedRank[category] {
	case 1:
		return 1.0
	case 2:
		return 0.8
	case 3:
		return 0.6
	default:
		return neutralLike
	}
}
