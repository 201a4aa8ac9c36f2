// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

package feed

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

// testCatalog builds count stories per category, in category order.
func testCatalog(counts map[string]int, order []string) []Story {
	var catalog []Story
	for _, category := range order {
		for i := 0; i < counts[category]; i++ {
			catalog = append(catalog, Story{
				ID:       fmt.Sprintf("%s-%d", category, i),
				Title:    fmt.Sprintf("%s story %d", category, i),
				Category: category,
			})
		}
	}
	return catalog
}

func countByCategory(stories []Story) map[string]int {
	counts := make(map[string]int)
	for _, s := range stories {
		counts[s.Category]++
	}
	return counts
}

func TestBuilder_QuotaScenario(t *testing.T) {
	// 6 Science, 6 Art, 4 Economics; profile selects Science and Art;
	// limit 10 gives slotsPerCategory = (10-1)/2 = 4. Expect 4+4 quota
	// stories plus one Economics discovery slot: 9 total.
	catalog := testCatalog(
		map[string]int{"Science": 6, "Art": 6, "Economics": 4},
		[]string{"Science", "Art", "Economics"})
	profile := &PreferenceProfile{Categories: []string{"Science", "Art"}}

	b := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())
	result := b.PersonalizedFeed(catalog, profile, NewEngagementStats(), 10, false)

	if len(result) != 9 {
		t.Fatalf("feed length = %d, want 9", len(result))
	}

	counts := countByCategory(result)
	if counts["Science"] != 4 || counts["Art"] != 4 {
		t.Errorf("quota counts = %v, want 4 Science and 4 Art", counts)
	}
	if counts["Economics"] != 1 {
		t.Errorf("discovery count = %d, want 1 Economics", counts["Economics"])
	}
	if result[len(result)-1].Category != "Economics" {
		t.Errorf("last slot category = %q, want the discovery pick", result[len(result)-1].Category)
	}
}

func TestBuilder_DiscoverySlotOutsideSelection(t *testing.T) {
	catalog := testCatalog(
		map[string]int{"Science": 5, "Crime": 3},
		[]string{"Science", "Crime"})
	profile := &PreferenceProfile{Categories: []string{"Science"}}
	b := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())

	for i := 0; i < 20; i++ {
		result := b.PersonalizedFeed(catalog, profile, NewEngagementStats(), 5, false)
		if len(result) == 0 {
			t.Fatal("expected non-empty feed")
		}
		last := result[len(result)-1]
		if profile.HasCategory(last.Category) {
			t.Fatalf("discovery slot has selected category %q", last.Category)
		}
	}
}

func TestBuilder_NoDiscoveryCandidates(t *testing.T) {
	// Every story is in a selected category: the feed is one slot shorter.
	catalog := testCatalog(map[string]int{"Science": 6}, []string{"Science"})
	profile := &PreferenceProfile{Categories: []string{"Science"}}
	b := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())

	result := b.PersonalizedFeed(catalog, profile, NewEngagementStats(), 5, false)
	if len(result) != 4 {
		t.Fatalf("feed length = %d, want limit-1 = 4 with no discovery candidate", len(result))
	}
	for _, s := range result {
		if s.Category != "Science" {
			t.Errorf("unexpected category %q", s.Category)
		}
	}
}

func TestBuilder_CategoryNeverAbsent(t *testing.T) {
	// Every selected category with at least one story must appear.
	catalog := testCatalog(
		map[string]int{"Science": 8, "Art": 1, "War": 2, "Crime": 4},
		[]string{"Science", "Art", "War", "Crime"})
	profile := &PreferenceProfile{Categories: []string{"Science", "Art", "War"}}
	b := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())

	result := b.PersonalizedFeed(catalog, profile, NewEngagementStats(), 10, false)
	counts := countByCategory(result)
	for _, category := range profile.Categories {
		if counts[category] == 0 {
			t.Errorf("selected category %q absent from feed %v", category, counts)
		}
	}
}

func TestBuilder_ExcludeRead(t *testing.T) {
	catalog := testCatalog(map[string]int{"Science": 4}, []string{"Science"})
	profile := &PreferenceProfile{Categories: []string{"Science"}}
	stats := NewEngagementStats()
	stats.ReadIDs = []string{"Science-0", "Science-1"}

	b := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())
	result := b.PersonalizedFeed(catalog, profile, stats, 10, true)

	for _, s := range result {
		if s.ID == "Science-0" || s.ID == "Science-1" {
			t.Errorf("read story %s present with excludeRead", s.ID)
		}
	}
	if len(result) != 2 {
		t.Errorf("feed length = %d, want 2 unread stories", len(result))
	}
}

func TestBuilder_EdgeCases(t *testing.T) {
	b := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())
	profile := &PreferenceProfile{Categories: []string{"Science"}}

	if got := b.PersonalizedFeed(nil, profile, NewEngagementStats(), 10, false); len(got) != 0 {
		t.Errorf("empty catalog: got %d stories, want 0", len(got))
	}

	catalog := testCatalog(map[string]int{"Science": 3}, []string{"Science"})
	if got := b.PersonalizedFeed(catalog, profile, NewEngagementStats(), 0, false); len(got) != 0 {
		t.Errorf("limit 0: got %d stories, want 0", len(got))
	}
	if got := b.PersonalizedFeed(catalog, profile, NewEngagementStats(), -3, false); len(got) != 0 {
		t.Errorf("negative limit: got %d stories, want 0", len(got))
	}
}

func TestBuilder_FallbackPath(t *testing.T) {
	catalog := testCatalog(
		map[string]int{"Science": 10, "Art": 10},
		[]string{"Science", "Art"})
	profile := &PreferenceProfile{} // no selected categories
	b := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())

	result := b.PersonalizedFeed(catalog, profile, NewEngagementStats(), 8, false)
	if len(result) != 8 {
		t.Fatalf("fallback feed length = %d, want 8", len(result))
	}

	// No duplicates.
	seen := make(map[string]struct{})
	for _, s := range result {
		if _, ok := seen[s.ID]; ok {
			t.Errorf("duplicate story %s in feed", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
}

func TestBuilder_FallbackExhaustsCandidates(t *testing.T) {
	catalog := testCatalog(map[string]int{"Science": 3}, []string{"Science"})
	b := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())

	result := b.PersonalizedFeed(catalog, &PreferenceProfile{}, NewEngagementStats(), 10, false)
	if len(result) != 3 {
		t.Errorf("feed length = %d, want all 3 candidates without padding", len(result))
	}
}

func TestBuilder_FixRepetition(t *testing.T) {
	b := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())

	stories := []Story{
		{ID: "1", Category: "A"},
		{ID: "2", Category: "A"},
		{ID: "3", Category: "A"},
		{ID: "4", Category: "B"},
	}
	b.fixRepetition(stories)

	if stories[2].Category != "B" {
		t.Errorf("third of a run should be swapped, got %q", stories[2].Category)
	}
	if stories[3].Category != "A" {
		t.Errorf("swap partner should move back, got %q", stories[3].Category)
	}
}

func TestBuilder_FixRepetitionNoCandidate(t *testing.T) {
	b := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())

	// No differing category ahead: the run stays uncorrected, nothing is
	// dropped.
	stories := []Story{
		{ID: "1", Category: "A"},
		{ID: "2", Category: "A"},
		{ID: "3", Category: "A"},
	}
	b.fixRepetition(stories)

	if len(stories) != 3 {
		t.Fatalf("length changed to %d", len(stories))
	}
	for i, s := range stories {
		if s.Category != "A" {
			t.Errorf("story %d changed category %q", i, s.Category)
		}
	}
}

func TestBuilder_QuotaPreservesBucketScoreOrder(t *testing.T) {
	// With no history the scorer favors earlier catalog positions
	// (recency), so each category's stories should appear in catalog
	// order within the feed.
	catalog := testCatalog(
		map[string]int{"Science": 5, "Art": 5, "War": 2},
		[]string{"Science", "Art", "War"})
	profile := &PreferenceProfile{Categories: []string{"Science", "Art"}}
	b := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())

	result := b.PersonalizedFeed(catalog, profile, NewEngagementStats(), 9, false)

	lastIdx := map[string]int{"Science": -1, "Art": -1}
	for _, s := range result {
		if s.Category != "Science" && s.Category != "Art" {
			continue
		}
		var idx int
		if _, err := fmt.Sscanf(s.ID, s.Category+"-%d", &idx); err != nil {
			t.Fatalf("unexpected id %q: %v", s.ID, err)
		}
		if idx <= lastIdx[s.Category] {
			t.Errorf("category %s out of score order: %d after %d",
				s.Category, idx, lastIdx[s.Category])
		}
		lastIdx[s.Category] = idx
	}
}

func BenchmarkBuilder_PersonalizedFeed(b *testing.B) {
	catalog := testCatalog(
		map[string]int{"Science": 100, "Art": 100, "Crime": 100, "War": 100},
		[]string{"Science", "Art", "Crime", "War"})
	profile := &PreferenceProfile{Categories: []string{"Science", "Art"}}
	stats := NewEngagementStats()
	builder := NewBuilder(DefaultBuilderConfig(), zerolog.Nop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		builder.PersonalizedFeed(catalog, profile, stats, 20, false)
	}
}
