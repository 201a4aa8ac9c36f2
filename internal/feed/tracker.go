// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

package feed

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Tracker records a single active reading session. It holds at most one
// session at a time: starting a new session discards any unfinished one.
// Operations called out of sequence are no-ops, not errors, because session
// start and stop race with navigation in practice.
//
// The tracker never mutates EngagementStats itself; the caller folds the
// record returned by EndReading into its stats.
type Tracker struct {
	mu     sync.Mutex
	active *ArticleEngagement

	// now is injectable for deterministic tests.
	now    func() time.Time
	logger zerolog.Logger
}

// NewTracker creates an idle tracker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		now:    time.Now,
		logger: logger.With().Str("component", "tracker").Logger(),
	}
}

// StartReading begins a session for the story, replacing any active session.
func (t *Tracker) StartReading(story Story, totalPages int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		t.logger.Debug().
			Str("story_id", t.active.StoryID).
			Msg("discarding unfinished session")
	}

	t.active = &ArticleEngagement{
		StoryID:    story.ID,
		Category:   story.Category,
		EnterTime:  t.now(),
		TotalPages: totalPages,
	}
}

// RecordPageView notes the furthest page the reader reached. A no-op when
// idle or when the index is negative.
func (t *Tracker) RecordPageView(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil || index < 0 {
		return
	}
	if index+1 > t.active.PagesViewed {
		t.active.PagesViewed = index + 1
	}
}

// RecordLike marks the active session's story as liked. A no-op when idle.
func (t *Tracker) RecordLike() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return
	}
	t.active.Liked = true
}

// EndReading finalizes and returns the active session. Reports false when
// no session was active.
func (t *Tracker) EndReading() (ArticleEngagement, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return ArticleEngagement{}, false
	}

	rec := *t.active
	rec.ExitTime = t.now()
	t.active = nil

	t.logger.Debug().
		Str("story_id", rec.StoryID).
		Int("pages_viewed", rec.PagesViewed).
		Bool("liked", rec.Liked).
		Msg("session ended")

	return rec, true
}

// Active reports whether a session is in progress.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != nil
}
