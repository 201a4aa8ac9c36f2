// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

// Package feed implements the content-selection core of Quillfeed: relevance
// scoring, personalized feed assembly, exploration picks, and per-session
// engagement tracking.
//
// The package has no dependencies on other internal packages. Catalogs,
// preference profiles, and engagement statistics are supplied as read-only
// snapshots by external collaborators; the only outputs are ordered story
// lists and finalized engagement records.
//
// # Components
//
//   - Scorer: a deterministic, weighted eight-factor relevance score for a
//     single story against a profile and stats snapshot.
//   - Builder: assembles a personalized feed with per-category quotas, a
//     single random discovery slot, and a variety-controlled fallback when
//     no categories are selected.
//   - Explorer: a parallel selector biased toward categories the reader has
//     not chosen, for surprise and discovery feeds.
//   - Tracker: records one active reading session and hands the finalized
//     record back for folding into EngagementStats.
//
// # Concurrency
//
// Scorer, Builder, and Explorer only read their inputs and are safe to call
// from any goroutine; the builders' seeded random sources are mutex-guarded.
// Tracker serializes access to its single active session. EngagementStats is
// not internally synchronized: treat a snapshot as read-only for the
// duration of a scoring or feed-build call and serialize Fold externally.
package feed
