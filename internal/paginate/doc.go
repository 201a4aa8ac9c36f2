// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

// Package paginate converts story text into fixed-viewport page sequences
// using greedy line and page packing against an injected text measurer.
// It is independent of the feed logic and contains no rendering code.
package paginate
