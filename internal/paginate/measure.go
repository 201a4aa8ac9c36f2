// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

package paginate

import "strings"

// Measurer is the text-measurement capability injected by the rendering
// collaborator. The engine contains no rendering code of its own.
type Measurer interface {
	// Width returns the rendered width of a single line of text.
	Width(s string) float64

	// Height returns the rendered height of a block of newline-separated
	// lines laid out at the given width.
	Height(s string, width float64) float64
}

// FixedMetrics is a deterministic Measurer that treats every rune as
// CharWidth wide and every line as LineHeight tall. It approximates a
// monospaced layout and serves hosts without a real text stack, and tests.
type FixedMetrics struct {
	CharWidth  float64
	LineHeight float64
}

// NewFixedMetrics returns metrics roughly matching a 17pt reading font.
func NewFixedMetrics() FixedMetrics {
	return FixedMetrics{CharWidth: 9, LineHeight: 26}
}

// Width implements Measurer.
func (m FixedMetrics) Width(s string) float64 {
	return m.CharWidth * float64(len([]rune(s)))
}

// Height implements Measurer. The width argument is unused: lines are
// assumed pre-wrapped by the caller, which matches how the engine builds
// page text.
func (m FixedMetrics) Height(s string, _ float64) float64 {
	if s == "" {
		return 0
	}
	return m.LineHeight * float64(strings.Count(s, "\n")+1)
}
