// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

package paginate

import (
	"strings"

	"github.com/rs/zerolog"
)

// defaultMaxPages is the hard page ceiling per story. Pagination stops at
// the ceiling even when words remain; the Document exposes the truncation.
const defaultMaxPages = 50

// Config holds the fixed layout parameters of the reading viewport.
type Config struct {
	// MaxPages is the hard per-story page ceiling. Defaults to 50.
	MaxPages int `koanf:"max_pages"`

	// HorizontalPadding is applied on both sides of a line.
	HorizontalPadding float64 `koanf:"horizontal_padding"`

	// TopPadding and BottomPadding frame the body text vertically.
	TopPadding    float64 `koanf:"top_padding"`
	BottomPadding float64 `koanf:"bottom_padding"`

	// SafetyMargin keeps the last line clear of the bottom edge.
	SafetyMargin float64 `koanf:"safety_margin"`
}

// DefaultConfig returns the reference layout parameters.
func DefaultConfig() Config {
	return Config{
		MaxPages:          defaultMaxPages,
		HorizontalPadding: 24,
		TopPadding:        96,
		BottomPadding:     64,
		SafetyMargin:      8,
	}
}

// Viewport is the fixed page size supplied per pagination call.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Page is one rendered-ready screen. A title page carries Title and no
// Text; a body page carries newline-joined Text and no Title.
type Page struct {
	Title      string `json:"title,omitempty"`
	Text       string `json:"text,omitempty"`
	Background string `json:"background"`
	TextColor  string `json:"text_color"`
}

// IsTitle reports whether the page is the title page.
func (p Page) IsTitle() bool {
	return p.Title != ""
}

// Document is the ordered, immutable page sequence for one story, plus the
// truncation facts callers need to detect the page ceiling.
type Document struct {
	Pages []Page `json:"pages"`

	// Truncated reports that the page ceiling cut the text short.
	Truncated bool `json:"truncated"`

	// WordsConsumed is how many normalized words made it onto pages.
	WordsConsumed int `json:"words_consumed"`

	// TotalWords is the normalized word count of the input text.
	TotalWords int `json:"total_words"`
}

// Engine converts story text into fixed-viewport pages using greedy line
// and page packing against an injected Measurer. Output is fully
// deterministic: identical text and viewport always produce an identical
// page sequence. The engine is stateless and safe for concurrent use.
type Engine struct {
	cfg    Config
	m      Measurer
	logger zerolog.Logger
}

// NewEngine creates a pagination engine around a text measurer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg Config, m Measurer, logger zerolog.Logger) *Engine {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	return &Engine{
		cfg:    cfg,
		m:      m,
		logger: logger.With().Str("component", "paginate").Logger(),
	}
}

// Paginate splits a story's body into pages. The first page is always the
// title page; empty or whitespace-only text yields the title page alone.
func (e *Engine) Paginate(title, category, body string, vp Viewport) Document {
	words := strings.Fields(body)
	palette := paletteFor(category)

	pages := []Page{{
		Title:      title,
		Background: palette[0].Background,
		TextColor:  palette[0].Text,
	}}

	if len(words) == 0 {
		return Document{Pages: pages}
	}

	availWidth := vp.Width - 2*e.cfg.HorizontalPadding
	availHeight := vp.Height - e.cfg.TopPadding - e.cfg.BottomPadding - e.cfg.SafetyMargin

	cursor := 0
	for cursor < len(words) && len(pages) < e.cfg.MaxPages {
		lines, next := e.fillPage(words, cursor, availWidth, availHeight)
		if len(lines) == 0 {
			// Not even one line fits the available height. Bail out
			// instead of spinning on the same cursor position.
			break
		}
		cursor = next

		bodyIndex := len(pages) - 1
		c := palette[bodyIndex%len(palette)]
		pages = append(pages, Page{
			Text:       strings.Join(lines, "\n"),
			Background: c.Background,
			TextColor:  c.Text,
		})
	}

	if cursor < len(words) {
		e.logger.Debug().
			Int("words_consumed", cursor).
			Int("total_words", len(words)).
			Int("pages", len(pages)).
			Msg("pagination truncated")
	}

	return Document{
		Pages:         pages,
		Truncated:     cursor < len(words),
		WordsConsumed: cursor,
		TotalWords:    len(words),
	}
}

// fillPage greedily packs words into lines starting at cursor until the
// page height is exhausted. It returns the accepted lines and the cursor
// position after the last accepted word; a line that would overflow the
// page rolls the cursor back by its word count so the next page resumes
// exactly where this one stopped.
func (e *Engine) fillPage(words []string, cursor int, availWidth, availHeight float64) ([]string, int) {
	var lines []string
	line := ""

	closeLine := func() bool {
		candidate := line
		joined := candidate
		if len(lines) > 0 {
			joined = strings.Join(lines, "\n") + "\n" + candidate
		}
		if e.m.Height(joined, availWidth) > availHeight {
			cursor -= len(strings.Fields(candidate))
			line = ""
			return false
		}
		lines = append(lines, candidate)
		line = ""
		return true
	}

	for cursor < len(words) {
		word := words[cursor]
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}

		if e.m.Width(candidate) <= availWidth {
			line = candidate
			cursor++
			continue
		}

		if line == "" {
			// A single word wider than the page gets its own line
			// rather than being dropped.
			line = word
			cursor++
		}
		if !closeLine() {
			return lines, cursor
		}
	}

	if line != "" && !closeLine() {
		return lines, cursor
	}
	return lines, cursor
}
