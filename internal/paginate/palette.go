// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

package paginate

// Colors is one background/text token pair for a page.
type Colors struct {
	Background string `json:"background"`
	Text       string `json:"text"`
}

// categoryPalettes maps a category to its fixed page color cycle. Body pages
// cycle through the palette by page order within the story, so two stories
// in the same category share the same cycle.
var categoryPalettes = map[string][]Colors{
	"Ancient World": {
		{Background: "#2B1D12", Text: "#EAD9B0"},
		{Background: "#3A2A18", Text: "#F0E3C0"},
		{Background: "#1F1812", Text: "#D9C79A"},
	},
	"Medieval": {
		{Background: "#1E2430", Text: "#D8DEE9"},
		{Background: "#2A3242", Text: "#E5EAF2"},
		{Background: "#161B24", Text: "#C4CDDC"},
	},
	"19th Century": {
		{Background: "#26201A", Text: "#E8DCC8"},
		{Background: "#332B22", Text: "#F1E8D7"},
		{Background: "#1B1713", Text: "#DACDB4"},
	},
	"20th Century": {
		{Background: "#101820", Text: "#E2E8EE"},
		{Background: "#1A2530", Text: "#EDF2F7"},
		{Background: "#0B1117", Text: "#CBD5DF"},
	},
	"Science": {
		{Background: "#0E1B24", Text: "#CFE8F3"},
		{Background: "#142833", Text: "#DDF0F9"},
		{Background: "#091218", Text: "#B8D9E8"},
	},
	"Crime": {
		{Background: "#1C1017", Text: "#E9D4DE"},
		{Background: "#291722", Text: "#F2E1EA"},
		{Background: "#120A0F", Text: "#D6BFCB"},
	},
	"Exploration": {
		{Background: "#10201C", Text: "#D3EBE4"},
		{Background: "#182E28", Text: "#E1F3ED"},
		{Background: "#0A1512", Text: "#BEDDD4"},
	},
	"War": {
		{Background: "#221414", Text: "#EBD5D1"},
		{Background: "#301D1C", Text: "#F3E2DF"},
		{Background: "#160D0D", Text: "#D9C0BC"},
	},
	"Art": {
		{Background: "#1F1626", Text: "#E3D7EE"},
		{Background: "#2B2035", Text: "#EEE4F5"},
		{Background: "#140E19", Text: "#CFBFDE"},
	},
	"Economics": {
		{Background: "#1B2016", Text: "#DEE6CF"},
		{Background: "#262D1F", Text: "#E9F0DC"},
		{Background: "#11150E", Text: "#CBD6B9"},
	},
}

// defaultPalette is used for uncategorized stories and unknown categories.
var defaultPalette = []Colors{
	{Background: "#14161A", Text: "#E4E6EA"},
	{Background: "#1E2128", Text: "#EEF0F3"},
	{Background: "#0D0F12", Text: "#D2D5DB"},
}

// paletteFor returns the color cycle for a category.
func paletteFor(category string) []Colors {
	if p, ok := categoryPalettes[category]; ok {
		return p
	}
	return defaultPalette
}
