// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package listing

import "github.com/ManuGH/vidfolio/internal/catalog"

// EmptyMessage is shown when a filter yields no video.
const EmptyMessage = "Aucune vidéo ne correspond à votre recherche."

// Layout is the expected grid shape.
type Layout struct {
	Columns int
	Rows    int
}

// DefaultLayout matches the three-column catalog grid.
var DefaultLayout = Layout{Columns: 3, Rows: 2}

// Placeholders is the number of skeleton cards shown while loading.
func (l Layout) Placeholders() int {
	cols, rows := l.Columns, l.Rows
	if cols <= 0 {
		cols = DefaultLayout.Columns
	}
	if rows <= 0 {
		rows = DefaultLayout.Rows
	}
	return cols * rows
}

// Card is the presentational subset of a video.
type Card struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Category     string `json:"category,omitempty"`
	CategorySlug string `json:"category_slug,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Views        int64  `json:"views"`
}

// CardOf builds the card for v.
func CardOf(v catalog.Video) Card {
	c := Card{
		ID:           v.ID,
		Title:        v.Title,
		ThumbnailURL: v.ThumbnailURL,
		Category:     v.CategoryName(),
		Duration:     v.Duration,
		Views:        v.Views,
	}
	if v.Category != nil {
		c.CategorySlug = v.Category.Slug
	}
	return c
}

// Grid is the grid view-model. Exactly one of Loading, Empty or a non-empty
// Items holds.
type Grid struct {
	Columns      int    `json:"columns"`
	Items        []Card `json:"items"`
	Loading      bool   `json:"loading"`
	Placeholders int    `json:"placeholders,omitempty"`
	Empty        bool   `json:"empty"`
	EmptyMessage string `json:"empty_message,omitempty"`
}

// LoadingGrid is shown while the fetch is outstanding.
func LoadingGrid(l Layout) Grid {
	return Grid{
		Columns:      columns(l),
		Items:        []Card{},
		Loading:      true,
		Placeholders: l.Placeholders(),
	}
}

// Build filters videos and returns the grid.
func Build(videos []catalog.Video, f Filter, l Layout) Grid {
	matched := Apply(videos, f)
	g := Grid{Columns: columns(l), Items: make([]Card, 0, len(matched))}
	for _, v := range matched {
		g.Items = append(g.Items, CardOf(v))
	}
	if len(g.Items) == 0 {
		g.Empty = true
		g.EmptyMessage = EmptyMessage
	}
	return g
}

func columns(l Layout) int {
	if l.Columns <= 0 {
		return DefaultLayout.Columns
	}
	return l.Columns
}
