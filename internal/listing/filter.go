// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package listing builds the browsable video grid: category filter, free-text
// search, loading placeholders and the empty state.
package listing

import (
	"strings"

	"github.com/ManuGH/vidfolio/internal/catalog"
	"golang.org/x/text/cases"
)

// AllCategories is the implicit filter value that selects every category.
const AllCategories = "all"

// AllCategoriesLabel is the display label of the implicit option.
const AllCategoriesLabel = "Toutes les vidéos"

// Filter is the active grid filter. Category is a single category id or slug;
// empty or AllCategories selects everything.
type Filter struct {
	Category string `json:"category,omitempty"`
	Query    string `json:"q,omitempty"`
}

// Normalize trims both fields and maps an empty category to AllCategories.
func (f Filter) Normalize() Filter {
	f.Category = strings.TrimSpace(f.Category)
	if f.Category == "" {
		f.Category = AllCategories
	}
	f.Query = strings.TrimSpace(f.Query)
	return f
}

// IsZero reports whether the filter selects every video.
func (f Filter) IsZero() bool {
	n := f.Normalize()
	return n.Category == AllCategories && n.Query == ""
}

// Apply returns the videos matching both the category and the query. Matching is
// a case-folded substring test over title, category name and description.
func Apply(videos []catalog.Video, f Filter) []catalog.Video {
	f = f.Normalize()
	fold := cases.Fold()
	query := fold.String(f.Query)

	out := make([]catalog.Video, 0, len(videos))
	for _, v := range videos {
		if !matchesCategory(v, f.Category) {
			continue
		}
		if query != "" && !matchesQuery(fold, v, query) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func matchesCategory(v catalog.Video, category string) bool {
	if category == AllCategories {
		return true
	}
	if v.CategoryID == category {
		return true
	}
	return v.Category != nil && (v.Category.ID == category || v.Category.Slug == category)
}

func matchesQuery(fold cases.Caser, v catalog.Video, query string) bool {
	for _, field := range []string{v.Title, v.CategoryName(), v.Description} {
		if field != "" && strings.Contains(fold.String(field), query) {
			return true
		}
	}
	return false
}

// Option is one entry of the category filter control.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// FilterOptions returns the implicit "all" option followed by one option per
// category. Exactly one option is selected; an unknown selection falls back to all.
func FilterOptions(categories []catalog.Category, selected string) []Option {
	selected = strings.TrimSpace(selected)
	out := make([]Option, 0, len(categories)+1)
	out = append(out, Option{Value: AllCategories, Label: AllCategoriesLabel})
	found := false
	for _, c := range categories {
		on := !found && selected != "" && selected != AllCategories && (c.Slug == selected || c.ID == selected)
		found = found || on
		out = append(out, Option{Value: c.Slug, Label: c.Name, Selected: on})
	}
	out[0].Selected = !found
	return out
}
