// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package listing

import (
	"testing"

	"github.com/ManuGH/vidfolio/internal/catalog"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var (
	events    = &catalog.Category{ID: "c-ev", Name: "Événements", Slug: "events"}
	corporate = &catalog.Category{ID: "c-corp", Name: "Corporate", Slug: "corporate"}
)

func fixtures() []catalog.Video {
	return []catalog.Video{
		{ID: "1", Title: "Soirée de LANCEMENT", CategoryID: "c-ev", Category: events},
		{ID: "2", Title: "Gala annuel", Description: "Le lancement du gala", CategoryID: "c-ev", Category: events},
		{ID: "3", Title: "Lancement produit", CategoryID: "c-corp", Category: corporate},
		{ID: "4", Title: "Interview", CategoryID: "c-corp", Category: corporate},
		{ID: "5", Title: "Sans catégorie"},
	}
}

func idsOf(videos []catalog.Video) []string {
	out := []string{}
	for _, v := range videos {
		out = append(out, v.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "zero filter", filter: Filter{}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "all", filter: Filter{Category: AllCategories}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "category by slug", filter: Filter{Category: "events"}, want: []string{"1", "2"}},
		{name: "category by id", filter: Filter{Category: "c-corp"}, want: []string{"3", "4"}},
		{name: "category and query", filter: Filter{Category: "events", Query: "lancement"}, want: []string{"1", "2"}},
		{name: "query only", filter: Filter{Query: "  Lancement "}, want: []string{"1", "2", "3"}},
		{name: "query matches category name", filter: Filter{Query: "ÉVÉNEMENTS"}, want: []string{"1", "2"}},
		{name: "no match", filter: Filter{Category: "corporate", Query: "gala"}, want: []string{}},
		{name: "unknown category", filter: Filter{Category: "nope"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idsOf(Apply(fixtures(), tt.filter)))
		})
	}
}

func TestApplyUnicodeFolding(t *testing.T) {
	videos := []catalog.Video{{ID: "1", Title: "Straße"}}
	assert.Len(t, Apply(videos, Filter{Query: "STRASSE"}), 1)
}

func TestFilterOptions(t *testing.T) {
	cats := []catalog.Category{*corporate, *events}

	got := FilterOptions(cats, "events")
	want := []Option{
		{Value: AllCategories, Label: "Toutes les vidéos"},
		{Value: "corporate", Label: "Corporate"},
		{Value: "events", Label: "Événements", Selected: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	for _, sel := range []string{"", AllCategories, "unknown"} {
		opts := FilterOptions(cats, sel)
		assert.True(t, opts[0].Selected, sel)
		assert.False(t, opts[1].Selected || opts[2].Selected, sel)
	}

	assert.True(t, FilterOptions(cats, "c-corp")[1].Selected)
}

func TestBuildEmptyState(t *testing.T) {
	g := Build(fixtures(), Filter{Query: "zzz"}, Layout{Columns: 4, Rows: 2})
	assert.True(t, g.Empty)
	assert.Equal(t, EmptyMessage, g.EmptyMessage)
	assert.NotNil(t, g.Items)
	assert.Empty(t, g.Items)
	assert.Equal(t, 4, g.Columns)

	g = Build(fixtures(), Filter{Category: "corporate"}, DefaultLayout)
	assert.False(t, g.Empty)
	assert.Equal(t, []Card{
		{ID: "3", Title: "Lancement produit", Category: "Corporate", CategorySlug: "corporate"},
		{ID: "4", Title: "Interview", Category: "Corporate", CategorySlug: "corporate"},
	}, g.Items)
}

func TestLoadingGrid(t *testing.T) {
	g := LoadingGrid(Layout{Columns: 4, Rows: 2})
	assert.True(t, g.Loading)
	assert.Equal(t, 8, g.Placeholders)
	assert.Equal(t, 4, g.Columns)
	assert.False(t, g.Empty)

	assert.Equal(t, 6, LoadingGrid(Layout{}).Placeholders)
}

func TestFilterIsZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.True(t, Filter{Category: " all ", Query: "  "}.IsZero())
	assert.False(t, Filter{Query: "x"}.IsZero())
}
