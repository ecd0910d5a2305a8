// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
categories:
  - name: Corporate
    slug: corporate
  - id: c-wed
    name: Wedding
    slug: wedding
videos:
  - title: Launch film
    video_url: https://cdn.example.com/launch.mp4
    category: corporate
    upload_date: 2024-03-01
    renditions:
      720p: https://cdn.example.com/launch-720.mp4
  - id: vows
    title: Vows
    video_url: https://cdn.example.com/vows.mp4
    category: wedding
    views: 42
`

func TestSeedIntoSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))

	f, err := LoadFixture(path)
	require.NoError(t, err)
	store := newTestSQLiteStore(t)

	res, err := Seed(ctx, store, f)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Categories: 2, Videos: 2}, res)

	vows, err := store.GetVideo(ctx, "vows")
	require.NoError(t, err)
	assert.Equal(t, "c-wed", vows.CategoryID)
	assert.Equal(t, int64(42), vows.Views)

	corp, err := store.GetCategoryBySlug(ctx, "corporate")
	require.NoError(t, err)
	assert.NotEmpty(t, corp.ID)

	byCat, err := store.ListVideosByCategoryID(ctx, corp.ID)
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, "Launch film", byCat[0].Title)
	assert.Equal(t, 2024, byCat[0].UploadDate.Year())

	// seeding twice updates in place
	_, err = Seed(ctx, store, f)
	require.NoError(t, err)
	cats, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)
	videos, err := store.ListVideos(ctx)
	require.NoError(t, err)
	assert.Len(t, videos, 2)
}

func TestDecodeFixtureRejectsUnknownFields(t *testing.T) {
	_, err := DecodeFixture([]byte("videos:\n  - title: x\n    colour: red\n"))
	assert.Error(t, err)

	f, err := DecodeFixture(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Videos)
}

func TestSeedValidation(t *testing.T) {
	tests := []struct {
		name string
		f    Fixture
	}{
		{name: "category without slug", f: Fixture{Categories: []Category{{Name: "x"}}}},
		{name: "duplicate slug", f: Fixture{Categories: []Category{{Name: "a", Slug: "s"}, {Name: "b", Slug: "s"}}}},
		{name: "video without url", f: Fixture{Videos: []FixtureVideo{{Title: "t"}}}},
		{name: "unknown category", f: Fixture{Videos: []FixtureVideo{{Title: "t", VideoURL: "u", Category: "nope"}}}},
		{name: "bad date", f: Fixture{Videos: []FixtureVideo{{Title: "t", VideoURL: "u", UploadDate: "soon"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Seed(context.Background(), newTestSQLiteStore(t), &tt.f)
			assert.Error(t, err)
		})
	}
}
