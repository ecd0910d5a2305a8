// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Fixture is the YAML seed format for local stores.
//
//	categories:
//	  - name: Corporate
//	    slug: corporate
//	videos:
//	  - title: Launch film
//	    video_url: https://cdn.example.com/launch.mp4
//	    category: corporate
//	    upload_date: 2024-03-01
type Fixture struct {
	Categories []Category     `yaml:"categories"`
	Videos     []FixtureVideo `yaml:"videos"`
}

// FixtureVideo is a Video whose category is referenced by slug.
type FixtureVideo struct {
	ID           string            `yaml:"id"`
	Title        string            `yaml:"title"`
	Description  string            `yaml:"description"`
	ThumbnailURL string            `yaml:"thumbnail_url"`
	VideoURL     string            `yaml:"video_url"`
	Duration     string            `yaml:"duration"`
	Views        int64             `yaml:"views"`
	Category     string            `yaml:"category"`
	Client       string            `yaml:"client"`
	UploadDate   string            `yaml:"upload_date"`
	Renditions   map[string]string `yaml:"renditions"`
}

// Seeder is implemented by stores that accept writes.
type Seeder interface {
	UpsertCategory(ctx context.Context, c Category) error
	UpsertVideo(ctx context.Context, v Video) error
}

// SeedResult counts what a seed run wrote.
type SeedResult struct {
	Categories int
	Videos     int
}

// LoadFixture reads a fixture file strictly.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return DecodeFixture(data)
}

// DecodeFixture parses fixture YAML, rejecting unknown fields.
func DecodeFixture(data []byte) (*Fixture, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// seedNamespace derives stable ids for fixture rows that do not carry one, so
// seeding the same file twice updates rows instead of duplicating them.
var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://vidfolio/seed"))

// Seed upserts every category, then every video. Missing ids are derived from the
// slug or video URL, and category slugs are resolved against the fixture's own
// categories.
func Seed(ctx context.Context, s Seeder, f *Fixture) (SeedResult, error) {
	var res SeedResult
	bySlug := make(map[string]string, len(f.Categories))

	for i := range f.Categories {
		c := f.Categories[i]
		normalizeCategory(&c)
		if c.Name == "" || c.Slug == "" {
			return res, fmt.Errorf("category %d: name and slug are required", i)
		}
		if _, dup := bySlug[c.Slug]; dup {
			return res, fmt.Errorf("category %d: duplicate slug %q", i, c.Slug)
		}
		if c.ID == "" {
			c.ID = uuid.NewSHA1(seedNamespace, []byte("category:"+c.Slug)).String()
		}
		if err := s.UpsertCategory(ctx, c); err != nil {
			return res, err
		}
		bySlug[c.Slug] = c.ID
		res.Categories++
	}

	for i, fv := range f.Videos {
		v, err := fv.video(bySlug)
		if err != nil {
			return res, fmt.Errorf("video %d: %w", i, err)
		}
		if err := s.UpsertVideo(ctx, v); err != nil {
			return res, err
		}
		res.Videos++
	}
	return res, nil
}

func (fv FixtureVideo) video(bySlug map[string]string) (Video, error) {
	v := Video{
		ID:           strings.TrimSpace(fv.ID),
		Title:        fv.Title,
		Description:  fv.Description,
		ThumbnailURL: strings.TrimSpace(fv.ThumbnailURL),
		VideoURL:     strings.TrimSpace(fv.VideoURL),
		Duration:     strings.TrimSpace(fv.Duration),
		Views:        fv.Views,
		Client:       fv.Client,
		Renditions:   fv.Renditions,
	}
	normalizeVideo(&v)
	if v.Title == "" || v.VideoURL == "" {
		return v, errors.New("title and video_url are required")
	}
	if v.ID == "" {
		v.ID = uuid.NewSHA1(seedNamespace, []byte("video:"+v.VideoURL)).String()
	}
	if slug := strings.TrimSpace(fv.Category); slug != "" {
		id, ok := bySlug[slug]
		if !ok {
			return v, fmt.Errorf("unknown category %q", slug)
		}
		v.CategoryID = id
	}
	if raw := strings.TrimSpace(fv.UploadDate); raw != "" {
		var col timeColumn
		if err := col.parse(raw); err != nil {
			return v, err
		}
		v.UploadDate = col.Time
	}
	return v, nil
}
