// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/vidfolio/internal/metrics"
	"github.com/ManuGH/vidfolio/internal/telemetry"
)

// Store is the hosted data store collaborator.
type Store interface {
	// ListVideos returns every video, newest upload first, category embedded.
	ListVideos(ctx context.Context) ([]Video, error)
	// GetVideo returns one video with its category, or ErrNotFound.
	GetVideo(ctx context.Context, id string) (*Video, error)
	// ListVideosByCategoryID returns the videos of one category, newest first.
	ListVideosByCategoryID(ctx context.Context, categoryID string) ([]Video, error)
	// ListCategories returns every category ordered by name.
	ListCategories(ctx context.Context) ([]Category, error)
	// GetCategoryBySlug returns one category, or ErrNotFound.
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	// IncrementViews adds one view to a video.
	IncrementViews(ctx context.Context, videoID string) error
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Incrementer is the part of a Store view counters write through.
type Incrementer interface {
	IncrementViews(ctx context.Context, videoID string) error
}

// Instrument wraps s with latency metrics and tracing spans labelled by backend.
func Instrument(s Store, backend string) Store {
	return &instrumented{next: s, backend: backend}
}

type instrumented struct {
	next    Store
	backend string
}

func (i *instrumented) observe(ctx context.Context, op string, fn func(context.Context) error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "catalog", "catalog."+op, telemetry.CatalogAttributes(i.backend, op)...)
	err := fn(ctx)
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	telemetry.EndSpan(span, err)
	metrics.ObserveStoreQuery(i.backend, op, time.Since(start))
}

func (i *instrumented) ListVideos(ctx context.Context) (out []Video, err error) {
	i.observe(ctx, "list_videos", func(ctx context.Context) error {
		out, err = i.next.ListVideos(ctx)
		return err
	})
	return out, err
}

func (i *instrumented) GetVideo(ctx context.Context, id string) (out *Video, err error) {
	i.observe(ctx, "get_video", func(ctx context.Context) error {
		out, err = i.next.GetVideo(ctx, id)
		return err
	})
	return out, err
}

func (i *instrumented) ListVideosByCategoryID(ctx context.Context, categoryID string) (out []Video, err error) {
	i.observe(ctx, "list_videos_by_category", func(ctx context.Context) error {
		out, err = i.next.ListVideosByCategoryID(ctx, categoryID)
		return err
	})
	return out, err
}

func (i *instrumented) ListCategories(ctx context.Context) (out []Category, err error) {
	i.observe(ctx, "list_categories", func(ctx context.Context) error {
		out, err = i.next.ListCategories(ctx)
		return err
	})
	return out, err
}

func (i *instrumented) GetCategoryBySlug(ctx context.Context, slug string) (out *Category, err error) {
	i.observe(ctx, "get_category_by_slug", func(ctx context.Context) error {
		out, err = i.next.GetCategoryBySlug(ctx, slug)
		return err
	})
	return out, err
}

func (i *instrumented) IncrementViews(ctx context.Context, videoID string) (err error) {
	i.observe(ctx, "increment_views", func(ctx context.Context) error {
		err = i.next.IncrementViews(ctx, videoID)
		return err
	})
	return err
}

func (i *instrumented) Ping(ctx context.Context) error {
	return i.next.Ping(ctx)
}
