// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"errors"
	"strings"

	xglog "github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/metrics"
	"github.com/ManuGH/vidfolio/internal/notify"
)

// Service is the data access layer used by pages and the JSON API.
type Service struct {
	store Store
	views ViewCounter
}

// NewService creates a catalog service. A nil counter disables view counting.
func NewService(store Store, views ViewCounter) *Service {
	if views == nil {
		views = NopCounter{}
	}
	return &Service{store: store, views: views}
}

// Store returns the underlying store.
func (s *Service) Store() Store { return s.store }

// fail logs err, notifies the user with text and counts the failure.
func (s *Service) fail(ctx context.Context, op string, err error, text string) {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// request torn down; nobody is left to notify
		metrics.RecordCatalogQuery(op, "canceled")
		return
	}
	logger := xglog.WithComponentFromContext(ctx, "catalog")
	logger.Error().
		Err(err).
		Str(xglog.FieldOp, op).
		Str(xglog.FieldEvent, "catalog.query_failed").
		Msg("catalog query failed")
	notify.Send(ctx, notify.Error, text)
	metrics.RecordCatalogQuery(op, metrics.ResultError)
}

func record(op string, n int) {
	if n == 0 {
		metrics.RecordCatalogQuery(op, metrics.ResultEmpty)
		return
	}
	metrics.RecordCatalogQuery(op, metrics.ResultOK)
}

func normalizeVideos(in []Video) []Video {
	out := make([]Video, 0, len(in))
	for i := range in {
		v := in[i]
		normalizeVideo(&v)
		out = append(out, v)
	}
	return out
}

// Videos lists every video, newest upload first.
func (s *Service) Videos(ctx context.Context) []Video {
	videos, err := s.store.ListVideos(ctx)
	if err != nil {
		s.fail(ctx, "videos", err, MsgVideosFailed)
		return []Video{}
	}
	record("videos", len(videos))
	return normalizeVideos(videos)
}

// Video fetches one video. On success a view increment is recorded asynchronously;
// its outcome never affects the result.
func (s *Service) Video(ctx context.Context, id string) *Video {
	id = strings.TrimSpace(id)
	if id == "" {
		s.fail(ctx, "video", ErrInvalidID, MsgVideoFailed)
		return nil
	}
	v, err := s.store.GetVideo(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.RecordCatalogQuery("video", metrics.ResultNotFound)
			logger := xglog.WithComponentFromContext(ctx, "catalog")
			logger.Info().
				Str(xglog.FieldVideoID, id).
				Str(xglog.FieldEvent, "catalog.video_not_found").
				Msg("video not found")
			notify.Send(ctx, notify.Error, MsgVideoFailed)
			return nil
		}
		s.fail(ctx, "video", err, MsgVideoFailed)
		return nil
	}
	if v == nil {
		metrics.RecordCatalogQuery("video", metrics.ResultNotFound)
		notify.Send(ctx, notify.Error, MsgVideoFailed)
		return nil
	}

	s.views.Record(v.ID)
	metrics.RecordCatalogQuery("video", metrics.ResultOK)
	out := *v
	normalizeVideo(&out)
	return &out
}

// VideosByCategory lists the videos of the category identified by slug. An unknown
// slug yields an empty result and a "not found" notification.
func (s *Service) VideosByCategory(ctx context.Context, slug string) []Video {
	slug = strings.TrimSpace(slug)
	cat, err := s.store.GetCategoryBySlug(ctx, slug)
	if err != nil || cat == nil {
		if err == nil || errors.Is(err, ErrNotFound) {
			metrics.RecordCatalogQuery("videos_by_category", metrics.ResultNotFound)
			logger := xglog.WithComponentFromContext(ctx, "catalog")
			logger.Info().
				Str(xglog.FieldSlug, slug).
				Str(xglog.FieldEvent, "catalog.category_not_found").
				Msg("category not found")
			notify.Send(ctx, notify.Error, MsgCategoryNotFound)
			return []Video{}
		}
		s.fail(ctx, "videos_by_category", err, MsgCategoryNotFound)
		return []Video{}
	}

	videos, err := s.store.ListVideosByCategoryID(ctx, cat.ID)
	if err != nil {
		s.fail(ctx, "videos_by_category", err, MsgVideosFailed)
		return []Video{}
	}
	record("videos_by_category", len(videos))
	out := normalizeVideos(videos)
	for i := range out {
		if out[i].Category == nil {
			c := *cat
			out[i].Category = &c
		}
	}
	return out
}

// Categories lists every category alphabetically by name.
func (s *Service) Categories(ctx context.Context) []Category {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		s.fail(ctx, "categories", err, MsgCategoriesFailed)
		return []Category{}
	}
	record("categories", len(cats))
	out := make([]Category, len(cats))
	for i := range cats {
		out[i] = cats[i]
		normalizeCategory(&out[i])
	}
	return out
}

// CategoryBySlug fetches one category, or nil.
func (s *Service) CategoryBySlug(ctx context.Context, slug string) *Category {
	slug = strings.TrimSpace(slug)
	cat, err := s.store.GetCategoryBySlug(ctx, slug)
	if err != nil || cat == nil {
		if err == nil || errors.Is(err, ErrNotFound) {
			metrics.RecordCatalogQuery("category", metrics.ResultNotFound)
			notify.Send(ctx, notify.Error, MsgCategoryLookupFail)
			return nil
		}
		s.fail(ctx, "category", err, MsgCategoryLookupFail)
		return nil
	}
	metrics.RecordCatalogQuery("category", metrics.ResultOK)
	out := *cat
	normalizeCategory(&out)
	return &out
}

// RelatedVideos returns up to limit other videos of v's category, newest first.
func (s *Service) RelatedVideos(ctx context.Context, v *Video, limit int) []Video {
	if v == nil || v.CategoryID == "" || limit <= 0 {
		return []Video{}
	}
	videos, err := s.store.ListVideosByCategoryID(ctx, v.CategoryID)
	if err != nil {
		s.fail(ctx, "related", err, MsgVideosFailed)
		return []Video{}
	}
	out := make([]Video, 0, min(limit, len(videos)))
	for _, candidate := range normalizeVideos(videos) {
		if candidate.ID == v.ID {
			continue
		}
		out = append(out, candidate)
		if len(out) == limit {
			break
		}
	}
	record("related", len(out))
	return out
}

// Featured returns the newest limit videos.
func (s *Service) Featured(ctx context.Context, limit int) []Video {
	videos := s.Videos(ctx)
	if limit >= 0 && len(videos) > limit {
		videos = videos[:limit]
	}
	return videos
}

// Ping reports store reachability for readiness checks.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
