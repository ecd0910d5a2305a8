// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ManuGH/vidfolio/internal/cache"
	xglog "github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyCategories   = "categories"
	cacheKeyCategorySlug = "category:"
)

// CachedStore caches category reads. Videos always go to the store so view counts
// stay live. Concurrent misses for the same key share one store call.
type CachedStore struct {
	Store
	cache cache.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedStore wraps s. A non-positive ttl returns s unchanged.
func NewCachedStore(s Store, c cache.Cache, ttl time.Duration) Store {
	if ttl <= 0 || c == nil {
		return s
	}
	return &CachedStore{Store: s, cache: c, ttl: ttl}
}

// ListCategories implements Store.
func (s *CachedStore) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if s.lookup(ctx, cacheKeyCategories, &out) {
		return out, nil
	}
	v, err := s.share(ctx, cacheKeyCategories, func(ctx context.Context) (any, error) {
		cats, err := s.Store.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, cacheKeyCategories, cats)
		return cats, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneCategories(v.([]Category)), nil
}

// GetCategoryBySlug implements Store. Misses are not cached.
func (s *CachedStore) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	key := cacheKeyCategorySlug + slug
	var out Category
	if s.lookup(ctx, key, &out) {
		return &out, nil
	}
	v, err := s.share(ctx, key, func(ctx context.Context) (any, error) {
		cat, err := s.Store.GetCategoryBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			return nil, ErrNotFound
		}
		s.fill(ctx, key, cat)
		return cat, nil
	})
	if err != nil {
		return nil, err
	}
	cat := *(v.(*Category))
	return &cat, nil
}

// share runs load once per key for all concurrent callers. The load is detached
// from the caller that started it; each caller stops waiting on its own ctx.
func (s *CachedStore) share(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		return load(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops every cached category entry.
func (s *CachedStore) Invalidate(ctx context.Context) {
	s.cache.Clear(ctx)
}

func (s *CachedStore) lookup(ctx context.Context, key string, dst any) bool {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		metrics.RecordCacheLookup(keyLabel(key), "miss")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		metrics.RecordCacheLookup(keyLabel(key), metrics.ResultError)
		logger := xglog.WithComponentFromContext(ctx, "catalog")
		logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		s.cache.Delete(ctx, key)
		return false
	}
	metrics.RecordCacheLookup(keyLabel(key), "hit")
	return true
}

func (s *CachedStore) fill(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, raw, s.ttl)
}

func keyLabel(key string) string {
	if key == cacheKeyCategories {
		return key
	}
	return "category"
}

func cloneCategories(in []Category) []Category {
	out := make([]Category, len(in))
	copy(out, in)
	return out
}
