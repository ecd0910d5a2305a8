// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/vidfolio/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCached(t *testing.T, store Store) *CachedStore {
	t.Helper()
	mc := cache.NewMemoryCache(0)
	t.Cleanup(func() { _ = mc.Close() })
	s, ok := NewCachedStore(store, mc, time.Minute).(*CachedStore)
	require.True(t, ok)
	return s
}

func TestNewCachedStoreZeroTTLPassesThrough(t *testing.T) {
	store := seededStore()
	assert.Same(t, Store(store), NewCachedStore(store, cache.NewMemoryCache(0), 0))
	assert.Same(t, Store(store), NewCachedStore(store, nil, time.Minute))
}

func TestCachedStoreCategories(t *testing.T) {
	store := seededStore()
	s := newCached(t, store)
	ctx := context.Background()

	first, err := s.ListCategories(ctx)
	require.NoError(t, err)
	second, err := s.ListCategories(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.callCount("list_categories"))

	first[0].Name = "mutated"
	third, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Corporate", third[0].Name)
}

func TestCachedStoreSlugMissNotCached(t *testing.T) {
	store := seededStore()
	s := newCached(t, store)
	ctx := context.Background()

	_, err := s.GetCategoryBySlug(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetCategoryBySlug(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, store.callCount("get_category_by_slug"))

	c, err := s.GetCategoryBySlug(ctx, "wedding")
	require.NoError(t, err)
	assert.Equal(t, "c-wed", c.ID)
	_, err = s.GetCategoryBySlug(ctx, "wedding")
	require.NoError(t, err)
	assert.Equal(t, 3, store.callCount("get_category_by_slug"))
}

func TestCachedStoreVideosBypassCache(t *testing.T) {
	store := seededStore()
	s := newCached(t, store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.ListVideos(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.callCount("list_videos"))
}

func TestCachedStoreCoalescesConcurrentMisses(t *testing.T) {
	store := seededStore()
	release := make(chan struct{})
	store.block = release
	s := newCached(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cats, err := s.ListCategories(context.Background())
			assert.NoError(t, err)
			assert.Len(t, cats, 2)
		}()
	}
	require.Eventually(t, func() bool { return store.callCount("list_categories") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, store.callCount("list_categories"))
}

func TestCachedStoreInvalidate(t *testing.T) {
	store := seededStore()
	s := newCached(t, store)
	ctx := context.Background()

	_, err := s.ListCategories(ctx)
	require.NoError(t, err)
	s.Invalidate(ctx)
	_, err = s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.callCount("list_categories"))
}

// cancelableStore holds category reads until release and honors ctx while waiting.
type cancelableStore struct {
	*fakeStore
	release chan struct{}
	entered chan struct{}
}

func (c *cancelableStore) ListCategories(ctx context.Context) ([]Category, error) {
	select {
	case c.entered <- struct{}{}:
	default:
	}
	select {
	case <-c.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.fakeStore.ListCategories(ctx)
}

func TestCachedStoreCanceledCallerDoesNotFailWaiters(t *testing.T) {
	store := &cancelableStore{
		fakeStore: seededStore(),
		release:   make(chan struct{}),
		entered:   make(chan struct{}, 1),
	}
	s := newCached(t, store)
	svc := NewService(s, nil)

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.ListCategories(first)
		firstErr <- err
	}()
	<-store.entered

	ctx, notices := collecting()
	got := make(chan []Category, 1)
	go func() { got <- svc.Categories(ctx) }()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(store.release)

	assert.Len(t, <-got, 2)
	assert.Empty(t, notices.Notices())
	assert.Equal(t, 1, store.callCount("list_categories"))
}
