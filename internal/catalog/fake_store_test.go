// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"sort"
	"sync"
)

// fakeStore is an in-memory Store with per-operation failure injection.
type fakeStore struct {
	mu         sync.Mutex
	videos     []Video
	categories []Category
	errs       map[string]error
	calls      map[string]int
	increments map[string]int
	block      chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		errs:       map[string]error{},
		calls:      map[string]int{},
		increments: map[string]int{},
	}
}

func (f *fakeStore) enter(op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.errs[op]
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeStore) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) viewsOf(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.increments[id]
}

func (f *fakeStore) withCategory(v Video) Video {
	for i := range f.categories {
		if f.categories[i].ID == v.CategoryID {
			c := f.categories[i]
			v.Category = &c
		}
	}
	return v
}

func (f *fakeStore) ListVideos(context.Context) ([]Video, error) {
	if err := f.enter("list_videos"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Video{}
	for _, v := range f.videos {
		out = append(out, f.withCategory(v))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadDate.After(out[j].UploadDate) })
	return out, nil
}

func (f *fakeStore) GetVideo(_ context.Context, id string) (*Video, error) {
	if err := f.enter("get_video"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.videos {
		if v.ID == id {
			out := f.withCategory(v)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ListVideosByCategoryID(_ context.Context, categoryID string) ([]Video, error) {
	if err := f.enter("list_videos_by_category"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Video{}
	for _, v := range f.videos {
		if v.CategoryID == categoryID {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadDate.After(out[j].UploadDate) })
	return out, nil
}

func (f *fakeStore) ListCategories(context.Context) ([]Category, error) {
	if err := f.enter("list_categories"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]Category{}, f.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetCategoryBySlug(_ context.Context, slug string) (*Category, error) {
	if err := f.enter("get_category_by_slug"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Slug == slug {
			out := c
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) IncrementViews(_ context.Context, videoID string) error {
	if err := f.enter("increment_views"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments[videoID]++
	return nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.enter("ping")
}

// recordingCounter captures Record calls.
type recordingCounter struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingCounter) Record(id string) {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
}

func (r *recordingCounter) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}
