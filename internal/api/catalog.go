// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/vidfolio/internal/catalog"
	"github.com/ManuGH/vidfolio/internal/listing"
	"github.com/ManuGH/vidfolio/internal/media"
	"github.com/ManuGH/vidfolio/internal/notify"
)

// VideoList is the body of the video listing endpoints.
type VideoList struct {
	Videos  []catalog.Video `json:"videos"`
	Filter  *listing.Filter `json:"filter,omitempty"`
	Notices []notify.Notice `json:"notices"`
}

// VideoDetail is the body of GET /videos/{id}.
type VideoDetail struct {
	Video   catalog.Video   `json:"video"`
	Related []catalog.Video `json:"related"`
	Notices []notify.Notice `json:"notices"`
}

// CategoryList is the body of GET /categories.
type CategoryList struct {
	Categories []catalog.Category `json:"categories"`
	Notices    []notify.Notice    `json:"notices"`
}

// CategoryDetail is the body of GET /categories/{slug}.
type CategoryDetail struct {
	Category catalog.Category `json:"category"`
	Notices  []notify.Notice  `json:"notices"`
}

// handleListVideos serves GET /videos, optionally narrowed by ?category and ?q.
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)

	videos := s.catalog.Videos(ctx)
	if ctx.Err() != nil {
		return
	}
	resp := VideoList{}
	f := listing.Filter{Category: r.URL.Query().Get("category"), Query: r.URL.Query().Get("q")}
	if !f.IsZero() {
		videos = listing.Apply(videos, f)
		nf := f.Normalize()
		resp.Filter = &nf
	}
	resp.Videos = media.Videos(ctx, s.media, videos)
	resp.Notices = col.Drain()
	writeJSON(w, http.StatusOK, resp)
}

// handleGetVideo serves GET /videos/{id} with up to RelatedCount related videos.
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)

	v := s.catalog.Video(ctx, chi.URLParam(r, "id"))
	if ctx.Err() != nil {
		return
	}
	if v == nil {
		writeNotFound(w, r, "catalog/video_not_found", "video not found", col.Drain())
		return
	}
	related := s.catalog.RelatedVideos(ctx, v, s.related)
	writeJSON(w, http.StatusOK, VideoDetail{
		Video:   media.Video(ctx, s.media, *v),
		Related: media.Videos(ctx, s.media, related),
		Notices: col.Drain(),
	})
}

// handleListCategories serves GET /categories.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)

	cats := s.catalog.Categories(ctx)
	if ctx.Err() != nil {
		return
	}
	out := make([]catalog.Category, len(cats))
	for i := range cats {
		out[i] = media.Category(ctx, s.media, cats[i])
	}
	writeJSON(w, http.StatusOK, CategoryList{Categories: out, Notices: col.Drain()})
}

// handleGetCategory serves GET /categories/{slug}.
func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)

	c := s.catalog.CategoryBySlug(ctx, chi.URLParam(r, "slug"))
	if ctx.Err() != nil {
		return
	}
	if c == nil {
		writeNotFound(w, r, "catalog/category_not_found", catalog.MsgCategoryNotFound, col.Drain())
		return
	}
	writeJSON(w, http.StatusOK, CategoryDetail{Category: media.Category(ctx, s.media, *c), Notices: col.Drain()})
}

// handleCategoryVideos serves GET /categories/{slug}/videos. An unknown slug is an
// empty list carrying the "not found" notice.
func (s *Server) handleCategoryVideos(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)

	videos := s.catalog.VideosByCategory(ctx, chi.URLParam(r, "slug"))
	if ctx.Err() != nil {
		return
	}
	writeJSON(w, http.StatusOK, VideoList{
		Videos:  media.Videos(ctx, s.media, videos),
		Notices: col.Drain(),
	})
}
