// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package web

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/vidfolio/internal/catalog"
	"github.com/ManuGH/vidfolio/internal/listing"
	"github.com/ManuGH/vidfolio/internal/media"
	"github.com/ManuGH/vidfolio/internal/notify"
	"github.com/ManuGH/vidfolio/internal/player"
)

// Page copy.
const (
	MsgCategoryEmpty = "Aucune vidéo n'est disponible dans cette catégorie pour le moment."
	MsgPageNotFound  = "Page non trouvée"
	MsgVideoNotFound = "Vidéo non trouvée"
)

type homeData struct {
	Featured   listing.Grid
	Categories []catalog.Category
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)

	videos := media.Videos(ctx, s.media, s.catalog.Featured(ctx, s.featured))
	cats := s.catalog.Categories(ctx)
	if ctx.Err() != nil {
		return
	}
	if len(cats) > DefaultCategoriesShown {
		cats = cats[:DefaultCategoriesShown]
	}
	for i := range cats {
		cats[i] = media.Category(ctx, s.media, cats[i])
	}

	s.render(w, r, http.StatusOK, "home", page{
		Active: "home",
		Data: homeData{
			Featured:   listing.Build(videos, listing.Filter{}, s.layout),
			Categories: cats,
		},
		Notices: col.Drain(),
	})
}

type videosData struct {
	Filter  listing.Filter
	Options []listing.Option
	Grid    listing.Grid
	// GridURL is fetched by the page to replace the skeleton grid.
	GridURL string
}

func filterOf(r *http.Request) listing.Filter {
	q := r.URL.Query()
	return listing.Filter{Category: q.Get("category"), Query: q.Get("q")}.Normalize()
}

func gridURL(f listing.Filter) string {
	u := "/partials/videos?category=" + url.QueryEscape(f.Category)
	if f.Query != "" {
		u += "&q=" + url.QueryEscape(f.Query)
	}
	return u
}

// handleVideos renders the filter bar and a loading grid; the grid body comes
// from /partials/videos.
func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)
	f := filterOf(r)

	cats := s.catalog.Categories(ctx)
	if ctx.Err() != nil {
		return
	}
	s.render(w, r, http.StatusOK, "videos", page{
		Title:  "Vidéos",
		Active: "videos",
		Data: videosData{
			Filter:  f,
			Options: listing.FilterOptions(cats, f.Category),
			Grid:    listing.LoadingGrid(s.layout),
			GridURL: gridURL(f),
		},
		Notices: col.Drain(),
	})
}

type gridData struct {
	Grid    listing.Grid
	Notices []notify.Notice
}

// handleVideoGrid renders the filtered grid fragment.
func (s *Server) handleVideoGrid(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)
	f := filterOf(r)

	videos := s.catalog.Videos(ctx)
	if ctx.Err() != nil {
		return
	}
	grid := listing.Build(media.Videos(ctx, s.media, videos), f, s.layout)
	w.Header().Set("Cache-Control", "no-store")
	s.execute(w, r, http.StatusOK, "videos", "grid-fragment", gridData{Grid: grid, Notices: col.Drain()})
}

type videoData struct {
	Video     catalog.Video
	Player    player.State
	Qualities []string
	Related   listing.Grid
	Category  *catalog.Category
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)

	v := s.catalog.Video(ctx, chi.URLParam(r, "id"))
	if ctx.Err() != nil {
		return
	}
	if v == nil {
		s.render(w, r, http.StatusNotFound, "notfound", page{Title: MsgVideoNotFound, Data: MsgVideoNotFound, Notices: col.Drain()})
		return
	}
	resolved := media.Video(ctx, s.media, *v)
	related := media.Videos(ctx, s.media, s.catalog.RelatedVideos(ctx, v, s.related))

	// Initial controls as the player presents them before the session connects.
	initial := player.State{
		Phase:           player.PhasePaused,
		Volume:          1,
		ControlsVisible: true,
		Quality:         player.QualityAuto,
		Source:          resolved.VideoURL,
	}
	s.render(w, r, http.StatusOK, "video", page{
		Title:  resolved.Title,
		Active: "videos",
		Data: videoData{
			Video:     resolved,
			Player:    initial,
			Qualities: player.Qualities,
			Related:   listing.Build(related, listing.Filter{}, listing.Layout{Columns: 3, Rows: 1}),
			Category:  resolved.Category,
		},
		Notices: col.Drain(),
	})
}

type categoryCard struct {
	Category catalog.Category
	Count    int
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)

	cats := s.catalog.Categories(ctx)
	videos := s.catalog.Videos(ctx)
	if ctx.Err() != nil {
		return
	}
	counts := make(map[string]int, len(cats))
	for _, v := range videos {
		counts[v.CategoryID]++
	}
	cards := make([]categoryCard, 0, len(cats))
	for _, c := range cats {
		cards = append(cards, categoryCard{Category: media.Category(ctx, s.media, c), Count: counts[c.ID]})
	}
	s.render(w, r, http.StatusOK, "categories", page{
		Title:   "Catégories",
		Active:  "categories",
		Data:    cards,
		Notices: col.Drain(),
	})
}

type categoryData struct {
	Category *catalog.Category
	Grid     listing.Grid
	Empty    string
}

// handleCategory renders the banner and grid, or the "not found" state with a
// 404 status.
func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	ctx, col := s.withNotices(r)
	slug := chi.URLParam(r, "slug")

	c := s.catalog.CategoryBySlug(ctx, slug)
	if ctx.Err() != nil {
		return
	}
	if c == nil {
		s.render(w, r, http.StatusNotFound, "category", page{
			Title:   catalog.MsgCategoryNotFound,
			Active:  "categories",
			Data:    categoryData{},
			Notices: col.Drain(),
		})
		return
	}
	videos := media.Videos(ctx, s.media, s.catalog.VideosByCategory(ctx, slug))
	grid := listing.Build(videos, listing.Filter{}, s.layout)
	grid.EmptyMessage = MsgCategoryEmpty
	resolved := media.Category(ctx, s.media, *c)
	s.render(w, r, http.StatusOK, "category", page{
		Title:   resolved.Name,
		Active:  "categories",
		Data:    categoryData{Category: &resolved, Grid: grid, Empty: MsgCategoryEmpty},
		Notices: col.Drain(),
	})
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about", page{Title: "À propos", Active: "about"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "notfound", page{Title: MsgPageNotFound, Data: MsgPageNotFound})
}
