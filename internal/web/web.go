// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package web serves the server-rendered portfolio pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/vidfolio/internal/api/middleware"
	"github.com/ManuGH/vidfolio/internal/catalog"
	"github.com/ManuGH/vidfolio/internal/contact"
	"github.com/ManuGH/vidfolio/internal/listing"
	"github.com/ManuGH/vidfolio/internal/media"
	"github.com/ManuGH/vidfolio/internal/notify"
)

//go:embed templates static
var assets embed.FS

// Defaults for zero-valued Deps fields.
const (
	DefaultFeaturedCount   = 6
	DefaultCategoriesShown = 4
	DefaultRelatedCount    = 3
	DefaultContactRPM      = 10
)

// Site holds presentation settings shared by every page.
type Site struct {
	Title        string
	BaseURL      string
	ContactEmail string
	Address      string
	Phone        string
	// MapQuery is the location shown in the contact page map.
	MapQuery string
}

// Deps are the collaborators of the page server.
type Deps struct {
	Catalog *catalog.Service
	Media   media.Resolver
	Contact contact.Handoff
	Site    Site
	Layout  listing.Layout
	// Notifier receives every notice besides the per-request collector.
	Notifier      notify.Notifier
	FeaturedCount int
	RelatedCount  int
	ContactRPM    int
	// FormClock drives the contact form reset timer.
	FormClock contact.Clock
}

// Server renders the pages.
type Server struct {
	catalog  *catalog.Service
	media    media.Resolver
	handoff  contact.Handoff
	site     Site
	layout   listing.Layout
	notifier notify.Notifier
	featured int
	related  int
	rpm      int
	clock    contact.Clock

	pages  map[string]*template.Template
	static http.Handler
}

var pageNames = []string{"home", "videos", "video", "categories", "category", "about", "contact", "notfound"}

// New parses the embedded templates and builds the server.
func New(d Deps) (*Server, error) {
	s := &Server{
		catalog:  d.Catalog,
		media:    d.Media,
		handoff:  d.Contact,
		site:     d.Site,
		layout:   d.Layout,
		notifier: d.Notifier,
		featured: d.FeaturedCount,
		related:  d.RelatedCount,
		rpm:      d.ContactRPM,
		clock:    d.FormClock,
		pages:    make(map[string]*template.Template, len(pageNames)),
	}
	if s.media == nil {
		s.media = media.Passthrough{}
	}
	if s.notifier == nil {
		s.notifier = notify.LogNotifier{}
	}
	if s.featured <= 0 {
		s.featured = DefaultFeaturedCount
	}
	if s.related <= 0 {
		s.related = DefaultRelatedCount
	}
	if s.rpm <= 0 {
		s.rpm = DefaultContactRPM
	}
	if s.site.Title == "" {
		s.site.Title = "Vidfolio"
	}

	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(assets,
			"templates/layout.html",
			"templates/partials/*.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		s.pages[name] = t
	}

	sub, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	s.static = staticHandler(http.FileServer(http.FS(sub)))
	return s, nil
}

// Routes returns the page router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(s.handleNotFound)

	r.Get("/", s.handleHome)
	r.Get("/videos", s.handleVideos)
	r.Get("/partials/videos", s.handleVideoGrid)
	r.Get("/videos/{id}", s.handleVideo)
	r.Get("/categories", s.handleCategories)
	r.Get("/categories/{slug}", s.handleCategory)
	r.Get("/about", s.handleAbout)
	r.Get("/contact", s.handleContact)
	r.With(middleware.ContactRateLimit(s.rpm)).Post("/contact", s.handleContactSubmit)
	r.Handle("/static/*", http.StripPrefix("/static", s.static))
	return r
}

// staticHandler serves embedded assets. They are not content-hashed, so clients
// revalidate instead of caching forever.
func staticHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		next.ServeHTTP(w, r)
	})
}
