// SPDX-License-Identifier: MIT

// Package api serves the JSON API mounted under /api/v1.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	openapi "github.com/ManuGH/vidfolio/api"
	"github.com/ManuGH/vidfolio/internal/api/middleware"
	"github.com/ManuGH/vidfolio/internal/api/problem"
	"github.com/ManuGH/vidfolio/internal/catalog"
	"github.com/ManuGH/vidfolio/internal/contact"
	"github.com/ManuGH/vidfolio/internal/media"
	"github.com/ManuGH/vidfolio/internal/notify"
	"github.com/ManuGH/vidfolio/internal/player/session"
)

// Prefix is where Routes is mounted.
const Prefix = "/api/v1"

// DefaultRelatedCount is the number of related videos returned with a video.
const DefaultRelatedCount = 3

// DefaultContactRPM limits contact submissions per client and minute.
const DefaultContactRPM = 5

// Deps are the collaborators of the JSON API.
type Deps struct {
	Catalog  *catalog.Service
	Sessions *session.Registry
	// Media resolves stored media URLs to playable ones. Nil passes them through.
	Media   media.Resolver
	Contact contact.Handoff
	// Notifier receives every notice besides the per-request collector.
	Notifier     notify.Notifier
	RelatedCount int
	ContactRPM   int
}

// Server implements the JSON API handlers.
type Server struct {
	catalog  *catalog.Service
	sessions *session.Registry
	media    media.Resolver
	handoff  contact.Handoff
	notifier notify.Notifier
	related  int
	rpm      int
}

// New builds the API server. Zero-valued options select the defaults.
func New(d Deps) *Server {
	s := &Server{
		catalog:  d.Catalog,
		sessions: d.Sessions,
		media:    d.Media,
		handoff:  d.Contact,
		notifier: d.Notifier,
		related:  d.RelatedCount,
		rpm:      d.ContactRPM,
	}
	if s.media == nil {
		s.media = media.Passthrough{}
	}
	if s.notifier == nil {
		s.notifier = notify.LogNotifier{}
	}
	if s.related <= 0 {
		s.related = DefaultRelatedCount
	}
	if s.rpm <= 0 {
		s.rpm = DefaultContactRPM
	}
	return s
}

// Routes returns the API router, to be mounted at Prefix.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		problem.Write(w, req, http.StatusNotFound, "api/not_found", "Not Found", "NOT_FOUND", "no such endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		problem.Write(w, req, http.StatusMethodNotAllowed, "api/method_not_allowed", "Method Not Allowed", "METHOD_NOT_ALLOWED", "", nil)
	})

	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(openapi.Spec)
	})

	r.Get("/videos", s.handleListVideos)
	r.Get("/videos/{id}", s.handleGetVideo)
	r.Get("/categories", s.handleListCategories)
	r.Get("/categories/{slug}", s.handleGetCategory)
	r.Get("/categories/{slug}/videos", s.handleCategoryVideos)

	r.With(middleware.ContactRateLimit(s.rpm)).Post("/contact", s.handleContact)

	if s.sessions != nil {
		r.Route("/playback/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Post("/{id}/events", s.handleSessionEvent)
			r.Get("/{id}/stream", s.handleSessionStream)
			r.Delete("/{id}", s.handleCloseSession)
		})
	}
	return r
}
