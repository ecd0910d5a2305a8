// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package web

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/notify"
)

var french = message.NewPrinter(language.French)

var months = [...]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Juin", "Juil", "Août", "Sep", "Oct", "Nov", "Déc"}

var funcs = template.FuncMap{
	"views":    formatViews,
	"date":     formatDate,
	"number":   func(n int) string { return french.Sprintf("%d", n) },
	"path":     url.PathEscape,
	"query":    url.QueryEscape,
	"fallback": fallback,
}

// formatViews renders a view count compactly: 950, 1.2k, 3.4M.
func formatViews(n int64) string {
	switch {
	case n >= 1_000_000:
		return trimZero(float64(n)/1_000_000) + "M"
	case n >= 1_000:
		return trimZero(float64(n)/1_000) + "k"
	default:
		return fmt.Sprintf("%d", max(n, 0))
	}
}

func trimZero(f float64) string {
	s := fmt.Sprintf("%.1f", float64(int64(f*10))/10)
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		return s[:len(s)-2]
	}
	return s
}

// formatDate renders t as "15 Avr 2023", or "" for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// page is the data every template receives.
type page struct {
	Site    Site
	Title   string
	Active  string
	Notices []notify.Notice
	Data    any
}

// withNotices attaches a fresh collector to the request context.
func (s *Server) withNotices(r *http.Request) (context.Context, *notify.Collector) {
	col := notify.NewCollector()
	return notify.WithNotifier(r.Context(), notify.Multi(s.notifier, col)), col
}

// render executes the named page into a buffer so a template error never leaves
// a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	p.Site = s.site
	s.execute(w, r, status, name, "layout", p)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, status int, name, tmpl string, data any) {
	t, ok := s.pages[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, tmpl, data); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "web")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "web.render_failed").
			Str("page", name).
			Msg("template rendering failed")
		http.Error(w, "template rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
