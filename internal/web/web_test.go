// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/vidfolio/internal/api"
	"github.com/ManuGH/vidfolio/internal/catalog"
	"github.com/ManuGH/vidfolio/internal/contact"
	"github.com/ManuGH/vidfolio/internal/notify"
)

var (
	catWeddings = catalog.Category{ID: "c1", Name: "Mariages", Slug: "mariages", Description: "Vos plus beaux souvenirs"}
	catAds      = catalog.Category{ID: "c2", Name: "Publicités", Slug: "publicites", BannerURL: "https://cdn.example.com/ads.jpg"}
	catEmpty    = catalog.Category{ID: "c3", Name: "Événements", Slug: "evenements"}
)

type fakeStore struct {
	videos     []catalog.Video
	categories []catalog.Category
	err        error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories: []catalog.Category{catWeddings, catEmpty, catAds},
		videos: []catalog.Video{
			{ID: "v3", Title: "Spot Boisson", VideoURL: "https://cdn.example.com/spot.mp4", CategoryID: "c2", Category: &catAds,
				Views: 1250, Duration: "0:30", UploadDate: time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC)},
			{ID: "v2", Title: "Mariage à Kribi", VideoURL: "https://cdn.example.com/kribi.mp4", CategoryID: "c1", Category: &catWeddings},
			{ID: "v1", Title: "Mariage à Douala", VideoURL: "https://cdn.example.com/douala.mp4", CategoryID: "c1", Category: &catWeddings, Client: "Famille Ngo"},
		},
	}
}

func (f *fakeStore) ListVideos(context.Context) ([]catalog.Video, error) {
	return append([]catalog.Video(nil), f.videos...), f.err
}

func (f *fakeStore) GetVideo(_ context.Context, id string) (*catalog.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, v := range f.videos {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeStore) ListVideosByCategoryID(_ context.Context, id string) ([]catalog.Video, error) {
	var out []catalog.Video
	for _, v := range f.videos {
		if v.CategoryID == id {
			out = append(out, v)
		}
	}
	return out, f.err
}

func (f *fakeStore) ListCategories(context.Context) ([]catalog.Category, error) {
	return append([]catalog.Category(nil), f.categories...), f.err
}

func (f *fakeStore) GetCategoryBySlug(_ context.Context, slug string) (*catalog.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeStore) IncrementViews(context.Context, string) error { return nil }
func (f *fakeStore) Ping(context.Context) error                   { return f.err }

// noTimers never fires the contact form reset.
type noTimers struct{}

type stopped struct{}

func (stopped) Stop() bool { return true }

func (noTimers) AfterFunc(time.Duration, func()) contact.Timer { return stopped{} }

func newTestServer(t *testing.T, store *fakeStore) http.Handler {
	t.Helper()
	srv, err := New(Deps{
		Catalog:   catalog.NewService(store, nil),
		Contact:   contact.Handoff{Phone: contact.DefaultPhone},
		Site:      Site{Title: "Studio Test", Phone: "+237 695 666 275", MapQuery: "Douala, Cameroun"},
		Notifier:  notify.Discard,
		FormClock: noTimers{},
	})
	require.NoError(t, err)
	return srv.Routes()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestPages(t *testing.T) {
	h := newTestServer(t, newFakeStore())

	tests := []struct {
		target string
		status int
		want   []string
	}{
		{"/", http.StatusOK, []string{
			"Production de qualité professionnelle pour votre entreprise",
			"Vidéos récentes",
			`href="/videos/v3"`,
			"1.2k vues",
			`href="/categories/mariages"`,
		}},
		{"/videos", http.StatusOK, []string{
			"Notre collection de vidéos",
			`placeholder="Rechercher une vidéo..."`,
			`data-src="/partials/videos?category=all"`,
			"card skeleton",
			"Toutes les vidéos",
		}},
		{"/videos/v1", http.StatusOK, []string{
			"Mariage à Douala",
			`data-video-id="v1"`,
			`src="https://cdn.example.com/douala.mp4"`,
			"Client : Famille Ngo",
			"Vous souhaitez un projet similaire ?",
			"Vidéos similaires",
			`href="/videos/v2"`,
			`<option value="720p">720p</option>`,
		}},
		{"/videos/v3", http.StatusOK, []string{"15 Avr 2023", "1.2k vues"}},
		{"/videos/missing", http.StatusNotFound, []string{"Vidéo non trouvée"}},
		{"/categories", http.StatusOK, []string{"Mariages", "2 vidéos", "0 vidéos", "Voir les vidéos"}},
		{"/categories/mariages", http.StatusOK, []string{"Catégorie : Mariages", "Vos plus beaux souvenirs", `href="/videos/v1"`}},
		{"/categories/evenements", http.StatusOK, []string{"Catégorie : Événements", `class="empty"`}},
		{"/categories/nope", http.StatusNotFound, []string{"Catégorie non trouvée", "Voir toutes les catégories"}},
		{"/about", http.StatusOK, []string{"À propos de", "Studio Test"}},
		{"/contact", http.StatusOK, []string{"Nom complet", "Envoyer le message", "+237 695 666 275", "https://www.google.com/maps?q="}},
		{"/nowhere", http.StatusNotFound, []string{"Page non trouvée"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(t, h, tt.target)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
			body := w.Body.String()
			for _, s := range tt.want {
				assert.Contains(t, body, s)
			}
		})
	}
}

func TestVideoGridFragment(t *testing.T) {
	h := newTestServer(t, newFakeStore())

	w := get(t, h, "/partials/videos?category=mariages")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	body := w.Body.String()
	assert.NotContains(t, body, "<html", "fragment only")
	assert.Contains(t, body, `href="/videos/v1"`)
	assert.Contains(t, body, `href="/videos/v2"`)
	assert.NotContains(t, body, `href="/videos/v3"`)

	w = get(t, h, "/partials/videos?q=BOISSON")
	assert.Contains(t, w.Body.String(), `href="/videos/v3"`)
	assert.NotContains(t, w.Body.String(), `href="/videos/v1"`)

	w = get(t, h, "/partials/videos?q=introuvable")
	assert.Contains(t, w.Body.String(), `class="empty"`)
}

func TestStoreFailureShowsNotice(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	h := newTestServer(t, store)

	w := get(t, h, "/partials/videos")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), catalog.MsgVideosFailed)
	assert.Contains(t, w.Body.String(), "toast-error")

	w = get(t, h, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), catalog.MsgVideosFailed)
}

func postForm(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestContactSubmit(t *testing.T) {
	h := newTestServer(t, newFakeStore())

	w := postForm(t, h, url.Values{
		"name":    {"Awa Mbarga"},
		"email":   {"awa@example.com"},
		"subject": {"Clip"},
		"message": {"Bonjour"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-phase="submitting"`)
	assert.Contains(t, body, `data-handoff="https://wa.me/`+contact.DefaultPhone)
	assert.Contains(t, body, contact.LabelSubmitting)
	assert.Contains(t, body, MsgContactRedirect)
	assert.Contains(t, body, `data-reset-ms="500"`)
	assert.Contains(t, body, `<a href="https://wa.me/`+contact.DefaultPhone)
}

func TestContactScriptOpensHandoffFromSubmit(t *testing.T) {
	h := newTestServer(t, newFakeStore())

	w := get(t, h, "/static/contact.js")
	require.Equal(t, http.StatusOK, w.Code)
	js := w.Body.String()
	assert.Contains(t, js, `"`+api.Prefix+`/contact"`)
	assert.Contains(t, js, `addEventListener("submit"`)
	assert.NotContains(t, js, "window.open(form.dataset.handoff")
}

func TestContactSubmitInvalid(t *testing.T) {
	h := newTestServer(t, newFakeStore())

	w := postForm(t, h, url.Values{"name": {"Awa"}, "email": {"pas-un-email"}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-phase="idle"`)
	assert.Contains(t, body, `value="Awa"`, "fields are kept")
	assert.Contains(t, body, "field-error")
	assert.Contains(t, body, MsgContactInvalid)
	assert.NotContains(t, body, "data-handoff")
}

func TestContactUnavailable(t *testing.T) {
	srv, err := New(Deps{
		Catalog:   catalog.NewService(newFakeStore(), nil),
		Notifier:  notify.Discard,
		FormClock: noTimers{},
	})
	require.NoError(t, err)

	w := postForm(t, srv.Routes(), url.Values{
		"name":    {"Awa"},
		"email":   {"awa@example.com"},
		"message": {"Bonjour"},
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), MsgContactUnavailable)
}

func TestStaticAssets(t *testing.T) {
	h := newTestServer(t, newFakeStore())

	w := get(t, h, "/static/app.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age=3600")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")

	w = get(t, h, "/static/player.js")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/static/").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/static/missing.js").Code)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "950", formatViews(950))
	assert.Equal(t, "1.2k", formatViews(1250))
	assert.Equal(t, "1k", formatViews(1000))
	assert.Equal(t, "3.4M", formatViews(3_450_000))
	assert.Equal(t, "0", formatViews(-3))

	assert.Equal(t, "15 Avr 2023", formatDate(time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC)))
	assert.Empty(t, formatDate(time.Time{}))
}
