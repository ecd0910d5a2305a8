package hosted

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/vidfolio/internal/catalog"
	"github.com/ManuGH/vidfolio/internal/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const videosJSON = `[
  {"id":"v1","title":"Launch","description":null,"video_url":"https://cdn/1.mp4","views":12,
   "category_id":"c1","upload_date":"2024-03-01T10:00:00+00:00",
   "renditions":{"720p":"https://cdn/1-720.mp4"},
   "video_categories":{"id":"c1","name":"Corporate","slug":"corporate","description":null,"banner_url":null}},
  {"id":"v2","title":"Untitled","video_url":"https://cdn/2.mp4","views":null,"category_id":null,
   "upload_date":null,"video_categories":null}
]`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/", APIKey: "anon-key", Timeout: 2 * time.Second, BreakerThreshold: 2, BreakerCooldown: time.Minute})
	require.NoError(t, err)
	return c
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url", APIKey: "k"})
	assert.Error(t, err)
	_, err = New(Config{BaseURL: "https://example.supabase.co"})
	assert.Error(t, err)
}

func TestListVideos(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/videos", r.URL.Path)
		assert.Equal(t, "*,video_categories(*)", r.URL.Query().Get("select"))
		assert.Equal(t, "upload_date.desc.nullslast", r.URL.Query().Get("order"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, videosJSON)
	})

	videos, err := c.ListVideos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 2)

	v := videos[0]
	assert.Equal(t, int64(12), v.Views)
	assert.Equal(t, "c1", v.CategoryID)
	require.NotNil(t, v.Category)
	assert.Equal(t, "corporate", v.Category.Slug)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), v.UploadDate)
	assert.Equal(t, "https://cdn/1-720.mp4", v.Renditions["720p"])

	assert.Nil(t, videos[1].Category)
	assert.Zero(t, videos[1].Views)
	assert.True(t, videos[1].UploadDate.IsZero())
}

func TestGetVideoNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.missing", r.URL.Query().Get("id"))
		_, _ = io.WriteString(w, "[]")
	})
	_, err := c.GetVideo(context.Background(), "missing")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCategoryQueries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/video_categories", r.URL.Path)
		if r.URL.Query().Get("slug") == "eq.wedding" {
			_, _ = io.WriteString(w, `[{"id":"c2","name":"Wedding","slug":"wedding"}]`)
			return
		}
		if r.URL.Query().Has("slug") {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		assert.Equal(t, "name.asc", r.URL.Query().Get("order"))
		_, _ = io.WriteString(w, `[{"id":"c1","name":"Corporate","slug":"corporate"},{"id":"c2","name":"Wedding","slug":"wedding"}]`)
	})
	ctx := context.Background()

	cats, err := c.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	cat, err := c.GetCategoryBySlug(ctx, "wedding")
	require.NoError(t, err)
	assert.Equal(t, "c2", cat.ID)

	_, err = c.GetCategoryBySlug(ctx, "nope")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestIncrementViewsRPC(t *testing.T) {
	var body map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/rpc/increment_video_views", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.IncrementViews(context.Background(), "v1"))
	assert.Equal(t, map[string]string{"video_id": "v1"}, body)
	assert.ErrorIs(t, c.IncrementViews(context.Background(), ""), catalog.ErrInvalidID)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: ErrUnauthorized},
		{name: "server error", status: http.StatusBadGateway, want: ErrUpstreamError},
		{name: "bad request", status: http.StatusBadRequest, want: ErrBadResponse},
		{name: "not found", status: http.StatusNotFound, want: catalog.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"nope"}`, tt.status)
			})
			_, err := c.ListCategories(context.Background())
			require.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Contains(t, apiErr.Error(), "list_categories")
		})
	}
}

func TestMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{oops")
	})
	_, err := c.ListVideos(context.Background())
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestBreakerOpensOnUpstreamFailures(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.ListVideos(ctx)
		require.ErrorIs(t, err, ErrUpstreamError)
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := c.ListVideos(ctx)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "[]")
	})
	for i := 0; i < 5; i++ {
		_, err := c.GetVideo(context.Background(), "missing")
		require.ErrorIs(t, err, catalog.ErrNotFound)
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}
