// Package hosted talks to the hosted catalog through its PostgREST-compatible API.
package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/vidfolio/internal/catalog"
	xglog "github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/platform/httpx"
	"github.com/ManuGH/vidfolio/internal/resilience"
)

const maxErrorBody = 512

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// QPS and Burst bound outgoing requests; zero disables the limiter.
	QPS   float64
	Burst int
	// BreakerThreshold consecutive failures open the breaker for BreakerCooldown.
	BreakerThreshold int
	BreakerCooldown  time.Duration
	UserAgent        string
}

// Client implements catalog.Store against the hosted REST API. It never retries;
// the breaker only fails fast while the upstream is down.
type Client struct {
	base    string
	apiKey  string
	http    *http.Client
	breaker *resilience.CircuitBreaker
}

var _ catalog.Store = (*Client)(nil)

// New builds a client. BaseURL is the project root, without /rest/v1.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("hosted: invalid base url %q", cfg.BaseURL)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("hosted: api key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "vidfolio"
	}

	opts := []httpx.Option{httpx.WithTracing("hosted"), httpx.WithUserAgent(cfg.UserAgent)}
	if cfg.QPS > 0 {
		opts = append(opts, httpx.WithRateLimit(cfg.QPS, cfg.Burst))
	}
	return &Client{
		base:   base,
		apiKey: cfg.APIKey,
		http:   httpx.NewClient(cfg.Timeout, opts...),
		breaker: resilience.NewCircuitBreaker("hosted", cfg.BreakerThreshold, cfg.BreakerCooldown,
			resilience.WithFailurePredicate(countsAsFailure)),
	}, nil
}

// countsAsFailure keeps client-side outcomes from tripping the breaker.
func countsAsFailure(err error) bool {
	return !errors.Is(err, catalog.ErrNotFound) && !errors.Is(err, ErrUnauthorized)
}

// BreakerState exposes the breaker for health reporting.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

const videoSelect = "*,video_categories(*)"

// ListVideos implements catalog.Store.
func (c *Client) ListVideos(ctx context.Context) ([]catalog.Video, error) {
	q := url.Values{}
	q.Set("select", videoSelect)
	q.Set("order", "upload_date.desc.nullslast")
	return c.videos(ctx, "list_videos", q)
}

// GetVideo implements catalog.Store.
func (c *Client) GetVideo(ctx context.Context, id string) (*catalog.Video, error) {
	if id == "" {
		return nil, catalog.ErrInvalidID
	}
	q := url.Values{}
	q.Set("select", videoSelect)
	q.Set("id", "eq."+id)
	q.Set("limit", "1")
	videos, err := c.videos(ctx, "get_video", q)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, catalog.ErrNotFound
	}
	return &videos[0], nil
}

// ListVideosByCategoryID implements catalog.Store.
func (c *Client) ListVideosByCategoryID(ctx context.Context, categoryID string) ([]catalog.Video, error) {
	if categoryID == "" {
		return nil, catalog.ErrInvalidID
	}
	q := url.Values{}
	q.Set("select", videoSelect)
	q.Set("category_id", "eq."+categoryID)
	q.Set("order", "upload_date.desc.nullslast")
	return c.videos(ctx, "list_videos_by_category", q)
}

// ListCategories implements catalog.Store.
func (c *Client) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "name.asc")
	var rows []catalog.Category
	if err := c.get(ctx, "list_categories", "/rest/v1/video_categories", q, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []catalog.Category{}
	}
	return rows, nil
}

// GetCategoryBySlug implements catalog.Store.
func (c *Client) GetCategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	if slug == "" {
		return nil, catalog.ErrInvalidID
	}
	q := url.Values{}
	q.Set("select", "*")
	q.Set("slug", "eq."+slug)
	q.Set("limit", "1")
	var rows []catalog.Category
	if err := c.get(ctx, "get_category_by_slug", "/rest/v1/video_categories", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, catalog.ErrNotFound
	}
	return &rows[0], nil
}

// IncrementViews implements catalog.Store through the increment_video_views RPC.
func (c *Client) IncrementViews(ctx context.Context, videoID string) error {
	if videoID == "" {
		return catalog.ErrInvalidID
	}
	body, err := json.Marshal(map[string]string{"video_id": videoID})
	if err != nil {
		return err
	}
	return c.do(ctx, "increment_views", http.MethodPost, "/rest/v1/rpc/increment_video_views", nil, body, nil)
}

// Ping implements catalog.Store with a one-row category read.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	var rows []json.RawMessage
	return c.get(ctx, "ping", "/rest/v1/video_categories", q, &rows)
}

func (c *Client) videos(ctx context.Context, op string, q url.Values) ([]catalog.Video, error) {
	var rows []videoRow
	if err := c.get(ctx, op, "/rest/v1/videos", q, &rows); err != nil {
		return nil, err
	}
	out := make([]catalog.Video, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.video())
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, dst any) error {
	return c.do(ctx, op, http.MethodGet, path, q, nil, dst)
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body []byte, dst any) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.roundTrip(ctx, op, method, path, q, body, dst)
	})
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, q url.Values, body []byte, dst any) error {
	target := c.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return &APIError{Sentinel: ErrUnavailable, Operation: op, Err: err}
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Sentinel: ErrUnavailable, Operation: op, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	logger := xglog.WithComponentFromContext(ctx, "hosted")

	logger.Debug().
		Str(xglog.FieldOp, op).
		Int(xglog.FieldStatus, res.StatusCode).
		Dur(xglog.FieldDuration, time.Since(start)).
		Msg("hosted request")

	if err := classify(op, res); err != nil {
		return err
	}
	if dst == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return &APIError{Sentinel: ErrBadResponse, Operation: op, Status: res.StatusCode, Err: err}
	}
	return nil
}

func classify(op string, res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	e := &APIError{Operation: op, Status: res.StatusCode, Body: strings.TrimSpace(string(snippet))}
	switch {
	case res.StatusCode == http.StatusNotFound:
		e.Sentinel = catalog.ErrNotFound
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		e.Sentinel = ErrUnauthorized
	case res.StatusCode >= 500:
		e.Sentinel = ErrUpstreamError
	default:
		e.Sentinel = ErrBadResponse
	}
	return e
}
