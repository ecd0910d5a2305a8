// Package httpx builds outbound HTTP clients for external collaborators.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultClientTimeout         = 10 * time.Second
	defaultDialTimeout           = 3 * time.Second
	defaultResponseHeaderTimeout = 5 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 32
	defaultMaxIdleConnsPerHost   = 8
)

type options struct {
	tracing   string
	limiter   *rate.Limiter
	userAgent string
}

// Option customizes NewClient.
type Option func(*options)

// WithTracing wraps the transport with otelhttp spans named after operation.
func WithTracing(operation string) Option {
	return func(o *options) { o.tracing = operation }
}

// WithRateLimit throttles outbound requests to qps with the given burst. qps <= 0 disables it.
func WithRateLimit(qps float64, burst int) Option {
	return func(o *options) {
		if qps <= 0 {
			o.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

// WithUserAgent sets the User-Agent of every request that does not carry one.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// NewClient returns a hardened HTTP client with bounded dial and header timeouts.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dialTimeout := min(timeout, defaultDialTimeout)
	responseHeaderTimeout := min(timeout, defaultResponseHeaderTimeout)

	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
	if o.limiter != nil || o.userAgent != "" {
		rt = &decorated{next: rt, limiter: o.limiter, userAgent: o.userAgent}
	}
	if o.tracing != "" {
		rt = otelhttp.NewTransport(rt, otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return o.tracing + " " + r.Method + " " + r.URL.Path
		}))
	}

	return &http.Client{Timeout: timeout, Transport: rt}
}

type decorated struct {
	next      http.RoundTripper
	limiter   *rate.Limiter
	userAgent string
}

func (d *decorated) RoundTrip(r *http.Request) (*http.Response, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(r.Context()); err != nil {
			return nil, err
		}
	}
	if d.userAgent != "" && r.Header.Get("User-Agent") == "" {
		r = r.Clone(r.Context())
		r.Header.Set("User-Agent", d.userAgent)
	}
	return d.next.RoundTrip(r)
}

// Transport returns the innermost *http.Transport of a client built by NewClient.
func Transport(c *http.Client) *http.Transport {
	rt := c.Transport
	for {
		switch t := rt.(type) {
		case *http.Transport:
			return t
		case *decorated:
			rt = t.next
		default:
			return nil
		}
	}
}
