// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon assembles the catalog, player and page components into one
// process and manages its lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/ManuGH/vidfolio/internal/api"
	"github.com/ManuGH/vidfolio/internal/api/middleware"
	"github.com/ManuGH/vidfolio/internal/cache"
	"github.com/ManuGH/vidfolio/internal/catalog"
	"github.com/ManuGH/vidfolio/internal/config"
	"github.com/ManuGH/vidfolio/internal/contact"
	"github.com/ManuGH/vidfolio/internal/health"
	"github.com/ManuGH/vidfolio/internal/hosted"
	"github.com/ManuGH/vidfolio/internal/listing"
	"github.com/ManuGH/vidfolio/internal/log"
	"github.com/ManuGH/vidfolio/internal/media"
	"github.com/ManuGH/vidfolio/internal/notify"
	"github.com/ManuGH/vidfolio/internal/player/session"
	pnet "github.com/ManuGH/vidfolio/internal/platform/net"
	"github.com/ManuGH/vidfolio/internal/telemetry"
	"github.com/ManuGH/vidfolio/internal/web"
)

const cacheCleanupInterval = time.Minute

// Task is a background worker the App runs next to the servers.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runtime is the assembled daemon: the root handler, its background tasks and
// the resources to release once everything has stopped.
type Runtime struct {
	Handler  http.Handler
	Health   *health.Manager
	Catalog  *catalog.Service
	Sessions *session.Registry
	Tasks    []Task

	cached  *catalog.CachedStore
	closers []namedHook
	logger  zerolog.Logger
}

func (rt *Runtime) addCloser(name string, fn func(context.Context) error) {
	rt.closers = append(rt.closers, namedHook{name: name, hook: fn})
}

func (rt *Runtime) addTask(name string, fn func(context.Context) error) {
	rt.Tasks = append(rt.Tasks, Task{Name: name, Run: fn})
}

// Close releases resources in reverse acquisition order. Call it only after
// every task has returned.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		c := rt.closers[i]
		if err := c.hook(ctx); err != nil {
			rt.logger.Warn().Err(err).Str("resource", c.name).Msg("close failed")
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// Apply reacts to a reloaded configuration: the log level changes in place and
// cached category reads are dropped so edited data shows up at once.
func (rt *Runtime) Apply(ctx context.Context, cfg config.AppConfig) {
	log.Configure(log.Config{Level: cfg.LogLevel, Service: "vidfolio", Version: cfg.Version})
	if rt.cached != nil {
		rt.cached.Invalidate(ctx)
	}
}

// Build opens every collaborator cfg selects and wires the HTTP handler. On
// error, whatever was already opened is closed.
func Build(ctx context.Context, cfg config.AppConfig) (_ *Runtime, err error) {
	rt := &Runtime{logger: log.WithComponent("daemon")}
	defer func() {
		if err != nil {
			_ = rt.Close(context.WithoutCancel(ctx))
		}
	}()

	if cfg.Tracing.Enabled {
		provider, err := telemetry.NewProvider(ctx, telemetry.Config{
			Enabled:        true,
			ServiceName:    "vidfolio",
			ServiceVersion: cfg.Version,
			ExporterType:   cfg.Tracing.Exporter,
			Endpoint:       cfg.Tracing.Endpoint,
			SamplingRate:   cfg.Tracing.SampleRate,
		})
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		rt.addCloser("telemetry", provider.Shutdown)
	}

	store, backend, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := store.(interface{ Close() error }); ok {
		rt.addCloser("catalog.store", func(context.Context) error { return c.Close() })
	}
	store = catalog.Instrument(store, backend)

	hm := health.NewManager(cfg.Version)
	rt.Health = hm

	reads, err := rt.buildCache(ctx, cfg.Cache, store, hm)
	if err != nil {
		return nil, err
	}

	views, err := rt.buildViews(cfg.Views, store, hm)
	if err != nil {
		return nil, err
	}

	resolver, err := buildResolver(ctx, cfg.Media)
	if err != nil {
		return nil, err
	}

	reg, err := session.NewRegistry(session.Config{
		TTL:         cfg.Player.SessionTTL,
		MaxSessions: cfg.Player.MaxSessions,
		Secret:      []byte(cfg.Player.SessionSecret),
	})
	if err != nil {
		return nil, fmt.Errorf("playback sessions: %w", err)
	}
	rt.Sessions = reg
	rt.addTask("playback.sessions", reg.Run)

	svc := catalog.NewService(reads, views)
	rt.Catalog = svc
	hm.RegisterChecker(health.NewPingChecker("catalog", svc))
	hm.RegisterChecker(health.NewFuncChecker("playback", func(context.Context) health.CheckResult {
		return health.CheckResult{Status: health.StatusHealthy, Message: fmt.Sprintf("%d open sessions", reg.Len())}
	}))

	handoff := contact.Handoff{Phone: cfg.Contact.Phone}
	apiSrv := api.New(api.Deps{
		Catalog:      svc,
		Sessions:     reg,
		Media:        resolver,
		Contact:      handoff,
		Notifier:     notify.LogNotifier{},
		RelatedCount: cfg.Listing.RelatedCount,
		ContactRPM:   cfg.Contact.RateLimitRPM,
	})
	webSrv, err := web.New(web.Deps{
		Catalog: svc,
		Media:   resolver,
		Contact: handoff,
		Site: web.Site{
			Title:        cfg.Site.Title,
			BaseURL:      cfg.Site.BaseURL,
			ContactEmail: cfg.Contact.Email,
			Address:      cfg.Contact.Address,
			Phone:        cfg.Contact.Phone,
			MapQuery:     cfg.Contact.MapQuery,
		},
		Layout:        listing.Layout{Columns: cfg.Listing.Columns, Rows: cfg.Listing.Rows},
		Notifier:      notify.LogNotifier{},
		FeaturedCount: cfg.Listing.FeaturedCount,
		RelatedCount:  cfg.Listing.RelatedCount,
		ContactRPM:    cfg.Contact.RateLimitRPM,
	})
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}

	proxies, err := middleware.ParseCIDRs(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	stack := middleware.StackConfig{
		EnableCORS:            len(cfg.Server.AllowedOrigins) > 0,
		AllowedOrigins:        cfg.Server.AllowedOrigins,
		EnableSecurityHeaders: true,
		CSP:                   cfg.Server.CSP,
		TrustedProxies:        proxies,
		EnableMetrics:         true,
		EnableLogging:         true,
		RateLimitRPM:          cfg.Server.RateLimitRPM,
	}
	if cfg.Tracing.Enabled {
		stack.TracingService = "vidfolio"
	}
	r := middleware.NewRouter(stack)
	r.Get("/healthz", hm.ServeHealth)
	r.Get("/readyz", hm.ServeReady)
	r.Mount(api.Prefix, apiSrv.Routes())
	r.Mount("/", webSrv.Routes())
	rt.Handler = r

	rt.logger.Info().
		Str(log.FieldEvent, "daemon.built").
		Str("backend", backend).
		Str("hosted_url", pnet.SanitizeURL(cfg.Catalog.Hosted.URL)).
		Str("cache", cacheLabel(cfg.Cache)).
		Str("views", cfg.Views.Mode).
		Bool("s3", cfg.Media.S3.Enabled).
		Msg("runtime assembled")
	return rt, nil
}

// OpenStore opens the catalog backend cfg selects and returns it with its label.
func OpenStore(ctx context.Context, cfg config.AppConfig) (catalog.Store, string, error) {
	c := cfg.Catalog
	switch c.Backend {
	case config.BackendREST:
		client, err := hosted.New(hosted.Config{
			BaseURL:          c.Hosted.URL,
			APIKey:           c.Hosted.APIKey,
			Timeout:          c.Hosted.Timeout,
			QPS:              c.Hosted.QPS,
			Burst:            c.Hosted.Burst,
			BreakerThreshold: c.Hosted.BreakerThreshold,
			BreakerCooldown:  c.Hosted.BreakerCooldown,
			UserAgent:        "vidfolio/" + cfg.Version,
		})
		if err != nil {
			return nil, "", err
		}
		return client, config.BackendREST, nil
	case config.BackendSQLite:
		s, err := catalog.NewSQLiteStore(ctx, c.SQLitePath)
		if err != nil {
			return nil, "", err
		}
		return s, config.BackendSQLite, nil
	case config.BackendPostgres:
		s, err := catalog.NewPostgresStore(ctx, c.PostgresDSN)
		if err != nil {
			return nil, "", err
		}
		return s, config.BackendPostgres, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}

func (rt *Runtime) buildCache(ctx context.Context, cfg config.CacheConfig, store catalog.Store, hm *health.Manager) (catalog.Store, error) {
	if cfg.TTL <= 0 {
		return store, nil
	}
	var c cache.Cache
	switch cfg.Kind {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log.WithComponent("cache"))
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		hm.RegisterChecker(health.NewOptionalPingChecker("cache", rc))
		c = rc
	default:
		c = cache.NewMemoryCache(cacheCleanupInterval)
	}
	rt.addCloser("cache", func(context.Context) error { return c.Close() })

	wrapped := catalog.NewCachedStore(store, c, cfg.TTL)
	if cs, ok := wrapped.(*catalog.CachedStore); ok {
		rt.cached = cs
	}
	return wrapped, nil
}

// buildViews returns the counter for cfg.Mode. Queue mode publishes view events
// through an AsyncCounter and optionally consumes them in-process.
func (rt *Runtime) buildViews(cfg config.ViewsConfig, store catalog.Store, hm *health.Manager) (catalog.ViewCounter, error) {
	opts := catalog.AsyncOptions{Mode: cfg.Mode, Workers: cfg.Workers, Buffer: cfg.Buffer, Timeout: cfg.Timeout}

	switch cfg.Mode {
	case config.ViewsOff:
		return catalog.NopCounter{}, nil
	case config.ViewsQueue:
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			return nil, fmt.Errorf("amqp dial %s: %w", pnet.SanitizeURL(cfg.AMQPURL), err)
		}
		rt.addCloser("amqp", func(context.Context) error {
			if conn.IsClosed() {
				return nil
			}
			return conn.Close()
		})
		hm.RegisterChecker(health.NewFuncChecker("amqp", func(context.Context) health.CheckResult {
			if conn.IsClosed() {
				return health.CheckResult{Status: health.StatusDegraded, Message: "connection closed", Error: "amqp connection closed"}
			}
			return health.CheckResult{Status: health.StatusHealthy}
		}))

		pubCh, err := conn.Channel()
		if err != nil {
			return nil, fmt.Errorf("amqp channel: %w", err)
		}
		if err := catalog.DeclareViewQueue(pubCh, cfg.Queue); err != nil {
			return nil, err
		}
		counter := catalog.NewAsyncCounter(catalog.NewQueuePublisher(pubCh, cfg.Queue), opts)
		rt.addTask("views.publisher", counter.Run)

		if cfg.Consume {
			subCh, err := conn.Channel()
			if err != nil {
				return nil, fmt.Errorf("amqp channel: %w", err)
			}
			rt.addTask("views.consumer", catalog.NewViewConsumer(subCh, cfg.Queue, store).Run)
		}
		return counter, nil
	default:
		counter := catalog.NewAsyncCounter(store, opts)
		rt.addTask("views.async", counter.Run)
		return counter, nil
	}
}

func buildResolver(ctx context.Context, cfg config.MediaConfig) (media.Resolver, error) {
	if !cfg.S3.Enabled {
		return media.Passthrough{}, nil
	}
	r, err := media.NewS3Resolver(ctx, media.S3Config{
		Region:       cfg.S3.Region,
		Endpoint:     cfg.S3.Endpoint,
		UsePathStyle: cfg.S3.UsePathStyle,
		Expiry:       cfg.S3.PresignExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 resolver: %w", err)
	}
	return r, nil
}

func cacheLabel(cfg config.CacheConfig) string {
	if cfg.TTL <= 0 {
		return "off"
	}
	return cfg.Kind
}
