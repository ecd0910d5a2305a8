// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"net"

	"github.com/ManuGH/vidfolio/internal/validate"
)

// Validate checks cfg and returns a validate.ValidationError listing every problem.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.LogLevel("logLevel", cfg.LogLevel)
	if cfg.Site.BaseURL != "" {
		v.URL("site.baseUrl", cfg.Site.BaseURL, []string{"http", "https"})
	}

	v.ListenAddr("server.listenAddr", cfg.Server.ListenAddr)
	v.NonNegative("server.rateLimitRpm", cfg.Server.RateLimitRPM)
	for _, cidr := range cfg.Server.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			v.AddError("server.trustedProxies", "must be a CIDR such as 10.0.0.0/8", cidr)
		}
	}

	if (cfg.Server.TLSCert == "") != (cfg.Server.TLSKey == "") {
		v.AddError("server.tlsCert", "tlsCert and tlsKey must be set together", cfg.Server.TLSCert)
	}
	if cfg.Server.TLSSelfSigned && cfg.Server.TLSCert == "" {
		v.AddError("server.tlsSelfSigned", "requires tlsCert and tlsKey paths", cfg.Server.TLSSelfSigned)
	}

	v.OneOf("catalog.backend", cfg.Catalog.Backend, []string{BackendREST, BackendSQLite, BackendPostgres})
	switch cfg.Catalog.Backend {
	case BackendREST:
		v.URL("catalog.hosted.url", cfg.Catalog.Hosted.URL, []string{"http", "https"})
		v.NotEmpty("catalog.hosted.apiKey", cfg.Catalog.Hosted.APIKey)
		v.PositiveDuration("catalog.hosted.timeout", cfg.Catalog.Hosted.Timeout)
		if cfg.Catalog.Hosted.QPS < 0 {
			v.AddError("catalog.hosted.qps", "must not be negative", cfg.Catalog.Hosted.QPS)
		}
		v.NonNegative("catalog.hosted.breakerThreshold", cfg.Catalog.Hosted.BreakerThreshold)
	case BackendSQLite:
		v.FileParent("catalog.sqlitePath", cfg.Catalog.SQLitePath)
	case BackendPostgres:
		v.NotEmpty("catalog.postgresDsn", cfg.Catalog.PostgresDSN)
	}

	if cfg.Cache.TTL < 0 {
		v.AddError("cache.ttl", "must not be negative", cfg.Cache.TTL)
	}
	v.OneOf("cache.kind", cfg.Cache.Kind, []string{CacheMemory, CacheRedis})
	if cfg.Cache.Kind == CacheRedis && cfg.Cache.TTL > 0 {
		v.NotEmpty("cache.redisAddr", cfg.Cache.RedisAddr)
	}

	v.OneOf("views.mode", cfg.Views.Mode, []string{ViewsAsync, ViewsQueue, ViewsOff})
	switch cfg.Views.Mode {
	case ViewsAsync:
		v.Positive("views.workers", cfg.Views.Workers)
		v.Positive("views.buffer", cfg.Views.Buffer)
		v.PositiveDuration("views.timeout", cfg.Views.Timeout)
	case ViewsQueue:
		v.URL("views.amqpUrl", cfg.Views.AMQPURL, []string{"amqp", "amqps"})
		v.NotEmpty("views.queue", cfg.Views.Queue)
	}

	if cfg.Media.S3.Enabled {
		v.NotEmpty("media.s3.region", cfg.Media.S3.Region)
		v.PositiveDuration("media.s3.presignExpiry", cfg.Media.S3.PresignExpiry)
		if cfg.Media.S3.Endpoint != "" {
			v.URL("media.s3.endpoint", cfg.Media.S3.Endpoint, []string{"http", "https"})
		}
	}

	v.PositiveDuration("player.sessionTtl", cfg.Player.SessionTTL)
	v.Positive("player.maxSessions", cfg.Player.MaxSessions)
	if cfg.Player.SessionSecret != "" {
		v.Custom("player.sessionSecret", cfg.Player.SessionSecret, func(val any) error {
			if len(val.(string)) < 16 {
				return errShortSecret
			}
			return nil
		})
	}

	v.Digits("contact.phone", cfg.Contact.Phone, 8)
	v.NonNegative("contact.rateLimitRpm", cfg.Contact.RateLimitRPM)
	if cfg.Contact.Email != "" {
		v.Email("contact.email", cfg.Contact.Email)
	}

	v.Range("listing.columns", cfg.Listing.Columns, 1, 6)
	v.Range("listing.rows", cfg.Listing.Rows, 1, 10)
	v.NonNegative("listing.featuredCount", cfg.Listing.FeaturedCount)
	v.NonNegative("listing.relatedCount", cfg.Listing.RelatedCount)

	if cfg.Metrics.ListenAddr != "" {
		v.ListenAddr("metrics.listenAddr", cfg.Metrics.ListenAddr)
	}

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("tracing.sampleRate", cfg.Tracing.SampleRate, 0, 1)
	}

	return v.Err()
}
