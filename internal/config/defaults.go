// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Default returns the configuration used when neither file nor environment
// override a value.
func Default() AppConfig {
	return AppConfig{
		LogLevel: "info",
		Site: SiteConfig{
			Title: "Vidfolio",
		},
		Server: ServerFile{
			ListenAddr:      fallbackListenAddr,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			MaxHeaderBytes:  defaultMaxHeaderBytes,
			ShutdownTimeout: defaultShutdownTimeout,
			RateLimitRPM:    600,
		},
		Catalog: CatalogConfig{
			Backend:    BackendSQLite,
			SQLitePath: "data/vidfolio.db",
			Hosted: HostedConfig{
				Timeout:          10 * time.Second,
				QPS:              20,
				Burst:            40,
				BreakerThreshold: 5,
				BreakerCooldown:  30 * time.Second,
			},
		},
		Cache: CacheConfig{
			Kind: CacheMemory,
		},
		Views: ViewsConfig{
			Mode:    ViewsAsync,
			Workers: 2,
			Buffer:  256,
			Timeout: 5 * time.Second,
			Queue:   "video_views",
		},
		Media: MediaConfig{
			S3: S3Config{
				Region:        "us-east-1",
				PresignExpiry: 15 * time.Minute,
			},
		},
		Player: PlayerConfig{
			SessionTTL:  30 * time.Minute,
			MaxSessions: 10000,
		},
		Contact: ContactConfig{
			Phone:        "237695666275",
			MapQuery:     "Paris, France",
			RateLimitRPM: 10,
		},
		Listing: ListingConfig{
			Columns:       3,
			Rows:          2,
			FeaturedCount: 6,
			RelatedCount:  4,
		},
		Tracing: TracingConfig{
			Exporter:   "grpc",
			Endpoint:   "localhost:4317",
			SampleRate: 1.0,
		},
	}
}
