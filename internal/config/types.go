// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Catalog backends.
const (
	BackendREST     = "rest"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Cache kinds.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// View counter modes.
const (
	ViewsAsync = "async"
	ViewsQueue = "queue"
	ViewsOff   = "off"
)

// AppConfig is the fully resolved daemon configuration.
type AppConfig struct {
	Version  string        `yaml:"-"`
	LogLevel string        `yaml:"logLevel"`
	Site     SiteConfig    `yaml:"site"`
	Server   ServerFile    `yaml:"server"`
	Catalog  CatalogConfig `yaml:"catalog"`
	Cache    CacheConfig   `yaml:"cache"`
	Views    ViewsConfig   `yaml:"views"`
	Media    MediaConfig   `yaml:"media"`
	Player   PlayerConfig  `yaml:"player"`
	Contact  ContactConfig `yaml:"contact"`
	Listing  ListingConfig `yaml:"listing"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Tracing  TracingConfig `yaml:"tracing"`
}

// SiteConfig holds presentation settings for the rendered pages.
type SiteConfig struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"baseUrl"`
}

// ServerFile is the YAML view of the HTTP server settings.
type ServerFile struct {
	ListenAddr      string        `yaml:"listenAddr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes  int           `yaml:"maxHeaderBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RateLimitRPM    int           `yaml:"rateLimitRpm"`
	// AllowedOrigins lists cross-origin callers of the JSON API. "*" allows any.
	AllowedOrigins []string `yaml:"allowedOrigins"`
	// TrustedProxies lists CIDRs whose X-Forwarded-Proto header is honored.
	TrustedProxies []string `yaml:"trustedProxies"`
	CSP            string   `yaml:"csp"`
	// TLSCert and TLSKey switch the listener to HTTPS.
	TLSCert string `yaml:"tlsCert"`
	TLSKey  string `yaml:"tlsKey"`
	// TLSSelfSigned generates a certificate pair at TLSCert/TLSKey when missing.
	TLSSelfSigned bool `yaml:"tlsSelfSigned"`
}

// CatalogConfig selects and configures the catalog store.
type CatalogConfig struct {
	Backend     string       `yaml:"backend"`
	SQLitePath  string       `yaml:"sqlitePath"`
	PostgresDSN string       `yaml:"postgresDsn"`
	Hosted      HostedConfig `yaml:"hosted"`
}

// HostedConfig configures the hosted REST store client.
type HostedConfig struct {
	URL              string        `yaml:"url"`
	APIKey           string        `yaml:"apiKey"`
	Timeout          time.Duration `yaml:"timeout"`
	QPS              float64       `yaml:"qps"`
	Burst            int           `yaml:"burst"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerCooldown  time.Duration `yaml:"breakerCooldown"`
}

// CacheConfig configures the category read cache. A zero TTL disables it.
type CacheConfig struct {
	Kind          string        `yaml:"kind"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDb"`
}

// ViewsConfig configures view-count increments.
type ViewsConfig struct {
	Mode    string        `yaml:"mode"`
	Workers int           `yaml:"workers"`
	Buffer  int           `yaml:"buffer"`
	Timeout time.Duration `yaml:"timeout"`
	AMQPURL string        `yaml:"amqpUrl"`
	Queue   string        `yaml:"queue"`
	Consume bool          `yaml:"consume"`
}

// MediaConfig configures playable URL resolution.
type MediaConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config configures presigning of s3:// media URLs.
type S3Config struct {
	Enabled       bool          `yaml:"enabled"`
	Region        string        `yaml:"region"`
	Endpoint      string        `yaml:"endpoint"`
	UsePathStyle  bool          `yaml:"usePathStyle"`
	PresignExpiry time.Duration `yaml:"presignExpiry"`
}

// PlayerConfig configures server-side playback sessions.
type PlayerConfig struct {
	SessionTTL    time.Duration `yaml:"sessionTtl"`
	SessionSecret string        `yaml:"sessionSecret"`
	MaxSessions   int           `yaml:"maxSessions"`
}

// ContactConfig configures the contact handoff.
type ContactConfig struct {
	Phone        string `yaml:"phone"`
	MapQuery     string `yaml:"mapQuery"`
	RateLimitRPM int    `yaml:"rateLimitRpm"`
	Email        string `yaml:"email"`
	Address      string `yaml:"address"`
}

// ListingConfig controls the grid shape used for loading placeholders.
type ListingConfig struct {
	Columns       int `yaml:"columns"`
	Rows          int `yaml:"rows"`
	FeaturedCount int `yaml:"featuredCount"`
	RelatedCount  int `yaml:"relatedCount"`
}

// MetricsConfig configures the Prometheus listener. Empty ListenAddr disables it.
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Exporter   string  `yaml:"exporter"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}
