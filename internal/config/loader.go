// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. An empty configPath means ENV-only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path the loader reads, if any.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) key(name string) string {
	k := EnvPrefix + name
	l.ConsumedEnvKeys[k] = struct{}{}
	return k
}

func (l *Loader) envString(name, defaultVal string) string {
	return ParseString(l.key(name), defaultVal)
}

func (l *Loader) envBool(name string, defaultVal bool) bool {
	return ParseBool(l.key(name), defaultVal)
}

func (l *Loader) envInt(name string, defaultVal int) int {
	return ParseInt(l.key(name), defaultVal)
}

func (l *Loader) envDuration(name string, defaultVal time.Duration) time.Duration {
	return ParseDuration(l.key(name), defaultVal)
}

func (l *Loader) envFloat(name string, defaultVal float64) float64 {
	return ParseFloat(l.key(name), defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// The result is not validated; call Validate before use.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	}

	l.mergeEnv(&cfg)
	cfg.Version = l.version
	return cfg, nil
}

// loadFile decodes path strictly on top of cfg. Keys absent from the file keep their
// current value.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}

	cfg.Catalog.SQLitePath = expandEnv(cfg.Catalog.SQLitePath)
	cfg.Catalog.PostgresDSN = expandEnv(cfg.Catalog.PostgresDSN)
	cfg.Catalog.Hosted.APIKey = expandEnv(cfg.Catalog.Hosted.APIKey)
	cfg.Player.SessionSecret = expandEnv(cfg.Player.SessionSecret)
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)

	cfg.Site.Title = l.envString("SITE_TITLE", cfg.Site.Title)
	cfg.Site.BaseURL = l.envString("SITE_BASE_URL", cfg.Site.BaseURL)

	cfg.Server.ListenAddr = l.envString("LISTEN", cfg.Server.ListenAddr)
	cfg.Server.RateLimitRPM = l.envInt("RATE_LIMIT_RPM", cfg.Server.RateLimitRPM)
	if origins := l.envString("ALLOWED_ORIGINS", ""); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}
	if proxies := l.envString("TRUSTED_PROXIES", ""); proxies != "" {
		cfg.Server.TrustedProxies = splitList(proxies)
	}
	cfg.Server.TLSCert = l.envString("TLS_CERT", cfg.Server.TLSCert)
	cfg.Server.TLSKey = l.envString("TLS_KEY", cfg.Server.TLSKey)
	cfg.Server.TLSSelfSigned = l.envBool("TLS_SELF_SIGNED", cfg.Server.TLSSelfSigned)

	cfg.Catalog.Backend = strings.ToLower(l.envString("CATALOG_BACKEND", cfg.Catalog.Backend))
	cfg.Catalog.SQLitePath = l.envString("SQLITE_PATH", cfg.Catalog.SQLitePath)
	cfg.Catalog.PostgresDSN = l.envString("POSTGRES_DSN", cfg.Catalog.PostgresDSN)
	cfg.Catalog.Hosted.URL = l.envString("HOSTED_URL", cfg.Catalog.Hosted.URL)
	cfg.Catalog.Hosted.APIKey = l.envString("HOSTED_API_KEY", cfg.Catalog.Hosted.APIKey)
	cfg.Catalog.Hosted.Timeout = l.envDuration("HOSTED_TIMEOUT", cfg.Catalog.Hosted.Timeout)
	cfg.Catalog.Hosted.QPS = l.envFloat("HOSTED_QPS", cfg.Catalog.Hosted.QPS)
	cfg.Catalog.Hosted.Burst = l.envInt("HOSTED_BURST", cfg.Catalog.Hosted.Burst)

	cfg.Cache.Kind = strings.ToLower(l.envString("CACHE_KIND", cfg.Cache.Kind))
	cfg.Cache.TTL = l.envDuration("CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.RedisAddr = l.envString("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString("REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt("REDIS_DB", cfg.Cache.RedisDB)

	cfg.Views.Mode = strings.ToLower(l.envString("VIEWS_MODE", cfg.Views.Mode))
	cfg.Views.Workers = l.envInt("VIEWS_WORKERS", cfg.Views.Workers)
	cfg.Views.AMQPURL = l.envString("AMQP_URL", cfg.Views.AMQPURL)
	cfg.Views.Queue = l.envString("VIEWS_QUEUE", cfg.Views.Queue)
	cfg.Views.Consume = l.envBool("VIEWS_CONSUME", cfg.Views.Consume)

	cfg.Media.S3.Enabled = l.envBool("S3_ENABLED", cfg.Media.S3.Enabled)
	cfg.Media.S3.Region = l.envString("S3_REGION", cfg.Media.S3.Region)
	cfg.Media.S3.Endpoint = l.envString("S3_ENDPOINT", cfg.Media.S3.Endpoint)
	cfg.Media.S3.UsePathStyle = l.envBool("S3_PATH_STYLE", cfg.Media.S3.UsePathStyle)
	cfg.Media.S3.PresignExpiry = l.envDuration("S3_PRESIGN_EXPIRY", cfg.Media.S3.PresignExpiry)

	cfg.Player.SessionTTL = l.envDuration("SESSION_TTL", cfg.Player.SessionTTL)
	cfg.Player.SessionSecret = l.envString("SESSION_SECRET", cfg.Player.SessionSecret)

	cfg.Contact.Phone = l.envString("CONTACT_PHONE", cfg.Contact.Phone)
	cfg.Contact.MapQuery = l.envString("MAP_QUERY", cfg.Contact.MapQuery)

	cfg.Metrics.ListenAddr = l.envString("METRICS_LISTEN", cfg.Metrics.ListenAddr)

	cfg.Tracing.Enabled = l.envBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = strings.ToLower(l.envString("TRACING_EXPORTER", cfg.Tracing.Exporter))
	cfg.Tracing.Endpoint = l.envString("TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SampleRate = l.envFloat("TRACING_SAMPLE_RATE", cfg.Tracing.SampleRate)
}

// String renders the config with secrets masked.
func (c AppConfig) String() string {
	masked := c
	masked.Catalog.PostgresDSN = mask(masked.Catalog.PostgresDSN)
	masked.Catalog.Hosted.APIKey = mask(masked.Catalog.Hosted.APIKey)
	masked.Cache.RedisPassword = mask(masked.Cache.RedisPassword)
	masked.Views.AMQPURL = mask(masked.Views.AMQPURL)
	masked.Player.SessionSecret = mask(masked.Player.SessionSecret)
	out, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return string(out)
}

// splitList splits a comma separated env value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
