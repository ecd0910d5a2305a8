// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, BackendSQLite, cfg.Catalog.Backend)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, "237695666275", cfg.Contact.Phone)
	assert.Equal(t, 3, cfg.Listing.Columns)
	assert.Zero(t, cfg.Cache.TTL)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
logLevel: debug
catalog:
  backend: rest
  hosted:
    url: https://project.example.co
    apiKey: anon-key
cache:
  ttl: 5m
listing:
  columns: 4
`)
	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendREST, cfg.Catalog.Backend)
	assert.Equal(t, "https://project.example.co", cfg.Catalog.Hosted.URL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 4, cfg.Listing.Columns)
	// untouched keys keep defaults
	assert.Equal(t, 2, cfg.Listing.Rows)
	assert.Equal(t, 10*time.Second, cfg.Catalog.Hosted.Timeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "contact:\n  phone: \"33123456789\"\n")
	t.Setenv("VIDFOLIO_CONTACT_PHONE", "237600000000")
	t.Setenv("VIDFOLIO_CATALOG_BACKEND", "POSTGRES")
	t.Setenv("VIDFOLIO_POSTGRES_DSN", "postgres://localhost/vidfolio?sslmode=disable")

	l := NewLoader(path, "test")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "237600000000", cfg.Contact.Phone)
	assert.Equal(t, BackendPostgres, cfg.Catalog.Backend)
	assert.Contains(t, l.ConsumedEnvKeys, "VIDFOLIO_CONTACT_PHONE")
}

func TestLoadStrictRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "catalog:\n  backnd: sqlite\n")
	_, err := NewLoader(path, "test").Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoadRejectsMultipleDocuments(t *testing.T) {
	path := writeFile(t, "logLevel: info\n---\nlogLevel: debug\n")
	_, err := NewLoader(path, "test").Load()
	assert.ErrorIs(t, err, ErrMultipleDocuments)
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "")
	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Catalog, cfg.Catalog)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"), "test").Load()
	assert.Error(t, err)
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Catalog.Hosted.APIKey = "super-secret-key"
	cfg.Player.SessionSecret = "0123456789abcdef"
	out := cfg.String()
	assert.False(t, strings.Contains(out, "super-secret-key"))
	assert.False(t, strings.Contains(out, "0123456789abcdef"))
	assert.Contains(t, out, "***")
}

func TestParseServerConfigForApp(t *testing.T) {
	cfg := Default()
	cfg.Server.ListenAddr = "127.0.0.1:9000"
	cfg.Server.ShutdownTimeout = time.Second

	sc := ParseServerConfigForApp(cfg)
	assert.Equal(t, "127.0.0.1:9000", sc.ListenAddr)
	assert.Equal(t, 3*time.Second, sc.ShutdownTimeout, "shutdown timeout is floored")

	t.Setenv("VIDFOLIO_LISTEN", ":9999")
	assert.Equal(t, ":9999", ParseServerConfigForApp(cfg).ListenAddr)
}
