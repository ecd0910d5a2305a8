// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/vidfolio/internal/catalog"
	"github.com/ManuGH/vidfolio/internal/config"
)

const fixtureYAML = `
categories:
  - name: Mariages
    slug: mariages
videos:
  - id: v1
    title: Mariage à Douala
    video_url: https://cdn.example.com/douala.mp4
    category: mariages
    upload_date: 2024-03-01
`

func TestDialable(t *testing.T) {
	tests := []struct{ in, want string }{
		{":8080", "localhost:8080"},
		{"0.0.0.0:8080", "localhost:8080"},
		{"[::]:9000", "localhost:9000"},
		{"127.0.0.1:8080", "127.0.0.1:8080"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, dialable(tt.in), tt.in)
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvPrefix+"CONFIG", "")

	assert.Equal(t, "explicit.yaml", resolveConfigPath(" explicit.yaml "))
	assert.Empty(t, resolveConfigPath(""))

	require.NoError(t, os.WriteFile(defaultConfigFile, []byte("logLevel: info\n"), 0o600))
	assert.Equal(t, defaultConfigFile, resolveConfigPath(""))

	t.Setenv(config.EnvPrefix+"CONFIG", "/etc/vidfolio.yaml")
	assert.Equal(t, "/etc/vidfolio.yaml", resolveConfigPath(""))
}

func TestSeedWritesFixture(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(fixtureYAML), 0o600))
	dbPath := filepath.Join(dir, "catalog.db")

	open := func(ctx context.Context) (catalog.Store, error) {
		return catalog.NewSQLiteStore(ctx, dbPath)
	}
	var out bytes.Buffer
	require.NoError(t, seed(context.Background(), config.BackendSQLite, fixture, open, &out))
	assert.Equal(t, "seeded 1 categories and 1 videos into sqlite\n", out.String())

	store, err := catalog.NewSQLiteStore(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()
	v, err := store.GetVideo(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "Mariage à Douala", v.Title)
}

func TestSeedRejectsBadFixtureBeforeOpening(t *testing.T) {
	fixture := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte("unknown: true\n"), 0o600))

	opened := false
	open := func(context.Context) (catalog.Store, error) {
		opened = true
		return nil, nil
	}
	err := seed(context.Background(), config.BackendSQLite, fixture, open, &bytes.Buffer{})
	assert.Error(t, err)
	assert.False(t, opened)
}

func TestConfigInitAndDump(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvPrefix+"CONFIG", "")

	path := filepath.Join(dir, "config.yaml")
	require.Equal(t, 0, runConfigInit([]string{path}))
	assert.Equal(t, 1, runConfigInit([]string{path}), "existing file is kept")
	require.Equal(t, 0, runConfigInit([]string{"--force", path}))

	custom := "catalog:\n  backend: sqlite\n  sqlitePath: " + filepath.Join(dir, "catalog.db") +
		"\nplayer:\n  sessionSecret: 0123456789abcdef0123\n"
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o600))
	require.Equal(t, 0, runConfigValidate([]string{"-f", path}))

	var out bytes.Buffer
	require.Equal(t, 0, runConfigDump([]string{"-f", path, "--format", "json"}, &out))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	player, ok := doc["player"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "***", player["sessionSecret"])

	assert.Equal(t, 2, runConfigDump([]string{"-f", path, "--format", "toml"}, &out))
}
