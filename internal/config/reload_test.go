// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolderReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site:\n  title: First\ncatalog:\n  sqlitePath: "+filepath.Join(dir, "c.db")+"\n"), 0600))

	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	assert.Equal(t, "First", h.Get().Site.Title)

	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("site:\n  title: Second\ncatalog:\n  sqlitePath: "+filepath.Join(dir, "c.db")+"\n"), 0600))
	require.NoError(t, h.Reload(context.Background()))
	assert.Equal(t, "Second", h.Get().Site.Title)

	select {
	case got := <-ch:
		assert.Equal(t, "Second", got.Site.Title)
	default:
		t.Fatal("listener was not notified")
	}
}

func TestHolderReloadKeepsOldConfigOnInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site:\n  title: Good\ncatalog:\n  sqlitePath: "+filepath.Join(dir, "c.db")+"\n"), 0600))

	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	require.NoError(t, os.WriteFile(path, []byte("logLevel: shouting\n"), 0600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, "Good", h.Get().Site.Title)
}

func TestHolderWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := func(title string) []byte {
		return []byte("site:\n  title: " + title + "\ncatalog:\n  sqlitePath: " + filepath.Join(dir, "c.db") + "\n")
	}
	require.NoError(t, os.WriteFile(path, body("Before"), 0600))

	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)
	h.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))
	defer h.Stop()

	require.NoError(t, os.WriteFile(path, body("After"), 0600))
	assert.Eventually(t, func() bool {
		return h.Get().Site.Title == "After"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestHolderWatcherDisabledWithoutPath(t *testing.T) {
	h := NewHolder(Default(), NewLoader("", "test"))
	assert.NoError(t, h.StartWatcher(context.Background()))
}
