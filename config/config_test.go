// ABOUTME: Tests for config load, save, defaults, and environment overrides
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, "badger", cfg.QueueBackend)
	require.Equal(t, ":8787", cfg.ListenAddr)
	require.True(t, cfg.LocalMode())
	require.Zero(t, cfg.SyncInterval())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := &Config{
		ServerURL:           "https://api.example.com",
		APIToken:            "tok",
		QueueBackend:        "pebble",
		SyncIntervalSeconds: 5,
	}
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com", loaded.ServerURL)
	require.Equal(t, "tok", loaded.APIToken)
	require.Equal(t, "pebble", loaded.QueueBackend)
	require.Equal(t, 5*time.Second, loaded.SyncInterval())
	require.False(t, loaded.LocalMode())
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := &Config{ServerURL: "https://file.example.com"}
	require.NoError(t, cfg.SaveTo(path))

	t.Setenv("FIELDSYNC_SERVER_URL", "https://env.example.com")
	t.Setenv("FIELDSYNC_QUEUE_BACKEND", "pebble")
	t.Setenv("FIELDSYNC_SYNC_INTERVAL", "45")

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com", loaded.ServerURL)
	require.Equal(t, "pebble", loaded.QueueBackend)
	require.Equal(t, 45*time.Second, loaded.SyncInterval())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadFrom(path)
	require.Error(t, err)
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/fs", QueueBackend: "badger"}
	cfg.applyDefaults()
	require.Equal(t, filepath.Join("/tmp/fs", "queue-badger"), cfg.QueueDir())
	require.Equal(t, filepath.Join("/tmp/fs", "fieldsync.db"), cfg.SQLitePath())
}
