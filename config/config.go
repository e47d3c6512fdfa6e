// ABOUTME: Configuration loading and persistence
// ABOUTME: JSON file under the XDG data dir with FIELDSYNC_* environment overrides
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Config holds everything the CLI and daemon need to run.
type Config struct {
	// ServerURL is the base URL of the remote entity API. Empty means
	// local mode against the embedded SQLite store.
	ServerURL string `json:"server_url,omitempty"`
	APIToken  string `json:"api_token,omitempty"`

	// VinDecodeURL is the base URL of the VIN decode collaborator.
	// Empty disables decoding.
	VinDecodeURL string `json:"vin_decode_url,omitempty"`

	// QueueBackend selects the durable queue engine: "badger" (default)
	// or "pebble".
	QueueBackend string `json:"queue_backend,omitempty"`

	// DataDir overrides where the queue and SQLite files live.
	DataDir string `json:"data_dir,omitempty"`

	// SyncIntervalSeconds overrides the 20s drain interval.
	SyncIntervalSeconds int `json:"sync_interval_seconds,omitempty"`

	// ListenAddr is the dashboard/API bind address for `fieldsync serve`.
	ListenAddr string `json:"listen_addr,omitempty"`
}

const appDirName = "fieldsync"

// Path returns the config file location under the XDG data home.
func Path() string {
	return filepath.Join(xdg.DataHome, appDirName, "config.json")
}

// DefaultDataDir is where queue and database files go unless overridden.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, appDirName)
}

// Load reads the config file, then applies .env and environment overrides.
// A missing file is not an error; overrides still apply to the zero config.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	_ = godotenv.Load()
	applyEnv(cfg)
	cfg.applyDefaults()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FIELDSYNC_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("FIELDSYNC_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("FIELDSYNC_VIN_DECODE_URL"); v != "" {
		cfg.VinDecodeURL = v
	}
	if v := os.Getenv("FIELDSYNC_QUEUE_BACKEND"); v != "" {
		cfg.QueueBackend = v
	}
	if v := os.Getenv("FIELDSYNC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FIELDSYNC_SYNC_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SyncIntervalSeconds = n
		}
	}
	if v := os.Getenv("FIELDSYNC_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
}

func (c *Config) applyDefaults() {
	if c.QueueBackend == "" {
		c.QueueBackend = "badger"
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8787"
	}
}

// Save writes the config file, creating the directory as needed.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// LocalMode reports whether the CLI should run against the embedded SQLite
// store instead of a remote server.
func (c *Config) LocalMode() bool {
	return c.ServerURL == ""
}

// SyncInterval returns the configured drain interval, or zero to accept the
// engine default.
func (c *Config) SyncInterval() time.Duration {
	if c.SyncIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

// QueueDir is where the selected queue backend stores its files.
func (c *Config) QueueDir() string {
	return filepath.Join(c.DataDir, "queue-"+c.QueueBackend)
}

// SQLitePath is the embedded database location for local mode.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "fieldsync.db")
}
