// Package config loads the binder daemon configuration from a TOML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// HTTP server configuration
	Server ServerConfig `toml:"server"`

	// Database configuration
	Storage StorageConfig `toml:"storage"`

	// Card catalog source
	Catalog CatalogConfig `toml:"catalog"`

	// Wishlist behaviour
	Wishlist WishlistConfig `toml:"wishlist"`

	// Grid presentation defaults
	Grid GridConfig `toml:"grid"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// ServerConfig contains REST and WebSocket server settings.
type ServerConfig struct {
	Port           int      `toml:"port" env:"BINDER_PORT"`
	AllowedOrigins []string `toml:"allowed_origins" env:"BINDER_ALLOWED_ORIGINS" envSeparator:","`
	RequestTimeout string   `toml:"request_timeout"` // e.g. "30s"
}

// StorageConfig contains database settings.
type StorageConfig struct {
	DBPath      string `toml:"db_path" env:"BINDER_DB_PATH"`
	AutoMigrate bool   `toml:"auto_migrate"`

	// Periodic backups; an empty interval disables them
	BackupDir      string `toml:"backup_dir" env:"BINDER_BACKUP_DIR"`
	BackupInterval string `toml:"backup_interval"` // e.g. "24h"
	BackupKeep     int    `toml:"backup_keep"`     // Newest backups to keep, 0 keeps all
}

// CatalogConfig selects where the card catalog is loaded from. Exactly one of
// File and URL must be set.
type CatalogConfig struct {
	File       string  `toml:"file" env:"BINDER_CATALOG_FILE"`
	URL        string  `toml:"url" env:"BINDER_CATALOG_URL"`
	RateLimit  float64 `toml:"rate_limit"` // Requests per second for URL sources
	Timeout    string  `toml:"timeout"`    // Per-request timeout (e.g. "30s")
	MaxRetries int     `toml:"max_retries"`
}

// WishlistConfig contains wishlist settings.
type WishlistConfig struct {
	AutoRemoveOnAcquire bool `toml:"auto_remove_on_acquire"` // Drop cards from the wishlist once owned
}

// GridConfig contains grid defaults used when a request does not specify them.
type GridConfig struct {
	Columns int    `toml:"columns"`
	Size    string `toml:"size"` // sm, md or lg
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode" env:"BINDER_DEBUG"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8420,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
			RequestTimeout: "30s",
		},
		Storage: StorageConfig{
			DBPath:         defaultDataPath("binder.db"),
			AutoMigrate:    true,
			BackupDir:      defaultDataPath("backups"),
			BackupInterval: "24h",
			BackupKeep:     7,
		},
		Catalog: CatalogConfig{
			File:       defaultDataPath("catalog.json"),
			RateLimit:  2,
			Timeout:    "30s",
			MaxRetries: 3,
		},
		Wishlist: WishlistConfig{
			AutoRemoveOnAcquire: true,
		},
		Grid: GridConfig{
			Columns: 10,
			Size:    "md",
		},
	}
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deck-binder"
	}
	return filepath.Join(home, ".deck-binder")
}

func defaultDataPath(name string) string {
	return filepath.Join(dataDir(), name)
}

// Path returns the default configuration file path.
func Path() string {
	return defaultDataPath("config.toml")
}

// Load loads the configuration from the default path and applies environment
// overrides. Returns the default config if the file doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads the configuration from path and applies environment overrides.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from BINDER_* environment variables.
// Setting BINDER_CATALOG_URL clears the catalog file and vice versa.
func (c *Config) ApplyEnv() error {
	_, fileSet := os.LookupEnv("BINDER_CATALOG_FILE")
	_, urlSet := os.LookupEnv("BINDER_CATALOG_URL")

	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if urlSet && !fileSet {
		c.Catalog.File = ""
	}
	if fileSet && !urlSet {
		c.Catalog.URL = ""
	}
	return nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo saves the configuration to path, creating the directory if needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.Server.RequestTimeout, err)
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Storage.BackupInterval != "" {
		interval, err := time.ParseDuration(c.Storage.BackupInterval)
		if err != nil {
			return fmt.Errorf("invalid backup interval %q: %w", c.Storage.BackupInterval, err)
		}
		if interval < time.Minute {
			return fmt.Errorf("backup interval must be at least 1m: %v", interval)
		}
		if c.Storage.BackupDir == "" {
			return fmt.Errorf("backup directory is required when backups are enabled")
		}
	}
	if c.Storage.BackupKeep < 0 {
		return fmt.Errorf("backup keep cannot be negative: %d", c.Storage.BackupKeep)
	}

	if (c.Catalog.File == "") == (c.Catalog.URL == "") {
		return fmt.Errorf("exactly one of catalog file or catalog url must be set")
	}
	if _, err := time.ParseDuration(c.Catalog.Timeout); err != nil {
		return fmt.Errorf("invalid catalog timeout %q: %w", c.Catalog.Timeout, err)
	}
	if c.Catalog.RateLimit <= 0 {
		return fmt.Errorf("catalog rate limit must be positive: %v", c.Catalog.RateLimit)
	}
	if c.Catalog.MaxRetries < 0 {
		return fmt.Errorf("catalog max retries cannot be negative: %d", c.Catalog.MaxRetries)
	}

	if c.Grid.Columns < 1 {
		return fmt.Errorf("grid columns must be at least 1: %d", c.Grid.Columns)
	}
	switch c.Grid.Size {
	case "sm", "md", "lg":
	default:
		return fmt.Errorf("invalid grid size %q (want sm, md or lg)", c.Grid.Size)
	}

	return nil
}

// GetRequestTimeout returns the request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.RequestTimeout)
}

// GetBackupInterval returns the backup interval, or 0 when backups are disabled.
func (c *Config) GetBackupInterval() (time.Duration, error) {
	if c.Storage.BackupInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Storage.BackupInterval)
}

// GetCatalogTimeout returns the catalog request timeout as a duration.
func (c *Config) GetCatalogTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Catalog.Timeout)
}
