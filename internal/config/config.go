// Package config loads widgetctl configuration from a YAML file and
// SITEWIDGETS_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full widgetctl configuration.
type Config struct {
	// Jetpack selects the Jetpack app variant (lock screen widgets,
	// features-disabled state).
	Jetpack bool `yaml:"jetpack" env:"SITEWIDGETS_JETPACK"`

	// DefaultSiteID is used when a widget has no site selected. Zero means none.
	DefaultSiteID int `yaml:"default_site_id" env:"SITEWIDGETS_DEFAULT_SITE_ID"`

	Store   StoreConfig   `yaml:"store"`
	Cache   CacheConfig   `yaml:"cache"`
	Refresh RefreshConfig `yaml:"refresh"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StoreConfig selects the key/value backend.
type StoreConfig struct {
	// Backend is one of memory, sqlite, postgres, mysql, redis.
	Backend   string `yaml:"backend" env:"SITEWIDGETS_STORE_BACKEND"`
	DSN       string `yaml:"dsn" env:"SITEWIDGETS_STORE_DSN"`
	RedisURL  string `yaml:"redis_url" env:"SITEWIDGETS_REDIS_URL"`
	KeyPrefix string `yaml:"key_prefix" env:"SITEWIDGETS_KEY_PREFIX"`
	Table     string `yaml:"table" env:"SITEWIDGETS_STORE_TABLE"`
}

// CacheConfig controls cached payload lifetime.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" env:"SITEWIDGETS_CACHE_TTL"`
}

// RefreshConfig controls the background refresh worker.
type RefreshConfig struct {
	// DatabaseURL is the Postgres database River uses for its job tables.
	DatabaseURL string        `yaml:"database_url" env:"SITEWIDGETS_RIVER_DATABASE_URL"`
	FetchDir    string        `yaml:"fetch_dir" env:"SITEWIDGETS_FETCH_DIR"`
	MaxWorkers  int           `yaml:"max_workers" env:"SITEWIDGETS_MAX_WORKERS"`
	JobTimeout  time.Duration `yaml:"job_timeout" env:"SITEWIDGETS_JOB_TIMEOUT"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"SITEWIDGETS_LOG_LEVEL"`
	Format string `yaml:"format" env:"SITEWIDGETS_LOG_FORMAT"` // json or text
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr      string `yaml:"addr" env:"SITEWIDGETS_METRICS_ADDR"`
	Namespace string `yaml:"namespace" env:"SITEWIDGETS_METRICS_NAMESPACE"`
}

// Store backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendRedis    = "redis"
)

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:   BackendSQLite,
			DSN:       "sitewidgets.db",
			KeyPrefix: "sitewidgets:",
			Table:     "widget_store",
		},
		Cache: CacheConfig{TTL: 30 * time.Minute},
		Refresh: RefreshConfig{
			FetchDir:   "stats",
			MaxWorkers: 4,
			JobTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Addr: ":9090", Namespace: "sitewidgets"},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path or a missing file uses defaults only.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite, BackendPostgres, BackendMySQL:
		if c.Store.DSN == "" {
			return fmt.Errorf("store backend %s requires a dsn", c.Store.Backend)
		}
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store backend redis requires redis_url")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if c.Refresh.MaxWorkers < 1 {
		return fmt.Errorf("refresh max_workers must be at least 1")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// DefaultSite returns DefaultSiteID as an optional value.
func (c *Config) DefaultSite() *int {
	if c.DefaultSiteID == 0 {
		return nil
	}
	id := c.DefaultSiteID
	return &id
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Logging.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}
	return level, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
