package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the pick-list server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Sortly   SortlyConfig
	Sync     SyncConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type SortlyConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type SyncConfig struct {
	Enabled           bool
	Interval          time.Duration
	WarehouseLocation string
	PerPage           int
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PICKLIST_PORT", 8080),
			Env:  envString("PICKLIST_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Sortly: SortlyConfig{
			BaseURL:   envString("SORTLY_BASE_URL", "https://api.sortly.co/api/v1"),
			SecretKey: os.Getenv("SORTLY_SECRET_KEY"),
			Timeout:   envDuration("SORTLY_TIMEOUT", 20*time.Second),
		},
		Sync: SyncConfig{
			Enabled:           envBool("SORTLY_SYNC_ENABLED", true),
			Interval:          envDuration("SORTLY_SYNC_INTERVAL", 2*time.Minute),
			WarehouseLocation: envString("SORTLY_WAREHOUSE_LOCATION", "Warehouse"),
			PerPage:           envInt("SORTLY_SYNC_PER_PAGE", 100),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !strings.HasPrefix(c.Sortly.BaseURL, "http://") && !strings.HasPrefix(c.Sortly.BaseURL, "https://") {
		return fmt.Errorf("SORTLY_BASE_URL must start with http:// or https://, got %q", c.Sortly.BaseURL)
	}

	if c.Sync.Enabled && c.Sortly.SecretKey == "" {
		return fmt.Errorf("SORTLY_SECRET_KEY is required when SORTLY_SYNC_ENABLED is true")
	}

	if c.Sync.Interval < 10*time.Second {
		return fmt.Errorf("SORTLY_SYNC_INTERVAL must be at least 10s, got %s", c.Sync.Interval)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
