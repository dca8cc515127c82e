// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DBPath      string `env:"DB_PATH" envDefault:"./data/fincoach.db"`
	CatalogPath string `env:"CATALOG_PATH"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	Generation GenerationConfig
	Content    ContentConfig
}

// GenerationConfig points at the external text-generation service.
type GenerationConfig struct {
	URL     string        `env:"GENERATION_URL" envDefault:"http://localhost:8000/api/chat"`
	APIKey  string        `env:"GENERATION_API_KEY"`
	Timeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"8s"`
}

// ContentConfig controls the card content cache.
type ContentConfig struct {
	TTL           time.Duration `env:"CONTENT_TTL" envDefault:"5m"`
	MaxEntries    int           `env:"CONTENT_CACHE_MAX_ENTRIES" envDefault:"10000"`
	SweepInterval time.Duration `env:"CONTENT_SWEEP_INTERVAL" envDefault:"1m"`
	RedisURL      string        `env:"REDIS_URL"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Generation.URL == "" {
		return fmt.Errorf("GENERATION_URL cannot be empty")
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be > 0")
	}
	if c.Content.TTL <= 0 {
		return fmt.Errorf("CONTENT_TTL must be > 0")
	}
	if c.Content.MaxEntries < 0 {
		return fmt.Errorf("CONTENT_CACHE_MAX_ENTRIES must be >= 0")
	}
	if c.Content.SweepInterval <= 0 {
		return fmt.Errorf("CONTENT_SWEEP_INTERVAL must be > 0")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// IsDevelopment returns true if every allowed origin is local.
func (c *Config) IsDevelopment() bool {
	for _, o := range c.CORSOrigins {
		if !strings.Contains(o, "localhost") && !strings.Contains(o, "127.0.0.1") {
			return false
		}
	}
	return true
}
