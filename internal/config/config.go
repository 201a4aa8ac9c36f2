// Quillfeed - Personalized Story Feed and Pagination Core
// Copyright 2026 J. Merrin (quillfeed)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quillfeed/quillfeed

// Package config loads and validates the Quillfeed configuration using
// layered Koanf v2 sources: struct defaults, an optional YAML file, and
// environment variables with a QUILLFEED_ prefix.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/quillfeed/quillfeed/internal/feed"
	"github.com/quillfeed/quillfeed/internal/logging"
	"github.com/quillfeed/quillfeed/internal/pagecache"
	"github.com/quillfeed/quillfeed/internal/paginate"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/quillfeed/config.yaml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces Quillfeed environment overrides. Nested keys use a
// double underscore: QUILLFEED_SERVER__PORT=8080 sets server.port.
const envPrefix = "QUILLFEED_"

// Config is the complete application configuration.
type Config struct {
	Server     ServerConfig        `koanf:"server" validate:"required"`
	Logging    logging.Config      `koanf:"logging"`
	Catalog    CatalogConfig       `koanf:"catalog"`
	Feed       feed.BuilderConfig  `koanf:"feed"`
	Explore    feed.ExplorerConfig `koanf:"explore"`
	Pagination PaginationConfig    `koanf:"pagination"`
	Cache      CacheConfig         `koanf:"cache"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`

	// CORSOrigins are the allowed cross-origin request origins.
	CORSOrigins []string `koanf:"cors_origins"`
}

// CatalogConfig points at the story catalog snapshot.
type CatalogConfig struct {
	// Path is a JSON file holding the ordered story list. Optional; the
	// server starts with an empty catalog when unset.
	Path string `koanf:"path"`
}

// PaginationConfig combines the layout parameters, the host's fixed
// viewport, and the reference measurer metrics.
type PaginationConfig struct {
	Layout paginate.Config `koanf:"layout"`

	ViewportWidth  float64 `koanf:"viewport_width" validate:"gt=0"`
	ViewportHeight float64 `koanf:"viewport_height" validate:"gt=0"`

	CharWidth  float64 `koanf:"char_width" validate:"gt=0"`
	LineHeight float64 `koanf:"line_height" validate:"gt=0"`
}

// CacheConfig bounds the page cache.
type CacheConfig struct {
	Capacity int `koanf:"capacity" validate:"gte=1"`
}

// Default returns a Config with all default values. Defaults are applied
// first, then overridden by the config file and environment variables.
func Default() *Config {
	metrics := paginate.NewFixedMetrics()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8712,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{},
		},
		Logging: logging.DefaultConfig(),
		Catalog: CatalogConfig{Path: ""},
		Feed:    feed.DefaultBuilderConfig(),
		Explore: feed.DefaultExplorerConfig(),
		Pagination: PaginationConfig{
			Layout:         paginate.DefaultConfig(),
			ViewportWidth:  390,
			ViewportHeight: 744,
			CharWidth:      metrics.CharWidth,
			LineHeight:     metrics.LineHeight,
		},
		Cache: CacheConfig{Capacity: pagecache.DefaultCapacity},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		key := strings.TrimPrefix(s, envPrefix)
		key = strings.ToLower(key)
		// Double underscore separates nesting levels so single
		// underscores survive inside key names.
		return strings.ReplaceAll(key, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the config file to load, or empty string for none.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks struct tags and the cross-field constraints the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if err := c.Feed.Weights.Validate(); err != nil {
		return fmt.Errorf("feed weights: %w", err)
	}

	if c.Explore.DirectSharePercent < 0 || c.Explore.DirectSharePercent > 100 {
		return fmt.Errorf("explore direct share must be in [0, 100], got %d", c.Explore.DirectSharePercent)
	}

	if c.Pagination.Layout.MaxPages <= 0 {
		return fmt.Errorf("pagination max pages must be positive, got %d", c.Pagination.Layout.MaxPages)
	}

	usable := c.Pagination.ViewportHeight - c.Pagination.Layout.TopPadding -
		c.Pagination.Layout.BottomPadding - c.Pagination.Layout.SafetyMargin
	if usable < c.Pagination.LineHeight {
		return fmt.Errorf("viewport height %v leaves no room for a line of text", c.Pagination.ViewportHeight)
	}

	return nil
}
