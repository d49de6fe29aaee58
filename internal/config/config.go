// Package config provides configuration loading and management for the recipe server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/recipe-server/internal/service"
	"github.com/stacklok/recipe-server/internal/telemetry"
)

const (
	// EnvPrefix is the prefix for environment variables read through viper
	EnvPrefix = "RECIPE_API"

	// DefaultAddress is the listen address used when none is configured
	DefaultAddress = ":8080"

	defaultRequestTimeout  = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	defaultRequestsPerSecond = 100
	defaultBurst             = 200
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks; this also cleans the path
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Store     StoreConfig       `yaml:"store"`
	RateLimit RateLimitConfig   `yaml:"rateLimit"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ServerConfig holds HTTP server settings. Timeouts are Go duration strings such as "10s".
type ServerConfig struct {
	Address         string `yaml:"address,omitempty"`
	RequestTimeout  string `yaml:"requestTimeout,omitempty"`
	ReadTimeout     string `yaml:"readTimeout,omitempty"`
	WriteTimeout    string `yaml:"writeTimeout,omitempty"`
	IdleTimeout     string `yaml:"idleTimeout,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
}

// StoreConfig holds recipe store settings
type StoreConfig struct {
	// IDStrategy selects how created recipes get their id: "name" (default) or "uuid"
	IDStrategy string `yaml:"idStrategy,omitempty"`

	// Seed replaces the default recipes when set. An explicit empty list
	// starts the store empty; omitting the key keeps the defaults.
	Seed []service.SeedRecipe `yaml:"seed"`
}

// RateLimitConfig configures the token bucket applied to every request
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{}
}

// LoadConfig loads and parses configuration from a YAML file.
// Without WithConfigPath it returns the defaults.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return config, nil
}

// Parse decodes and validates a YAML document
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	for _, d := range []struct {
		field string
		value string
	}{
		{"server.requestTimeout", c.Server.RequestTimeout},
		{"server.readTimeout", c.Server.ReadTimeout},
		{"server.writeTimeout", c.Server.WriteTimeout},
		{"server.idleTimeout", c.Server.IdleTimeout},
		{"server.shutdownTimeout", c.Server.ShutdownTimeout},
	} {
		if _, err := parseDuration(d.value, 0); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.field, err))
		}
	}

	if _, err := service.NewIDGenerator(c.Store.IDStrategy); err != nil {
		errs = append(errs, fmt.Errorf("store.idStrategy: %w", err))
	}

	names := make(map[string]bool, len(c.Store.Seed))
	for i, seed := range c.Store.Seed {
		if strings.TrimSpace(seed.Name) == "" {
			errs = append(errs, fmt.Errorf("store.seed[%d]: name is required", i))
			continue
		}
		if seed.Ingredients == nil {
			errs = append(errs, fmt.Errorf("store.seed[%d] (%s): ingredients are required", i, seed.Name))
		}
		if names[seed.Name] {
			errs = append(errs, fmt.Errorf("store.seed[%d]: duplicate recipe name '%s'", i, seed.Name))
		}
		names[seed.Name] = true
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond < 0 {
			errs = append(errs, fmt.Errorf("rateLimit.requestsPerSecond must be positive"))
		}
		if c.RateLimit.Burst < 0 {
			errs = append(errs, fmt.Errorf("rateLimit.burst must be positive"))
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", value)
	}
	return d, nil
}

// mustDuration is used by the getters after Validate has accepted the value
func mustDuration(value string, fallback time.Duration) time.Duration {
	d, err := parseDuration(value, fallback)
	if err != nil {
		return fallback
	}
	return d
}

// GetAddress returns the listen address, using DefaultAddress if not specified
func (s ServerConfig) GetAddress() string {
	if s.Address == "" {
		return DefaultAddress
	}
	return s.Address
}

// GetRequestTimeout returns the per-request handler timeout
func (s ServerConfig) GetRequestTimeout() time.Duration {
	return mustDuration(s.RequestTimeout, defaultRequestTimeout)
}

// GetReadTimeout returns the http.Server read timeout
func (s ServerConfig) GetReadTimeout() time.Duration {
	return mustDuration(s.ReadTimeout, defaultReadTimeout)
}

// GetWriteTimeout returns the http.Server write timeout
func (s ServerConfig) GetWriteTimeout() time.Duration {
	return mustDuration(s.WriteTimeout, defaultWriteTimeout)
}

// GetIdleTimeout returns the http.Server idle timeout
func (s ServerConfig) GetIdleTimeout() time.Duration {
	return mustDuration(s.IdleTimeout, defaultIdleTimeout)
}

// GetShutdownTimeout returns how long a graceful shutdown may take
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	return mustDuration(s.ShutdownTimeout, defaultShutdownTimeout)
}

// GetRequestsPerSecond returns the sustained request rate
func (r RateLimitConfig) GetRequestsPerSecond() float64 {
	if r.RequestsPerSecond == 0 {
		return defaultRequestsPerSecond
	}
	return r.RequestsPerSecond
}

// GetBurst returns the token bucket size
func (r RateLimitConfig) GetBurst() int {
	if r.Burst == 0 {
		return defaultBurst
	}
	return r.Burst
}
