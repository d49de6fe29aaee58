// Package telemetry wires OpenTelemetry into the recipe server: OTLP traces
// and metrics, with an optional Prometheus scrape endpoint.
package telemetry

import (
	"errors"
	"fmt"
	"net"
	"slices"

	"github.com/stacklok/recipe-server/internal/versions"
)

const (
	// DefaultServiceName is reported as service.name when none is configured
	DefaultServiceName = "recipe-api"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling keeps 5% of traces
	DefaultSampling = 0.05

	// ExporterOTLP pushes metrics to the collector
	ExporterOTLP = "otlp"

	// ExporterPrometheus serves metrics on /metrics
	ExporterPrometheus = "prometheus"
)

// Config is the telemetry section of the server configuration. A nil or
// disabled Config turns every provider into a no-op.
type Config struct {
	Enabled bool `yaml:"enabled"`

	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion defaults to the build version
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is a bare host:port; the exporters add /v1/traces and /v1/metrics
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends OTLP over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of traces kept. Zero means DefaultSampling.
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig controls which metric exporters run
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporters holds "otlp" and/or "prometheus"; empty means otlp only
	Exporters []string `yaml:"exporters,omitempty"`
}

// GetServiceName returns ServiceName or DefaultServiceName
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns ServiceVersion or the version the binary was built with
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return versions.Version
	}
	return c.ServiceVersion
}

// GetEndpoint returns Endpoint or DefaultEndpoint
func (c *Config) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// GetSampling returns the sampling ratio. An unset value cannot be told
// apart from an explicit 0 in YAML, so both mean DefaultSampling.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0 {
		return DefaultSampling
	}
	return c.Sampling
}

// GetExporters returns the configured exporters, or otlp alone
func (c *MetricsConfig) GetExporters() []string {
	if c == nil || len(c.Exporters) == 0 {
		return []string{ExporterOTLP}
	}
	return c.Exporters
}

// HasExporter reports whether name is among the active exporters
func (c *MetricsConfig) HasExporter(name string) bool {
	return slices.Contains(c.GetExporters(), name)
}

// Validate reports every problem in an enabled config. Nil and disabled
// configs are always valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if c.Endpoint != "" {
		if _, _, err := net.SplitHostPort(c.Endpoint); err != nil {
			errs = append(errs, fmt.Errorf("endpoint must be host:port, got %q", c.Endpoint))
		}
	}
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	return errors.Join(errs...)
}

// Validate checks the sampling ratio
func (c *TracingConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	if c.Sampling < 0 || c.Sampling > 1 {
		return fmt.Errorf("sampling must be between 0.0 and 1.0, got %f", c.Sampling)
	}
	return nil
}

// Validate rejects unknown and repeated exporters
func (c *MetricsConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	for i, e := range c.Exporters {
		switch {
		case e != ExporterOTLP && e != ExporterPrometheus:
			errs = append(errs, fmt.Errorf("unknown metrics exporter %q, expected %q or %q", e, ExporterOTLP, ExporterPrometheus))
		case slices.Contains(c.Exporters[:i], e):
			errs = append(errs, fmt.Errorf("metrics exporter %q listed more than once", e))
		}
	}
	return errors.Join(errs...)
}
