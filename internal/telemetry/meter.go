package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	// DefaultMetricsInterval is the default push interval for the OTLP exporter
	DefaultMetricsInterval = 60 * time.Second
)

// ErrPrometheusRegistererRequired is returned when the prometheus exporter is enabled
// without a registry to register it with
var ErrPrometheusRegistererRequired = errors.New("prometheus exporter requires a registerer")

// NewMeterProvider creates a MeterProvider with one reader per configured exporter.
// Returns a no-op provider when metrics are disabled or not configured.
// The caller owns the returned provider and must shut it down.
func NewMeterProvider(ctx context.Context, opts ...ProviderOption) (metric.MeterProvider, error) {
	s := newProviderSettings(opts...)

	if s.metricsConfig == nil || !s.metricsConfig.Enabled {
		slog.Debug("Metrics disabled, using no-op meter provider")
		return noop.NewMeterProvider(), nil
	}

	res, err := s.resource(ctx)
	if err != nil {
		return nil, err
	}

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, name := range s.metricsConfig.GetExporters() {
		reader, err := s.reader(ctx, name)
		if err != nil {
			return nil, err
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(mpOpts...)
	otel.SetMeterProvider(mp)

	slog.Info("Metrics initialized",
		"exporters", s.metricsConfig.GetExporters(),
		"endpoint", s.endpoint,
	)

	return mp, nil
}

func (s *providerSettings) reader(ctx context.Context, exporter string) (sdkmetric.Reader, error) {
	switch exporter {
	case ExporterOTLP:
		exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(s.endpoint)}
		if s.insecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(DefaultMetricsInterval)), nil
	case ExporterPrometheus:
		if s.registerer == nil {
			return nil, ErrPrometheusRegistererRequired
		}
		exp, err := otelprom.New(otelprom.WithRegisterer(s.registerer))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", exporter)
	}
}
