package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestProviderOptions(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	tc := &TracingConfig{Enabled: true}
	mc := &MetricsConfig{Enabled: true}

	s := newProviderSettings(
		WithServiceName("svc"),
		WithServiceVersion("9.9.9"),
		WithEndpoint("collector:4318"),
		WithInsecure(true),
		WithTracingConfig(tc),
		WithMetricsConfig(mc),
		WithPrometheusRegisterer(reg),
	)

	assert.Equal(t, "svc", s.serviceName)
	assert.Equal(t, "9.9.9", s.serviceVersion)
	assert.Equal(t, "collector:4318", s.endpoint)
	assert.True(t, s.insecure)
	assert.Same(t, tc, s.tracingConfig)
	assert.Same(t, mc, s.metricsConfig)
	assert.Same(t, reg, s.registerer)

	defaults := newProviderSettings()
	assert.Equal(t, DefaultServiceName, defaults.serviceName)
	assert.Equal(t, "unknown", defaults.serviceVersion)
	assert.Equal(t, DefaultEndpoint, defaults.endpoint)
}

func TestNewTracerProvider(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tp, err := NewTracerProvider(ctx)
	require.NoError(t, err)
	_, ok := tp.(tracenoop.TracerProvider)
	assert.True(t, ok, "expected no-op tracer provider without config")

	tp, err = NewTracerProvider(ctx, WithTracingConfig(&TracingConfig{Enabled: false}))
	require.NoError(t, err)
	_, ok = tp.(tracenoop.TracerProvider)
	assert.True(t, ok, "expected no-op tracer provider when disabled")

	tp, err = NewTracerProvider(ctx,
		WithTracingConfig(&TracingConfig{Enabled: true, Sampling: 1}),
		WithInsecure(true),
	)
	require.NoError(t, err)
	sdkTP, ok := tp.(*sdktrace.TracerProvider)
	require.True(t, ok, "expected SDK tracer provider when enabled")
	// no collector is running; shutdown errors from the flush are expected
	_ = sdkTP.Shutdown(ctx)
}

func TestNewMeterProvider(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no-op when disabled", func(t *testing.T) {
		t.Parallel()

		mp, err := NewMeterProvider(ctx, WithMetricsConfig(&MetricsConfig{Enabled: false}))
		require.NoError(t, err)
		_, ok := mp.(metricnoop.MeterProvider)
		assert.True(t, ok)
	})

	t.Run("otlp exporter", func(t *testing.T) {
		t.Parallel()

		mp, err := NewMeterProvider(ctx,
			WithMetricsConfig(&MetricsConfig{Enabled: true}),
			WithInsecure(true),
		)
		require.NoError(t, err)
		sdkMP, ok := mp.(*sdkmetric.MeterProvider)
		require.True(t, ok)
		_ = sdkMP.Shutdown(ctx)
	})

	t.Run("prometheus exporter registers with the registry", func(t *testing.T) {
		t.Parallel()

		reg := prometheus.NewRegistry()
		mp, err := NewMeterProvider(ctx,
			WithMetricsConfig(&MetricsConfig{Enabled: true, Exporters: []string{ExporterPrometheus}}),
			WithPrometheusRegisterer(reg),
		)
		require.NoError(t, err)
		defer func() { _ = mp.(*sdkmetric.MeterProvider).Shutdown(ctx) }()

		metrics, err := NewRecipeMetrics(mp)
		require.NoError(t, err)
		metrics.RecordRecipesTotal(ctx, 3)

		families, err := reg.Gather()
		require.NoError(t, err)

		var found bool
		for _, f := range families {
			if strings.HasPrefix(f.GetName(), "recipe_api_recipes") {
				found = true
			}
		}
		assert.True(t, found, "expected recipe gauge in the prometheus registry")
	})

	t.Run("prometheus exporter without registerer", func(t *testing.T) {
		t.Parallel()

		_, err := NewMeterProvider(ctx,
			WithMetricsConfig(&MetricsConfig{Enabled: true, Exporters: []string{ExporterPrometheus}}),
		)
		require.ErrorIs(t, err, ErrPrometheusRegistererRequired)
	})
}
