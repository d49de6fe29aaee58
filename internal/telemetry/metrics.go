// Package telemetry provides OpenTelemetry instrumentation for the recipe server.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// RecipeMetricsMeterName is the name used for the recipe store metrics meter
	RecipeMetricsMeterName = "github.com/stacklok/recipe-server/recipes"
)

// Operation outcomes recorded by RecordOperation
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// RecipeMetrics holds the OpenTelemetry instruments for the recipe store
type RecipeMetrics struct {
	recipesTotal      metric.Int64Gauge
	operationsTotal   metric.Int64Counter
	operationDuration metric.Float64Histogram
}

// NewRecipeMetrics creates a new RecipeMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRecipeMetrics(provider metric.MeterProvider) (*RecipeMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RecipeMetricsMeterName)

	recipesTotal, err := meter.Int64Gauge(
		"recipe_api_recipes_total",
		metric.WithDescription("Number of recipes currently stored"),
		metric.WithUnit("{recipe}"),
	)
	if err != nil {
		return nil, err
	}

	operationsTotal, err := meter.Int64Counter(
		"recipe_api_store_operations_total",
		metric.WithDescription("Total number of recipe store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram(
		"recipe_api_store_operation_duration_seconds",
		metric.WithDescription("Duration of recipe store operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.0001, 0.001, 0.01, 0.1),
	)
	if err != nil {
		return nil, err
	}

	return &RecipeMetrics{
		recipesTotal:      recipesTotal,
		operationsTotal:   operationsTotal,
		operationDuration: operationDuration,
	}, nil
}

// RecordRecipesTotal records the current number of stored recipes
func (m *RecipeMetrics) RecordRecipesTotal(ctx context.Context, count int64) {
	if m == nil || m.recipesTotal == nil {
		return
	}
	m.recipesTotal.Record(ctx, count)
}

// RecordOperation counts a store operation and records how long it took
func (m *RecipeMetrics) RecordOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	if m == nil || m.operationsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)

	m.operationsTotal.Add(ctx, 1, attrs)
	if m.operationDuration != nil {
		m.operationDuration.Record(ctx, duration.Seconds(), attrs)
	}
}
