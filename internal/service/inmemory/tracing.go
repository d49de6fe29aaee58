package inmemory

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/recipe-server/internal/service"
	"github.com/stacklok/recipe-server/internal/telemetry"
)

const (
	// ServiceTracerName is the name used for the in-memory store tracer
	ServiceTracerName = "github.com/stacklok/recipe-server/service/inmemory"
)

// Span attribute keys
const (
	AttrRecipeID    = attribute.Key("recipe.id")
	AttrResultCount = attribute.Key("result.count")
)

// startSpan starts a store span.
// If the tracer is nil, it returns the span already carried by ctx.
func (s *recipeSvc) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
}

// finish records the outcome of an operation on its span and in the store metrics
func (s *recipeSvc) finish(ctx context.Context, span trace.Span, operation string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	recordError(span, err)
	s.metrics.RecordOperation(ctx, operation, outcomeOf(err), time.Since(start))
	if s.tracer != nil {
		span.End()
	}
}

// recordError records an error on a span. Only unexpected errors mark the span
// status as failed; client errors stay as span events.
func recordError(span trace.Span, err error) {
	if err == nil || span == nil {
		return
	}
	span.RecordError(err)
	if outcomeOf(err) == telemetry.OutcomeError {
		span.SetStatus(codes.Error, "operation failed")
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return telemetry.OutcomeSuccess
	case errors.Is(err, service.ErrRecipeNotFound):
		return telemetry.OutcomeNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return telemetry.OutcomeInvalid
	case errors.Is(err, service.ErrRecipeAlreadyExists):
		return telemetry.OutcomeConflict
	default:
		return telemetry.OutcomeError
	}
}
