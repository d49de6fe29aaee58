package app

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/recipe-server/internal/logging"
)

// ConfigureLogging installs the JSON handler as the slog default
func ConfigureLogging(level slog.Level) {
	slog.SetDefault(slog.New(&traceHandler{Handler: logging.NewHandler(logging.WithLevel(level))}))
}

// traceHandler wraps an slog.Handler to inject OpenTelemetry trace_id and
// span_id into every record logged with a span in its context.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}
