// Package api provides the REST API server for the recipe collection.
package api

import (
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/recipe-server/internal/api/common"
	"github.com/stacklok/recipe-server/internal/api/recipes"
	v0 "github.com/stacklok/recipe-server/internal/api/v0"
	"github.com/stacklok/recipe-server/internal/service"
)

//go:embed openapi.json
var openAPIJSON []byte

// ServerOption configures the recipe API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h on /metrics. A nil handler leaves the route unmounted.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// NewServer creates and configures the HTTP router with the given service and options
func NewServer(svc service.RecipeService, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.NotFound(common.NotFoundHandler)
	r.MethodNotAllowed(common.MethodNotAllowedHandler)
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	// Health, readiness and version live at the root
	r.Mount("/", v0.HealthRouter(svc))

	r.Get("/openapi.json", openAPIJSONHandler)
	r.Get("/openapi.yaml", openAPIYAMLHandler)

	if cfg.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}

	r.Mount("/recipes", recipes.Router(svc))

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// openAPIJSONHandler serves the embedded OpenAPI document
//
// @Summary		OpenAPI document
// @Tags		system
// @Produce		json
// @Success		200
// @Router		/openapi.json [get]
func openAPIJSONHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIJSON)
}

var openAPIYAML = sync.OnceValues(func() ([]byte, error) {
	var doc any
	if err := json.Unmarshal(openAPIJSON, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
})

// openAPIYAMLHandler serves the embedded OpenAPI document rendered as YAML
//
// @Summary		OpenAPI document (YAML)
// @Tags		system
// @Produce		application/yaml
// @Success		200
// @Router		/openapi.yaml [get]
func openAPIYAMLHandler(w http.ResponseWriter, r *http.Request) {
	out, err := openAPIYAML()
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to render OpenAPI document", "error", err)
		common.WriteErrorResponse(w, "Failed to render OpenAPI document", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
