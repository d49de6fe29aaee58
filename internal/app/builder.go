package app

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/stacklok/recipe-server/internal/api"
	"github.com/stacklok/recipe-server/internal/config"
	"github.com/stacklok/recipe-server/internal/service"
	"github.com/stacklok/recipe-server/internal/service/inmemory"
	"github.com/stacklok/recipe-server/internal/telemetry"
)

// RecipeAppOptions is a function that configures the recipe app builder
type RecipeAppOptions func(*recipeAppConfig) error

// recipeAppConfig collects everything needed to build a RecipeApp.
// Injected components take precedence over what the config would build.
type recipeAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	recipeService service.RecipeService

	// HTTP server options
	address     string
	middlewares []func(http.Handler) http.Handler

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...RecipeAppOptions) (*recipeAppConfig, error) {
	cfg := &recipeAppConfig{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = config.Default()
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Server.GetAddress()
	}

	return cfg, nil
}

// NewRecipeApp builds a RecipeApp from the given options
func NewRecipeApp(
	ctx context.Context,
	opts ...RecipeAppOptions,
) (*RecipeApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	recipeService, err := buildServiceComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, recipeService)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	return &RecipeApp{
		config: cfg.config,
		components: &AppComponents{
			RecipeService: recipeService,
		},
		httpServer: httpServer,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) RecipeAppOptions {
	return func(cfg *recipeAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding server.address from the config
func WithAddress(addr string) RecipeAppOptions {
	return func(cfg *recipeAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("address is not a valid host:port: %w", err)
		}
		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(net.JoinHostPort(host, port)); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middleware chain
func WithMiddlewares(mw ...func(http.Handler) http.Handler) RecipeAppOptions {
	return func(cfg *recipeAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRecipeService injects a recipe service instead of building the in-memory store
func WithRecipeService(svc service.RecipeService) RecipeAppOptions {
	return func(cfg *recipeAppConfig) error {
		if svc == nil {
			return fmt.Errorf("recipe service cannot be nil")
		}
		cfg.recipeService = svc
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP and store metrics
func WithMeterProvider(mp metric.MeterProvider) RecipeAppOptions {
	return func(cfg *recipeAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for HTTP and store spans
func WithTracerProvider(tp trace.TracerProvider) RecipeAppOptions {
	return func(cfg *recipeAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) RecipeAppOptions {
	return func(cfg *recipeAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// WithTelemetry wires providers and the metrics handler from t
func WithTelemetry(t *telemetry.Telemetry) RecipeAppOptions {
	return func(cfg *recipeAppConfig) error {
		if t == nil {
			return nil
		}
		cfg.meterProvider = t.MeterProvider()
		cfg.tracerProvider = t.TracerProvider()
		cfg.metricsHandler = t.MetricsHandler()
		return nil
	}
}

// buildServiceComponents builds the recipe store
func buildServiceComponents(
	_ context.Context,
	b *recipeAppConfig,
) (service.RecipeService, error) {
	if b.recipeService != nil {
		return b.recipeService, nil
	}

	slog.Info("Initializing recipe store")

	idGen, err := service.NewIDGenerator(b.config.Store.IDStrategy)
	if err != nil {
		return nil, err
	}

	storeOpts := []inmemory.Option{
		inmemory.WithIDGenerator(idGen),
		inmemory.WithSeed(b.config.Store.Seed),
	}

	if b.tracerProvider != nil {
		storeOpts = append(storeOpts, inmemory.WithTracer(b.tracerProvider.Tracer(inmemory.ServiceTracerName)))
	}

	if b.meterProvider != nil {
		recipeMetrics, err := telemetry.NewRecipeMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create recipe metrics: %w", err)
		}
		storeOpts = append(storeOpts, inmemory.WithMetrics(recipeMetrics))
		slog.Info("Recipe metrics enabled")
	}

	svc, err := inmemory.New(storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe store: %w", err)
	}

	slog.Info("Recipe store initialized",
		"id_strategy", cmp.Or(b.config.Store.IDStrategy, service.IDStrategyName))
	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *recipeAppConfig,
	svc service.RecipeService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	server := b.config.Server

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(server.GetRequestTimeout()),
			api.LoggingMiddleware,
		}

		if rl := b.config.RateLimit; rl.Enabled {
			limiter := rate.NewLimiter(rate.Limit(rl.GetRequestsPerSecond()), rl.GetBurst())
			b.middlewares = append(b.middlewares, api.RateLimitMiddleware(limiter))
			slog.Info("Rate limiting enabled",
				"requests_per_second", rl.GetRequestsPerSecond(),
				"burst", rl.GetBurst())
		}
	}

	// Metrics go first so rejected and timed out requests are counted too
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
		slog.Info("HTTP metrics middleware enabled")
	}

	if b.tracerProvider != nil {
		b.middlewares = append(b.middlewares, telemetry.TracingMiddleware(b.tracerProvider))
	}

	router := api.NewServer(svc,
		api.WithMiddlewares(b.middlewares...),
		api.WithMetricsHandler(b.metricsHandler),
	)

	httpServer := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  server.GetReadTimeout(),
		WriteTimeout: server.GetWriteTimeout(),
		IdleTimeout:  server.GetIdleTimeout(),
	}

	slog.Info("HTTP server configured", "address", b.address)
	return httpServer, nil
}
