// Package app provides application lifecycle management for the recipe server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/recipe-server/internal/config"
	"github.com/stacklok/recipe-server/internal/service"
)

// RecipeApp encapsulates all components needed to run the recipe API server.
// It provides lifecycle management and graceful shutdown capabilities.
type RecipeApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// Listen binds the configured address without serving yet. Calling it twice is a no-op.
func (app *RecipeApp) Listen() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	app.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (app *RecipeApp) Addr() string {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.listener != nil {
		return app.listener.Addr().String()
	}
	return app.httpServer.Addr
}

// Serve accepts connections until the server is stopped. It listens first if needed.
func (app *RecipeApp) Serve() error {
	if err := app.Listen(); err != nil {
		return err
	}

	app.mu.Lock()
	ln := app.listener
	app.mu.Unlock()

	slog.Info("Server listening", "address", ln.Addr().String())
	if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Start starts the HTTP server.
// This method blocks until the HTTP server stops or encounters an error
func (app *RecipeApp) Start() error {
	return app.Serve()
}

// Stop gracefully stops the application with the given timeout
func (app *RecipeApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Shutdown only closes listeners that reached Serve
	app.mu.Lock()
	ln := app.listener
	app.mu.Unlock()
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("failed to close listener: %w", err)
		}
	}

	slog.Info("Server shutdown complete")
	return nil
}

// Run serves until ctx is cancelled, then shuts down within the configured
// shutdown timeout. A server failure cancels the wait and is returned.
func (app *RecipeApp) Run(ctx context.Context) error {
	if err := app.Listen(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		defer close(done)
		return app.Serve()
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-done:
			return nil
		}
		return app.Stop(app.config.Server.GetShutdownTimeout())
	})

	return g.Wait()
}

// GetConfig returns the application configuration
func (app *RecipeApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *RecipeApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// RecipeService returns the store the server is backed by
func (app *RecipeApp) RecipeService() service.RecipeService {
	return app.components.RecipeService
}
