// Package helpers starts recipe API servers and issues requests against them for the integration suite.
package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/gomega"

	recipeapp "github.com/stacklok/recipe-server/internal/app"
	"github.com/stacklok/recipe-server/internal/config"
)

// ServerTestHelper manages the recipe API server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	httpClient *http.Client
	app        *recipeapp.RecipeApp
}

// NewServerTestHelper creates a helper. An empty configPath runs with the defaults.
func NewServerTestHelper(ctx context.Context, configPath string) *ServerTestHelper {
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// StartServer builds the app on an ephemeral port and serves in the background
func (s *ServerTestHelper) StartServer() error {
	var loadOpts []config.Option
	if s.configPath != "" {
		loadOpts = append(loadOpts, config.WithConfigPath(s.configPath))
	}
	cfg, err := config.LoadConfig(loadOpts...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := recipeapp.NewRecipeApp(s.ctx,
		recipeapp.WithConfig(cfg),
		recipeapp.WithAddress("127.0.0.1:0"),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	if err := app.Listen(); err != nil {
		return err
	}

	s.app = app
	s.baseURL = "http://" + app.Addr()

	go func() {
		if err := app.Start(); err != nil {
			// The test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the recipe API server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.do(http.MethodGet, "/readiness", "", nil)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ListRecipes makes a GET request to /recipes
func (s *ServerTestHelper) ListRecipes() (*Response, error) {
	return s.do(http.MethodGet, "/recipes", "", nil)
}

// GetRecipe makes a GET request to /recipes/{id}
func (s *ServerTestHelper) GetRecipe(id string) (*Response, error) {
	return s.do(http.MethodGet, "/recipes/"+url.PathEscape(id), "", nil)
}

// CreateRecipe makes a POST request to /recipes with a JSON body
func (s *ServerTestHelper) CreateRecipe(body string) (*Response, error) {
	return s.do(http.MethodPost, "/recipes", "application/json", []byte(body))
}

// UpdateRecipe makes a PUT request to /recipes/{id} with a JSON body
func (s *ServerTestHelper) UpdateRecipe(id, body string) (*Response, error) {
	return s.do(http.MethodPut, "/recipes/"+url.PathEscape(id), "application/json", []byte(body))
}

// DeleteRecipe makes a DELETE request to /recipes/{id}
func (s *ServerTestHelper) DeleteRecipe(id string) (*Response, error) {
	return s.do(http.MethodDelete, "/recipes/"+url.PathEscape(id), "", nil)
}

// Do issues an arbitrary request, for cases the typed helpers do not cover
func (s *ServerTestHelper) Do(method, path, contentType string, body []byte) (*Response, error) {
	return s.do(method, path, contentType, body)
}

// GetBaseURL returns the base URL of the server
func (s *ServerTestHelper) GetBaseURL() string {
	return s.baseURL
}

func (s *ServerTestHelper) do(method, path, contentType string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(s.ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// WriteConfigYAML writes content to config.yaml inside dir and returns its path
func WriteConfigYAML(dir, content string) string {
	configPath := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(configPath, []byte(content), 0600)).To(gomega.Succeed())
	return configPath
}
