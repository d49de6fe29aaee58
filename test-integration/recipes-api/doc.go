// Package integration provides integration tests for the recipe API server.
// Every test starts a real server on an ephemeral port and talks to it over HTTP.
package integration
