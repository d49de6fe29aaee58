// Package main is the entry point for the recipe API server.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/stacklok/recipe-server/cmd/recipe-api/app"
	"github.com/stacklok/recipe-server/internal/config"
	"github.com/stacklok/recipe-server/internal/logging"
)

// getLogLevel reads RECIPE_API_LOG_LEVEL, falling back to LOG_LEVEL.
// Defaults to slog.LevelInfo if neither is set or if the value is invalid.
func getLogLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	level, ok := logging.ParseLevel(levelStr)
	if !ok {
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
	}
	return level
}

func main() {
	// Logs go to stderr so stdout stays clean for `version --format json`
	app.ConfigureLogging(getLogLevel())

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
