package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"kgq/internal/config"
	"kgq/internal/query"
	"kgq/internal/slogutil"
)

var (
	engineOnce   sync.Once
	sharedEngine *query.Engine
	engineErr    error
)

// getEngine returns a shared query engine instance. The engine is lazily
// initialized on first use, and the selected store (if any) is registered
// under the --store-id identifier.
func getEngine(logger *slog.Logger) (*query.Engine, error) {
	engineOnce.Do(func() {
		root, err := os.Getwd()
		if err != nil {
			engineErr = err
			return
		}

		cfg, err := config.LoadConfig(root)
		if err != nil {
			logger.Warn("failed to load config, using defaults", "error", err)
			cfg = config.DefaultConfig()
		}

		engine, err := query.NewEngine(cfg, logger)
		if err != nil {
			engineErr = fmt.Errorf("failed to create engine: %w", err)
			return
		}

		if path := resolveStorePath(); path != "" {
			if err := engine.RegisterStore(storeIDFlag, path); err != nil {
				engineErr = fmt.Errorf("failed to register store %s: %w", path, err)
				return
			}
		}

		sharedEngine = engine
	})

	return sharedEngine, engineErr
}

// mustGetEngine returns the shared query engine or exits on error.
func mustGetEngine(logger *slog.Logger) *query.Engine {
	engine, err := getEngine(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
		os.Exit(1)
	}
	return engine
}

// mustStoreID ensures a store was selected and returns its identifier.
func mustStoreID() string {
	if resolveStorePath() == "" {
		fmt.Fprintln(os.Stderr, "Error: no store selected (pass --store or set KGQ_STORE)")
		os.Exit(1)
	}
	return storeIDFlag
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}

// newLogger creates a logger matching the output format, so stderr stays
// machine-readable when stdout is JSON.
func newLogger(format string) *slog.Logger {
	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	if format == string(FormatJSON) {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slogutil.NewLogger(os.Stderr, level)
}
