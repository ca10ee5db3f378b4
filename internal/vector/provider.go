// Package vector computes the embedding-similarity signal. Stored node
// vectors come from the store itself; only the query embedding is computed
// here, through a pluggable provider. Provider failure is never fatal: the
// signal degrades to empty and fusion proceeds on the other signals.
package vector

import (
	"context"
	"log/slog"
	"os"

	"kgq/internal/config"
)

// Provider turns query text into an embedding vector.
type Provider interface {
	// Embed returns the vector for the given text. Implementations honor
	// ctx cancellation and deadlines.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Name identifies the provider in logs and stats.
	Name() string
}

// Resolve picks the query-embedding provider for a store whose vectors have
// storeDim dimensions. Resolution order for "auto":
//
//  1. the local hash embedder, when storeDim is a size it is tuned for
//  2. the remote API, when an API key is configured
//  3. the local embedder padded or truncated to storeDim
//
// All three satisfy the same interface, so the store's dimension choice
// never leaks past this function.
func Resolve(cfg config.VectorConfig, storeDim int, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	dim := storeDim
	if dim <= 0 {
		dim = cfg.Dimensions
	}

	switch cfg.Provider {
	case "local":
		return localFor(dim)
	case "remote":
		return NewRemote(cfg.Remote, dim, logger)
	}

	if IsFastDim(dim) {
		return NewLocal(dim)
	}
	if os.Getenv(cfg.Remote.APIKeyEnv) != "" {
		logger.Debug("embedding provider resolved", "provider", "remote", "dim", dim)
		return NewRemote(cfg.Remote, dim, logger)
	}
	logger.Debug("embedding provider resolved", "provider", "local-resized", "dim", dim)
	return localFor(dim)
}

func localFor(dim int) Provider {
	if IsFastDim(dim) {
		return NewLocal(dim)
	}
	return Resized(NewLocal(nearestFastDim(dim)), dim)
}
