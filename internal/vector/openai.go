package vector

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"kgq/internal/config"
	kgqerrors "kgq/internal/errors"
)

// Remote embeds queries through an OpenAI-compatible embeddings API. The
// key is read from the environment at construction; a missing key surfaces
// as an error on Embed so the scorer can degrade instead of the whole
// engine refusing to start.
type Remote struct {
	client *openai.Client
	model  string
	dim    int
	keySet bool
	logger *slog.Logger
}

// NewRemote builds the remote provider from config. BaseURL overrides the
// default endpoint for self-hosted OpenAI-compatible servers.
func NewRemote(cfg config.RemoteConfig, dim int, logger *slog.Logger) *Remote {
	if logger == nil {
		logger = slog.Default()
	}
	apiKey := os.Getenv(cfg.APIKeyEnv)

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Remote{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		dim:    dim,
		keySet: apiKey != "",
		logger: logger,
	}
}

func (r *Remote) Name() string { return "remote:" + r.model }

// Embed requests a query embedding. The response must match the store's
// vector dimension or the similarity math would be meaningless.
func (r *Remote) Embed(ctx context.Context, text string) ([]float32, error) {
	if !r.keySet {
		return nil, kgqerrors.New(kgqerrors.EmbeddingUnavailable, "embedding API key not configured")
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(r.model),
	}
	if r.dim > 0 {
		req.Dimensions = r.dim
	}

	resp, err := r.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.EmbeddingUnavailable, "embedding request failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, kgqerrors.New(kgqerrors.EmbeddingUnavailable, "embedding response carried no vectors")
	}

	vec := resp.Data[0].Embedding
	if r.dim > 0 && len(vec) != r.dim {
		return nil, kgqerrors.New(kgqerrors.EmbeddingUnavailable,
			fmt.Sprintf("embedding dimension %d does not match store dimension %d", len(vec), r.dim))
	}
	return vec, nil
}
