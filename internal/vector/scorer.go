package vector

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"kgq/internal/storage"
)

// Scorer ranks stored node embeddings by cosine similarity to the query
// embedding. One Scorer serves one store; it holds the resolved provider
// and the embed timeout.
type Scorer struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScorer wires a provider to a store's vector signal.
func NewScorer(provider Provider, timeout time.Duration, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{provider: provider, timeout: timeout, logger: logger}
}

// ProviderName reports which provider backs this scorer.
func (s *Scorer) ProviderName() string {
	return s.provider.Name()
}

// Score returns the top-limit non-negative cosine similarities between the
// query embedding and every stored vector, keyed by node id. Every failure
// mode degrades to an empty map: stores without embeddings, unreadable
// embedding tables, and provider errors all cost this one signal, never the
// query. A non-positive limit returns all non-negative matches.
func (s *Scorer) Score(ctx context.Context, adapter *storage.Adapter, query string, limit int) map[string]float64 {
	vectors, dim, err := adapter.EmbeddingRows(ctx)
	if err != nil {
		s.logger.Warn("embedding rows unreadable, dropping vector signal", "error", err)
		return map[string]float64{}
	}
	if len(vectors) == 0 {
		return map[string]float64{}
	}

	embedCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	queryVec, err := s.provider.Embed(embedCtx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, dropping vector signal",
			"provider", s.provider.Name(), "error", err)
		return map[string]float64{}
	}
	if len(queryVec) != dim {
		s.logger.Warn("query embedding dimension mismatch, dropping vector signal",
			"provider", s.provider.Name(), "got", len(queryVec), "want", dim)
		return map[string]float64{}
	}

	type hit struct {
		id    string
		score float64
	}
	hits := make([]hit, 0, len(vectors))
	for id, stored := range vectors {
		sim := Cosine(queryVec, stored)
		if sim < 0 {
			continue
		}
		hits = append(hits, hit{id: id, score: sim})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].id < hits[j].id
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	scores := make(map[string]float64, len(hits))
	for _, h := range hits {
		scores[h.id] = h.score
	}
	return scores
}

// Cosine computes cosine similarity, zero when either vector has no
// magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}
