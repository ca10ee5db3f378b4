package intent

import (
	"context"
	"sort"

	"kgq/internal/graph"
	"kgq/internal/lexical"
	"kgq/internal/storage"
)

// Combination weights: direct keyword hits versus the edge walk that
// follows the intent's semantics out from those hits.
const (
	keywordWeight = 1.0
	boostWeight   = 0.5
)

// Score computes the intent signal for a query already classified as
// intent. Query hits with the intent's keywords boosted become seeds; an
// allowlisted walk along the intent's edge types then pulls in the nodes
// that kind of question cares about (debug surfaces limitations and fixes,
// impact surfaces dependents). Combined 1.0/0.5 and normalized to [0,1].
// A query with no lexical foothold yields an empty signal.
func (c *Classifier) Score(ctx context.Context, adapter *storage.Adapter, idx *lexical.Index, query string, intent Intent, seedCount int) (map[string]float64, error) {
	spec, ok := c.Spec(intent)
	if !ok {
		return map[string]float64{}, nil
	}

	base := idx.Score(query, spec.Keywords)
	if len(base) == 0 {
		return map[string]float64{}, nil
	}

	max := 0.0
	for _, s := range base {
		if s > max {
			max = s
		}
	}
	for id := range base {
		base[id] /= max
	}

	boost, err := graph.WeightedNeighborBoost(ctx, adapter, topIDs(base, seedCount), spec.EdgeTypes)
	if err != nil {
		return nil, err
	}

	combined := make(map[string]float64, len(base)+len(boost))
	for id, s := range base {
		combined[id] += keywordWeight * s
	}
	for id, s := range boost {
		combined[id] += boostWeight * s
	}

	max = 0.0
	for _, s := range combined {
		if s > max {
			max = s
		}
	}
	for id := range combined {
		combined[id] /= max
	}
	return combined, nil
}

// topIDs returns the n highest-scoring ids, ties broken by id ascending.
func topIDs(scores map[string]float64, n int) []string {
	if n <= 0 {
		n = 10
	}
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}
