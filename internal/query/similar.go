package query

import (
	"context"
	"sort"

	"kgq/internal/lexical"
	"kgq/internal/storage"
)

// Structural similarity weights. Shared neighborhoods dominate; type and
// name agreement are tiebreakers.
const (
	similarNeighborWeight = 0.70
	similarTypeWeight     = 0.20
	similarNameWeight     = 0.10
)

// SimilarTo ranks nodes by structural similarity to a target: Jaccard
// overlap of undirected neighbor sets, same-type agreement, and name
// token overlap. The candidate pool is every other node up to the
// configured ceiling, ordered by id so the pool is stable across calls.
func (e *Engine) SimilarTo(ctx context.Context, storeID, nodeID string, k int) (*SimilarResult, error) {
	e.count("similar_to")
	if k <= 0 {
		k = e.cfg.Limits.DefaultLimit
	}
	ceiling := e.cfg.Limits.SimilarCandidateCeiling
	if ceiling <= 0 {
		ceiling = 500
	}
	st, err := e.ready(ctx, storeID)
	if err != nil {
		return nil, err
	}
	target, err := st.adapter.Node(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	pool, err := st.adapter.AllNodes(ctx, ceiling+1)
	if err != nil {
		return nil, err
	}
	candidates := make([]*storage.Node, 0, len(pool))
	for _, n := range pool {
		if n.ID == target.ID {
			continue
		}
		candidates = append(candidates, n)
	}
	if len(candidates) > ceiling {
		candidates = candidates[:ceiling]
	}

	ids := make([]string, 0, len(candidates)+1)
	ids = append(ids, target.ID)
	for _, n := range candidates {
		ids = append(ids, n.ID)
	}
	neighbors, err := e.neighborSets(ctx, st, ids)
	if err != nil {
		return nil, err
	}

	targetNeighbors := neighbors[target.ID]
	targetName := tokenSet(target.Name, e.cfg.BM25.MinTokenLen)

	matches := make([]SimilarMatch, 0, len(candidates))
	for _, cand := range candidates {
		nScore := similarNeighborWeight * jaccard(targetNeighbors, neighbors[cand.ID])
		tScore := 0.0
		if target.Type != "" && cand.Type == target.Type {
			tScore = similarTypeWeight
		}
		mScore := similarNameWeight * jaccard(targetName, tokenSet(cand.Name, e.cfg.BM25.MinTokenLen))
		total := nScore + tScore + mScore
		if total <= 0 {
			continue
		}
		matches = append(matches, SimilarMatch{
			Node:  cand,
			Score: total,
			Breakdown: map[string]float64{
				"neighbors": nScore,
				"type":      tScore,
				"name":      mScore,
			},
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Node.ID < matches[j].Node.ID
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	return &SimilarResult{Target: target, Matches: matches, Candidates: len(candidates)}, nil
}

// neighborSets fetches the undirected neighbor set of every listed node
// in one edge sweep.
func (e *Engine) neighborSets(ctx context.Context, st *storeState, ids []string) (map[string]map[string]struct{}, error) {
	edges, err := st.adapter.EdgesTouching(ctx, ids, storage.DirectionBoth)
	if err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	sets := make(map[string]map[string]struct{}, len(ids))
	add := func(owner, other string) {
		if _, ok := want[owner]; !ok {
			return
		}
		set := sets[owner]
		if set == nil {
			set = make(map[string]struct{})
			sets[owner] = set
		}
		set[other] = struct{}{}
	}
	for _, edge := range edges {
		add(edge.Source, edge.Target)
		add(edge.Target, edge.Source)
	}
	return sets, nil
}

// jaccard is intersection over union; empty sets score zero.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(text string, minLen int) map[string]struct{} {
	tokens := lexical.Tokenize(text, minLen)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
