// Package graph provides the graph-proximity scoring used to re-rank query
// results. Boosts always start from seed nodes found by the lexical or
// vector signal; proximity alone never retrieves anything.
package graph

import (
	"context"

	"kgq/internal/storage"
)

// Hop weights. Outbound edges say "the seed points at this", which is a
// stronger relatedness signal than being pointed at.
const (
	outWeight = 0.5
	inWeight  = 0.3

	// Allowlisted walks (intent scoring) trust the edge semantics more,
	// so both directions weigh heavier.
	forwardWeight  = 1.0
	backwardWeight = 0.7
)

// Expand performs one BFS step from the frontier, returning the edges that
// touch each frontier node in the requested direction.
func Expand(ctx context.Context, adapter *storage.Adapter, frontier []string, dir storage.Direction) (map[string][]*storage.Edge, error) {
	if len(frontier) == 0 {
		return map[string][]*storage.Edge{}, nil
	}

	edges, err := adapter.EdgesTouching(ctx, frontier, dir)
	if err != nil {
		return nil, err
	}

	inFrontier := make(map[string]struct{}, len(frontier))
	for _, id := range frontier {
		inFrontier[id] = struct{}{}
	}

	// An edge with both endpoints in the frontier lists under both: once
	// as outbound, once as inbound.
	out := make(map[string][]*storage.Edge, len(frontier))
	for _, e := range edges {
		if dir != storage.DirectionIn {
			if _, ok := inFrontier[e.Source]; ok {
				out[e.Source] = append(out[e.Source], e)
			}
		}
		if dir != storage.DirectionOut {
			if _, ok := inFrontier[e.Target]; ok {
				out[e.Target] = append(out[e.Target], e)
			}
		}
	}
	return out, nil
}

// NeighborBoost walks one hop from each seed and accumulates 0.5 per
// outbound edge and 0.3 per inbound edge onto the node at the far end,
// normalized by the maximum accumulated value. Stores without edges yield
// an empty map.
func NeighborBoost(ctx context.Context, adapter *storage.Adapter, seeds []string) (map[string]float64, error) {
	return boost(ctx, adapter, seeds, nil, outWeight, inWeight)
}

// WeightedNeighborBoost is the allowlisted variant used by intent scoring:
// only edges whose type appears in allowedTypes count, at 1.0 forward and
// 0.7 backward, normalized.
func WeightedNeighborBoost(ctx context.Context, adapter *storage.Adapter, seeds []string, allowedTypes []string) (map[string]float64, error) {
	if len(allowedTypes) == 0 {
		return map[string]float64{}, nil
	}
	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = struct{}{}
	}
	return boost(ctx, adapter, seeds, allowed, forwardWeight, backwardWeight)
}

func boost(ctx context.Context, adapter *storage.Adapter, seeds []string, allowed map[string]struct{}, fwd, back float64) (map[string]float64, error) {
	if len(seeds) == 0 {
		return map[string]float64{}, nil
	}

	edges, err := adapter.EdgesTouching(ctx, seeds, storage.DirectionBoth)
	if err != nil {
		return nil, err
	}

	seedSet := make(map[string]struct{}, len(seeds))
	for _, id := range seeds {
		seedSet[id] = struct{}{}
	}

	scores := make(map[string]float64)
	for _, e := range edges {
		if allowed != nil {
			if _, ok := allowed[e.Type]; !ok {
				continue
			}
		}
		if _, ok := seedSet[e.Source]; ok {
			scores[e.Target] += fwd
		}
		if _, ok := seedSet[e.Target]; ok {
			scores[e.Source] += back
		}
	}

	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if max > 0 {
		for id := range scores {
			scores[id] /= max
		}
	}
	return scores, nil
}
