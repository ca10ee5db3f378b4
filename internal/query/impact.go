package query

import (
	"context"
	"sort"

	kgqerrors "kgq/internal/errors"
	"kgq/internal/graph"
	"kgq/internal/storage"
)

// Fanout saturates at this many onward edges; a node touching more is
// already maximally risky for its depth.
const impactFanoutCap = 5

// ImpactOf walks outward from a root and scores every reachable node by
// blast radius: risk = (1/depth) * min(fanout, cap)/cap, where fanout is
// the node's own edge count in the traversal direction. Forward follows
// edge orientation (what the root feeds), backward inverts it (what
// feeds the root).
func (e *Engine) ImpactOf(ctx context.Context, storeID, nodeID string, dir storage.Direction, maxDepth int) (*ImpactResult, error) {
	e.count("impact_of")
	if dir == "" {
		dir = storage.DirectionOut
	}
	if !dir.Valid() {
		return nil, kgqerrors.New(kgqerrors.InvalidArgument, "direction must be out, in, or both")
	}
	if maxDepth <= 0 {
		maxDepth = e.cfg.Limits.MaxImpactDepth
	}
	st, err := e.ready(ctx, storeID)
	if err != nil {
		return nil, err
	}
	root, err := st.adapter.Node(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	res := &ImpactResult{Root: root, Direction: dir, Layers: []ImpactLayer{}}
	visited := map[string]struct{}{root.ID: {}}
	frontier := []string{root.ID}
	adj, err := graph.Expand(ctx, st.adapter, frontier, dir)
	if err != nil {
		return nil, err
	}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		discovered := map[string]struct{}{}
		for _, u := range frontier {
			for _, edge := range adj[u] {
				v := otherEnd(edge, u, dir)
				if v == "" {
					continue
				}
				if _, seen := visited[v]; seen {
					continue
				}
				visited[v] = struct{}{}
				discovered[v] = struct{}{}
			}
		}
		if len(discovered) == 0 {
			break
		}

		layerIDs := make([]string, 0, len(discovered))
		for id := range discovered {
			layerIDs = append(layerIDs, id)
		}
		sort.Strings(layerIDs)

		// One expansion serves double duty: it supplies each discovered
		// node's fanout and becomes the adjacency for the next depth.
		adjNext, err := graph.Expand(ctx, st.adapter, layerIDs, dir)
		if err != nil {
			return nil, err
		}
		nodes, err := st.adapter.Nodes(ctx, layerIDs)
		if err != nil {
			return nil, err
		}
		byID := nodesByID(nodes)

		layer := ImpactLayer{Depth: depth}
		for _, id := range layerIDs {
			n, ok := byID[id]
			if !ok {
				continue
			}
			fanout := len(adjNext[id])
			capped := fanout
			if capped > impactFanoutCap {
				capped = impactFanoutCap
			}
			risk := (1.0 / float64(depth)) * float64(capped) / float64(impactFanoutCap)
			layer.Nodes = append(layer.Nodes, ImpactNode{Node: n, Risk: risk, Fanout: fanout})
		}
		sort.Slice(layer.Nodes, func(i, j int) bool {
			if layer.Nodes[i].Risk != layer.Nodes[j].Risk {
				return layer.Nodes[i].Risk > layer.Nodes[j].Risk
			}
			return layer.Nodes[i].Node.ID < layer.Nodes[j].Node.ID
		})
		res.Layers = append(res.Layers, layer)
		res.Total += len(layer.Nodes)

		frontier = layerIDs
		adj = adjNext
	}
	return res, nil
}

// otherEnd returns the node reached by traversing edge from u in dir, or
// "" when the edge does not lead anywhere new from u.
func otherEnd(edge *storage.Edge, u string, dir storage.Direction) string {
	switch dir {
	case storage.DirectionOut:
		if edge.Source == u {
			return edge.Target
		}
	case storage.DirectionIn:
		if edge.Target == u {
			return edge.Source
		}
	case storage.DirectionBoth:
		if edge.Source == u {
			return edge.Target
		}
		if edge.Target == u {
			return edge.Source
		}
	}
	return ""
}
