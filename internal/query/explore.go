package query

import (
	"context"
	"sort"

	"kgq/internal/graph"
	"kgq/internal/storage"
)

// Explore walks the undirected neighborhood of a node layer by layer,
// reporting each discovered node's degree and flagging hubs whose degree
// exceeds the configured threshold. depth <= 0 explores two hops.
func (e *Engine) Explore(ctx context.Context, storeID, nodeID string, depth int) (*ExploreResult, error) {
	e.count("explore")
	if depth <= 0 {
		depth = 2
	}
	if max := e.cfg.Limits.MaxTraceDepth; max > 0 && depth > max {
		depth = max
	}
	threshold := e.cfg.Limits.HubDegreeThreshold
	if threshold <= 0 {
		threshold = 5
	}
	st, err := e.ready(ctx, storeID)
	if err != nil {
		return nil, err
	}
	root, err := st.adapter.Node(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	res := &ExploreResult{Root: root, Layers: []ExploreLayer{}}
	visited := map[string]struct{}{root.ID: {}}
	frontier := []string{root.ID}
	adj, err := graph.Expand(ctx, st.adapter, frontier, storage.DirectionBoth)
	if err != nil {
		return nil, err
	}
	res.RootDegree = len(adj[root.ID])

	for d := 1; d <= depth && len(frontier) > 0; d++ {
		discovered := map[string]struct{}{}
		for _, u := range frontier {
			for _, edge := range adj[u] {
				v := otherEnd(edge, u, storage.DirectionBoth)
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

		adjNext, err := graph.Expand(ctx, st.adapter, layerIDs, storage.DirectionBoth)
		if err != nil {
			return nil, err
		}
		nodes, err := st.adapter.Nodes(ctx, layerIDs)
		if err != nil {
			return nil, err
		}
		byID := nodesByID(nodes)

		layer := ExploreLayer{Depth: d}
		for _, id := range layerIDs {
			n, ok := byID[id]
			if !ok {
				continue
			}
			degree := len(adjNext[id])
			layer.Nodes = append(layer.Nodes, ExploreNode{
				Node:   n,
				Degree: degree,
				IsHub:  degree > threshold,
			})
		}
		sort.Slice(layer.Nodes, func(i, j int) bool {
			if layer.Nodes[i].Degree != layer.Nodes[j].Degree {
				return layer.Nodes[i].Degree > layer.Nodes[j].Degree
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
