package query

import (
	"context"
	"sort"

	kgqerrors "kgq/internal/errors"
	"kgq/internal/graph"
	"kgq/internal/storage"
)

// traceHop records how a node was first reached during the BFS so the
// path can be reconstructed backwards.
type traceHop struct {
	prev    string
	edge    *storage.Edge
	forward bool
}

// TracePath finds a shortest undirected path between two nodes, walking
// edges in either direction and annotating each step with whether it was
// traversed along or against its stored orientation. maxDepth <= 0 uses
// the configured ceiling.
func (e *Engine) TracePath(ctx context.Context, storeID, fromID, toID string, maxDepth int) (*TraceResult, error) {
	e.count("trace_path")
	if maxDepth <= 0 {
		maxDepth = e.cfg.Limits.MaxTraceDepth
	}
	st, err := e.ready(ctx, storeID)
	if err != nil {
		return nil, err
	}
	fromNode, err := st.adapter.Node(ctx, fromID)
	if err != nil {
		return nil, err
	}
	toNode, err := st.adapter.Node(ctx, toID)
	if err != nil {
		return nil, err
	}

	res := &TraceResult{From: fromNode, To: toNode}
	if fromID == toID {
		res.Found = true
		res.Steps = []PathStep{}
		res.Nodes = []*storage.Node{fromNode}
		return res, nil
	}

	visited := map[string]traceHop{fromID: {}}
	frontier := []string{fromID}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		adj, err := graph.Expand(ctx, st.adapter, frontier, storage.DirectionBoth)
		if err != nil {
			return nil, err
		}
		var next []string
		for _, u := range frontier {
			edges := adj[u]
			sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
			for _, edge := range edges {
				v, forward := edge.Target, true
				if edge.Source != u {
					v, forward = edge.Source, false
				}
				if _, seen := visited[v]; seen {
					continue
				}
				visited[v] = traceHop{prev: u, edge: edge, forward: forward}
				if v == toID {
					return e.buildTrace(ctx, st, res, visited, fromID, toID)
				}
				next = append(next, v)
			}
		}
		sort.Strings(next)
		frontier = next
	}

	res.Found = false
	return res, nil
}

// buildTrace walks the visited map back from the destination and hydrates
// the nodes along the path in order.
func (e *Engine) buildTrace(ctx context.Context, st *storeState, res *TraceResult, visited map[string]traceHop, fromID, toID string) (*TraceResult, error) {
	var steps []PathStep
	for cur := toID; cur != fromID; {
		hop := visited[cur]
		from, to := hop.prev, cur
		steps = append(steps, PathStep{
			From:     from,
			To:       to,
			EdgeID:   hop.edge.ID,
			EdgeType: hop.edge.Type,
			Forward:  hop.forward,
		})
		cur = hop.prev
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}

	ids := []string{fromID}
	for _, s := range steps {
		ids = append(ids, s.To)
	}
	nodes, err := st.adapter.Nodes(ctx, ids)
	if err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "hydrating trace path", err)
	}
	byID := nodesByID(nodes)
	ordered := make([]*storage.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			ordered = append(ordered, n)
		}
	}

	res.Found = true
	res.Length = len(steps)
	res.Steps = steps
	res.Nodes = ordered
	return res, nil
}
