package query

import (
	"context"
	"sort"

	kgqerrors "kgq/internal/errors"
	"kgq/internal/storage"
)

// FilterByDimensions returns nodes whose numeric property dimensions all
// fall inside the given inclusive ranges. Stores with a JSON properties
// column are filtered in SQL; anything else, or a failed SQL pass, falls
// back to scanning decoded property bags. Non-numeric dimension values
// never match in either path.
func (e *Engine) FilterByDimensions(ctx context.Context, storeID string, dims map[string]Bounds) (*FilterResult, error) {
	e.count("filter_by_dimensions")
	if len(dims) == 0 {
		return nil, kgqerrors.New(kgqerrors.InvalidArgument, "at least one dimension filter is required")
	}
	st, err := e.ready(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if st.profile.Nodes.Properties != "" {
		nodes, err := st.adapter.FilterByDimensions(ctx, dims)
		if err == nil {
			return &FilterResult{Nodes: nodes, Total: len(nodes), Via: "sql"}, nil
		}
		e.logger.Debug("sql dimension filter failed, scanning instead",
			"store", storeID, "error", err)
	}

	nodes, err := e.filterScan(ctx, st, dims)
	if err != nil {
		return nil, err
	}
	return &FilterResult{Nodes: nodes, Total: len(nodes), Via: "scan"}, nil
}

// filterScan evaluates the ranges against decoded property bags. A
// dimension may live at the top level or under a "dimensions" object.
func (e *Engine) filterScan(ctx context.Context, st *storeState, dims map[string]Bounds) ([]*storage.Node, error) {
	all, err := st.adapter.AllNodes(ctx, 0)
	if err != nil {
		return nil, err
	}
	matched := make([]*storage.Node, 0)
	for _, n := range all {
		if nodeInBounds(n, dims) {
			matched = append(matched, n)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}

func nodeInBounds(n *storage.Node, dims map[string]Bounds) bool {
	for name, bounds := range dims {
		v, ok := n.Properties.Field(name).Number()
		if !ok {
			v, ok = n.Properties.Field("dimensions").Field(name).Number()
		}
		if !ok || !bounds.Contains(v) {
			return false
		}
	}
	return true
}
