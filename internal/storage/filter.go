package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	kgqerrors "kgq/internal/errors"
)

// NumericRange bounds one numeric dimension. A nil end leaves that side
// open; both ends are inclusive.
type NumericRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether v falls inside the range.
func (r NumericRange) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// FilterByDimensions selects nodes whose JSON properties carry every named
// dimension as a number inside its range, using the store's json_extract
// support. A dimension resolves from the top level of properties or from a
// nested "dimensions" object. Errors here mean the store cannot filter in
// SQL; callers fall back to scanning.
func (a *Adapter) FilterByDimensions(ctx context.Context, dims map[string]NumericRange) ([]*Node, error) {
	if a.profile.Nodes.Properties == "" {
		return nil, kgqerrors.New(kgqerrors.InvalidArgument, "store has no properties column")
	}
	props := quoteIdent(a.profile.Nodes.Properties)

	names := make([]string, 0, len(dims))
	for name := range dims {
		names = append(names, name)
	}
	sort.Strings(names)

	var conds []string
	var args []interface{}
	for _, name := range names {
		top, topArgs := dimensionCond(props, "$."+name, dims[name])
		nested, nestedArgs := dimensionCond(props, "$.dimensions."+name, dims[name])
		conds = append(conds, fmt.Sprintf("((%s) OR (%s))", top, nested))
		args = append(args, topArgs...)
		args = append(args, nestedArgs...)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY %s",
		a.nodeSelect(), strings.Join(conds, " AND "), quoteIdent(a.profile.Nodes.ID))
	rows, err := a.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "dimension filter query failed", err)
	}
	defer rows.Close()

	var out []*Node
	for rows.Next() {
		n, err := a.scanNode(rows.Scan)
		if err != nil {
			a.logger.Warn("dropping unreadable node row", "error", err)
			continue
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "dimension filter scan failed", err)
	}
	return out, nil
}

// dimensionCond builds the predicate for one JSON path. json_type guards
// that the value exists and is numeric, so string-typed values and missing
// properties are excluded the same way the in-memory scan excludes them.
func dimensionCond(propsCol, path string, r NumericRange) (string, []interface{}) {
	cond := fmt.Sprintf("json_type(%s, ?) IN ('integer', 'real')", propsCol)
	args := []interface{}{path}
	if r.Min != nil {
		cond += fmt.Sprintf(" AND json_extract(%s, ?) >= ?", propsCol)
		args = append(args, path, *r.Min)
	}
	if r.Max != nil {
		cond += fmt.Sprintf(" AND json_extract(%s, ?) <= ?", propsCol)
		args = append(args, path, *r.Max)
	}
	return cond, args
}
