package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	kgqerrors "kgq/internal/errors"
	"kgq/internal/props"
)

// batchSize caps how many ids go into a single IN clause.
const batchSize = 500

// Adapter reads one store through its detected schema profile, presenting
// every layout as uniform Node and Edge records. All methods are read-only.
type Adapter struct {
	db      *DB
	profile *SchemaProfile
	logger  *slog.Logger

	ftsOnce  sync.Once
	ftsMode  ftsStrategy
	ftsIDCol string
}

// NewAdapter binds a connection to a profile.
func NewAdapter(db *DB, profile *SchemaProfile, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{db: db, profile: profile, logger: logger}
}

// Profile returns the schema profile this adapter reads through.
func (a *Adapter) Profile() *SchemaProfile {
	return a.profile
}

// DB returns the underlying store connection.
func (a *Adapter) DB() *DB {
	return a.db
}

func (a *Adapter) nodeSelect() string {
	m := a.profile.Nodes
	cols := []string{quoteIdent(m.ID), quoteIdent(m.Name)}
	if m.Type != "" {
		cols = append(cols, quoteIdent(m.Type))
	} else {
		cols = append(cols, "NULL")
	}
	if m.Properties != "" {
		cols = append(cols, quoteIdent(m.Properties))
	} else {
		cols = append(cols, "NULL")
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quoteIdent(m.Table))
}

func (a *Adapter) scanNode(scan func(...interface{}) error) (*Node, error) {
	var id string
	var name, typ, propsJSON sql.NullString
	if err := scan(&id, &name, &typ, &propsJSON); err != nil {
		return nil, err
	}
	n := &Node{ID: id, Name: name.String, Type: typ.String}
	if propsJSON.Valid && propsJSON.String != "" {
		val, err := props.ParseString(propsJSON.String)
		if err != nil {
			// Malformed property bags degrade to null rather than
			// poisoning the whole result set.
			a.logger.Debug("unparseable properties", "node", id, "error", err)
		} else {
			n.Properties = val
		}
	}
	return n, nil
}

// Node fetches a single node by id.
func (a *Adapter) Node(ctx context.Context, id string) (*Node, error) {
	query := a.nodeSelect() + fmt.Sprintf(" WHERE %s = ?", quoteIdent(a.profile.Nodes.ID))
	row := a.db.conn.QueryRowContext(ctx, query, id)
	n, err := a.scanNode(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kgqerrors.New(kgqerrors.NodeNotFound, fmt.Sprintf("node %q not found", id))
		}
		return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed to read node", err)
	}
	return n, nil
}

// Nodes fetches a batch of nodes. Missing ids are simply absent from the
// result; rows that fail to scan are dropped with a warning.
func (a *Adapter) Nodes(ctx context.Context, ids []string) ([]*Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	out := make([]*Node, 0, len(ids))
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		query := a.nodeSelect() + fmt.Sprintf(" WHERE %s IN (%s)",
			quoteIdent(a.profile.Nodes.ID), placeholders(len(chunk)))
		rows, err := a.db.conn.QueryContext(ctx, query, toArgs(chunk)...)
		if err != nil {
			return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed to read nodes", err)
		}

		for rows.Next() {
			n, err := a.scanNode(rows.Scan)
			if err != nil {
				a.logger.Warn("dropping unreadable node row", "error", err)
				continue
			}
			out = append(out, n)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed iterating nodes", err)
		}
		rows.Close()
	}
	return out, nil
}

// AllNodes returns nodes ordered by id. A non-positive limit returns all.
func (a *Adapter) AllNodes(ctx context.Context, limit int) ([]*Node, error) {
	query := a.nodeSelect() + fmt.Sprintf(" ORDER BY %s", quoteIdent(a.profile.Nodes.ID))
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = a.db.conn.QueryContext(ctx, query+" LIMIT ?", limit)
	} else {
		rows, err = a.db.conn.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed to read nodes", err)
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
		return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed iterating nodes", err)
	}
	return out, nil
}

// CountNodes returns the node count.
func (a *Adapter) CountNodes(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(a.profile.Nodes.Table))
	if err := a.db.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed to count nodes", err)
	}
	return count, nil
}

// SearchLike returns nodes whose name contains the given text, for cheap
// name resolution when an exact id lookup misses.
func (a *Adapter) SearchLike(ctx context.Context, text string, limit int) ([]*Node, error) {
	if limit <= 0 {
		limit = 20
	}
	query := a.nodeSelect() + fmt.Sprintf(" WHERE %s LIKE '%%' || ? || '%%' ORDER BY %s LIMIT ?",
		quoteIdent(a.profile.Nodes.Name), quoteIdent(a.profile.Nodes.ID))
	rows, err := a.db.conn.QueryContext(ctx, query, text, limit)
	if err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "name search failed", err)
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
	return out, rows.Err()
}

func (a *Adapter) edgeSelect() string {
	m := a.profile.Edges
	cols := make([]string, 0, 5)
	if m.ID != "" {
		cols = append(cols, quoteIdent(m.ID))
	} else {
		cols = append(cols, "NULL")
	}
	cols = append(cols, quoteIdent(m.Source), quoteIdent(m.Target))
	if m.Type != "" {
		cols = append(cols, quoteIdent(m.Type))
	} else {
		cols = append(cols, "NULL")
	}
	if m.Properties != "" {
		cols = append(cols, quoteIdent(m.Properties))
	} else {
		cols = append(cols, "NULL")
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quoteIdent(m.Table))
}

func (a *Adapter) scanEdge(scan func(...interface{}) error) (*Edge, error) {
	var id, typ, propsJSON sql.NullString
	var source, target string
	if err := scan(&id, &source, &target, &typ, &propsJSON); err != nil {
		return nil, err
	}
	e := &Edge{ID: id.String, Source: source, Target: target, Type: typ.String}
	if propsJSON.Valid && propsJSON.String != "" {
		if val, err := props.ParseString(propsJSON.String); err == nil {
			e.Properties = val
		}
	}
	return e, nil
}

// EdgesTouching returns edges incident to any of the given ids in the
// requested direction. A store without an edge table yields no edges.
func (a *Adapter) EdgesTouching(ctx context.Context, ids []string, dir Direction) ([]*Edge, error) {
	if !a.profile.HasEdges() || len(ids) == 0 {
		return nil, nil
	}
	if !dir.Valid() {
		return nil, kgqerrors.New(kgqerrors.InvalidArgument, fmt.Sprintf("invalid direction %q", dir))
	}

	var out []*Edge
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		ph := placeholders(len(chunk))

		var where string
		args := toArgs(chunk)
		switch dir {
		case DirectionOut:
			where = fmt.Sprintf("%s IN (%s)", quoteIdent(a.profile.Edges.Source), ph)
		case DirectionIn:
			where = fmt.Sprintf("%s IN (%s)", quoteIdent(a.profile.Edges.Target), ph)
		case DirectionBoth:
			where = fmt.Sprintf("%s IN (%s) OR %s IN (%s)",
				quoteIdent(a.profile.Edges.Source), ph, quoteIdent(a.profile.Edges.Target), ph)
			args = append(args, toArgs(chunk)...)
		}

		rows, err := a.db.conn.QueryContext(ctx, a.edgeSelect()+" WHERE "+where, args...)
		if err != nil {
			return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed to read edges", err)
		}
		for rows.Next() {
			e, err := a.scanEdge(rows.Scan)
			if err != nil {
				a.logger.Warn("dropping unreadable edge row", "error", err)
				continue
			}
			out = append(out, e)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed iterating edges", err)
		}
		rows.Close()
	}
	return out, nil
}

// AllEdges returns edges, optionally limited. Stores without an edge table
// yield none.
func (a *Adapter) AllEdges(ctx context.Context, limit int) ([]*Edge, error) {
	if !a.profile.HasEdges() {
		return nil, nil
	}
	query := a.edgeSelect()
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = a.db.conn.QueryContext(ctx, query+" LIMIT ?", limit)
	} else {
		rows, err = a.db.conn.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed to read edges", err)
	}
	defer rows.Close()

	var out []*Edge
	for rows.Next() {
		e, err := a.scanEdge(rows.Scan)
		if err != nil {
			a.logger.Warn("dropping unreadable edge row", "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountEdges returns the edge count, zero for stores without edges.
func (a *Adapter) CountEdges(ctx context.Context) (int, error) {
	if !a.profile.HasEdges() {
		return 0, nil
	}
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(a.profile.Edges.Table))
	if err := a.db.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed to count edges", err)
	}
	return count, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func toArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
