// Native FTS5 support. When a store ships its own full-text index over the
// node table, lexical search can lean on the store's bm25() ranking instead
// of the in-memory index. Absence of FTS is never an error: TextSearch
// degrades to an empty result and the caller falls back to its own scoring.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// ftsStrategy records how FTS hits map back to node ids.
type ftsStrategy int

const (
	ftsUnresolved ftsStrategy = iota
	// ftsNone means no usable FTS index exists.
	ftsNone
	// ftsIDColumn means the FTS table itself carries the node id
	// (usually as an UNINDEXED column).
	ftsIDColumn
	// ftsRowidJoin means FTS rowids align with the node table's rowids
	// (the content='<nodes>' layout).
	ftsRowidJoin
)

// HasTextSearch reports whether the store offers a native FTS index.
func (a *Adapter) HasTextSearch() bool {
	a.resolveFTS()
	return a.ftsMode != ftsNone
}

// TextSearch runs the store's own FTS5 index and returns node id to score.
// Scores are negated bm25() ranks, so higher is better. Every failure mode
// degrades to an empty map; lexical search still works without FTS.
func (a *Adapter) TextSearch(ctx context.Context, query string, limit int) map[string]float64 {
	a.resolveFTS()
	if a.ftsMode == ftsNone {
		return nil
	}
	if limit <= 0 {
		limit = 20
	}

	match := ftsMatchExpr(query)
	if match == "" {
		return nil
	}

	fts := quoteIdent(a.profile.FTSTable)
	var stmt string
	switch a.ftsMode {
	case ftsIDColumn:
		stmt = fmt.Sprintf(
			"SELECT %s, bm25(%s) FROM %s WHERE %s MATCH ? ORDER BY bm25(%s) LIMIT ?",
			quoteIdent(a.ftsIDCol), fts, fts, fts, fts)
	case ftsRowidJoin:
		nodes := quoteIdent(a.profile.Nodes.Table)
		stmt = fmt.Sprintf(
			"SELECT n.%s, bm25(%s) FROM %s f JOIN %s n ON n.rowid = f.rowid WHERE %s MATCH ? ORDER BY bm25(%s) LIMIT ?",
			quoteIdent(a.profile.Nodes.ID), fts, fts, nodes, fts, fts)
	default:
		return nil
	}

	rows, err := a.db.conn.QueryContext(ctx, stmt, match, limit)
	if err != nil {
		a.logger.Debug("native text search failed", "fts", a.profile.FTSTable, "error", err)
		return nil
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			continue
		}
		// bm25() ranks ascending with better matches more negative.
		scores[id] = -rank
	}
	if err := rows.Err(); err != nil {
		a.logger.Debug("native text search iteration failed", "error", err)
		return nil
	}
	return scores
}

// resolveFTS decides once how hits from the FTS table map to node ids.
func (a *Adapter) resolveFTS() {
	a.ftsOnce.Do(func() {
		a.ftsMode = ftsNone
		if a.profile.FTSTable == "" {
			return
		}
		cols, err := tableColumns(context.Background(), a.db, a.profile.FTSTable)
		if err != nil {
			a.logger.Debug("cannot inspect fts table", "fts", a.profile.FTSTable, "error", err)
			return
		}

		idCandidates := append([]string{strings.ToLower(a.profile.Nodes.ID)}, nodeIDColumns...)
		for _, cand := range idCandidates {
			if actual, ok := cols[cand]; ok {
				a.ftsMode = ftsIDColumn
				a.ftsIDCol = actual
				return
			}
		}

		// No id column in the index; trust the content-table rowid pairing.
		a.ftsMode = ftsRowidJoin
	})
}

// ftsMatchExpr builds an OR-of-phrases MATCH expression from free text.
// Each token is quoted so FTS5 operators in user queries stay inert.
func ftsMatchExpr(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(parts, " OR ")
}
