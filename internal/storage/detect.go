package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	kgqerrors "kgq/internal/errors"
)

// Column-name candidates the heuristic detector recognizes, in preference
// order. First match wins.
var (
	nodeIDColumns    = []string{"id", "uuid", "uid", "node_id", "entity_id", "concept_id", "item_id", "key", "guid"}
	nodeNameColumns  = []string{"name", "title", "label", "display_name"}
	nodeTypeColumns  = []string{"type", "kind", "category", "node_type", "entity_type"}
	propsColumns     = []string{"properties", "attributes", "metadata", "props", "data"}
	edgeSourceCols   = []string{"source", "src", "from_id", "from_node", "source_id", "start_id"}
	edgeTargetCols   = []string{"target", "dst", "to_id", "to_node", "target_id", "end_id"}
	edgeTypeCols     = []string{"type", "relation_type", "link_type", "edge_type", "kind", "label"}
	edgeIDCols       = []string{"id", "uuid", "edge_id", "relation_id", "link_id"}
	embedNodeIDCols  = []string{"node_id", "entity_id", "concept_id", "item_id", "id", "ref_id"}
	embedVectorCols  = []string{"embedding", "vector", "vec", "value"}
	nodeTableHints   = []string{"node", "entit", "concept", "item", "vertex", "memor", "record"}
	edgeTableHints   = []string{"edge", "relation", "link", "connection"}
	embedTableHints  = []string{"embedding", "vector"}
	fts5ShadowSuffix = []string{"_data", "_idx", "_content", "_docsize", "_config"}
)

// tableSchema is one introspected table: its columns (lowercased key to
// stored spelling) and whether it is an FTS5 virtual table.
type tableSchema struct {
	name    string
	columns map[string]string
	fts5    bool
}

func (t *tableSchema) column(candidates []string) string {
	for _, c := range candidates {
		if actual, ok := t.columns[c]; ok {
			return actual
		}
	}
	return ""
}

func (t *tableSchema) has(name string) bool {
	_, ok := t.columns[strings.ToLower(name)]
	return ok
}

// Detect inspects a store's tables and returns the schema profile to read
// it through. Profiles in extra are tried first, then the built-ins, then
// a column-shape heuristic. A store with no recognizable node table is
// unusable and detection fails.
func Detect(ctx context.Context, db *DB, extra []SchemaProfile, logger *slog.Logger) (*SchemaProfile, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tables, err := introspect(ctx, db)
	if err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.SchemaDetectionFailed, "failed to inspect store tables", err)
	}
	if len(tables) == 0 {
		return nil, kgqerrors.New(kgqerrors.SchemaDetectionFailed, "store has no tables")
	}

	candidates := append(append([]SchemaProfile{}, extra...), BuiltinProfiles()...)
	for i := range candidates {
		if resolved := matchProfile(&candidates[i], tables); resolved != nil {
			resolved.FTSTable = findFTSTable(tables, resolved.Nodes.Table)
			logger.Debug("schema profile matched",
				"profile", resolved.Name,
				"nodes", resolved.Nodes.Table,
				"has_edges", resolved.HasEdges(),
				"has_embeddings", resolved.HasEmbeddings(),
				"fts", resolved.FTSTable)
			return resolved, nil
		}
	}

	resolved, err := detectHeuristic(tables)
	if err != nil {
		return nil, err
	}
	resolved.FTSTable = findFTSTable(tables, resolved.Nodes.Table)
	logger.Debug("schema detected heuristically",
		"nodes", resolved.Nodes.Table,
		"has_edges", resolved.HasEdges(),
		"has_embeddings", resolved.HasEmbeddings(),
		"fts", resolved.FTSTable)
	return resolved, nil
}

// introspect lists every user table with its columns. FTS5 shadow tables
// are dropped so they never get mistaken for graph tables.
func introspect(ctx context.Context, db *DB) (map[string]*tableSchema, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name, COALESCE(sql, '') FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make(map[string]*tableSchema)
	var ftsNames []string
	for rows.Next() {
		var name, createSQL string
		if err := rows.Scan(&name, &createSQL); err != nil {
			return nil, err
		}
		ts := &tableSchema{name: name, columns: map[string]string{}}
		if strings.Contains(strings.ToLower(createSQL), "using fts5") {
			ts.fts5 = true
			ftsNames = append(ftsNames, strings.ToLower(name))
		}
		tables[strings.ToLower(name)] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Drop FTS5 shadow tables (<fts>_data, <fts>_idx, ...)
	for _, fts := range ftsNames {
		for _, suffix := range fts5ShadowSuffix {
			delete(tables, fts+suffix)
		}
	}

	for _, ts := range tables {
		cols, err := tableColumns(ctx, db, ts.name)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", ts.name, err)
		}
		ts.columns = cols
	}

	return tables, nil
}

func tableColumns(ctx context.Context, db *DB, table string) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[strings.ToLower(name)] = name
	}
	return cols, rows.Err()
}

// matchProfile checks one declared profile against the store's tables.
// The required parts are the node table with its id and name columns;
// optional parts (type, properties, edges, embeddings) are kept only
// when actually present so a partial store still matches.
func matchProfile(p *SchemaProfile, tables map[string]*tableSchema) *SchemaProfile {
	nodeTable, ok := tables[strings.ToLower(p.Nodes.Table)]
	if !ok || nodeTable.fts5 {
		return nil
	}
	if !nodeTable.has(p.Nodes.ID) || !nodeTable.has(p.Nodes.Name) {
		return nil
	}

	resolved := &SchemaProfile{
		Name: p.Name,
		Nodes: NodeMapping{
			Table: nodeTable.name,
			ID:    nodeTable.columns[strings.ToLower(p.Nodes.ID)],
			Name:  nodeTable.columns[strings.ToLower(p.Nodes.Name)],
		},
	}
	if p.Nodes.Type != "" && nodeTable.has(p.Nodes.Type) {
		resolved.Nodes.Type = nodeTable.columns[strings.ToLower(p.Nodes.Type)]
	}
	if p.Nodes.Properties != "" && nodeTable.has(p.Nodes.Properties) {
		resolved.Nodes.Properties = nodeTable.columns[strings.ToLower(p.Nodes.Properties)]
	}

	if p.Edges != nil && p.Edges.Table != "" {
		if et, ok := tables[strings.ToLower(p.Edges.Table)]; ok &&
			et.has(p.Edges.Source) && et.has(p.Edges.Target) {
			em := &EdgeMapping{
				Table:  et.name,
				Source: et.columns[strings.ToLower(p.Edges.Source)],
				Target: et.columns[strings.ToLower(p.Edges.Target)],
			}
			if p.Edges.ID != "" && et.has(p.Edges.ID) {
				em.ID = et.columns[strings.ToLower(p.Edges.ID)]
			}
			if p.Edges.Type != "" && et.has(p.Edges.Type) {
				em.Type = et.columns[strings.ToLower(p.Edges.Type)]
			}
			if p.Edges.Properties != "" && et.has(p.Edges.Properties) {
				em.Properties = et.columns[strings.ToLower(p.Edges.Properties)]
			}
			resolved.Edges = em
		}
	}

	if p.Embedding != nil && p.Embedding.Table != "" {
		if et, ok := tables[strings.ToLower(p.Embedding.Table)]; ok &&
			et.has(p.Embedding.NodeID) && et.has(p.Embedding.Vector) {
			resolved.Embedding = &EmbeddingMapping{
				Table:  et.name,
				NodeID: et.columns[strings.ToLower(p.Embedding.NodeID)],
				Vector: et.columns[strings.ToLower(p.Embedding.Vector)],
			}
		}
	}

	return resolved
}

// detectHeuristic guesses the layout from column shapes when no declared
// profile fits. A node table needs an id-like and a name-like column; an
// edge table needs source-like and target-like columns.
func detectHeuristic(tables map[string]*tableSchema) (*SchemaProfile, error) {
	type scored struct {
		ts    *tableSchema
		score int
	}

	var nodeCandidates []scored
	var edgeCandidates []*tableSchema
	for _, ts := range tables {
		if ts.fts5 {
			continue
		}
		if ts.column(edgeSourceCols) != "" && ts.column(edgeTargetCols) != "" {
			edgeCandidates = append(edgeCandidates, ts)
			continue
		}
		if ts.column(nodeIDColumns) == "" || ts.column(nodeNameColumns) == "" {
			continue
		}
		s := 0
		if nameHasHint(ts.name, nodeTableHints) {
			s += 2
		}
		if ts.column(nodeTypeColumns) != "" {
			s++
		}
		if ts.column(propsColumns) != "" {
			s++
		}
		// Embedding tables sometimes carry id+name-like columns; keep
		// them out of the node candidate pool.
		if nameHasHint(ts.name, embedTableHints) {
			s -= 3
		}
		nodeCandidates = append(nodeCandidates, scored{ts: ts, score: s})
	}

	if len(nodeCandidates) == 0 {
		names := make([]string, 0, len(tables))
		for _, ts := range tables {
			names = append(names, ts.name)
		}
		sort.Strings(names)
		return nil, kgqerrors.New(kgqerrors.SchemaDetectionFailed,
			"no table with id-like and name-like columns").
			WithDetails(map[string]interface{}{"tables": names})
	}

	sort.Slice(nodeCandidates, func(i, j int) bool {
		if nodeCandidates[i].score != nodeCandidates[j].score {
			return nodeCandidates[i].score > nodeCandidates[j].score
		}
		return nodeCandidates[i].ts.name < nodeCandidates[j].ts.name
	})
	nodeTable := nodeCandidates[0].ts

	profile := &SchemaProfile{
		Name: "heuristic",
		Nodes: NodeMapping{
			Table:      nodeTable.name,
			ID:         nodeTable.column(nodeIDColumns),
			Name:       nodeTable.column(nodeNameColumns),
			Type:       nodeTable.column(nodeTypeColumns),
			Properties: nodeTable.column(propsColumns),
		},
	}

	if et := pickEdgeTable(edgeCandidates); et != nil {
		profile.Edges = &EdgeMapping{
			Table:      et.name,
			ID:         et.column(edgeIDCols),
			Source:     et.column(edgeSourceCols),
			Target:     et.column(edgeTargetCols),
			Type:       et.column(edgeTypeCols),
			Properties: et.column(propsColumns),
		}
	}

	for _, ts := range tables {
		if ts.fts5 || !nameHasHint(ts.name, embedTableHints) {
			continue
		}
		nodeID := ts.column(embedNodeIDCols)
		vector := ts.column(embedVectorCols)
		if nodeID != "" && vector != "" {
			profile.Embedding = &EmbeddingMapping{Table: ts.name, NodeID: nodeID, Vector: vector}
			break
		}
	}

	return profile, nil
}

func pickEdgeTable(candidates []*tableSchema) *tableSchema {
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		hi := nameHasHint(candidates[i].name, edgeTableHints)
		hj := nameHasHint(candidates[j].name, edgeTableHints)
		if hi != hj {
			return hi
		}
		return candidates[i].name < candidates[j].name
	})
	return candidates[0]
}

// findFTSTable locates a native FTS5 index over the node table. Naming is
// the only signal available: <nodes>_fts first, then any fts5 table whose
// name mentions the node table or "fts".
func findFTSTable(tables map[string]*tableSchema, nodeTable string) string {
	lowerNode := strings.ToLower(nodeTable)
	if ts, ok := tables[lowerNode+"_fts"]; ok && ts.fts5 {
		return ts.name
	}
	var names []string
	for key, ts := range tables {
		if ts.fts5 && (strings.Contains(key, lowerNode) || strings.Contains(key, "fts")) {
			names = append(names, ts.name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

func nameHasHint(name string, hints []string) bool {
	lower := strings.ToLower(name)
	for _, h := range hints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// quoteIdent quotes a SQL identifier that came from introspection or a
// profile file. Identifiers cannot be bound as parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
