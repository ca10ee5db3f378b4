// Package testutil provides shared store fixtures for tests. Builders
// create throwaway SQLite stores in the layouts the detector recognizes so
// individual tests only describe their graph, not their schema.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"kgq/internal/slogutil"
	"kgq/internal/storage"
)

// NewAdapter runs schema detection on a fixture store and wraps it in an
// adapter, failing the test if the layout is not recognizable.
func NewAdapter(t *testing.T, db *storage.DB) *storage.Adapter {
	t.Helper()

	profile, err := storage.Detect(context.Background(), db, nil, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("schema detection failed: %v", err)
	}
	return storage.NewAdapter(db, profile, slogutil.NewDiscardLogger())
}

// OpenStandardStore creates an in-memory store in the standard layout:
// nodes(id, name, type, properties), edges(id, source, target, type,
// properties), embeddings(node_id, embedding). Closed automatically when
// the test ends.
func OpenStandardStore(t *testing.T) *storage.DB {
	t.Helper()

	db, err := storage.OpenMemory(slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE nodes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT,
			properties TEXT
		)`,
		`CREATE TABLE edges (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			type TEXT,
			properties TEXT
		)`,
		`CREATE TABLE embeddings (
			node_id TEXT PRIMARY KEY,
			embedding BLOB
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create fixture schema: %v", err)
		}
	}
	return db
}

// OpenEntityStore creates an in-memory store in the entity/relations layout.
func OpenEntityStore(t *testing.T) *storage.DB {
	t.Helper()

	db, err := storage.OpenMemory(slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE entities (
			entity_id TEXT PRIMARY KEY,
			entity_name TEXT NOT NULL,
			entity_type TEXT,
			attributes TEXT
		)`,
		`CREATE TABLE relations (
			relation_id TEXT PRIMARY KEY,
			from_id TEXT NOT NULL,
			to_id TEXT NOT NULL,
			relation_type TEXT,
			properties TEXT
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create fixture schema: %v", err)
		}
	}
	return db
}

// CreateStoreFile writes a standard-layout store to disk and returns its
// path. Used by tests that exercise the file-open path.
func CreateStoreFile(t *testing.T) (string, *storage.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "graph.db")
	db, err := createFileStore(path)
	if err != nil {
		t.Fatalf("create store file: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return path, db
}

func createFileStore(path string) (*storage.DB, error) {
	// Open refuses to create store files, so fixtures use Create.
	raw, err := storage.Create(path, slogutil.NewDiscardLogger())
	if err != nil {
		return nil, err
	}
	stmts := []string{
		`CREATE TABLE nodes (id TEXT PRIMARY KEY, name TEXT NOT NULL, type TEXT, properties TEXT)`,
		`CREATE TABLE edges (id TEXT PRIMARY KEY, source TEXT NOT NULL, target TEXT NOT NULL, type TEXT, properties TEXT)`,
		`CREATE TABLE embeddings (node_id TEXT PRIMARY KEY, embedding BLOB)`,
	}
	for _, stmt := range stmts {
		if _, err := raw.Exec(stmt); err != nil {
			raw.Close()
			return nil, err
		}
	}
	return raw, nil
}

// AddNode inserts a node into a standard-layout store. propsJSON may be
// empty for nodes without properties.
func AddNode(t *testing.T, db *storage.DB, id, name, typ, propsJSON string) {
	t.Helper()
	var propsVal interface{}
	if propsJSON != "" {
		propsVal = propsJSON
	}
	if _, err := db.Exec(
		`INSERT INTO nodes (id, name, type, properties) VALUES (?, ?, ?, ?)`,
		id, name, typ, propsVal,
	); err != nil {
		t.Fatalf("insert node %s: %v", id, err)
	}
}

// AddEdge inserts an edge into a standard-layout store.
func AddEdge(t *testing.T, db *storage.DB, id, source, target, typ string) {
	t.Helper()
	if _, err := db.Exec(
		`INSERT INTO edges (id, source, target, type) VALUES (?, ?, ?, ?)`,
		id, source, target, typ,
	); err != nil {
		t.Fatalf("insert edge %s: %v", id, err)
	}
}

// AddEmbedding inserts a binary-encoded embedding row.
func AddEmbedding(t *testing.T, db *storage.DB, nodeID string, vec []float32) {
	t.Helper()
	if _, err := db.Exec(
		`INSERT INTO embeddings (node_id, embedding) VALUES (?, ?)`,
		nodeID, storage.EncodeVector(vec),
	); err != nil {
		t.Fatalf("insert embedding %s: %v", nodeID, err)
	}
}

// AddEmbeddingJSON inserts a JSON-encoded embedding row.
func AddEmbeddingJSON(t *testing.T, db *storage.DB, nodeID, vecJSON string) {
	t.Helper()
	if _, err := db.Exec(
		`INSERT INTO embeddings (node_id, embedding) VALUES (?, ?)`,
		nodeID, vecJSON,
	); err != nil {
		t.Fatalf("insert embedding %s: %v", nodeID, err)
	}
}

// AddFTS builds a native FTS5 index over the node names with the node id
// carried as an unindexed column.
func AddFTS(t *testing.T, db *storage.DB) {
	t.Helper()
	stmts := []string{
		`CREATE VIRTUAL TABLE nodes_fts USING fts5(name, id UNINDEXED)`,
		`INSERT INTO nodes_fts (name, id) SELECT name, id FROM nodes`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create fts fixture: %v", err)
		}
	}
}

// SeedPipeline loads the canonical ingest-pipeline graph used across
// packages:
//
//	csv-parser -> schema-validator -> record-indexer -> search-api
//	stream-parser -> schema-validator
//	search-api -> auth-gateway (depends_on)
//	record-indexer -> metrics-store (writes_to)
func SeedPipeline(t *testing.T, db *storage.DB) {
	t.Helper()

	AddNode(t, db, "n1", "csv-parser", "tool", `{"latency_sensitivity": 0.2, "cost": 1}`)
	AddNode(t, db, "n2", "schema-validator", "tool", `{"latency_sensitivity": 0.5, "cost": 2}`)
	AddNode(t, db, "n3", "record-indexer", "tool", `{"latency_sensitivity": 0.8, "cost": 3}`)
	AddNode(t, db, "n4", "search-api", "service", `{"latency_sensitivity": 0.9}`)
	AddNode(t, db, "n5", "metrics-store", "database", `{"cost": 2}`)
	AddNode(t, db, "n6", "auth-gateway", "service", "")
	AddNode(t, db, "n7", "stream-parser", "tool", `{"latency_sensitivity": 0.3}`)

	AddEdge(t, db, "e1", "n1", "n2", "feeds_into")
	AddEdge(t, db, "e2", "n2", "n3", "feeds_into")
	AddEdge(t, db, "e3", "n3", "n4", "feeds_into")
	AddEdge(t, db, "e4", "n4", "n6", "depends_on")
	AddEdge(t, db, "e5", "n3", "n5", "writes_to")
	AddEdge(t, db, "e6", "n7", "n2", "feeds_into")
}
