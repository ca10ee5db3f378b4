package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	kgqerrors "kgq/internal/errors"
	"kgq/internal/slogutil"
)

func standardAdapter(t *testing.T) *Adapter {
	t.Helper()
	db := openWith(t,
		`CREATE TABLE nodes (id TEXT PRIMARY KEY, name TEXT NOT NULL, type TEXT, properties TEXT)`,
		`CREATE TABLE edges (id TEXT PRIMARY KEY, source TEXT NOT NULL, target TEXT NOT NULL, type TEXT, properties TEXT)`,
		`INSERT INTO nodes VALUES
			('n1', 'csv-parser', 'tool', '{"cost": 3}'),
			('n2', 'schema-validator', 'tool', NULL),
			('n3', 'record-indexer', 'service', '{"latency_sensitivity": "high"}')`,
		`INSERT INTO edges VALUES
			('e1', 'n1', 'n2', 'feeds_into', NULL),
			('e2', 'n2', 'n3', 'feeds_into', NULL),
			('e3', 'n3', 'n1', 'depends_on', NULL)`,
	)
	profile, err := Detect(context.Background(), db, nil, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	return NewAdapter(db, profile, slogutil.NewDiscardLogger())
}

func TestAdapter_Node(t *testing.T) {
	a := standardAdapter(t)
	ctx := context.Background()

	n, err := a.Node(ctx, "n1")
	if err != nil {
		t.Fatalf("Node() error = %v", err)
	}
	if n.Name != "csv-parser" || n.Type != "tool" {
		t.Errorf("node = %+v", n)
	}
	cost, ok := n.Properties.Field("cost").Number()
	if !ok || cost != 3 {
		t.Errorf("cost = %v, %v", cost, ok)
	}
}

func TestAdapter_NodeNotFound(t *testing.T) {
	a := standardAdapter(t)

	_, err := a.Node(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing node")
	}
	if !kgqerrors.IsCode(err, kgqerrors.NodeNotFound) {
		t.Errorf("error code = %v, want NODE_NOT_FOUND", kgqerrors.CodeOf(err))
	}
}

func TestAdapter_Nodes(t *testing.T) {
	a := standardAdapter(t)

	nodes, err := a.Nodes(context.Background(), []string{"n1", "n3", "missing"})
	if err != nil {
		t.Fatalf("Nodes() error = %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len = %d, want 2 (missing ids are skipped)", len(nodes))
	}

	nodes, err = a.Nodes(context.Background(), nil)
	if err != nil || nodes != nil {
		t.Errorf("empty id list should return nothing, got %v, %v", nodes, err)
	}
}

func TestAdapter_NodesLargeBatch(t *testing.T) {
	db := openWith(t, `CREATE TABLE nodes (id TEXT PRIMARY KEY, name TEXT NOT NULL)`)
	for i := 0; i < 1200; i++ {
		if _, err := db.Exec(`INSERT INTO nodes VALUES (?, ?)`,
			fmt.Sprintf("n%04d", i), fmt.Sprintf("node %d", i)); err != nil {
			t.Fatal(err)
		}
	}
	profile, err := Detect(context.Background(), db, nil, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(db, profile, slogutil.NewDiscardLogger())

	ids := make([]string, 1200)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%04d", i)
	}
	nodes, err := a.Nodes(context.Background(), ids)
	if err != nil {
		t.Fatalf("Nodes() error = %v", err)
	}
	if len(nodes) != 1200 {
		t.Errorf("len = %d, want 1200 across batches", len(nodes))
	}
}

func TestAdapter_AllNodes(t *testing.T) {
	a := standardAdapter(t)

	nodes, err := a.AllNodes(context.Background(), 0)
	if err != nil {
		t.Fatalf("AllNodes() error = %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("len = %d, want 3", len(nodes))
	}
	for i, want := range []string{"n1", "n2", "n3"} {
		if nodes[i].ID != want {
			t.Errorf("nodes[%d].ID = %q, want %q (ordered by id)", i, nodes[i].ID, want)
		}
	}

	limited, err := a.AllNodes(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limited len = %d, want 2", len(limited))
	}
}

func TestAdapter_IntegerIDs(t *testing.T) {
	// Stores that use INTEGER primary keys still come back as string ids.
	db := openWith(t,
		`CREATE TABLE nodes (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO nodes VALUES (1, 'alpha'), (2, 'beta')`,
	)
	profile, err := Detect(context.Background(), db, nil, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(db, profile, slogutil.NewDiscardLogger())

	n, err := a.Node(context.Background(), "2")
	if err != nil {
		t.Fatalf("Node() error = %v", err)
	}
	if n.ID != "2" || n.Name != "beta" {
		t.Errorf("node = %+v", n)
	}
}

func TestAdapter_CountNodes(t *testing.T) {
	a := standardAdapter(t)
	count, err := a.CountNodes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("CountNodes() = %d, want 3", count)
	}
}

func TestAdapter_SearchLike(t *testing.T) {
	a := standardAdapter(t)

	nodes, err := a.SearchLike(context.Background(), "parser", 10)
	if err != nil {
		t.Fatalf("SearchLike() error = %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != "n1" {
		t.Errorf("nodes = %+v, want just csv-parser", nodes)
	}
}

func TestAdapter_EdgesTouching(t *testing.T) {
	a := standardAdapter(t)
	ctx := context.Background()

	tests := []struct {
		dir  Direction
		want []string
	}{
		{DirectionOut, []string{"e1"}},
		{DirectionIn, []string{"e3"}},
		{DirectionBoth, []string{"e1", "e3"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			edges, err := a.EdgesTouching(ctx, []string{"n1"}, tt.dir)
			if err != nil {
				t.Fatalf("EdgesTouching() error = %v", err)
			}
			got := make(map[string]bool)
			for _, e := range edges {
				got[e.ID] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("edges = %v, want ids %v", edges, tt.want)
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("missing edge %s", id)
				}
			}
		})
	}
}

func TestAdapter_EdgesTouchingInvalidDirection(t *testing.T) {
	a := standardAdapter(t)

	_, err := a.EdgesTouching(context.Background(), []string{"n1"}, Direction("sideways"))
	if err == nil {
		t.Fatal("expected error for invalid direction")
	}
	if !kgqerrors.IsCode(err, kgqerrors.InvalidArgument) {
		t.Errorf("error code = %v, want INVALID_ARGUMENT", kgqerrors.CodeOf(err))
	}
}

func TestAdapter_NoEdgeTable(t *testing.T) {
	db := openWith(t,
		`CREATE TABLE nodes (id TEXT PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO nodes VALUES ('n1', 'solo')`,
	)
	profile, err := Detect(context.Background(), db, nil, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(db, profile, slogutil.NewDiscardLogger())
	ctx := context.Background()

	edges, err := a.EdgesTouching(ctx, []string{"n1"}, DirectionBoth)
	if err != nil || edges != nil {
		t.Errorf("EdgesTouching = %v, %v; want nil, nil", edges, err)
	}
	count, err := a.CountEdges(ctx)
	if err != nil || count != 0 {
		t.Errorf("CountEdges = %d, %v; want 0, nil", count, err)
	}
}

func TestAdapter_EmbeddingRowsBinary(t *testing.T) {
	db := openWith(t,
		`CREATE TABLE nodes (id TEXT PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE embeddings (node_id TEXT PRIMARY KEY, embedding BLOB)`,
		`INSERT INTO nodes VALUES ('n1', 'alpha'), ('n2', 'beta')`,
	)
	for id, vec := range map[string][]float32{
		"n1": {1, 0, 0},
		"n2": {0, 1, 0},
	} {
		if _, err := db.Exec(`INSERT INTO embeddings VALUES (?, ?)`, id, EncodeVector(vec)); err != nil {
			t.Fatal(err)
		}
	}
	profile, err := Detect(context.Background(), db, nil, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(db, profile, slogutil.NewDiscardLogger())

	vectors, dim, err := a.EmbeddingRows(context.Background())
	if err != nil {
		t.Fatalf("EmbeddingRows() error = %v", err)
	}
	if dim != 3 || len(vectors) != 2 {
		t.Fatalf("dim = %d, len = %d", dim, len(vectors))
	}
	if vectors["n1"][0] != 1 || vectors["n2"][1] != 1 {
		t.Errorf("vectors = %v", vectors)
	}
}

func TestAdapter_EmbeddingRowsJSON(t *testing.T) {
	db := openWith(t,
		`CREATE TABLE nodes (id TEXT PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE embeddings (node_id TEXT PRIMARY KEY, embedding TEXT)`,
		`INSERT INTO nodes VALUES ('n1', 'alpha')`,
		`INSERT INTO embeddings VALUES ('n1', '[0.5, 0.25, 0.25]')`,
	)
	profile, err := Detect(context.Background(), db, nil, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(db, profile, slogutil.NewDiscardLogger())

	vectors, dim, err := a.EmbeddingRows(context.Background())
	if err != nil {
		t.Fatalf("EmbeddingRows() error = %v", err)
	}
	if dim != 3 {
		t.Errorf("dim = %d, want 3", dim)
	}
	if v := vectors["n1"]; len(v) != 3 || v[0] != 0.5 {
		t.Errorf("vector = %v", v)
	}
}

func TestAdapter_EmbeddingRowsSkipsBadRows(t *testing.T) {
	db := openWith(t,
		`CREATE TABLE nodes (id TEXT PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE embeddings (node_id TEXT PRIMARY KEY, embedding BLOB)`,
	)
	good := EncodeVector([]float32{1, 2, 3})
	if _, err := db.Exec(`INSERT INTO embeddings VALUES ('ok', ?)`, good); err != nil {
		t.Fatal(err)
	}
	// Length not a multiple of four.
	if _, err := db.Exec(`INSERT INTO embeddings VALUES ('truncated', ?)`, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	// Wrong dimension relative to the first decoded row.
	if _, err := db.Exec(`INSERT INTO embeddings VALUES ('short', ?)`, EncodeVector([]float32{1})); err != nil {
		t.Fatal(err)
	}
	profile, err := Detect(context.Background(), db, nil, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(db, profile, slogutil.NewDiscardLogger())

	vectors, dim, err := a.EmbeddingRows(context.Background())
	if err != nil {
		t.Fatalf("EmbeddingRows() error = %v", err)
	}
	if len(vectors) != 1 || dim != 3 {
		t.Errorf("vectors = %v, dim = %d; want only the good row", vectors, dim)
	}
}

func TestAdapter_EmbeddingRowsNoTable(t *testing.T) {
	a := standardAdapter(t)

	vectors, dim, err := a.EmbeddingRows(context.Background())
	if err != nil {
		t.Fatalf("EmbeddingRows() error = %v", err)
	}
	if vectors != nil || dim != 0 {
		t.Errorf("vectors = %v, dim = %d; want nil, 0", vectors, dim)
	}
}

func TestAdapter_EmbeddingDim(t *testing.T) {
	db := openWith(t,
		`CREATE TABLE nodes (id TEXT PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE embeddings (node_id TEXT PRIMARY KEY, embedding BLOB)`,
		`INSERT INTO nodes VALUES ('n1', 'alpha')`,
	)
	if _, err := db.Exec(`INSERT INTO embeddings VALUES ('n1', ?)`, EncodeVector([]float32{1, 0, 0, 0})); err != nil {
		t.Fatal(err)
	}
	profile, err := Detect(context.Background(), db, nil, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(db, profile, slogutil.NewDiscardLogger())

	if dim := a.EmbeddingDim(context.Background()); dim != 4 {
		t.Errorf("EmbeddingDim() = %d, want 4", dim)
	}

	if dim := standardAdapter(t).EmbeddingDim(context.Background()); dim != 0 {
		t.Errorf("EmbeddingDim() without table = %d, want 0", dim)
	}
}

func TestDecodeVector(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		want    int
		wantErr bool
	}{
		{"binary", EncodeVector([]float32{1, 2}), 2, false},
		{"json", []byte("[1, 2, 3]"), 3, false},
		{"json spaces", []byte("  [0.1]  "), 1, false},
		{"empty", nil, 0, true},
		{"bad length", []byte{0, 0, 0}, 0, true},
		{"bad json", []byte("[1, oops]"), 0, true},
		{"empty json array", []byte("[]"), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, err := DecodeVector(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(vec) != tt.want {
				t.Errorf("len = %d, want %d", len(vec), tt.want)
			}
		})
	}
}

func TestDecodeVector_NonFinite(t *testing.T) {
	raw := EncodeVector([]float32{1, 2})
	// Flip the second float to NaN bits.
	nan := []byte{0, 0, 0xc0, 0x7f}
	copy(raw[4:], nan)
	if _, err := DecodeVector(raw); err == nil {
		t.Fatal("NaN payload should fail to decode")
	}
}

func TestNodeProperties_RoundTrip(t *testing.T) {
	// Properties survive adapter reads as structured values.
	db := openWith(t,
		`CREATE TABLE nodes (id TEXT PRIMARY KEY, name TEXT NOT NULL, type TEXT, properties TEXT)`,
	)
	bag := map[string]interface{}{
		"dimensions": map[string]interface{}{"latency_sensitivity": "high"},
		"tags":       []interface{}{"ingest", "parse"},
	}
	raw, _ := json.Marshal(bag)
	if _, err := db.Exec(`INSERT INTO nodes VALUES ('n1', 'csv-parser', 'tool', ?)`, string(raw)); err != nil {
		t.Fatal(err)
	}
	profile, err := Detect(context.Background(), db, nil, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(db, profile, slogutil.NewDiscardLogger())

	n, err := a.Node(context.Background(), "n1")
	if err != nil {
		t.Fatal(err)
	}
	if got := n.Properties.Field("dimensions").Field("latency_sensitivity").Text(); got != "high" {
		t.Errorf("latency_sensitivity = %q, want high", got)
	}
	if n.Properties.Field("tags").Len() != 2 {
		t.Errorf("tags len = %d, want 2", n.Properties.Field("tags").Len())
	}
}
