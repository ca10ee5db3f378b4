package query

import (
	"context"
	"testing"
	"time"

	"kgq/internal/config"
	kgqerrors "kgq/internal/errors"
	"kgq/internal/slogutil"
	"kgq/internal/storage"
	"kgq/internal/testutil"
)

func newTestEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	e, err := NewEngine(cfg, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// pipelineEngine registers the canonical ingest-pipeline store as
// "pipeline" on a fresh engine.
func pipelineEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	e := newTestEngine(t, cfg)
	db := testutil.OpenStandardStore(t)
	testutil.SeedPipeline(t, db)
	if err := e.RegisterStoreDB("pipeline", db); err != nil {
		t.Fatalf("RegisterStoreDB() error = %v", err)
	}
	return e
}

func TestRegisterStore_EmptyID(t *testing.T) {
	e := newTestEngine(t, nil)
	db := testutil.OpenStandardStore(t)

	err := e.RegisterStoreDB("", db)
	if !kgqerrors.IsCode(err, kgqerrors.InvalidArgument) {
		t.Errorf("RegisterStoreDB(\"\") error = %v, want InvalidArgument", err)
	}
}

func TestRegisterStore_Duplicate(t *testing.T) {
	e := newTestEngine(t, nil)
	db := testutil.OpenStandardStore(t)

	if err := e.RegisterStoreDB("s1", db); err != nil {
		t.Fatalf("first RegisterStoreDB() error = %v", err)
	}
	err := e.RegisterStoreDB("s1", db)
	if !kgqerrors.IsCode(err, kgqerrors.InvalidArgument) {
		t.Errorf("duplicate RegisterStoreDB() error = %v, want InvalidArgument", err)
	}
}

func TestRegisterStore_OpensFile(t *testing.T) {
	path, db := testutil.CreateStoreFile(t)
	testutil.SeedPipeline(t, db)

	e := newTestEngine(t, nil)
	if err := e.RegisterStore("disk", path); err != nil {
		t.Fatalf("RegisterStore() error = %v", err)
	}

	profile, err := e.Schema(context.Background(), "disk")
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	if profile.Name != "standard" {
		t.Errorf("profile.Name = %q, want %q", profile.Name, "standard")
	}
}

func TestStoreNotRegistered(t *testing.T) {
	e := newTestEngine(t, nil)

	if _, err := e.Query(context.Background(), "ghost", QueryOptions{Text: "anything"}); !kgqerrors.IsCode(err, kgqerrors.StoreNotRegistered) {
		t.Errorf("Query() error = %v, want StoreNotRegistered", err)
	}
	if err := e.Invalidate("ghost"); !kgqerrors.IsCode(err, kgqerrors.StoreNotRegistered) {
		t.Errorf("Invalidate() error = %v, want StoreNotRegistered", err)
	}
}

func TestSchema_DetectsPipelineStore(t *testing.T) {
	e := pipelineEngine(t, nil)

	profile, err := e.Schema(context.Background(), "pipeline")
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	if profile.Name != "standard" {
		t.Errorf("profile.Name = %q, want %q", profile.Name, "standard")
	}
	if !profile.HasEdges() {
		t.Error("profile.HasEdges() = false, want true")
	}
	if !profile.HasEmbeddings() {
		t.Error("profile.HasEmbeddings() = false, want true")
	}
}

func TestNegativeDetectionCache(t *testing.T) {
	cfg := config.DefaultConfig()
	e := newTestEngine(t, cfg)

	db, err := storage.OpenMemory(slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := e.RegisterStoreDB("empty", db); err != nil {
		t.Fatalf("RegisterStoreDB() error = %v", err)
	}

	base := time.Now()
	e.now = func() time.Time { return base }

	ctx := context.Background()
	if _, err := e.Schema(ctx, "empty"); !kgqerrors.IsCode(err, kgqerrors.SchemaDetectionFailed) {
		t.Fatalf("Schema() on empty store error = %v, want SchemaDetectionFailed", err)
	}

	// The store becomes readable, but the negative entry still answers
	// until its TTL passes.
	if _, err := db.Exec(`CREATE TABLE nodes (id TEXT PRIMARY KEY, name TEXT NOT NULL, type TEXT, properties TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	testutil.AddNode(t, db, "n1", "late-arrival", "tool", "")

	if _, err := e.Schema(ctx, "empty"); !kgqerrors.IsCode(err, kgqerrors.SchemaDetectionFailed) {
		t.Fatalf("Schema() within negative TTL error = %v, want SchemaDetectionFailed", err)
	}

	e.now = func() time.Time {
		return base.Add(time.Duration(cfg.Cache.NegativeTTLSeconds)*time.Second + time.Second)
	}
	if _, err := e.Schema(ctx, "empty"); err != nil {
		t.Fatalf("Schema() after negative TTL error = %v", err)
	}
}

func TestInvalidate_ClearsNegativeEntry(t *testing.T) {
	e := newTestEngine(t, nil)

	db, err := storage.OpenMemory(slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := e.RegisterStoreDB("late", db); err != nil {
		t.Fatalf("RegisterStoreDB() error = %v", err)
	}

	ctx := context.Background()
	if _, err := e.Schema(ctx, "late"); err == nil {
		t.Fatal("Schema() on empty store succeeded, want error")
	}

	if _, err := db.Exec(`CREATE TABLE nodes (id TEXT PRIMARY KEY, name TEXT NOT NULL, type TEXT, properties TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := e.Invalidate("late"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := e.Schema(ctx, "late"); err != nil {
		t.Errorf("Schema() after Invalidate error = %v", err)
	}
}

func TestInvalidate_DropsCachedResults(t *testing.T) {
	e := pipelineEngine(t, nil)
	ctx := context.Background()
	opts := QueryOptions{Text: "csv parser"}

	if _, err := e.Query(ctx, "pipeline", opts); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	second, err := e.Query(ctx, "pipeline", opts)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !second.Cached {
		t.Fatal("second identical query not served from cache")
	}

	if err := e.Invalidate("pipeline"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	third, err := e.Query(ctx, "pipeline", opts)
	if err != nil {
		t.Fatalf("Query() after Invalidate error = %v", err)
	}
	if third.Cached {
		t.Error("query after Invalidate served from cache")
	}
}

func TestStats(t *testing.T) {
	e := pipelineEngine(t, nil)
	ctx := context.Background()

	if _, err := e.Query(ctx, "pipeline", QueryOptions{Text: "csv parser"}); err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	e.ClassifyIntent("what happens if the indexer breaks")

	stats := e.Stats()
	if got := stats.Operations["query"]; got != 1 {
		t.Errorf("Operations[query] = %d, want 1", got)
	}
	if got := stats.Operations["classify_intent"]; got != 1 {
		t.Errorf("Operations[classify_intent] = %d, want 1", got)
	}
	if len(stats.Stores) != 1 {
		t.Fatalf("len(Stores) = %d, want 1", len(stats.Stores))
	}
	st := stats.Stores[0]
	if st.ID != "pipeline" || !st.Ready {
		t.Errorf("store stats = %+v, want ready pipeline", st)
	}
	if st.Profile != "standard" {
		t.Errorf("store profile = %q, want %q", st.Profile, "standard")
	}
	if st.Docs != 7 {
		t.Errorf("store docs = %d, want 7", st.Docs)
	}
	if stats.IntentMemo < 1 {
		t.Errorf("IntentMemo = %d, want >= 1", stats.IntentMemo)
	}
}

func TestClose_ForgetsStores(t *testing.T) {
	e := pipelineEngine(t, nil)
	if _, err := e.Query(context.Background(), "pipeline", QueryOptions{Text: "csv"}); err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := e.Query(context.Background(), "pipeline", QueryOptions{Text: "csv"}); !kgqerrors.IsCode(err, kgqerrors.StoreNotRegistered) {
		t.Errorf("Query() after Close error = %v, want StoreNotRegistered", err)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    storage.Direction
		wantErr bool
	}{
		{"", storage.DirectionOut, false},
		{"forward", storage.DirectionOut, false},
		{"OUT", storage.DirectionOut, false},
		{"backward", storage.DirectionIn, false},
		{"in", storage.DirectionIn, false},
		{"both", storage.DirectionBoth, false},
		{"sideways", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if tt.wantErr {
			if !kgqerrors.IsCode(err, kgqerrors.InvalidArgument) {
				t.Errorf("ParseDirection(%q) error = %v, want InvalidArgument", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDirection(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDirection(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
