package intent

import (
	"context"
	"math"
	"testing"

	"kgq/internal/config"
	"kgq/internal/lexical"
	"kgq/internal/slogutil"
	"kgq/internal/storage"
	"kgq/internal/testutil"
)

func pipelineFixture(t *testing.T) (*storage.Adapter, *lexical.Index, *Classifier) {
	t.Helper()
	db := testutil.OpenStandardStore(t)
	testutil.SeedPipeline(t, db)
	adapter := testutil.NewAdapter(t, db)
	idx, err := lexical.BuildIndex(context.Background(), adapter, config.DefaultConfig().BM25, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	return adapter, idx, newClassifier(t, config.DefaultConfig().Intent)
}

func TestScore_ImpactWalksDependencyEdges(t *testing.T) {
	adapter, idx, c := pipelineFixture(t)

	scores, err := c.Score(context.Background(), adapter, idx, "what happens if record-indexer breaks", Impact, 10)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	// record-indexer is the only lexical hit and anchors the signal.
	if got := scores["n3"]; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("scores[n3] = %f, want 1.0", got)
	}
	// Its outgoing feeds_into and writes_to edges pull in the dependents
	// at half weight; the upstream feeder arrives discounted further.
	if got := scores["n4"]; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("scores[n4] = %f, want 0.5", got)
	}
	if got := scores["n5"]; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("scores[n5] = %f, want 0.5", got)
	}
	if got := scores["n2"]; math.Abs(got-0.35) > 1e-9 {
		t.Errorf("scores[n2] = %f, want 0.35", got)
	}
	if _, ok := scores["n7"]; ok {
		t.Error("n7 is two hops out and should not appear")
	}
}

func TestScore_NormalizedRange(t *testing.T) {
	adapter, idx, c := pipelineFixture(t)

	scores, err := c.Score(context.Background(), adapter, idx, "trace the parser path", Trace, 10)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scores) == 0 {
		t.Fatal("expected a non-empty signal")
	}
	sawMax := false
	for id, s := range scores {
		if s <= 0 || s > 1+1e-9 {
			t.Errorf("scores[%s] = %f, want in (0, 1]", id, s)
		}
		if math.Abs(s-1.0) < 1e-9 {
			sawMax = true
		}
	}
	if !sawMax {
		t.Error("normalization should leave exactly one score at 1.0")
	}
}

func TestScore_KeywordsSteerRanking(t *testing.T) {
	db := testutil.OpenStandardStore(t)
	testutil.AddNode(t, db, "a", "error-tracker", "tool", "")
	testutil.AddNode(t, db, "b", "parser-kit", "tool", "")
	adapter := testutil.NewAdapter(t, db)
	idx, err := lexical.BuildIndex(context.Background(), adapter, config.DefaultConfig().BM25, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	c := newClassifier(t, config.DefaultConfig().Intent)

	query := "parser error"

	// find_tool boosts "parser"; debug boosts "error". Same query, the
	// intent decides which node tops the signal.
	asFind, err := c.Score(context.Background(), adapter, idx, query, FindTool, 10)
	if err != nil {
		t.Fatalf("Score(find_tool) error = %v", err)
	}
	asDebug, err := c.Score(context.Background(), adapter, idx, query, Debug, 10)
	if err != nil {
		t.Fatalf("Score(debug) error = %v", err)
	}

	if asFind["b"] <= asFind["a"] {
		t.Errorf("find_tool: parser-kit %f should beat error-tracker %f", asFind["b"], asFind["a"])
	}
	if asDebug["a"] <= asDebug["b"] {
		t.Errorf("debug: error-tracker %f should beat parser-kit %f", asDebug["a"], asDebug["b"])
	}
}

func TestScore_NoLexicalFoothold(t *testing.T) {
	adapter, idx, c := pipelineFixture(t)

	scores, err := c.Score(context.Background(), adapter, idx, "quantum blockchain", Explore, 10)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected empty signal, got %d entries", len(scores))
	}
}

func TestScore_UnknownIntent(t *testing.T) {
	adapter, idx, c := pipelineFixture(t)

	scores, err := c.Score(context.Background(), adapter, idx, "parser", Intent("nope"), 10)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected empty signal for unknown intent, got %d entries", len(scores))
	}
}

func TestTopIDs(t *testing.T) {
	scores := map[string]float64{"a": 0.2, "b": 0.9, "c": 0.9, "d": 0.1}

	got := topIDs(scores, 3)
	want := []string{"b", "c", "a"}
	if len(got) != len(want) {
		t.Fatalf("topIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("topIDs()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if got := topIDs(scores, 0); len(got) != 4 {
		t.Errorf("topIDs(0) defaults to 10, got %d of 4 ids", len(got))
	}
}
