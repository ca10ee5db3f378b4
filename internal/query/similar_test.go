package query

import (
	"context"
	"math"
	"testing"

	"kgq/internal/config"
	kgqerrors "kgq/internal/errors"
)

func TestSimilarTo_RanksSharedStructure(t *testing.T) {
	e := pipelineEngine(t, nil)

	res, err := e.SimilarTo(context.Background(), "pipeline", "n1", 10)
	if err != nil {
		t.Fatalf("SimilarTo() error = %v", err)
	}
	if res.Target.ID != "n1" {
		t.Errorf("Target.ID = %s, want n1", res.Target.ID)
	}
	if res.Candidates != 6 {
		t.Errorf("Candidates = %d, want 6", res.Candidates)
	}

	// stream-parser shares csv-parser's whole neighborhood, its type, and
	// a name token; record-indexer and the validator only share the type
	// plus partial structure. Everything else scores zero and is dropped.
	wantIDs := []string{"n7", "n3", "n2"}
	if len(res.Matches) != len(wantIDs) {
		t.Fatalf("matches = %v, want %v", matchIDs(res.Matches), wantIDs)
	}
	for i, want := range wantIDs {
		if res.Matches[i].Node.ID != want {
			t.Fatalf("matches = %v, want %v", matchIDs(res.Matches), wantIDs)
		}
	}

	top := res.Matches[0]
	if math.Abs(top.Breakdown["neighbors"]-0.70) > 1e-9 {
		t.Errorf("n7 neighbors component = %f, want 0.70", top.Breakdown["neighbors"])
	}
	if math.Abs(top.Breakdown["type"]-0.20) > 1e-9 {
		t.Errorf("n7 type component = %f, want 0.20", top.Breakdown["type"])
	}
	if math.Abs(top.Breakdown["name"]-0.10/3) > 1e-9 {
		t.Errorf("n7 name component = %f, want %f", top.Breakdown["name"], 0.10/3)
	}
	if math.Abs(top.Score-(0.90+0.10/3)) > 1e-9 {
		t.Errorf("n7 score = %f, want %f", top.Score, 0.90+0.10/3)
	}
}

func TestSimilarTo_LimitsMatches(t *testing.T) {
	e := pipelineEngine(t, nil)

	res, err := e.SimilarTo(context.Background(), "pipeline", "n1", 2)
	if err != nil {
		t.Fatalf("SimilarTo() error = %v", err)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("len(Matches) = %d, want 2", len(res.Matches))
	}
	if res.Matches[0].Node.ID != "n7" || res.Matches[1].Node.ID != "n3" {
		t.Errorf("matches = %v, want [n7 n3]", matchIDs(res.Matches))
	}
}

func TestSimilarTo_CandidateCeiling(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Limits.SimilarCandidateCeiling = 2
	e := pipelineEngine(t, cfg)

	res, err := e.SimilarTo(context.Background(), "pipeline", "n1", 10)
	if err != nil {
		t.Fatalf("SimilarTo() error = %v", err)
	}
	// The pool is id-ordered, so a ceiling of two considers n2 and n3 only.
	if res.Candidates != 2 {
		t.Errorf("Candidates = %d, want 2", res.Candidates)
	}
	for _, m := range res.Matches {
		if m.Node.ID != "n2" && m.Node.ID != "n3" {
			t.Errorf("match %s outside the capped candidate pool", m.Node.ID)
		}
	}
}

func TestSimilarTo_UnknownNode(t *testing.T) {
	e := pipelineEngine(t, nil)

	_, err := e.SimilarTo(context.Background(), "pipeline", "ghost", 5)
	if !kgqerrors.IsNotFound(err) {
		t.Errorf("SimilarTo() error = %v, want a not-found error", err)
	}
}

func TestJaccard(t *testing.T) {
	set := func(items ...string) map[string]struct{} {
		s := make(map[string]struct{}, len(items))
		for _, it := range items {
			s[it] = struct{}{}
		}
		return s
	}

	tests := []struct {
		name string
		a, b map[string]struct{}
		want float64
	}{
		{"identical", set("x", "y"), set("x", "y"), 1},
		{"disjoint", set("x"), set("y"), 0},
		{"partial", set("x", "y", "z"), set("x"), 1.0 / 3},
		{"empty side", set(), set("x"), 0},
		{"both empty", set(), set(), 0},
	}
	for _, tt := range tests {
		if got := jaccard(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: jaccard = %f, want %f", tt.name, got, tt.want)
		}
		// Overlap is symmetric even when the surrounding similarity
		// score is not.
		if ab, ba := jaccard(tt.a, tt.b), jaccard(tt.b, tt.a); ab != ba {
			t.Errorf("%s: jaccard asymmetric: %f vs %f", tt.name, ab, ba)
		}
	}
}

func matchIDs(matches []SimilarMatch) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.Node.ID
	}
	return ids
}
