package graph

import (
	"context"
	"math"
	"testing"

	"kgq/internal/storage"
	"kgq/internal/testutil"
)

func pipelineAdapter(t *testing.T) *storage.Adapter {
	t.Helper()
	db := testutil.OpenStandardStore(t)
	testutil.SeedPipeline(t, db)
	return testutil.NewAdapter(t, db)
}

func TestExpand(t *testing.T) {
	adapter := pipelineAdapter(t)
	ctx := context.Background()

	out, err := Expand(ctx, adapter, []string{"n2"}, storage.DirectionOut)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(out["n2"]) != 1 || out["n2"][0].Target != "n3" {
		t.Errorf("outbound edges = %v", out["n2"])
	}

	in, err := Expand(ctx, adapter, []string{"n2"}, storage.DirectionIn)
	if err != nil {
		t.Fatal(err)
	}
	// csv-parser and stream-parser both feed the validator.
	if len(in["n2"]) != 2 {
		t.Errorf("inbound edges = %v, want 2", in["n2"])
	}

	both, err := Expand(ctx, adapter, []string{"n2"}, storage.DirectionBoth)
	if err != nil {
		t.Fatal(err)
	}
	if len(both["n2"]) != 3 {
		t.Errorf("bidirectional edges = %v, want 3", both["n2"])
	}
}

func TestExpand_EdgeInsideFrontier(t *testing.T) {
	adapter := pipelineAdapter(t)

	out, err := Expand(context.Background(), adapter, []string{"n1", "n2"}, storage.DirectionBoth)
	if err != nil {
		t.Fatal(err)
	}

	// e1 (n1 -> n2) lists under n1 as outbound and under n2 as inbound.
	foundUnderSource, foundUnderTarget := false, false
	for _, e := range out["n1"] {
		if e.ID == "e1" {
			foundUnderSource = true
		}
	}
	for _, e := range out["n2"] {
		if e.ID == "e1" {
			foundUnderTarget = true
		}
	}
	if !foundUnderSource || !foundUnderTarget {
		t.Errorf("edge inside frontier: under source %v, under target %v", foundUnderSource, foundUnderTarget)
	}
}

func TestExpand_EmptyFrontier(t *testing.T) {
	adapter := pipelineAdapter(t)

	out, err := Expand(context.Background(), adapter, nil, storage.DirectionBoth)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("Expand(nil) = %v, want empty", out)
	}
}

func TestNeighborBoost(t *testing.T) {
	adapter := pipelineAdapter(t)

	scores, err := NeighborBoost(context.Background(), adapter, []string{"n3"})
	if err != nil {
		t.Fatalf("NeighborBoost() error = %v", err)
	}

	// n3 points at n4 and n5 (0.5 each) and is fed by n2 (0.3); after
	// normalization the inbound neighbor sits at 0.3/0.5.
	if scores["n4"] != 1.0 || scores["n5"] != 1.0 {
		t.Errorf("outbound neighbors = %v, want 1.0", scores)
	}
	if math.Abs(scores["n2"]-0.6) > 1e-9 {
		t.Errorf("score[n2] = %v, want 0.6", scores["n2"])
	}
	if _, ok := scores["n7"]; ok {
		t.Error("n7 is two hops away and must not be boosted")
	}
}

func TestNeighborBoost_EmptySeeds(t *testing.T) {
	adapter := pipelineAdapter(t)

	scores, err := NeighborBoost(context.Background(), adapter, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 0 {
		t.Errorf("scores = %v, want empty", scores)
	}
}

func TestNeighborBoost_NoEdges(t *testing.T) {
	db := testutil.OpenStandardStore(t)
	testutil.AddNode(t, db, "solo", "loner", "tool", "")
	adapter := testutil.NewAdapter(t, db)

	scores, err := NeighborBoost(context.Background(), adapter, []string{"solo"})
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 0 {
		t.Errorf("scores = %v, want empty", scores)
	}
}

func TestWeightedNeighborBoost(t *testing.T) {
	adapter := pipelineAdapter(t)

	// From the validator along feeds_into edges: downstream indexer at
	// full weight, upstream parsers at 0.7.
	scores, err := WeightedNeighborBoost(context.Background(), adapter, []string{"n2"}, []string{"feeds_into"})
	if err != nil {
		t.Fatalf("WeightedNeighborBoost() error = %v", err)
	}
	if scores["n3"] != 1.0 {
		t.Errorf("score[n3] = %v, want 1.0", scores["n3"])
	}
	for _, id := range []string{"n1", "n7"} {
		if math.Abs(scores[id]-0.7) > 1e-9 {
			t.Errorf("score[%s] = %v, want 0.7", id, scores[id])
		}
	}
}

func TestWeightedNeighborBoost_Allowlist(t *testing.T) {
	adapter := pipelineAdapter(t)
	ctx := context.Background()

	// n4 touches a feeds_into edge and a depends_on edge; only the
	// allowlisted type counts.
	scores, err := WeightedNeighborBoost(ctx, adapter, []string{"n4"}, []string{"depends_on"})
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 1 || scores["n6"] != 1.0 {
		t.Errorf("scores = %v, want only n6", scores)
	}

	// An empty allowlist boosts nothing.
	scores, err = WeightedNeighborBoost(ctx, adapter, []string{"n4"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 0 {
		t.Errorf("scores = %v, want empty for empty allowlist", scores)
	}
}
