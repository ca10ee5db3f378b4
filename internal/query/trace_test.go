package query

import (
	"context"
	"testing"

	kgqerrors "kgq/internal/errors"
	"kgq/internal/testutil"
)

func TestTracePath_FollowsPipeline(t *testing.T) {
	e := pipelineEngine(t, nil)

	res, err := e.TracePath(context.Background(), "pipeline", "n1", "n4", 0)
	if err != nil {
		t.Fatalf("TracePath() error = %v", err)
	}
	if !res.Found {
		t.Fatal("TracePath() Found = false, want true")
	}
	if res.Length != 3 {
		t.Fatalf("Length = %d, want 3", res.Length)
	}

	wantSteps := []PathStep{
		{From: "n1", To: "n2", EdgeID: "e1", EdgeType: "feeds_into", Forward: true},
		{From: "n2", To: "n3", EdgeID: "e2", EdgeType: "feeds_into", Forward: true},
		{From: "n3", To: "n4", EdgeID: "e3", EdgeType: "feeds_into", Forward: true},
	}
	for i, want := range wantSteps {
		if res.Steps[i] != want {
			t.Errorf("Steps[%d] = %+v, want %+v", i, res.Steps[i], want)
		}
	}

	wantNodes := []string{"n1", "n2", "n3", "n4"}
	if len(res.Nodes) != len(wantNodes) {
		t.Fatalf("len(Nodes) = %d, want %d", len(res.Nodes), len(wantNodes))
	}
	for i, want := range wantNodes {
		if res.Nodes[i].ID != want {
			t.Errorf("Nodes[%d].ID = %s, want %s", i, res.Nodes[i].ID, want)
		}
	}
}

func TestTracePath_AnnotatesReversedEdges(t *testing.T) {
	e := pipelineEngine(t, nil)

	// stream-parser to csv-parser crosses e6 forward into the validator,
	// then e1 against its direction.
	res, err := e.TracePath(context.Background(), "pipeline", "n7", "n1", 0)
	if err != nil {
		t.Fatalf("TracePath() error = %v", err)
	}
	if !res.Found || res.Length != 2 {
		t.Fatalf("Found = %v, Length = %d, want true, 2", res.Found, res.Length)
	}
	if !res.Steps[0].Forward {
		t.Errorf("Steps[0] = %+v, want forward", res.Steps[0])
	}
	if res.Steps[1].Forward {
		t.Errorf("Steps[1] = %+v, want reversed", res.Steps[1])
	}
	if res.Steps[1].EdgeID != "e1" {
		t.Errorf("Steps[1].EdgeID = %s, want e1", res.Steps[1].EdgeID)
	}
}

func TestTracePath_SameNode(t *testing.T) {
	e := pipelineEngine(t, nil)

	res, err := e.TracePath(context.Background(), "pipeline", "n2", "n2", 0)
	if err != nil {
		t.Fatalf("TracePath() error = %v", err)
	}
	if !res.Found || res.Length != 0 || len(res.Steps) != 0 {
		t.Errorf("self trace = Found %v Length %d Steps %d, want found zero-length",
			res.Found, res.Length, len(res.Steps))
	}
	if len(res.Nodes) != 1 || res.Nodes[0].ID != "n2" {
		t.Errorf("Nodes = %v, want [n2]", res.Nodes)
	}
}

func TestTracePath_Unreachable(t *testing.T) {
	e := newTestEngine(t, nil)
	db := testutil.OpenStandardStore(t)
	testutil.SeedPipeline(t, db)
	testutil.AddNode(t, db, "n8", "orphan-service", "service", "")
	if err := e.RegisterStoreDB("pipeline", db); err != nil {
		t.Fatalf("RegisterStoreDB() error = %v", err)
	}

	res, err := e.TracePath(context.Background(), "pipeline", "n1", "n8", 0)
	if err != nil {
		t.Fatalf("TracePath() error = %v", err)
	}
	if res.Found {
		t.Error("Found = true for an isolated target")
	}
}

func TestTracePath_DepthLimit(t *testing.T) {
	e := pipelineEngine(t, nil)
	ctx := context.Background()

	// n1 to n6 is four hops; a ceiling of three cannot reach it.
	res, err := e.TracePath(ctx, "pipeline", "n1", "n6", 3)
	if err != nil {
		t.Fatalf("TracePath() error = %v", err)
	}
	if res.Found {
		t.Error("Found = true under an insufficient depth limit")
	}

	res, err = e.TracePath(ctx, "pipeline", "n1", "n6", 4)
	if err != nil {
		t.Fatalf("TracePath() error = %v", err)
	}
	if !res.Found || res.Length != 4 {
		t.Errorf("Found = %v, Length = %d, want true, 4", res.Found, res.Length)
	}
}

func TestTracePath_UnknownEndpoint(t *testing.T) {
	e := pipelineEngine(t, nil)

	_, err := e.TracePath(context.Background(), "pipeline", "n1", "ghost", 0)
	if !kgqerrors.IsNotFound(err) {
		t.Errorf("TracePath() error = %v, want a not-found error", err)
	}
}
