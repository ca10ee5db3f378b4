package query

import (
	"context"
	"testing"

	"kgq/internal/config"
	kgqerrors "kgq/internal/errors"
	"kgq/internal/testutil"
)

func TestComposeWorkflow_ChainsThroughPipeline(t *testing.T) {
	e := pipelineEngine(t, nil)

	res, err := e.ComposeWorkflow(context.Background(), "pipeline",
		"parse the csv and validate the schema then index the record")
	if err != nil {
		t.Fatalf("ComposeWorkflow() error = %v", err)
	}
	if !res.Complete {
		t.Error("Complete = false, want true")
	}
	if len(res.Steps) != 3 {
		t.Fatalf("len(Steps) = %d, want 3", len(res.Steps))
	}

	wantNodes := []string{"n1", "n2", "n3"}
	for i, want := range wantNodes {
		step := res.Steps[i]
		if step.Node == nil || step.Node.ID != want {
			t.Fatalf("Steps[%d].Node = %v, want %s", i, step.Node, want)
		}
	}
	// Steps two and three continue from the previous selection along
	// feeds_into edges.
	if res.Steps[0].Connected {
		t.Error("Steps[0].Connected = true, want false for the first step")
	}
	if !res.Steps[1].Connected || !res.Steps[2].Connected {
		t.Errorf("Connected = [%v %v %v], want chain after the first step",
			res.Steps[0].Connected, res.Steps[1].Connected, res.Steps[2].Connected)
	}
}

func TestComposeWorkflow_AdjacencyBreaksTies(t *testing.T) {
	e := newTestEngine(t, nil)
	db := testutil.OpenStandardStore(t)
	testutil.AddNode(t, db, "p1", "ingest-feed", "tool", "")
	// Two identical lexical matches for "export"; only b1 is wired to the
	// previous step.
	testutil.AddNode(t, db, "a1", "export-worker", "tool", "")
	testutil.AddNode(t, db, "b1", "export-gateway", "tool", "")
	testutil.AddEdge(t, db, "e1", "p1", "b1", "feeds_into")
	if err := e.RegisterStoreDB("flows", db); err != nil {
		t.Fatalf("RegisterStoreDB() error = %v", err)
	}

	res, err := e.ComposeWorkflow(context.Background(), "flows", "ingest feed then export")
	if err != nil {
		t.Fatalf("ComposeWorkflow() error = %v", err)
	}
	if len(res.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2", len(res.Steps))
	}
	if res.Steps[0].Node == nil || res.Steps[0].Node.ID != "p1" {
		t.Fatalf("Steps[0].Node = %v, want p1", res.Steps[0].Node)
	}
	second := res.Steps[1]
	if second.Node == nil || second.Node.ID != "b1" {
		t.Errorf("Steps[1].Node = %v, want the connected b1", second.Node)
	}
	if !second.Connected {
		t.Error("Steps[1].Connected = false, want true")
	}
}

func TestComposeWorkflow_IncompleteStep(t *testing.T) {
	e := pipelineEngine(t, nil)

	res, err := e.ComposeWorkflow(context.Background(), "pipeline",
		"parse the csv and summon a dragon")
	if err != nil {
		t.Fatalf("ComposeWorkflow() error = %v", err)
	}
	if res.Complete {
		t.Error("Complete = true with an unmatchable sub-goal")
	}
	if len(res.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2", len(res.Steps))
	}
	if res.Steps[0].Node == nil || res.Steps[0].Node.ID != "n1" {
		t.Errorf("Steps[0].Node = %v, want n1", res.Steps[0].Node)
	}
	if res.Steps[1].Node != nil {
		t.Errorf("Steps[1].Node = %v, want nil", res.Steps[1].Node)
	}
}

func TestComposeWorkflow_EmptyGoal(t *testing.T) {
	e := pipelineEngine(t, nil)

	for _, goal := range []string{"", "and then", " , "} {
		if _, err := e.ComposeWorkflow(context.Background(), "pipeline", goal); !kgqerrors.IsCode(err, kgqerrors.InvalidArgument) {
			t.Errorf("ComposeWorkflow(%q) error = %v, want InvalidArgument", goal, err)
		}
	}
}

func TestComposeWorkflow_CapsSteps(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Limits.MaxComposeSteps = 2
	e := pipelineEngine(t, cfg)

	res, err := e.ComposeWorkflow(context.Background(), "pipeline",
		"parse the csv and validate the schema then index the record")
	if err != nil {
		t.Fatalf("ComposeWorkflow() error = %v", err)
	}
	if len(res.Steps) != 2 {
		t.Errorf("len(Steps) = %d, want the configured cap of 2", len(res.Steps))
	}
}

func TestSplitGoals(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"parse, validate, index", []string{"parse", "validate", "index"}},
		{"parse and validate then index", []string{"parse", "validate", "index"}},
		{"Parse AND Validate", []string{"Parse", "Validate"}},
		{"grand total", []string{"grand total"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := splitGoals(tt.in, 8)
		if len(got) != len(tt.want) {
			t.Errorf("splitGoals(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("splitGoals(%q) = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}
