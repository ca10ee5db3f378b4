package query

import (
	"context"
	"regexp"
	"strings"

	kgqerrors "kgq/internal/errors"
	"kgq/internal/storage"
)

// composeSplit breaks a goal phrase into sequential sub-goals.
var composeSplit = regexp.MustCompile(`(?i)\s*(?:,|\band\b|\bthen\b)\s*`)

// compositionEdgeTypes are the edge types that chain workflow steps.
var compositionEdgeTypes = []string{
	"feeds_into",
	"requires",
	"followed_by",
	"depends_on",
	"enables",
}

// Pipeline adjacency is worth half again the lexical score when picking
// the next step.
const composeChainBoost = 1.5

// ComposeWorkflow splits a goal phrase on commas, "and", and "then", then
// greedily picks the best node for each sub-goal in order. Candidates
// reachable from the previous selection through a composition edge get a
// boost, so the assembled steps prefer an actual pipeline over isolated
// lexical hits. Complete is false when any sub-goal found nothing.
func (e *Engine) ComposeWorkflow(ctx context.Context, storeID, goal string) (*ComposeResult, error) {
	e.count("compose_workflow")
	subGoals := splitGoals(goal, e.cfg.Limits.MaxComposeSteps)
	if len(subGoals) == 0 {
		return nil, kgqerrors.New(kgqerrors.InvalidArgument, "goal is empty")
	}
	st, err := e.ready(ctx, storeID)
	if err != nil {
		return nil, err
	}

	res := &ComposeResult{Goal: goal, Complete: true}
	var prev *storage.Node
	for _, sub := range subGoals {
		scores := st.index.Score(sub, nil)

		var connected map[string]struct{}
		if prev != nil && len(scores) > 0 {
			connected, err = e.compositionNeighbors(ctx, st, prev.ID)
			if err != nil {
				return nil, err
			}
		}

		bestID, bestScore, bestConnected := "", 0.0, false
		for id, s := range scores {
			_, linked := connected[id]
			if linked {
				s *= composeChainBoost
			}
			if s > bestScore || (s == bestScore && bestID != "" && id < bestID) {
				bestID, bestScore, bestConnected = id, s, linked
			}
		}

		if bestID == "" {
			res.Steps = append(res.Steps, ComposeStep{Goal: sub})
			res.Complete = false
			continue
		}
		node, err := st.adapter.Node(ctx, bestID)
		if err != nil {
			return nil, err
		}
		res.Steps = append(res.Steps, ComposeStep{
			Goal:      sub,
			Node:      node,
			Score:     bestScore,
			Connected: bestConnected,
		})
		prev = node
	}
	return res, nil
}

// compositionNeighbors collects nodes linked to id through a composition
// edge, in either orientation.
func (e *Engine) compositionNeighbors(ctx context.Context, st *storeState, id string) (map[string]struct{}, error) {
	edges, err := st.adapter.EdgesTouching(ctx, []string{id}, storage.DirectionBoth)
	if err != nil {
		return nil, err
	}
	allowed := make(map[string]struct{}, len(compositionEdgeTypes))
	for _, t := range compositionEdgeTypes {
		allowed[t] = struct{}{}
	}
	out := make(map[string]struct{})
	for _, edge := range edges {
		if _, ok := allowed[edge.Type]; !ok {
			continue
		}
		if edge.Source == id {
			out[edge.Target] = struct{}{}
		}
		if edge.Target == id {
			out[edge.Source] = struct{}{}
		}
	}
	return out, nil
}

// splitGoals normalizes a goal phrase into at most maxSteps non-empty
// sub-goals.
func splitGoals(goal string, maxSteps int) []string {
	parts := composeSplit.Split(goal, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if maxSteps > 0 && len(out) > maxSteps {
		out = out[:maxSteps]
	}
	return out
}
