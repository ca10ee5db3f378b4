package query

import (
	"context"
	"fmt"
	"sort"

	kgqerrors "kgq/internal/errors"
	"kgq/internal/graph"
	"kgq/internal/lexical"
	"kgq/internal/storage"
)

// enablementEdgeTypes connect a goal's lexical hits to the nodes that
// actually deliver the ability.
var enablementEdgeTypes = []string{"enables", "provides", "used_for", "implements"}

// Edge types that assert or deny a capability.
var (
	supportEdgeTypes    = map[string]struct{}{"supports": {}, "has_capability": {}, "provides": {}}
	limitationEdgeTypes = map[string]struct{}{"has_limitation": {}, "lacks": {}}
)

// Evidence weights for capability verdicts. A limitation counts against
// harder than a secondhand assertion counts for.
const (
	ownTextWeight    = 1.0
	supportWeight    = 0.6
	limitationWeight = -0.8
	wantToBoost      = 0.5
)

// WantTo ranks nodes able to serve a stated goal: lexical relevance plus
// a half-weight boost for nodes one enablement edge away from the top
// hits. An empty match list is a successful answer, not an error.
func (e *Engine) WantTo(ctx context.Context, storeID, goal string, k int) (*WantToResult, error) {
	e.count("want_to")
	if k <= 0 {
		k = e.cfg.Limits.DefaultLimit
	}
	st, err := e.ready(ctx, storeID)
	if err != nil {
		return nil, err
	}

	base := normalize(st.index.Score(goal, nil))
	res := &WantToResult{Goal: goal, Matches: []WantToMatch{}}
	if len(base) == 0 {
		return res, nil
	}

	seeds := topIDs(base, e.cfg.Limits.SeedCount)
	boost, err := graph.WeightedNeighborBoost(ctx, st.adapter, seeds, enablementEdgeTypes)
	if err != nil {
		return nil, err
	}

	combined := make(map[string]float64, len(base)+len(boost))
	for id, s := range base {
		combined[id] += s
	}
	for id, s := range boost {
		combined[id] += wantToBoost * s
	}
	max := 0.0
	for _, s := range combined {
		if s > max {
			max = s
		}
	}
	if max <= 0 {
		return res, nil
	}

	ids := topIDs(combined, k)
	nodes, err := st.adapter.Nodes(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := nodesByID(nodes)
	for _, id := range ids {
		n, ok := byID[id]
		if !ok {
			continue
		}
		res.Matches = append(res.Matches, WantToMatch{
			Node:  n,
			Score: combined[id] / max,
			Breakdown: map[string]float64{
				"lexical": base[id] / max,
				"boost":   wantToBoost * boost[id] / max,
			},
		})
	}
	return res, nil
}

// CanIt answers whether a subject has a capability by weighing evidence:
// capability terms in the subject's own text count fully, assertions
// through supporting edges count partially, and limitation edges count
// against. A limitation covering every capability term is a hard no. An
// unresolvable subject yields Answer unknown in-band, not an error.
func (e *Engine) CanIt(ctx context.Context, storeID, subject, capability string) (*CanItResult, error) {
	e.count("can_it")
	capTokens := lexical.Tokenize(capability, e.cfg.BM25.MinTokenLen)
	if len(capTokens) == 0 {
		return nil, kgqerrors.New(kgqerrors.InvalidArgument, "capability text has no usable terms")
	}
	st, err := e.ready(ctx, storeID)
	if err != nil {
		return nil, err
	}

	node, err := e.resolveSubject(ctx, st, subject)
	if err != nil {
		return nil, err
	}
	res := &CanItResult{Capability: capability, Answer: "unknown"}
	if node == nil {
		res.Reason = fmt.Sprintf("no node matches %q", subject)
		return res, nil
	}
	res.Subject = node

	var evidence []Evidence
	net := 0.0
	hardNo := false

	if frac := overlap(nodeTokens(node, e.cfg.BM25.MinTokenLen), capTokens); frac > 0 {
		w := ownTextWeight * frac
		evidence = append(evidence, Evidence{
			Kind:   "own_text",
			NodeID: node.ID,
			Detail: fmt.Sprintf("capability terms appear in %s's own text", node.Name),
			Weight: w,
		})
		net += w
	}

	edges, err := st.adapter.EdgesTouching(ctx, []string{node.ID}, storage.DirectionOut)
	if err != nil {
		return nil, err
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

	targetIDs := make([]string, 0, len(edges))
	for _, edge := range edges {
		if edge.Source != node.ID {
			continue
		}
		_, support := supportEdgeTypes[edge.Type]
		_, limit := limitationEdgeTypes[edge.Type]
		if support || limit {
			targetIDs = append(targetIDs, edge.Target)
		}
	}
	targets := map[string]*storage.Node{}
	if len(targetIDs) > 0 {
		nodes, err := st.adapter.Nodes(ctx, targetIDs)
		if err != nil {
			return nil, err
		}
		targets = nodesByID(nodes)
	}

	for _, edge := range edges {
		if edge.Source != node.ID {
			continue
		}
		target, ok := targets[edge.Target]
		if !ok {
			continue
		}
		frac := overlap(nodeTokens(target, e.cfg.BM25.MinTokenLen), capTokens)
		if frac <= 0 {
			continue
		}
		if _, ok := supportEdgeTypes[edge.Type]; ok {
			w := supportWeight * frac
			evidence = append(evidence, Evidence{
				Kind:   "supporting",
				NodeID: target.ID,
				Detail: fmt.Sprintf("%s %s %s", node.Name, edge.Type, target.Name),
				Weight: w,
			})
			net += w
		}
		if _, ok := limitationEdgeTypes[edge.Type]; ok {
			w := limitationWeight * frac
			evidence = append(evidence, Evidence{
				Kind:   "contradicting",
				NodeID: target.ID,
				Detail: fmt.Sprintf("%s %s %s", node.Name, edge.Type, target.Name),
				Weight: w,
			})
			net += w
			if frac >= 1.0 {
				hardNo = true
			}
		}
	}

	res.Evidence = evidence
	if len(evidence) == 0 {
		res.Reason = "no evidence found"
		return res, nil
	}

	switch {
	case hardNo:
		res.Answer = "no"
		res.Reason = "an explicit limitation covers every capability term"
	case net >= 0.5:
		res.Answer = "yes"
	case net <= -0.3:
		res.Answer = "no"
	default:
		res.Answer = "unknown"
		res.Reason = "evidence is inconclusive"
	}
	res.Confidence = net
	if res.Confidence < 0 {
		res.Confidence = -res.Confidence
	}
	if res.Confidence > 1 {
		res.Confidence = 1
	}
	return res, nil
}

// resolveSubject finds the subject node by exact id first, then by best
// lexical match. nil means nothing plausible exists.
func (e *Engine) resolveSubject(ctx context.Context, st *storeState, subject string) (*storage.Node, error) {
	node, err := st.adapter.Node(ctx, subject)
	if err == nil {
		return node, nil
	}
	if !kgqerrors.IsNotFound(err) {
		return nil, err
	}
	ids := topIDs(st.index.Score(subject, nil), 1)
	if len(ids) == 0 {
		return nil, nil
	}
	return st.adapter.Node(ctx, ids[0])
}

// nodeTokens is the searchable token set of a node: name, type, and the
// flattened property text.
func nodeTokens(n *storage.Node, minLen int) map[string]struct{} {
	set := tokenSet(n.Name, minLen)
	for _, t := range lexical.Tokenize(n.Type, minLen) {
		set[t] = struct{}{}
	}
	if !n.Properties.IsNull() {
		for _, t := range lexical.Tokenize(n.Properties.FlatText(), minLen) {
			set[t] = struct{}{}
		}
	}
	return set
}

// overlap is the fraction of tokens present in set.
func overlap(set map[string]struct{}, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}
