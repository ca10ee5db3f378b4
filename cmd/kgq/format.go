package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"kgq/internal/query"
	"kgq/internal/storage"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *query.QueryResponse:
		return formatQueryHuman(v)
	case *query.TraceResult:
		return formatTraceHuman(v)
	case *query.SimilarResult:
		return formatSimilarHuman(v)
	case *query.ImpactResult:
		return formatImpactHuman(v)
	case *query.ExploreResult:
		return formatExploreHuman(v)
	case *query.FilterResult:
		return formatFilterHuman(v)
	case *query.ComposeResult:
		return formatComposeHuman(v)
	case *query.WantToResult:
		return formatWantToHuman(v)
	case *query.CanItResult:
		return formatCanItHuman(v)
	case *query.IntentResult:
		return formatIntentHuman(v)
	case *query.EngineStats:
		return formatStatsHuman(v)
	case *storage.SchemaProfile:
		return formatSchemaHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

// nodeLabel renders a node as "name [id]" with the type when present.
func nodeLabel(n *storage.Node) string {
	if n == nil {
		return "(unknown)"
	}
	if n.Type != "" {
		return fmt.Sprintf("%s [%s, %s]", n.Name, n.ID, n.Type)
	}
	return fmt.Sprintf("%s [%s]", n.Name, n.ID)
}

// signalLine renders a signal/breakdown map in a stable key order.
func signalLine(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%.3f", k, m[k]))
	}
	return strings.Join(parts, " ")
}

func formatQueryHuman(resp *query.QueryResponse) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Query: %s\n", resp.Text))
	b.WriteString(fmt.Sprintf("Store: %s  Intent: %s  Cached: %v\n",
		resp.StoreID, resp.Intent, resp.Cached))
	b.WriteString(fmt.Sprintf("Weights: alpha=%g beta=%g gamma=%g delta=%g\n\n",
		resp.Weights.Alpha, resp.Weights.Beta, resp.Weights.Gamma, resp.Weights.Delta))

	if len(resp.Results) == 0 {
		b.WriteString("No results.\n")
	}
	for i, r := range resp.Results {
		b.WriteString(fmt.Sprintf("%3d. %s  score=%.3f\n", i+1, nodeLabel(r.Node), r.Score))
		b.WriteString(fmt.Sprintf("     %s\n", signalLine(r.Signals)))
	}

	for _, w := range resp.Warnings {
		b.WriteString(fmt.Sprintf("! %s\n", w))
	}

	b.WriteString(fmt.Sprintf("\n%d results in %.1fms\n", resp.Total, resp.DurationMs))
	return b.String(), nil
}

func formatTraceHuman(resp *query.TraceResult) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Trace: %s -> %s\n", nodeLabel(resp.From), nodeLabel(resp.To)))
	if !resp.Found {
		b.WriteString("No path found within the depth limit.\n")
		return b.String(), nil
	}

	b.WriteString(fmt.Sprintf("Path found: %d steps\n", resp.Length))
	if len(resp.Nodes) > 0 {
		b.WriteString(fmt.Sprintf("  %s\n", nodeLabel(resp.Nodes[0])))
	}
	for i, step := range resp.Steps {
		arrow := fmt.Sprintf("--%s-->", step.EdgeType)
		if !step.Forward {
			arrow = fmt.Sprintf("<--%s--", step.EdgeType)
		}
		label := step.To
		if i+1 < len(resp.Nodes) {
			label = nodeLabel(resp.Nodes[i+1])
		}
		b.WriteString(fmt.Sprintf("    %s %s\n", arrow, label))
	}
	return b.String(), nil
}

func formatSimilarHuman(resp *query.SimilarResult) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Similar to: %s  (%d candidates scored)\n",
		nodeLabel(resp.Target), resp.Candidates))
	if len(resp.Matches) == 0 {
		b.WriteString("No structurally similar nodes.\n")
		return b.String(), nil
	}
	for i, m := range resp.Matches {
		b.WriteString(fmt.Sprintf("%3d. %s  score=%.3f  (%s)\n",
			i+1, nodeLabel(m.Node), m.Score, signalLine(m.Breakdown)))
	}
	return b.String(), nil
}

func formatImpactHuman(resp *query.ImpactResult) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Impact of: %s  direction=%s\n", nodeLabel(resp.Root), resp.Direction))
	for _, layer := range resp.Layers {
		b.WriteString(fmt.Sprintf("Depth %d:\n", layer.Depth))
		for _, n := range layer.Nodes {
			b.WriteString(fmt.Sprintf("  %s  risk=%.2f fanout=%d\n",
				nodeLabel(n.Node), n.Risk, n.Fanout))
		}
	}
	b.WriteString(fmt.Sprintf("%d nodes affected\n", resp.Total))
	return b.String(), nil
}

func formatExploreHuman(resp *query.ExploreResult) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Exploring: %s  degree=%d\n", nodeLabel(resp.Root), resp.RootDegree))
	for _, layer := range resp.Layers {
		b.WriteString(fmt.Sprintf("Depth %d:\n", layer.Depth))
		for _, n := range layer.Nodes {
			hub := ""
			if n.IsHub {
				hub = "  HUB"
			}
			b.WriteString(fmt.Sprintf("  %s  degree=%d%s\n", nodeLabel(n.Node), n.Degree, hub))
		}
	}
	b.WriteString(fmt.Sprintf("%d nodes in the neighborhood\n", resp.Total))
	return b.String(), nil
}

func formatFilterHuman(resp *query.FilterResult) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%d nodes matched (via %s)\n", resp.Total, resp.Via))
	for _, n := range resp.Nodes {
		b.WriteString(fmt.Sprintf("  %s\n", nodeLabel(n)))
	}
	return b.String(), nil
}

func formatComposeHuman(resp *query.ComposeResult) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Workflow for: %s\n", resp.Goal))
	for i, step := range resp.Steps {
		if step.Node == nil {
			b.WriteString(fmt.Sprintf("%3d. %s -> (no match)\n", i+1, step.Goal))
			continue
		}
		connected := ""
		if step.Connected {
			connected = "  (connected)"
		}
		b.WriteString(fmt.Sprintf("%3d. %s -> %s%s\n", i+1, step.Goal, nodeLabel(step.Node), connected))
	}
	if resp.Complete {
		b.WriteString("Workflow complete.\n")
	} else {
		b.WriteString("Workflow incomplete: some steps have no match.\n")
	}
	return b.String(), nil
}

func formatWantToHuman(resp *query.WantToResult) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Goal: %s\n", resp.Goal))
	if len(resp.Matches) == 0 {
		b.WriteString("Nothing in this store serves that goal.\n")
		return b.String(), nil
	}
	for i, m := range resp.Matches {
		b.WriteString(fmt.Sprintf("%3d. %s  score=%.3f  (%s)\n",
			i+1, nodeLabel(m.Node), m.Score, signalLine(m.Breakdown)))
	}
	return b.String(), nil
}

func formatCanItHuman(resp *query.CanItResult) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Answer: %s  (confidence %.2f)\n", resp.Answer, resp.Confidence))
	if resp.Subject != nil {
		b.WriteString(fmt.Sprintf("Subject: %s\n", nodeLabel(resp.Subject)))
	}
	b.WriteString(fmt.Sprintf("Capability: %s\n", resp.Capability))
	if resp.Reason != "" {
		b.WriteString(fmt.Sprintf("Reason: %s\n", resp.Reason))
	}
	if len(resp.Evidence) > 0 {
		b.WriteString("Evidence:\n")
		for _, ev := range resp.Evidence {
			sign := "+"
			if ev.Weight < 0 {
				sign = "-"
			}
			b.WriteString(fmt.Sprintf("  %s %s  (weight %.2f)\n", sign, ev.Detail, ev.Weight))
		}
	}
	return b.String(), nil
}

func formatIntentHuman(resp *query.IntentResult) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Text: %s\n", resp.Text))
	b.WriteString(fmt.Sprintf("Intent: %s\n", resp.Intent))
	if len(resp.EdgeTypes) > 0 {
		b.WriteString(fmt.Sprintf("Edge types: %s\n", strings.Join(resp.EdgeTypes, ", ")))
	}
	if len(resp.Keywords) > 0 {
		b.WriteString(fmt.Sprintf("Keywords: %s\n", strings.Join(resp.Keywords, ", ")))
	}
	return b.String(), nil
}

func formatStatsHuman(resp *query.EngineStats) (string, error) {
	var b strings.Builder

	b.WriteString("Operations:\n")
	ops := make([]string, 0, len(resp.Operations))
	for op := range resp.Operations {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		b.WriteString(fmt.Sprintf("  %s: %d\n", op, resp.Operations[op]))
	}

	b.WriteString(fmt.Sprintf("Cache: %d entries, %d hits, %d misses, %d evictions\n",
		resp.Cache.Entries, resp.Cache.Hits, resp.Cache.Misses, resp.Cache.Evictions))
	b.WriteString(fmt.Sprintf("Intent memo: %d entries\n", resp.IntentMemo))

	if len(resp.Stores) > 0 {
		b.WriteString("Stores:\n")
		for _, s := range resp.Stores {
			state := "registered"
			if s.Ready {
				state = fmt.Sprintf("ready (%s, %d docs, %d terms, embedder %s)",
					s.Profile, s.Docs, s.Vocab, s.Embedder)
			}
			b.WriteString(fmt.Sprintf("  %s: %s\n", s.ID, state))
		}
	}
	return b.String(), nil
}

func formatSchemaHuman(resp *storage.SchemaProfile) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Profile: %s\n", resp.Name))
	b.WriteString(fmt.Sprintf("Nodes: table=%s id=%s name=%s", resp.Nodes.Table, resp.Nodes.ID, resp.Nodes.Name))
	if resp.Nodes.Type != "" {
		b.WriteString(fmt.Sprintf(" type=%s", resp.Nodes.Type))
	}
	if resp.Nodes.Properties != "" {
		b.WriteString(fmt.Sprintf(" properties=%s", resp.Nodes.Properties))
	}
	b.WriteString("\n")

	if resp.HasEdges() {
		b.WriteString(fmt.Sprintf("Edges: table=%s source=%s target=%s",
			resp.Edges.Table, resp.Edges.Source, resp.Edges.Target))
		if resp.Edges.Type != "" {
			b.WriteString(fmt.Sprintf(" type=%s", resp.Edges.Type))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Edges: none\n")
	}

	if resp.HasEmbeddings() {
		b.WriteString(fmt.Sprintf("Embeddings: table=%s node=%s vector=%s\n",
			resp.Embedding.Table, resp.Embedding.NodeID, resp.Embedding.Vector))
	} else {
		b.WriteString("Embeddings: none\n")
	}

	if resp.FTSTable != "" {
		b.WriteString(fmt.Sprintf("FTS index: %s\n", resp.FTSTable))
	}
	return b.String(), nil
}
