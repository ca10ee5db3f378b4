package query

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"kgq/internal/cache"
	kgqerrors "kgq/internal/errors"
	"kgq/internal/graph"
	"kgq/internal/storage"
)

// Signal method names accepted in QueryOptions.Methods.
const (
	MethodLexical = "lexical"
	MethodVector  = "vector"
	MethodGraph   = "graph"
	MethodIntent  = "intent"
)

// Query runs the fused four-signal ranking. Each enabled signal is
// normalized to [0,1] on its own, combined as
// alpha*vector + beta*lexical + gamma*graph + delta*intent, and nodes with
// a non-positive final score are discarded. Ties break by node id
// ascending. The whole computation is cached keyed by store, text, and
// parameters.
func (e *Engine) Query(ctx context.Context, storeID string, opts QueryOptions) (*QueryResponse, error) {
	e.count("query")
	start := time.Now()

	w := e.resolveWeights(opts)
	limit := e.cfg.Limits.DefaultLimit
	if opts.Limit != nil {
		limit = *opts.Limit
	}
	if limit < 0 {
		return nil, kgqerrors.New(kgqerrors.InvalidArgument, "limit must be >= 0")
	}
	methods, err := resolveMethods(opts.Methods)
	if err != nil {
		return nil, err
	}

	st, err := e.ready(ctx, storeID)
	if err != nil {
		return nil, err
	}

	key := cache.Key(storeID, opts.Text, queryParams(w, limit, methods))
	if hit, ok := e.results.Get(key); ok {
		resp := *(hit.(*QueryResponse))
		resp.Cached = true
		return &resp, nil
	}

	in := e.classifier.Classify(opts.Text)
	var warnings []string

	// Lexical: BM25 with the classified intent's keywords boosted, taking
	// the per-node max with the store's native full-text signal when one
	// exists.
	lex := map[string]float64{}
	if methods[MethodLexical] {
		lex = normalize(st.index.Score(opts.Text, e.classifier.Keywords(in)))
		if st.adapter.HasTextSearch() {
			native := normalize(st.adapter.TextSearch(ctx, opts.Text, 0))
			for id, s := range native {
				if s > lex[id] {
					lex[id] = s
				}
			}
		}
	}
	if err := canceled(ctx); err != nil {
		return nil, err
	}

	// Vector: cosine against stored embeddings. Failures inside the
	// scorer degrade to an empty map, never an error.
	vec := map[string]float64{}
	if methods[MethodVector] {
		vec = normalize(st.scorer.Score(ctx, st.adapter, opts.Text, 0))
		if len(vec) == 0 && w.Alpha != 0 {
			warnings = append(warnings, "vector signal empty: no embeddings or provider unavailable")
		}
	}
	if err := canceled(ctx); err != nil {
		return nil, err
	}

	// Graph: one-hop proximity boost seeded by the best lexical and
	// vector hits. No seeds means no signal; it never retrieves on its
	// own.
	grph := map[string]float64{}
	if methods[MethodGraph] {
		seeds := topIDs(maxSignal(lex, vec), e.cfg.Limits.SeedCount)
		grph, err = graph.NeighborBoost(ctx, st.adapter, seeds)
		if err != nil {
			return nil, err
		}
	}
	if err := canceled(ctx); err != nil {
		return nil, err
	}

	// Intent: keyword hits walked along the intent's edge allowlist.
	intn := map[string]float64{}
	if methods[MethodIntent] {
		intn, err = e.classifier.Score(ctx, st.adapter, st.index, opts.Text, in, e.cfg.Limits.SeedCount)
		if err != nil {
			return nil, err
		}
	}

	rows := fuse(w, vec, lex, grph, intn)
	if limit == 0 {
		rows = nil
	} else if len(rows) > limit {
		rows = rows[:limit]
	}

	results, hydrateWarnings, err := e.hydrate(ctx, st, rows)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, hydrateWarnings...)

	resp := &QueryResponse{
		QueryID:    uuid.NewString(),
		StoreID:    storeID,
		Text:       opts.Text,
		Intent:     in,
		Weights:    w,
		Results:    results,
		Total:      len(results),
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Warnings:   warnings,
	}
	e.results.Put(key, resp)
	return resp, nil
}

// fusedRow is one node's combined score before hydration.
type fusedRow struct {
	id      string
	score   float64
	signals map[string]float64
}

// fuse combines the four normalized signal maps under the given weights,
// dropping non-positive totals and sorting score desc, id asc.
func fuse(w Weights, vec, lex, grph, intn map[string]float64) []fusedRow {
	union := make(map[string]struct{})
	for _, m := range []map[string]float64{vec, lex, grph, intn} {
		for id := range m {
			union[id] = struct{}{}
		}
	}

	rows := make([]fusedRow, 0, len(union))
	for id := range union {
		sv := w.Alpha * vec[id]
		sl := w.Beta * lex[id]
		sg := w.Gamma * grph[id]
		si := w.Delta * intn[id]
		total := sv + sl + sg + si
		if total <= 0 {
			continue
		}
		rows = append(rows, fusedRow{
			id:    id,
			score: total,
			signals: map[string]float64{
				MethodVector:  sv,
				MethodLexical: sl,
				MethodGraph:   sg,
				MethodIntent:  si,
			},
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].id < rows[j].id
	})
	return rows
}

// hydrate resolves full node records for the surviving rows. A row whose
// node cannot be read is dropped with a warning, not fatal.
func (e *Engine) hydrate(ctx context.Context, st *storeState, rows []fusedRow) ([]ScoredResult, []string, error) {
	if len(rows) == 0 {
		return []ScoredResult{}, nil, nil
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.id
	}
	nodes, err := st.adapter.Nodes(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := nodesByID(nodes)

	var warnings []string
	results := make([]ScoredResult, 0, len(rows))
	for _, r := range rows {
		n, ok := byID[r.id]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("result %s dropped: node unreadable", r.id))
			continue
		}
		results = append(results, ScoredResult{Node: n, Score: r.score, Signals: r.signals})
	}
	return results, warnings, nil
}

func (e *Engine) resolveWeights(opts QueryOptions) Weights {
	w := Weights{
		Alpha: e.cfg.Weights.Alpha,
		Beta:  e.cfg.Weights.Beta,
		Gamma: e.cfg.Weights.Gamma,
		Delta: e.cfg.Weights.Delta,
	}
	if opts.Alpha != nil {
		w.Alpha = *opts.Alpha
	}
	if opts.Beta != nil {
		w.Beta = *opts.Beta
	}
	if opts.Gamma != nil {
		w.Gamma = *opts.Gamma
	}
	if opts.Delta != nil {
		w.Delta = *opts.Delta
	}
	return w
}

// resolveMethods validates the requested signal subset. Nil enables all
// four.
func resolveMethods(methods []string) (map[string]bool, error) {
	if len(methods) == 0 {
		return map[string]bool{
			MethodLexical: true,
			MethodVector:  true,
			MethodGraph:   true,
			MethodIntent:  true,
		}, nil
	}
	out := make(map[string]bool, len(methods))
	for _, m := range methods {
		switch name := strings.ToLower(strings.TrimSpace(m)); name {
		case MethodLexical, MethodVector, MethodGraph, MethodIntent:
			out[name] = true
		default:
			return nil, kgqerrors.New(kgqerrors.InvalidArgument,
				fmt.Sprintf("unknown signal method %q", m))
		}
	}
	return out, nil
}

// queryParams flattens the effective parameters for cache keying.
func queryParams(w Weights, limit int, methods map[string]bool) map[string]string {
	names := make([]string, 0, len(methods))
	for m := range methods {
		names = append(names, m)
	}
	sort.Strings(names)
	return map[string]string{
		"alpha":   strconv.FormatFloat(w.Alpha, 'g', -1, 64),
		"beta":    strconv.FormatFloat(w.Beta, 'g', -1, 64),
		"gamma":   strconv.FormatFloat(w.Gamma, 'g', -1, 64),
		"delta":   strconv.FormatFloat(w.Delta, 'g', -1, 64),
		"limit":   strconv.Itoa(limit),
		"methods": strings.Join(names, ","),
	}
}

// normalize scales a score map so its maximum is 1. An empty map, or one
// with no positive score, yields an empty map.
func normalize(scores map[string]float64) map[string]float64 {
	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if max <= 0 {
		return map[string]float64{}
	}
	for id := range scores {
		scores[id] /= max
	}
	return scores
}

// maxSignal merges two score maps keeping the higher score per id.
func maxSignal(a, b map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(a)+len(b))
	for id, s := range a {
		out[id] = s
	}
	for id, s := range b {
		if s > out[id] {
			out[id] = s
		}
	}
	return out
}

// topIDs returns the n highest-scoring ids, ties broken by id ascending.
func topIDs(scores map[string]float64, n int) []string {
	if n <= 0 {
		n = 10
	}
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

func nodesByID(nodes []*storage.Node) map[string]*storage.Node {
	byID := make(map[string]*storage.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	return byID
}

func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return kgqerrors.Wrap(kgqerrors.Timeout, "query canceled", err)
	}
	return nil
}
