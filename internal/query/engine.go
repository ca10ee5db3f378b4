// Package query fuses the lexical, vector, graph, and intent signals into
// ranked results and exposes the graph reasoning operations built on the
// same schema adapter. The Engine owns all per-store caches: construct one
// per process and share it.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"kgq/internal/cache"
	"kgq/internal/config"
	kgqerrors "kgq/internal/errors"
	"kgq/internal/intent"
	"kgq/internal/lexical"
	"kgq/internal/storage"
	"kgq/internal/vector"
)

// storeState is the lazily-built machinery for one registered store. The
// first query pays for schema detection and index construction; later
// queries share the result until Invalidate resets it.
type storeState struct {
	id    string
	path  string
	db    *storage.DB
	owned bool

	mu      sync.Mutex
	ready   bool
	profile *storage.SchemaProfile
	adapter *storage.Adapter
	index   *lexical.Index
	scorer  *vector.Scorer
}

// negEntry remembers a store whose schema detection failed, so repeated
// queries against it fail fast instead of re-introspecting every time.
type negEntry struct {
	err       error
	expiresAt time.Time
}

// Engine is the shared query context. All methods are safe for concurrent
// use; the underlying stores are read-only from the engine's perspective
// and externally mutable, so write paths call Invalidate.
type Engine struct {
	cfg        *config.Config
	logger     *slog.Logger
	classifier *intent.Classifier
	results    *cache.QueryCache
	extra      []storage.SchemaProfile

	mu       sync.Mutex
	stores   map[string]*storeState
	negative map[string]negEntry
	ops      map[string]int64

	now func() time.Time
}

// NewEngine builds an engine from configuration. A nil config uses the
// defaults; a nil logger uses slog's default.
func NewEngine(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	classifier, err := intent.NewClassifier(cfg.Intent, logger)
	if err != nil {
		return nil, err
	}

	var extra []storage.SchemaProfile
	if cfg.ProfilesPath != "" {
		pf, err := storage.ParseProfilesFile(cfg.ProfilesPath)
		if err != nil {
			return nil, err
		}
		extra = pf.Profiles
		logger.Debug("loaded extra schema profiles", "path", cfg.ProfilesPath, "count", len(extra))
	}

	return &Engine{
		cfg:        cfg,
		logger:     logger,
		classifier: classifier,
		results:    cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTLSeconds),
		extra:      extra,
		stores:     make(map[string]*storeState),
		negative:   make(map[string]negEntry),
		ops:        make(map[string]int64),
		now:        time.Now,
	}, nil
}

// RegisterStore opens the store file at path and registers it under id.
// The engine owns the handle and closes it on Close.
func (e *Engine) RegisterStore(id, path string) error {
	db, err := storage.Open(path, e.logger)
	if err != nil {
		return err
	}
	if err := e.register(id, path, db, true); err != nil {
		db.Close()
		return err
	}
	return nil
}

// RegisterStoreDB registers an already-open handle under id. The caller
// keeps ownership of the handle. Intended for embedding and tests.
func (e *Engine) RegisterStoreDB(id string, db *storage.DB) error {
	return e.register(id, db.Path(), db, false)
}

func (e *Engine) register(id, path string, db *storage.DB, owned bool) error {
	if id == "" {
		return kgqerrors.New(kgqerrors.InvalidArgument, "store id is required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.stores[id]; exists {
		return kgqerrors.New(kgqerrors.InvalidArgument,
			fmt.Sprintf("store %q is already registered", id))
	}
	e.stores[id] = &storeState{id: id, path: path, db: db, owned: owned}
	e.logger.Debug("store registered", "store", id, "path", path)
	return nil
}

func (e *Engine) store(id string) (*storeState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.stores[id]
	if !ok {
		return nil, kgqerrors.New(kgqerrors.StoreNotRegistered,
			fmt.Sprintf("store %q is not registered", id))
	}
	return st, nil
}

// ready returns the store with its profile, adapter, index, and embedder
// resolved, building them on first use. Concurrent callers share one build.
func (e *Engine) ready(ctx context.Context, id string) (*storeState, error) {
	st, err := e.store(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if neg, ok := e.negative[id]; ok {
		if e.now().Before(neg.expiresAt) {
			e.mu.Unlock()
			return nil, neg.err
		}
		delete(e.negative, id)
	}
	e.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.ready {
		return st, nil
	}

	profile, err := storage.Detect(ctx, st.db, e.extra, e.logger)
	if err != nil {
		ttl := time.Duration(e.cfg.Cache.NegativeTTLSeconds) * time.Second
		e.mu.Lock()
		e.negative[id] = negEntry{err: err, expiresAt: e.now().Add(ttl)}
		e.mu.Unlock()
		return nil, err
	}

	adapter := storage.NewAdapter(st.db, profile, e.logger)
	index, err := lexical.BuildIndex(ctx, adapter, e.cfg.BM25, e.logger)
	if err != nil {
		return nil, err
	}
	provider := vector.Resolve(e.cfg.Vector, adapter.EmbeddingDim(ctx), e.logger)
	timeout := time.Duration(e.cfg.Vector.TimeoutMs) * time.Millisecond

	st.profile = profile
	st.adapter = adapter
	st.index = index
	st.scorer = vector.NewScorer(provider, timeout, e.logger)
	st.ready = true

	e.logger.Info("store ready",
		"store", id,
		"profile", profile.Name,
		"docs", index.DocCount(),
		"embedder", st.scorer.ProviderName())
	return st, nil
}

// Invalidate drops everything cached for a store: its schema profile, BM25
// index, negative detection entry, and any cached query results. The write
// path calls this after mutating the underlying store.
func (e *Engine) Invalidate(storeID string) error {
	st, err := e.store(storeID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	st.ready = false
	st.profile = nil
	st.adapter = nil
	st.index = nil
	st.scorer = nil
	st.mu.Unlock()

	e.mu.Lock()
	delete(e.negative, storeID)
	e.mu.Unlock()

	dropped := e.results.InvalidateStore(storeID)
	e.logger.Info("store invalidated", "store", storeID, "droppedResults", dropped)
	return nil
}

// Close releases every store handle the engine owns.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for _, st := range e.stores {
		if st.owned {
			if err := st.db.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	e.stores = make(map[string]*storeState)
	e.negative = make(map[string]negEntry)
	e.results.Purge()
	return firstErr
}

// Schema resolves and returns the detected schema profile for a store.
func (e *Engine) Schema(ctx context.Context, storeID string) (*storage.SchemaProfile, error) {
	e.count("schema")
	st, err := e.ready(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return st.profile, nil
}

// ClassifyIntent classifies text and returns the intent with its edge
// allowlist and boost keywords.
func (e *Engine) ClassifyIntent(text string) IntentResult {
	e.count("classify_intent")
	in := e.classifier.Classify(text)
	return IntentResult{
		Text:      text,
		Intent:    in,
		EdgeTypes: e.classifier.EdgeTypes(in),
		Keywords:  e.classifier.Keywords(in),
	}
}

// Stats snapshots the engine counters.
func (e *Engine) Stats() EngineStats {
	e.mu.Lock()
	ops := make(map[string]int64, len(e.ops))
	for op, n := range e.ops {
		ops[op] = n
	}
	states := make([]*storeState, 0, len(e.stores))
	for _, st := range e.stores {
		states = append(states, st)
	}
	e.mu.Unlock()

	stats := EngineStats{
		Operations: ops,
		Cache:      e.results.Stats(),
		IntentMemo: e.classifier.MemoLen(),
	}
	for _, st := range states {
		st.mu.Lock()
		s := StoreStats{ID: st.id, Path: st.path, Ready: st.ready}
		if st.ready {
			s.Profile = st.profile.Name
			s.Docs = st.index.DocCount()
			s.Vocab = st.index.VocabSize()
			s.Embedder = st.scorer.ProviderName()
		}
		st.mu.Unlock()
		stats.Stores = append(stats.Stores, s)
	}
	sort.Slice(stats.Stores, func(i, j int) bool { return stats.Stores[i].ID < stats.Stores[j].ID })
	return stats
}

func (e *Engine) count(op string) {
	e.mu.Lock()
	e.ops[op]++
	e.mu.Unlock()
}

// ParseDirection maps the CLI vocabulary onto storage directions. Impact
// analysis speaks forward/backward; the storage layer speaks out/in. An
// empty string defaults to forward.
func ParseDirection(s string) (storage.Direction, error) {
	switch strings.ToLower(s) {
	case "", "forward", "out":
		return storage.DirectionOut, nil
	case "backward", "in":
		return storage.DirectionIn, nil
	case "both":
		return storage.DirectionBoth, nil
	}
	return "", kgqerrors.New(kgqerrors.InvalidArgument, fmt.Sprintf("unknown direction %q", s))
}
