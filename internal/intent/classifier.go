package intent

import (
	"container/list"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"

	"kgq/internal/config"
)

// Classifier matches queries against the intent table. Classification is
// memoized per exact query string in a capped LRU so repeated queries skip
// the regex pass.
type Classifier struct {
	specs []compiledSpec
	byKey map[Intent]*compiledSpec

	mu    sync.Mutex
	memo  map[string]*list.Element
	order *list.List
	cap   int

	logger *slog.Logger
}

type compiledSpec struct {
	IntentSpec
	patterns []*regexp.Regexp
}

type memoEntry struct {
	query  string
	intent Intent
}

// overridesFile is the YAML shape for intent pattern overrides.
type overridesFile struct {
	Version int          `yaml:"version"`
	Intents []IntentSpec `yaml:"intents"`
}

// NewClassifier compiles the built-in table, applies YAML overrides when
// configured, and sizes the memo cache.
func NewClassifier(cfg config.IntentConfig, logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table := builtinTable()
	if cfg.PatternsPath != "" {
		merged, err := applyOverrides(table, cfg.PatternsPath)
		if err != nil {
			return nil, err
		}
		table = merged
	}

	capacity := cfg.MemoCapacity
	if capacity <= 0 {
		capacity = 10000
	}

	c := &Classifier{
		specs:  make([]compiledSpec, 0, len(table)),
		byKey:  make(map[Intent]*compiledSpec, len(table)),
		memo:   make(map[string]*list.Element),
		order:  list.New(),
		cap:    capacity,
		logger: logger,
	}

	for _, spec := range table {
		cs := compiledSpec{IntentSpec: spec}
		for _, p := range spec.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("intent %s: bad pattern %q: %w", spec.Intent, p, err)
			}
			cs.patterns = append(cs.patterns, re)
		}
		c.specs = append(c.specs, cs)
	}
	for i := range c.specs {
		c.byKey[c.specs[i].Intent] = &c.specs[i]
	}
	return c, nil
}

// applyOverrides merges a YAML declaration into the built-in table. An
// entry replaces the named intent's non-empty lists; intents the file does
// not mention keep their built-ins. Unknown intent names fail loudly so a
// typo cannot silently disable an override.
func applyOverrides(table []IntentSpec, path string) ([]IntentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent patterns: %w", err)
	}
	var file overridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse intent patterns: %w", err)
	}
	if file.Version != 0 && file.Version != 1 {
		return nil, fmt.Errorf("unsupported intent patterns version: %d", file.Version)
	}

	index := make(map[Intent]int, len(table))
	for i, spec := range table {
		index[spec.Intent] = i
	}

	for _, o := range file.Intents {
		i, ok := index[o.Intent]
		if !ok {
			return nil, fmt.Errorf("intent patterns: unknown intent %q", o.Intent)
		}
		if len(o.Patterns) > 0 {
			table[i].Patterns = o.Patterns
		}
		if len(o.EdgeTypes) > 0 {
			table[i].EdgeTypes = o.EdgeTypes
		}
		if len(o.Keywords) > 0 {
			table[i].Keywords = o.Keywords
		}
	}
	return table, nil
}

// Classify returns the intent whose patterns match the query most often.
// Ties keep the earlier intent in table order; no matches yield Explore.
func (c *Classifier) Classify(query string) Intent {
	c.mu.Lock()
	if el, ok := c.memo[query]; ok {
		c.order.MoveToFront(el)
		intent := el.Value.(*memoEntry).intent
		c.mu.Unlock()
		return intent
	}
	c.mu.Unlock()

	best := Explore
	bestCount := 0
	for i := range c.specs {
		count := 0
		for _, re := range c.specs[i].patterns {
			if re.MatchString(query) {
				count++
			}
		}
		if count > bestCount {
			best = c.specs[i].Intent
			bestCount = count
		}
	}

	c.remember(query, best)
	return best
}

func (c *Classifier) remember(query string, intent Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.memo[query]; ok {
		c.order.MoveToFront(el)
		return
	}
	for c.order.Len() >= c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.memo, oldest.Value.(*memoEntry).query)
	}
	c.memo[query] = c.order.PushFront(&memoEntry{query: query, intent: intent})
}

// MemoLen reports the memo cache size, for stats.
func (c *Classifier) MemoLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Spec returns the declaration for an intent.
func (c *Classifier) Spec(intent Intent) (IntentSpec, bool) {
	cs, ok := c.byKey[intent]
	if !ok {
		return IntentSpec{}, false
	}
	return cs.IntentSpec, true
}

// Keywords returns the lexical boost terms for an intent, nil for unknown
// intents.
func (c *Classifier) Keywords(intent Intent) []string {
	if cs, ok := c.byKey[intent]; ok {
		return cs.Keywords
	}
	return nil
}

// EdgeTypes returns the edge allowlist for an intent.
func (c *Classifier) EdgeTypes(intent Intent) []string {
	if cs, ok := c.byKey[intent]; ok {
		return cs.EdgeTypes
	}
	return nil
}
