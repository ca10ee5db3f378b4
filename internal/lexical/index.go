// Package lexical scores nodes against free-text queries with BM25 over an
// in-memory inverted index of node names and types. The index is built once
// per store and rebuilt only on explicit invalidation; stores mutate outside
// this process, so staleness is accepted until then.
package lexical

import (
	"context"
	"log/slog"

	"kgq/internal/config"
	"kgq/internal/storage"
)

// Index is an immutable inverted index over one store's node text. Build it
// with BuildIndex; concurrent Score calls are safe once built.
type Index struct {
	k1     float64
	b      float64
	minLen int

	// postings maps term -> node id -> term frequency.
	postings map[string]map[string]int
	docLen   map[string]int
	avgdl    float64
	n        int
}

// BuildIndex tokenizes every node's name and type text and builds the
// term-frequency and document-frequency tables BM25 needs.
func BuildIndex(ctx context.Context, adapter *storage.Adapter, cfg config.BM25Config, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nodes, err := adapter.AllNodes(ctx, 0)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		k1:       cfg.K1,
		b:        cfg.B,
		minLen:   cfg.MinTokenLen,
		postings: make(map[string]map[string]int),
		docLen:   make(map[string]int),
	}

	totalLen := 0
	for _, node := range nodes {
		tokens := Tokenize(node.Name+" "+node.Type, cfg.MinTokenLen)
		idx.docLen[node.ID] = len(tokens)
		totalLen += len(tokens)
		for _, term := range tokens {
			m := idx.postings[term]
			if m == nil {
				m = make(map[string]int)
				idx.postings[term] = m
			}
			m[node.ID]++
		}
	}

	idx.n = len(nodes)
	if idx.n > 0 {
		idx.avgdl = float64(totalLen) / float64(idx.n)
	}

	logger.Debug("lexical index built",
		"docs", idx.n,
		"terms", len(idx.postings),
		"avgdl", idx.avgdl)
	return idx, nil
}

// DocCount returns the number of indexed nodes.
func (idx *Index) DocCount() int {
	return idx.n
}

// VocabSize returns the number of distinct indexed terms.
func (idx *Index) VocabSize() int {
	return len(idx.postings)
}
