package lexical

import (
	"math"
	"strings"
)

// intentBoost multiplies the per-term contribution of query terms that
// appear on the classified intent's keyword list. Matching the user's
// stated intent is worth far more than an incidental term overlap.
const intentBoost = 5.0

// Score runs BM25 over the index for a free-text query and returns raw
// scores keyed by node id. Terms on the intentKeywords list contribute at
// five times their weight. Scores are not normalized here; the fusion
// engine normalizes each signal against its own max so the scorer stays
// usable standalone. An empty query scores nothing.
func (idx *Index) Score(query string, intentKeywords []string) map[string]float64 {
	terms := Tokenize(query, idx.minLen)
	if len(terms) == 0 {
		return map[string]float64{}
	}

	boosted := make(map[string]struct{}, len(intentKeywords))
	for _, kw := range intentKeywords {
		boosted[strings.ToLower(kw)] = struct{}{}
	}

	scores := make(map[string]float64)
	for _, term := range terms {
		docs := idx.postings[term]
		if len(docs) == 0 {
			continue
		}

		df := float64(len(docs))
		idf := math.Log((float64(idx.n)-df+0.5)/(df+0.5) + 1)

		mult := 1.0
		if _, ok := boosted[term]; ok {
			mult = intentBoost
		}

		for id, tf := range docs {
			dl := float64(idx.docLen[id])
			tfF := float64(tf)
			s := idf * tfF * (idx.k1 + 1) / (tfF + idx.k1*(1-idx.b+idx.b*dl/idx.avgdl))
			scores[id] += mult * s
		}
	}
	return scores
}
