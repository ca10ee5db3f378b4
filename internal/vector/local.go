package vector

import (
	"context"
	"hash/fnv"
	"math"
	"sort"

	"kgq/internal/lexical"
)

// fastDims are the dimensions the local embedder is tuned for. Other sizes
// go through the resized wrapper.
var fastDims = map[int]struct{}{
	64: {}, 128: {}, 256: {}, 384: {}, 512: {}, 768: {},
}

// IsFastDim reports whether the local embedder handles dim natively.
func IsFastDim(dim int) bool {
	_, ok := fastDims[dim]
	return ok
}

// nearestFastDim returns the largest native size not above dim, or the
// smallest native size when dim is tiny.
func nearestFastDim(dim int) int {
	sizes := make([]int, 0, len(fastDims))
	for d := range fastDims {
		sizes = append(sizes, d)
	}
	sort.Ints(sizes)
	best := sizes[0]
	for _, d := range sizes {
		if d <= dim {
			best = d
		}
	}
	return best
}

// Local is a deterministic hashing embedder. Tokens and their character
// trigrams are hashed into buckets with a sign bit, then the vector is
// L2-normalized. No model weights, no I/O; the same text always yields the
// same vector, which is what makes it usable as a test-friendly fallback
// when no managed embedding API is configured.
type Local struct {
	dim int
}

// NewLocal returns a hashing embedder emitting dim-sized vectors.
func NewLocal(dim int) *Local {
	return &Local{dim: dim}
}

func (l *Local) Name() string { return "local-hash" }

// Embed hashes the text into a normalized vector. Only context cancellation
// can fail it.
func (l *Local) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, l.dim)
	for _, token := range lexical.Tokenize(text, 2) {
		addFeature(vec, token, 1.0)
		runes := []rune(token)
		for i := 0; i+3 <= len(runes); i++ {
			addFeature(vec, string(runes[i:i+3]), 0.5)
		}
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, l.dim)
	if norm > 0 {
		inv := 1 / math.Sqrt(norm)
		for i, v := range vec {
			out[i] = float32(v * inv)
		}
	}
	return out, nil
}

func addFeature(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(len(vec)))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[bucket] += weight
}

// resized wraps a provider whose native dimension differs from the store's,
// padding with zeros or truncating, then renormalizing.
type resized struct {
	inner Provider
	dim   int
}

// Resized adapts a provider to emit dim-sized vectors.
func Resized(p Provider, dim int) Provider {
	return &resized{inner: p, dim: dim}
}

func (r *resized) Name() string { return r.inner.Name() + "-resized" }

func (r *resized) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := r.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == r.dim {
		return vec, nil
	}

	out := make([]float32, r.dim)
	copy(out, vec)

	norm := 0.0
	for _, v := range out {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range out {
			out[i] *= inv
		}
	}
	return out, nil
}
