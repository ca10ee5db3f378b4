package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	kgqerrors "kgq/internal/errors"
)

// EmbeddingRows loads every stored node embedding. Vectors may be stored
// as raw little-endian float32 blobs or as JSON arrays; both decode to the
// same shape. Rows that fail to decode or disagree on dimension are
// dropped with a warning. Stores without an embedding table return an
// empty map and no error.
func (a *Adapter) EmbeddingRows(ctx context.Context) (map[string][]float32, int, error) {
	if !a.profile.HasEmbeddings() {
		return nil, 0, nil
	}
	m := a.profile.Embedding

	query := fmt.Sprintf("SELECT %s, %s FROM %s",
		quoteIdent(m.NodeID), quoteIdent(m.Vector), quoteIdent(m.Table))
	rows, err := a.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed to read embeddings", err)
	}
	defer rows.Close()

	vectors := make(map[string][]float32)
	dim := 0
	dropped := 0
	for rows.Next() {
		var nodeID string
		var raw []byte
		if err := rows.Scan(&nodeID, &raw); err != nil {
			dropped++
			continue
		}
		vec, err := DecodeVector(raw)
		if err != nil {
			dropped++
			continue
		}
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			dropped++
			continue
		}
		vectors[nodeID] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, 0, kgqerrors.Wrap(kgqerrors.StorageReadError, "failed iterating embeddings", err)
	}
	if dropped > 0 {
		a.logger.Warn("dropped undecodable embedding rows", "dropped", dropped, "kept", len(vectors))
	}
	return vectors, dim, nil
}

// EmbeddingDim probes the stored embedding dimension by decoding a single
// row. Stores without embeddings, or with no decodable row, report 0.
func (a *Adapter) EmbeddingDim(ctx context.Context) int {
	if !a.profile.HasEmbeddings() {
		return 0
	}
	m := a.profile.Embedding

	query := fmt.Sprintf("SELECT %s FROM %s LIMIT 1",
		quoteIdent(m.Vector), quoteIdent(m.Table))
	var raw []byte
	if err := a.db.conn.QueryRowContext(ctx, query).Scan(&raw); err != nil {
		return 0
	}
	vec, err := DecodeVector(raw)
	if err != nil {
		return 0
	}
	return len(vec)
}

// DecodeVector decodes one stored embedding. JSON arrays are tried first
// because a text column scanned as bytes is indistinguishable from a blob.
func DecodeVector(raw []byte) ([]float32, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty vector")
	}

	if trimmed[0] == '[' {
		var vec []float32
		if err := json.Unmarshal(trimmed, &vec); err != nil {
			return nil, fmt.Errorf("decode JSON vector: %w", err)
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("empty vector")
		}
		return vec, nil
	}

	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		f := math.Float32frombits(bits)
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return nil, fmt.Errorf("vector blob contains non-finite value at %d", i)
		}
		vec[i] = f
	}
	return vec, nil
}

// EncodeVector encodes a vector as a little-endian float32 blob. Fixture
// tooling uses it to build stores in the binary format.
func EncodeVector(vec []float32) []byte {
	out := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}
