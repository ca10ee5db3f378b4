package vector

import (
	"context"
	"math"
	"testing"
)

func TestLocalEmbed_Deterministic(t *testing.T) {
	l := NewLocal(256)
	ctx := context.Background()

	a1, err := l.Embed(ctx, "csv parser for streaming data")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	a2, _ := l.Embed(ctx, "csv parser for streaming data")
	b, _ := l.Embed(ctx, "metrics retention policy")

	if len(a1) != 256 {
		t.Fatalf("len = %d, want 256", len(a1))
	}
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatal("same text must embed identically")
		}
	}
	if Cosine(a1, b) > 0.99 {
		t.Error("unrelated texts should not be near-identical")
	}
}

func TestLocalEmbed_Normalized(t *testing.T) {
	l := NewLocal(128)
	vec, err := l.Embed(context.Background(), "auth gateway")
	if err != nil {
		t.Fatal(err)
	}
	norm := 0.0
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm^2 = %v, want 1", norm)
	}
}

func TestLocalEmbed_EmptyText(t *testing.T) {
	l := NewLocal(64)
	vec, err := l.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatal("empty text should embed to the zero vector")
		}
	}
}

func TestLocalEmbed_SimilarTextsCloser(t *testing.T) {
	l := NewLocal(256)
	ctx := context.Background()

	parser1, _ := l.Embed(ctx, "csv parser")
	parser2, _ := l.Embed(ctx, "stream parser")
	metrics, _ := l.Embed(ctx, "metrics retention")

	if Cosine(parser1, parser2) <= Cosine(parser1, metrics) {
		t.Error("texts sharing a token should be closer than unrelated texts")
	}
}

func TestResized(t *testing.T) {
	ctx := context.Background()

	padded := Resized(NewLocal(64), 100)
	vec, err := padded.Embed(ctx, "csv parser")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 100 {
		t.Errorf("padded len = %d, want 100", len(vec))
	}

	truncated := Resized(NewLocal(128), 32)
	vec, err = truncated.Embed(ctx, "csv parser")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 32 {
		t.Fatalf("truncated len = %d, want 32", len(vec))
	}
	norm := 0.0
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 && math.Abs(norm-1) > 1e-5 {
		t.Errorf("truncated norm^2 = %v, want renormalized to 1", norm)
	}
}

func TestNearestFastDim(t *testing.T) {
	tests := []struct {
		dim  int
		want int
	}{
		{1536, 768},
		{768, 768},
		{300, 256},
		{100, 64},
		{10, 64},
	}
	for _, tt := range tests {
		if got := nearestFastDim(tt.dim); got != tt.want {
			t.Errorf("nearestFastDim(%d) = %d, want %d", tt.dim, got, tt.want)
		}
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}
