// Package local implements a deterministic offline embedding provider.
// The vector for a text is derived from a hash of the text, so equal
// inputs always embed identically across processes. Useful for tests and
// environments without an embedding API.
package local

import (
	"context"
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"

	"github.com/nordkart/shopsearch/internal/domain"
)

// Embedder generates hash-seeded pseudo-random unit vectors.
type Embedder struct {
	dimensions int
}

// NewEmbedder creates a local embedding provider.
func NewEmbedder(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = domain.DefaultVectorDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: e.vector(text)}, nil
}

// BatchEmbed vectorizes texts one by one; there is no provider round-trip
// to amortize.
func (e *Embedder) BatchEmbed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

// HealthCheck implements domain.HealthChecker; the local provider is
// always available.
func (e *Embedder) HealthCheck(_ context.Context) error { return nil }

func (e *Embedder) vector(text string) []float32 {
	seed := xxhash.Sum64String(text)
	rng := rand.New(rand.NewSource(int64(seed))) //nolint:gosec // not used for security

	v := make([]float32, e.dimensions)
	var mag float64
	for i := range v {
		v[i] = float32(rng.Float64()*2 - 1)
		mag += float64(v[i]) * float64(v[i])
	}

	mag = math.Sqrt(mag)
	if mag == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / mag)
	}
	return v
}
