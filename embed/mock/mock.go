// Package mock provides a deterministic embedder for tests. Identical
// texts always embed to identical unit vectors; unrelated texts land in
// effectively random directions, so exact repeats score ~1.0 cosine
// similarity and everything else scores near zero.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder generates hash-seeded pseudo-random embeddings.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder with the given vector size.
// A size of 0 defaults to 1024.
func New(dimensions int) *Embedder {
	if dimensions == 0 {
		dimensions = 1024
	}
	return &Embedder{dimensions: dimensions}
}

// Embed derives a unit vector from the FNV hash of text.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	vec := make([]float32, m.dimensions)
	for i := range vec {
		// xorshift step per component, seeded by the text hash
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		vec[i] = float32(int64(state)) / float32(math.MaxInt64)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// Dimensions returns the embedding size.
func (m *Embedder) Dimensions() int {
	return m.dimensions
}
