// Package embed converts text into fixed-length vectors for similarity
// comparison. The Embedder interface is implemented by the OpenAI HTTP
// client (production) and a deterministic mock (tests); Cached wraps any
// Embedder with an exact-text memoization layer.
package embed

import "context"

// Embedder converts text to vector embeddings.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
