package embed

import (
	"context"

	"github.com/dgraph-io/ristretto"
)

// Cached memoizes embeddings by exact text. The same query is embedded
// several times per request (cache check, memory lookup, retrieval), so
// a hit here saves a round trip to the embedding service. Keys are the
// raw text; cost is the vector size in bytes.
type Cached struct {
	inner Embedder
	cache *ristretto.Cache
}

// NewCached wraps an Embedder with a ristretto-backed memo cache.
func NewCached(inner Embedder) (*Cached, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,   // ~10x expected live entries
		MaxCost:     32 << 20, // 32 MiB of vectors
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

// Embed returns the memoized vector for text, embedding on miss.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return v.([]float32), nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, int64(4*len(vec)))
	return vec, nil
}

// Dimensions returns the wrapped embedder's vector size.
func (c *Cached) Dimensions() int {
	return c.inner.Dimensions()
}

// Wait blocks until buffered cache writes are applied. Test hook.
func (c *Cached) Wait() {
	c.cache.Wait()
}
