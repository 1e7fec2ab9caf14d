package memory

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/avenkit/support-agent/core"
	"github.com/avenkit/support-agent/embed"
)

// CacheConfig configures the semantic cache.
type CacheConfig struct {
	// MaxEntries caps the cache size; the newest entries by timestamp
	// survive eviction (default: 100).
	MaxEntries int

	// HitThreshold is the minimum cosine similarity between a query and
	// a stored entry for the entry to count as a hit (default: 0.85).
	HitThreshold float64
}

// DefaultCacheConfig returns the standard cache tuning.
var DefaultCacheConfig = &CacheConfig{
	MaxEntries:   100,
	HitThreshold: 0.85,
}

// Cache is the embedding-addressed query->results cache. A lookup
// returns the first entry (in insertion order) whose similarity clears
// the threshold, not the best match; that matches the behavior answer
// consumers were built against.
type Cache struct {
	mu       sync.Mutex
	embedder embed.Embedder
	entries  []*core.CacheEntry
	cfg      *CacheConfig
}

// NewCache creates an empty semantic cache.
func NewCache(embedder embed.Embedder, cfg *CacheConfig) *Cache {
	if cfg == nil {
		cfg = DefaultCacheConfig
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	if cfg.HitThreshold == 0 {
		cfg.HitThreshold = DefaultCacheConfig.HitThreshold
	}
	return &Cache{embedder: embedder, cfg: cfg}
}

// Check embeds query and scans for a sufficiently similar entry.
// Returns the cached results on a hit (incrementing the entry's hit
// count) and nil on a miss. Embedding failures degrade to a miss.
func (c *Cache) Check(ctx context.Context, query string) []core.KnowledgeItem {
	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("[CACHE] Embed failed, treating as miss: %v", err)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		sim := CosineSimilarity(vec, entry.QueryEmbedding)
		if sim > c.cfg.HitThreshold {
			entry.HitCount++
			log.Printf("[CACHE] Hit for %q (sim=%.3f, hits=%d)", query, sim, entry.HitCount)
			return entry.Results
		}
	}
	return nil
}

// Add inserts a new entry for query. Embedding failures skip the insert;
// the cache is an optimization, not a requirement. When the collection
// grows past MaxEntries, the oldest entries by timestamp are dropped.
func (c *Cache) Add(ctx context.Context, query string, results []core.KnowledgeItem) {
	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("[CACHE] Embed failed, skipping insert: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, &core.CacheEntry{
		Query:          query,
		QueryEmbedding: vec,
		Results:        results,
		Timestamp:      time.Now(),
		HitCount:       0,
	})

	if len(c.entries) > c.cfg.MaxEntries {
		sort.SliceStable(c.entries, func(i, j int) bool {
			return c.entries[i].Timestamp.After(c.entries[j].Timestamp)
		})
		c.entries = c.entries[:c.cfg.MaxEntries]
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
