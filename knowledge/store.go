// Package knowledge is the similarity-search index over ingested product
// documents, backed by chromem-go (a pure Go embedded vector database).
package knowledge

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cenkalti/backoff/v4"
	chromem "github.com/philippgille/chromem-go"

	"github.com/avenkit/support-agent/core"
	"github.com/avenkit/support-agent/embed"
)

// Config configures the store.
type Config struct {
	// Collection names the chromem collection (default: "aven_knowledge").
	Collection string

	// ChunkThreshold is the content size in characters above which a
	// document is split into sentence-bounded chunks before embedding
	// (default: 6000).
	ChunkThreshold int

	// MaxUpsertRetries bounds the exponential-backoff retries for a
	// failed insert (default: 4).
	MaxUpsertRetries uint64
}

// DefaultConfig returns the standard store configuration.
var DefaultConfig = &Config{
	Collection:       "aven_knowledge",
	ChunkThreshold:   6000,
	MaxUpsertRetries: 4,
}

// Store indexes KnowledgeItems and answers similarity queries.
type Store struct {
	col      *chromem.Collection
	embedder embed.Embedder
	cfg      *Config
}

// New creates an in-process knowledge store.
func New(embedder embed.Embedder, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultConfig.Collection
	}
	if cfg.ChunkThreshold == 0 {
		cfg.ChunkThreshold = DefaultConfig.ChunkThreshold
	}
	if cfg.MaxUpsertRetries == 0 {
		cfg.MaxUpsertRetries = DefaultConfig.MaxUpsertRetries
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(
		cfg.Collection,
		nil, // no collection metadata
		nil, // embeddings are provided, not computed by chromem
	)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Store{col: col, embedder: embedder, cfg: cfg}, nil
}

// Query embeds the query text and returns the topK most similar items.
func (s *Store) Query(ctx context.Context, query string, topK int) ([]core.KnowledgeItem, error) {
	if topK <= 0 {
		topK = 5
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// chromem requires nResults <= collection size; retry with smaller
	// limits until the query fits.
	var results []chromem.Result
	for limit := topK; limit >= 1; limit-- {
		results, err = s.col.QueryEmbedding(ctx, vec, limit, nil, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if limit == 1 {
				log.Printf("[CHROMEM] Collection is empty")
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	items := make([]core.KnowledgeItem, 0, len(results))
	for _, r := range results {
		items = append(items, core.KnowledgeItem{
			ID:       r.ID,
			Title:    r.Metadata["title"],
			Content:  r.Content,
			URL:      r.Metadata["url"],
			Category: r.Metadata["category"],
		})
	}

	log.Printf("[CHROMEM] Query %q returned %d items", truncateLog(query, 50), len(items))
	return items, nil
}

// Upsert indexes an item. Content above the chunk threshold is split into
// sentence-bounded chunks keyed "{id}-chunk-{n}", each embedded and
// inserted separately. Inserts are retried with exponential backoff.
func (s *Store) Upsert(ctx context.Context, item core.KnowledgeItem) error {
	chunks := splitSentenceChunks(item.Content, s.cfg.ChunkThreshold)

	for n, chunk := range chunks {
		id := item.ID
		if len(chunks) > 1 {
			id = fmt.Sprintf("%s-chunk-%d", item.ID, n)
		}

		vec := item.Embedding
		if vec == nil || len(chunks) > 1 {
			var err error
			vec, err = s.embedder.Embed(ctx, chunk)
			if err != nil {
				return fmt.Errorf("embed chunk %s: %w", id, err)
			}
		}

		doc := chromem.Document{
			ID:        id,
			Content:   chunk,
			Embedding: vec,
			Metadata: map[string]string{
				"title":    item.Title,
				"url":      item.URL,
				"category": item.Category,
			},
		}

		insert := func() error {
			return s.col.AddDocument(ctx, doc)
		}
		bo := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.cfg.MaxUpsertRetries), ctx)
		if err := backoff.Retry(insert, bo); err != nil {
			return fmt.Errorf("add document %s: %w", id, err)
		}
	}

	if len(chunks) > 1 {
		log.Printf("[CHROMEM] Indexed %q as %d chunks", item.ID, len(chunks))
	}
	return nil
}

// Count returns the number of indexed documents.
func (s *Store) Count() int {
	return s.col.Count()
}

// isInsufficientDocsError checks if the error is chromem complaining
// that nResults exceeds the collection size.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}

// truncateLog truncates text for logging.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
