package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avenkit/support-agent/core"
	"github.com/avenkit/support-agent/embed"
)

// StoreConfig configures the memory store.
type StoreConfig struct {
	// MaxRecords caps the store size (default: 1000).
	MaxRecords int

	// EvictFraction is the share of least recently accessed records
	// dropped when the cap is exceeded (default: 0.10).
	EvictFraction float64
}

// DefaultStoreConfig returns the standard store tuning.
var DefaultStoreConfig = &StoreConfig{
	MaxRecords:    1000,
	EvictFraction: 0.10,
}

// Retrieved pairs a record with its relevance score for one read.
type Retrieved struct {
	Record *core.MemoryRecord
	Score  float64
}

// Store holds durable observations addressed by embedding similarity.
type Store struct {
	mu       sync.Mutex
	embedder embed.Embedder
	records  []*core.MemoryRecord
	cfg      *StoreConfig
}

// NewStore creates an empty memory store.
func NewStore(embedder embed.Embedder, cfg *StoreConfig) *Store {
	if cfg == nil {
		cfg = DefaultStoreConfig
	}
	if cfg.MaxRecords == 0 {
		cfg.MaxRecords = DefaultStoreConfig.MaxRecords
	}
	if cfg.EvictFraction == 0 {
		cfg.EvictFraction = DefaultStoreConfig.EvictFraction
	}
	return &Store{embedder: embedder, cfg: cfg}
}

// Save stores a new observation and returns its id. Embedding is
// best-effort: on failure the record is stored without a vector, which
// leaves it invisible to similarity search but reachable through the
// keyword fallback.
func (s *Store) Save(ctx context.Context, content string, typ core.MemoryType, meta core.MemoryMetadata) (string, error) {
	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		log.Printf("[MEMORY] Embed failed, storing without embedding: %v", err)
		vec = nil
	}

	now := time.Now()
	rec := &core.MemoryRecord{
		ID:           uuid.New().String(),
		Type:         typ,
		Content:      content,
		Embedding:    vec,
		Metadata:     meta,
		CreatedAt:    now,
		LastAccessed: now,
		AccessCount:  1,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if len(s.records) > s.cfg.MaxRecords {
		s.evictLocked()
	}
	return rec.ID, nil
}

// evictLocked drops the least recently accessed EvictFraction of the
// store. Caller holds the lock.
func (s *Store) evictLocked() {
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].LastAccessed.Before(s.records[j].LastAccessed)
	})
	n := int(float64(len(s.records)) * s.cfg.EvictFraction)
	if n < 1 {
		n = 1
	}
	log.Printf("[MEMORY] Evicting %d of %d records", n, len(s.records))
	s.records = s.records[n:]
}

// Read returns up to limit records relevant to query, optionally
// filtered by type (empty means any). Records are ranked by cosine
// similarity; if the query cannot be embedded, ranking falls back to
// keyword overlap. Returned records are touched (LastAccessed,
// AccessCount).
func (s *Store) Read(ctx context.Context, query string, typ core.MemoryType, limit int) ([]Retrieved, error) {
	if limit <= 0 {
		limit = 5
	}

	vec, embedErr := s.embedder.Embed(ctx, query)
	if embedErr != nil {
		log.Printf("[MEMORY] Embed failed, using keyword fallback: %v", embedErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var scored []Retrieved
	for _, rec := range s.records {
		if typ != "" && rec.Type != typ {
			continue
		}
		var score float64
		if embedErr == nil {
			if rec.Embedding == nil {
				continue // not visible to similarity search
			}
			score = CosineSimilarity(vec, rec.Embedding)
		} else {
			score = keywordOverlap(query, rec.Content)
		}
		scored = append(scored, Retrieved{Record: rec, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	now := time.Now()
	for _, r := range scored {
		r.Record.LastAccessed = now
		r.Record.AccessCount++
	}

	log.Printf("[MEMORY] Retrieved %d records for %q", len(scored), truncateLog(query, 50))
	return scored, nil
}

// LearnFromInteraction synthesizes two observations from a completed
// request: a search-pattern note and a domain-knowledge note listing the
// titles found. No oracle call is involved; an empty result set records
// nothing.
func (s *Store) LearnFromInteraction(ctx context.Context, query, answer string, results []core.KnowledgeItem, userID string) error {
	if len(results) == 0 {
		return nil
	}

	category := results[0].Category
	if category == "" {
		category = "general"
	}
	titles := make([]string, 0, len(results))
	for _, r := range results {
		titles = append(titles, r.Title)
	}

	pattern := fmt.Sprintf("Query %q found %d results about %s", query, len(results), category)
	if _, err := s.Save(ctx, pattern, core.MemorySearchPattern, core.MemoryMetadata{
		UserID:     userID,
		Category:   category,
		Topics:     titles,
		Confidence: 0.8,
		Source:     "interaction",
	}); err != nil {
		return fmt.Errorf("save search pattern: %w", err)
	}

	knowledgeNote := fmt.Sprintf("Relevant documents for %q: %s", query, strings.Join(titles, "; "))
	if _, err := s.Save(ctx, knowledgeNote, core.MemoryDomainKnowledge, core.MemoryMetadata{
		UserID:     userID,
		Category:   category,
		Topics:     titles,
		Confidence: 0.7,
		Source:     "interaction",
	}); err != nil {
		return fmt.Errorf("save domain knowledge: %w", err)
	}

	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Clear drops all records.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// truncateLog truncates text for logging.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
