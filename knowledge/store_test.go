package knowledge_test

import (
	"context"
	"strings"
	"testing"

	"github.com/avenkit/support-agent/core"
	"github.com/avenkit/support-agent/embed/mock"
	"github.com/avenkit/support-agent/knowledge"
)

func newTestStore(t *testing.T) *knowledge.Store {
	t.Helper()
	store, err := knowledge.New(mock.New(64), &knowledge.Config{Collection: "test"})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestStoreUpsertAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item := core.KnowledgeItem{
		ID:       "rates",
		Title:    "Interest Rates",
		Content:  "Rates range from 7.99% to 15.49% APR.",
		URL:      "https://example.com/rates",
		Category: "rates_fees",
	}
	if err := store.Upsert(ctx, item); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	// The mock embedder maps identical text to identical vectors, so
	// querying with the exact content is a guaranteed top hit.
	got, err := store.Query(ctx, item.Content, 1)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(got))
	}
	if got[0].ID != "rates" || got[0].Category != "rates_fees" || got[0].URL != item.URL {
		t.Errorf("Round trip lost fields: %+v", got[0])
	}
}

func TestStoreQueryEmptyCollection(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Query(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Expected empty result for empty collection, got error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no results, got %d", len(got))
	}
}

func TestStoreQueryShrinksLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, core.KnowledgeItem{ID: "only", Title: "Only", Content: "The only document."}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	// topK exceeds the collection size; the store retries smaller limits.
	got, err := store.Query(ctx, "The only document.", 5)
	if err != nil {
		t.Fatalf("Failed to query past collection size: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 result, got %d", len(got))
	}
}

func TestStoreChunksLargeContent(t *testing.T) {
	store, err := knowledge.New(mock.New(64), &knowledge.Config{Collection: "test", ChunkThreshold: 60})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	ctx := context.Background()

	content := strings.TrimSpace(strings.Repeat("This sentence is about forty characters. ", 4))
	if err := store.Upsert(ctx, core.KnowledgeItem{ID: "big", Title: "Big", Content: content}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	if got := store.Count(); got < 2 {
		t.Errorf("Expected content split into multiple chunks, got %d documents", got)
	}
}

func TestSeed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := knowledge.Seed(ctx, store); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	if got, want := store.Count(), len(knowledge.SeedItems()); got != want {
		t.Errorf("Expected %d seeded documents, got %d", want, got)
	}

	got, err := store.Query(ctx, "The Aven HELOC Credit Card has variable interest rates ranging from "+
		"7.99% to 15.49% APR. The rate can never exceed 18% during the life of the "+
		"account. Enrolling in autopay earns a 0.25% rate discount.", 1)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "rates-overview" {
		t.Errorf("Expected the rates document as top hit, got %v", got)
	}
}
