package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/avenkit/support-agent/core"
	"github.com/avenkit/support-agent/embed/mock"
	"github.com/avenkit/support-agent/memory"
)

func TestStoreSaveAndRead(t *testing.T) {
	store := memory.NewStore(mock.New(64), nil)
	ctx := context.Background()

	id, err := store.Save(ctx, "User asked about interest rates", core.MemorySearchPattern, core.MemoryMetadata{
		UserID:     "u1",
		Category:   "rates_fees",
		Confidence: 0.8,
		Source:     "test",
	})
	if err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}
	if id == "" {
		t.Fatal("Expected a non-empty record id")
	}

	got, err := store.Read(ctx, "User asked about interest rates", "", 5)
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(got))
	}
	if got[0].Record.ID != id {
		t.Errorf("Expected record %s, got %s", id, got[0].Record.ID)
	}
	if got[0].Score < 0.99 {
		t.Errorf("Expected near-perfect score for identical text, got %f", got[0].Score)
	}
	if got[0].Record.AccessCount != 2 {
		t.Errorf("Expected access count 2 after save+read, got %d", got[0].Record.AccessCount)
	}
}

func TestStoreTypeFilter(t *testing.T) {
	store := memory.NewStore(mock.New(64), nil)
	ctx := context.Background()

	if _, err := store.Save(ctx, "pattern note", core.MemorySearchPattern, core.MemoryMetadata{}); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}
	if _, err := store.Save(ctx, "context note", core.MemoryUserContext, core.MemoryMetadata{}); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	got, err := store.Read(ctx, "note", core.MemoryUserContext, 5)
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 record after type filter, got %d", len(got))
	}
	if got[0].Record.Type != core.MemoryUserContext {
		t.Errorf("Expected user_context record, got %s", got[0].Record.Type)
	}
}

func TestStoreEvictsWhenFull(t *testing.T) {
	store := memory.NewStore(mock.New(16), &memory.StoreConfig{MaxRecords: 10, EvictFraction: 0.10})
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		if _, err := store.Save(ctx, fmt.Sprintf("observation %d", i), core.MemoryDomainKnowledge, core.MemoryMetadata{}); err != nil {
			t.Fatalf("Failed to save record %d: %v", i, err)
		}
	}

	if got := store.Len(); got != 10 {
		t.Errorf("Expected store capped at 10 records, got %d", got)
	}
}

func TestStoreKeywordFallback(t *testing.T) {
	// Build with a working embedder, then read with a failing one by
	// saving embedding-less records directly via the failing store.
	store := memory.NewStore(failingEmbedder{}, nil)
	ctx := context.Background()

	if _, err := store.Save(ctx, "The cashback rewards program", core.MemoryDomainKnowledge, core.MemoryMetadata{}); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}
	if _, err := store.Save(ctx, "Application approval timing", core.MemoryDomainKnowledge, core.MemoryMetadata{}); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	got, err := store.Read(ctx, "cashback rewards", "", 5)
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records via keyword fallback, got %d", len(got))
	}
	if got[0].Record.Content != "The cashback rewards program" {
		t.Errorf("Expected keyword match ranked first, got %q", got[0].Record.Content)
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("Expected descending scores, got %f then %f", got[0].Score, got[1].Score)
	}
}

func TestLearnFromInteraction(t *testing.T) {
	store := memory.NewStore(mock.New(64), nil)
	ctx := context.Background()

	results := []core.KnowledgeItem{
		{ID: "d1", Title: "Interest Rates", Category: "rates_fees"},
		{ID: "d2", Title: "Fees", Category: "rates_fees"},
	}
	if err := store.LearnFromInteraction(ctx, "what are the rates", "Rates range from...", results, "u1"); err != nil {
		t.Fatalf("Failed to learn from interaction: %v", err)
	}

	if got := store.Len(); got != 2 {
		t.Fatalf("Expected 2 records (pattern + knowledge), got %d", got)
	}

	patterns, err := store.Read(ctx, "what are the rates", core.MemorySearchPattern, 5)
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("Expected 1 search-pattern record, got %d", len(patterns))
	}
	if patterns[0].Record.Metadata.Category != "rates_fees" {
		t.Errorf("Expected category rates_fees, got %q", patterns[0].Record.Metadata.Category)
	}
	if patterns[0].Record.Metadata.Confidence != 0.8 {
		t.Errorf("Expected confidence 0.8, got %f", patterns[0].Record.Metadata.Confidence)
	}
}

func TestLearnFromInteractionEmptyResults(t *testing.T) {
	store := memory.NewStore(mock.New(64), nil)

	if err := store.LearnFromInteraction(context.Background(), "query", "answer", nil, "u1"); err != nil {
		t.Fatalf("Expected no error for empty results, got %v", err)
	}
	if got := store.Len(); got != 0 {
		t.Errorf("Expected nothing recorded for empty results, got %d", got)
	}
}
