package core

import "time"

// StepKind identifies a stage of an orchestrator run.
type StepKind string

const (
	StepAnalyzing          StepKind = "analyzing"
	StepSearchingMemory    StepKind = "searching_memory"
	StepSearchingKnowledge StepKind = "searching_knowledge"
	StepReranking          StepKind = "reranking"
	StepAssembling         StepKind = "assembling"
	StepGenerating         StepKind = "generating"
	StepComplete           StepKind = "complete"
)

// StepStatus is the lifecycle state of a Step.
// Statuses only move forward: pending -> active -> complete|error.
type StepStatus string

const (
	StatusPending  StepStatus = "pending"
	StatusActive   StepStatus = "active"
	StatusComplete StepStatus = "complete"
	StatusError    StepStatus = "error"
)

// Step is one stage of an orchestrator run. Within a single run at most
// one Step is active at any time.
type Step struct {
	ID          string         `json:"id"`
	Kind        StepKind       `json:"kind"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      StepStatus     `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Details     string         `json:"details,omitempty"`
	Results     []SearchResult `json:"results,omitempty"`
}

// ResultType tags where a piece of evidence came from.
type ResultType string

const (
	ResultMemory    ResultType = "memory"
	ResultKnowledge ResultType = "knowledge"
	ResultWeb       ResultType = "web"
)

// SearchResult is a scored, typed unit of retrieved evidence.
// Immutable once created.
type SearchResult struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Source  string     `json:"source"`
	Score   float64    `json:"score"`
	Type    ResultType `json:"type"`
}

// KnowledgeItem is a document or chunk indexed in the knowledge store.
// Items are created by ingestion and read-only afterwards.
type KnowledgeItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	URL       string    `json:"url"`
	Category  string    `json:"category"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// MemoryType classifies a MemoryRecord.
type MemoryType string

const (
	MemorySearchPattern   MemoryType = "search_pattern"
	MemoryUserContext     MemoryType = "user_context"
	MemoryDomainKnowledge MemoryType = "domain_knowledge"
	MemoryConversation    MemoryType = "conversation"
)

// MemoryMetadata carries provenance and classification for a MemoryRecord.
type MemoryMetadata struct {
	UserID     string   `json:"userId,omitempty"`
	Category   string   `json:"category"`
	Topics     []string `json:"topics,omitempty"`
	Confidence float64  `json:"confidence"`
	Source     string   `json:"source"`
}

// MemoryRecord is a durable observation in the semantic memory store.
// LastAccessed and AccessCount are touched on every read that returns it;
// a record without an embedding is invisible to similarity search but
// still reachable through the keyword fallback.
type MemoryRecord struct {
	ID           string         `json:"id"`
	Type         MemoryType     `json:"type"`
	Content      string         `json:"content"`
	Embedding    []float32      `json:"embedding,omitempty"`
	Metadata     MemoryMetadata `json:"metadata"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastAccessed time.Time      `json:"lastAccessed"`
	AccessCount  int            `json:"accessCount"`
}

// CacheEntry is one row of the semantic query cache.
type CacheEntry struct {
	Query          string          `json:"query"`
	QueryEmbedding []float32       `json:"queryEmbedding,omitempty"`
	Results        []KnowledgeItem `json:"results"`
	Timestamp      time.Time       `json:"timestamp"`
	HitCount       int             `json:"hitCount"`
}
