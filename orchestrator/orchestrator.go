// Package orchestrator runs the answer pipeline: analyze the question,
// gather evidence from memory and the knowledge base concurrently,
// rerank, assemble a grounded context, and generate the final answer,
// streaming step-by-step progress to the caller along the way.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/avenkit/support-agent/convmem"
	"github.com/avenkit/support-agent/core"
	"github.com/avenkit/support-agent/memory"
	"github.com/avenkit/support-agent/provider"
	"github.com/avenkit/support-agent/retrieval"
)

// SemanticCache is the slice of the query cache the orchestrator needs.
type SemanticCache interface {
	Check(ctx context.Context, query string) []core.KnowledgeItem
	Add(ctx context.Context, query string, results []core.KnowledgeItem)
}

// MemoryStore is the slice of the semantic memory store the
// orchestrator needs.
type MemoryStore interface {
	Read(ctx context.Context, query string, typ core.MemoryType, limit int) ([]memory.Retrieved, error)
	LearnFromInteraction(ctx context.Context, query, answer string, results []core.KnowledgeItem, userID string) error
}

// KnowledgeSearcher is the basic vector lookup used as the last
// evidence fallback.
type KnowledgeSearcher interface {
	Query(ctx context.Context, query string, topK int) ([]core.KnowledgeItem, error)
}

// Retriever runs the agentic multi-iteration search.
type Retriever interface {
	Search(ctx context.Context, query string) (*retrieval.Result, error)
}

// TraceSink receives observability records for a run. trace.Client
// satisfies it; tests substitute their own.
type TraceSink interface {
	StartTrace(sessionID, userID, input string) string
	Event(traceID, name string, metadata map[string]interface{})
	EndTrace(traceID, output string, metadata map[string]interface{})
}

// ConversationLogger records the raw exchange with the external
// conversation-memory service.
type ConversationLogger interface {
	Add(ctx context.Context, messages []convmem.Message, userID string, metadata map[string]string) error
}

// Config configures the orchestrator.
type Config struct {
	// MemoryLimit is how many memory records feed the context (default: 3).
	MemoryLimit int

	// TopK is the fallback vector-search size (default: 5).
	TopK int

	// ContextBudget caps the assembled context in characters (default: 8000).
	ContextBudget int

	// GenTemperature and GenMaxTokens tune the answer generation call.
	GenTemperature float64
	GenMaxTokens   int
}

// DefaultConfig returns the standard orchestrator tuning.
var DefaultConfig = &Config{
	MemoryLimit:    3,
	TopK:           5,
	ContextBudget:  8000,
	GenTemperature: 0.3,
	GenMaxTokens:   1024,
}

// Result is the outcome of one Process call.
type Result struct {
	Answer        string              `json:"answer"`
	Sources       []core.SearchResult `json:"sources"`
	Steps         []core.Step         `json:"steps"`
	SearchResults []core.SearchResult `json:"searchResults"`
	TraceID       string              `json:"traceId,omitempty"`
}

// Orchestrator wires the pipeline's collaborators together.
type Orchestrator struct {
	cache     SemanticCache
	mem       MemoryStore
	knowledge KnowledgeSearcher
	retriever Retriever
	generator provider.Generator
	sink      TraceSink
	conv      ConversationLogger
	cfg       *Config
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithTraceSink attaches an observability sink.
func WithTraceSink(sink TraceSink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithConversationLogger attaches the external conversation-memory
// client.
func WithConversationLogger(conv ConversationLogger) Option {
	return func(o *Orchestrator) { o.conv = conv }
}

// New creates an orchestrator. cache, mem, retriever and the options
// may be nil; knowledge and generator are required.
func New(cache SemanticCache, mem MemoryStore, knowledge KnowledgeSearcher, retriever Retriever, generator provider.Generator, cfg *Config, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig
	}
	if cfg.MemoryLimit == 0 {
		cfg.MemoryLimit = DefaultConfig.MemoryLimit
	}
	if cfg.TopK == 0 {
		cfg.TopK = DefaultConfig.TopK
	}
	if cfg.ContextBudget == 0 {
		cfg.ContextBudget = DefaultConfig.ContextBudget
	}
	if cfg.GenTemperature == 0 {
		cfg.GenTemperature = DefaultConfig.GenTemperature
	}
	if cfg.GenMaxTokens == 0 {
		cfg.GenMaxTokens = DefaultConfig.GenMaxTokens
	}

	o := &Orchestrator{
		cache:     cache,
		mem:       mem,
		knowledge: knowledge,
		retriever: retriever,
		generator: generator,
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// evidence is what the knowledge side of the fan-out produces.
type evidence struct {
	items      []core.KnowledgeItem
	fromCache  bool
	provider   string
	confidence float64
	path       []string
	err        error
}

// Process answers query for userID, invoking onProgress after every
// step change. Known high-frequency questions return instantly with no
// steps and no trace. Memory failures degrade silently; a knowledge
// failure or generation failure errors the active step and surfaces.
func (o *Orchestrator) Process(ctx context.Context, query, userID string, onProgress ProgressFunc) (*Result, error) {
	if answer, ok := lookupInstant(query); ok {
		log.Printf("[ORCH] Instant answer for %q", truncateLog(query, 50))
		return &Result{Answer: answer}, nil
	}

	var traceID string
	if o.sink != nil {
		traceID = o.sink.StartTrace(uuid.New().String(), userID, query)
	}

	tracker := newStepTracker(onProgress)

	// Analysis is local and cheap; no oracle call.
	analyzing := tracker.add(core.StepAnalyzing, "Analyzing question", "Identifying key terms and likely topic")
	tracker.activate(analyzing)
	tracker.complete(analyzing, analyzeQuery(query), nil)

	memCh := make(chan []core.SearchResult, 1)
	evCh := make(chan evidence, 1)
	go func() { memCh <- o.searchMemory(ctx, query) }()
	go func() { evCh <- o.gatherEvidence(ctx, query) }()

	// The goroutines above run concurrently, but step status changes and
	// progress callbacks stay sequential on this goroutine.
	memStep := tracker.add(core.StepSearchingMemory, "Searching memory", "Looking for relevant prior context")
	tracker.activate(memStep)
	memResults := <-memCh
	tracker.complete(memStep, fmt.Sprintf("Found %d memories", len(memResults)), memResults)

	knowStep := tracker.add(core.StepSearchingKnowledge, "Searching knowledge base", "Retrieving product documentation")
	tracker.activate(knowStep)
	ev := <-evCh
	if ev.err != nil {
		tracker.fail(knowStep, fmt.Sprintf("Knowledge search failed: %v", ev.err))
		o.endTrace(traceID, "", map[string]interface{}{"success": false, "error": ev.err.Error()})
		return nil, fmt.Errorf("knowledge search: %w", ev.err)
	}
	knowResults := knowledgeResults(ev.items)
	tracker.complete(knowStep, fmt.Sprintf("Found %d documents via %s", len(ev.items), ev.provider), knowResults)
	if o.sink != nil {
		o.sink.Event(traceID, "retrieval", map[string]interface{}{
			"provider":   ev.provider,
			"results":    len(ev.items),
			"confidence": ev.confidence,
			"searchPath": ev.path,
		})
	}

	rerank := tracker.add(core.StepReranking, "Reranking results", "Ordering evidence by relevance")
	tracker.activate(rerank)
	merged := rerankResults(memResults, knowResults)
	tracker.setResults(merged)
	tracker.complete(rerank, fmt.Sprintf("Ranked %d results", len(merged)), nil)

	assemble := tracker.add(core.StepAssembling, "Assembling context", "Building grounded context for generation")
	tracker.activate(assemble)
	contextText := o.assembleContext(memResults, ev.items)
	tracker.complete(assemble, fmt.Sprintf("Context: %d characters", len(contextText)), nil)

	generating := tracker.add(core.StepGenerating, "Generating answer", "Composing the response")
	tracker.activate(generating)
	answer, err := o.generator.Complete(ctx, answerSystemPrompt, buildUserPrompt(query, contextText), o.cfg.GenTemperature, o.cfg.GenMaxTokens)
	if err != nil {
		tracker.fail(generating, fmt.Sprintf("Generation failed: %v", err))
		o.endTrace(traceID, "", map[string]interface{}{"success": false, "error": err.Error()})
		return nil, fmt.Errorf("answer generation: %w", err)
	}
	tracker.complete(generating, fmt.Sprintf("Answer: %d characters", len(answer)), nil)
	if o.sink != nil {
		o.sink.Event(traceID, "generation", map[string]interface{}{
			"answerLength":  len(answer),
			"contextLength": len(contextText),
		})
	}

	done := tracker.add(core.StepComplete, "Complete", "Answer ready")
	tracker.activate(done)
	tracker.complete(done, "", nil)

	o.recordInteraction(ctx, query, answer, ev, userID)
	o.endTrace(traceID, answer, map[string]interface{}{
		"success":    true,
		"provider":   ev.provider,
		"confidence": ev.confidence,
		"sources":    len(ev.items),
	})

	return &Result{
		Answer:        answer,
		Sources:       knowResults,
		Steps:         tracker.steps,
		SearchResults: tracker.results,
		TraceID:       traceID,
	}, nil
}

// searchMemory reads prior context from the memory store. All failures
// degrade to an empty result; memory is never load-bearing.
func (o *Orchestrator) searchMemory(ctx context.Context, query string) []core.SearchResult {
	if o.mem == nil {
		return nil
	}
	retrieved, err := o.mem.Read(ctx, query, "", o.cfg.MemoryLimit)
	if err != nil {
		log.Printf("[ORCH] Memory read failed, continuing without: %v", err)
		return nil
	}

	results := make([]core.SearchResult, 0, len(retrieved))
	for _, r := range retrieved {
		results = append(results, core.SearchResult{
			ID:      r.Record.ID,
			Title:   fmt.Sprintf("Memory (%s)", r.Record.Type),
			Content: r.Record.Content,
			Source:  "memory",
			Score:   r.Score,
			Type:    core.ResultMemory,
		})
	}
	return results
}

// gatherEvidence tries the evidence providers in order: semantic cache,
// agentic retrieval, then a basic vector search. The first provider
// that yields results wins; a provider error falls through to the next,
// and only the final fallback's error is terminal.
func (o *Orchestrator) gatherEvidence(ctx context.Context, query string) evidence {
	if o.cache != nil {
		if items := o.cache.Check(ctx, query); len(items) > 0 {
			return evidence{
				items:      items,
				fromCache:  true,
				provider:   "cache",
				confidence: knowledgeConfidence(len(items)),
			}
		}
	}

	if o.retriever != nil {
		res, err := o.retriever.Search(ctx, query)
		if err != nil {
			log.Printf("[ORCH] Agentic retrieval failed, falling back to vector search: %v", err)
		} else {
			return evidence{
				items:      res.Results,
				provider:   "agentic",
				confidence: res.Confidence,
				path:       res.SearchPath,
			}
		}
	}

	items, err := o.knowledge.Query(ctx, query, o.cfg.TopK)
	if err != nil {
		return evidence{err: err}
	}
	return evidence{
		items:      items,
		provider:   "vector",
		confidence: knowledgeConfidence(len(items)),
	}
}

// recordInteraction runs the post-answer side effects. None of them can
// fail the request.
func (o *Orchestrator) recordInteraction(ctx context.Context, query, answer string, ev evidence, userID string) {
	if o.cache != nil && !ev.fromCache && len(ev.items) > 0 {
		o.cache.Add(ctx, query, ev.items)
	}
	if o.mem != nil {
		if err := o.mem.LearnFromInteraction(ctx, query, answer, ev.items, userID); err != nil {
			log.Printf("[ORCH] Learning from interaction failed: %v", err)
		}
	}
	if o.conv != nil {
		messages := []convmem.Message{
			{Role: "user", Content: query},
			{Role: "assistant", Content: answer},
		}
		if err := o.conv.Add(ctx, messages, userID, map[string]string{"provider": ev.provider}); err != nil {
			log.Printf("[ORCH] Conversation memory add failed: %v", err)
		}
	}
}

func (o *Orchestrator) endTrace(traceID, output string, metadata map[string]interface{}) {
	if o.sink == nil {
		return
	}
	o.sink.EndTrace(traceID, output, metadata)
}

// assembleContext builds the grounded context: prior memories first,
// then the knowledge documents, truncated to the configured budget.
func (o *Orchestrator) assembleContext(memResults []core.SearchResult, items []core.KnowledgeItem) string {
	var b strings.Builder

	if len(memResults) == 0 {
		b.WriteString("No prior user context.\n")
	} else {
		b.WriteString("Prior context:\n")
		for _, r := range memResults {
			b.WriteString("- " + r.Content + "\n")
		}
	}

	if len(items) == 0 {
		b.WriteString("\nNo product documentation was found for this question.\n")
	} else {
		b.WriteString("\nProduct documentation:\n")
		for _, item := range items {
			b.WriteString(fmt.Sprintf("## %s\n%s\n\n", item.Title, item.Content))
			if b.Len() > o.cfg.ContextBudget {
				break
			}
		}
	}

	text := b.String()
	if len(text) > o.cfg.ContextBudget {
		text = text[:o.cfg.ContextBudget]
	}
	return text
}

const answerSystemPrompt = "You are a support agent for the Aven HELOC Credit Card. " +
	"Answer using only the provided context. Be concise and specific; quote exact " +
	"numbers (rates, fees, limits) when the context contains them. If the context " +
	"does not cover the question, say so and suggest contacting support."

func buildUserPrompt(query, contextText string) string {
	return fmt.Sprintf("Context:\n%s\nQuestion: %s", contextText, query)
}

// knowledgeResults converts knowledge items to scored search results.
// Scores are positional: the store and engine both return items in
// relevance order without raw scores.
func knowledgeResults(items []core.KnowledgeItem) []core.SearchResult {
	results := make([]core.SearchResult, 0, len(items))
	for i, item := range items {
		score := 0.9 - 0.05*float64(i)
		if score < 0.5 {
			score = 0.5
		}
		source := item.URL
		if source == "" {
			source = "knowledge"
		}
		results = append(results, core.SearchResult{
			ID:      item.ID,
			Title:   item.Title,
			Content: item.Content,
			Source:  source,
			Score:   score,
			Type:    core.ResultKnowledge,
		})
	}
	return results
}

// rerankResults merges memory and knowledge evidence into one list
// ordered by score, highest first. The sort is stable so equal scores
// keep their provider order.
func rerankResults(memResults, knowResults []core.SearchResult) []core.SearchResult {
	merged := make([]core.SearchResult, 0, len(memResults)+len(knowResults))
	merged = append(merged, memResults...)
	merged = append(merged, knowResults...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged
}

// knowledgeConfidence maps a result count to the coarse confidence
// scale used across the pipeline.
func knowledgeConfidence(count int) float64 {
	switch {
	case count <= 0:
		return 0.0
	case count == 1:
		return 0.5
	case count == 2:
		return 0.7
	default:
		return 0.9
	}
}

// analyzeQuery produces a short local description of the question for
// the analysis step.
func analyzeQuery(query string) string {
	topics := []struct {
		name  string
		words []string
	}{
		{"rates_fees", []string{"rate", "apr", "fee", "interest"}},
		{"rewards", []string{"cashback", "cash back", "points", "travel"}},
		{"eligibility", []string{"qualify", "eligib", "credit score", "income"}},
		{"product_limits", []string{"limit", "maximum"}},
		{"application_process", []string{"apply", "application", "approval"}},
		{"support", []string{"contact", "help", "phone"}},
	}

	q := strings.ToLower(query)
	topic := "general"
outer:
	for _, t := range topics {
		for _, w := range t.words {
			if strings.Contains(q, w) {
				topic = t.name
				break outer
			}
		}
	}
	return fmt.Sprintf("%d terms; likely topic: %s", len(strings.Fields(query)), topic)
}

// truncateLog truncates text for logging.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
