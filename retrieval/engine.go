// Package retrieval implements the agentic retrieval engine: an
// iterative loop that picks a search tool per iteration, merges the
// evidence it finds, and asks a reasoning oracle whether to keep going.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/avenkit/support-agent/core"
	"github.com/avenkit/support-agent/provider"
)

// KnowledgeSearcher is the slice of the knowledge store the engine needs.
type KnowledgeSearcher interface {
	Query(ctx context.Context, query string, topK int) ([]core.KnowledgeItem, error)
}

// Config configures the engine.
type Config struct {
	// MaxIterations bounds the search loop (default: 3).
	MaxIterations int

	// StopAtResults stops the loop early once this many distinct items
	// have accumulated, regardless of the oracle (default: 8).
	StopAtResults int

	// ReturnLimit caps the returned result list (default: 5).
	ReturnLimit int

	// TopK is the per-tool store query size (default: 5).
	TopK int

	// Categories is the closed taxonomy category_search classifies into.
	Categories []string

	// OracleMaxTokens bounds each oracle call (default: 100).
	OracleMaxTokens int
}

// DefaultCategories is the product-document taxonomy.
var DefaultCategories = []string{
	"rates_fees",
	"product_limits",
	"eligibility",
	"rewards",
	"features",
	"application_process",
	"product_details",
	"protection_services",
	"support",
}

// DefaultConfig returns the standard engine tuning.
var DefaultConfig = &Config{
	MaxIterations:   3,
	StopAtResults:   8,
	ReturnLimit:     5,
	TopK:            5,
	Categories:      DefaultCategories,
	OracleMaxTokens: 100,
}

// Result is the outcome of one Search call.
type Result struct {
	// Results holds up to ReturnLimit items in accumulation order.
	Results []core.KnowledgeItem

	// SearchPath logs one "(iteration, tool, query)" entry per iteration.
	SearchPath []string

	// Confidence is a step function of the distinct result count:
	// 0 -> 0.0, 1 -> 0.5, 2 -> 0.7, 3+ -> 0.9.
	Confidence float64
}

// Engine runs the iterative tool-selection loop.
type Engine struct {
	store  KnowledgeSearcher
	oracle provider.Generator
	cfg    *Config
}

// New creates an engine over the given store and oracle.
func New(store KnowledgeSearcher, oracle provider.Generator, cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = DefaultConfig.MaxIterations
	}
	if cfg.StopAtResults == 0 {
		cfg.StopAtResults = DefaultConfig.StopAtResults
	}
	if cfg.ReturnLimit == 0 {
		cfg.ReturnLimit = DefaultConfig.ReturnLimit
	}
	if cfg.TopK == 0 {
		cfg.TopK = DefaultConfig.TopK
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories
	}
	if cfg.OracleMaxTokens == 0 {
		cfg.OracleMaxTokens = DefaultConfig.OracleMaxTokens
	}
	return &Engine{store: store, oracle: oracle, cfg: cfg}
}

// Search gathers evidence for query. The first iteration always runs
// vector_search; later iterations ask the oracle which tool to use.
// Store failures surface as errors unless evidence was already
// gathered, in which case the loop stops with what it has. Oracle
// failures never surface; each decision has a safe default.
func (e *Engine) Search(ctx context.Context, query string) (*Result, error) {
	var (
		accumulated  []core.KnowledgeItem
		seen         = make(map[string]bool)
		path         []string
		currentQuery = query
	)

	for iteration := 1; iteration <= e.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tool := ToolVectorSearch
		if iteration > 1 {
			tool = e.selectTool(ctx, query, len(accumulated), iteration, path)
		}

		path = append(path, fmt.Sprintf("iteration %d: %s %q", iteration, tool, currentQuery))
		log.Printf("[RETRIEVAL] Iteration %d: %s on %q", iteration, tool, truncateLog(currentQuery, 50))

		items, err := e.runTool(ctx, tool, currentQuery, accumulated)
		if err != nil {
			if len(accumulated) == 0 {
				return nil, fmt.Errorf("%s: %w", tool, err)
			}
			// Partial evidence beats none; stop and return what we have.
			log.Printf("[RETRIEVAL] %s failed after %d results, stopping: %v", tool, len(accumulated), err)
			break
		}

		for _, item := range items {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			accumulated = append(accumulated, item)
		}

		if len(accumulated) >= e.cfg.StopAtResults {
			log.Printf("[RETRIEVAL] %d results accumulated, stopping early", len(accumulated))
			break
		}
		if iteration == e.cfg.MaxIterations {
			break
		}

		if e.shouldStop(ctx, query, accumulated) {
			break
		}

		currentQuery = e.refineQuery(ctx, query, currentQuery, accumulated)
	}

	results := accumulated
	if len(results) > e.cfg.ReturnLimit {
		results = results[:e.cfg.ReturnLimit]
	}

	return &Result{
		Results:    results,
		SearchPath: path,
		Confidence: confidenceFor(len(accumulated)),
	}, nil
}

// selectTool asks the oracle to pick the next tool. Any failure or
// unparsable reply defaults to keyword_search.
func (e *Engine) selectTool(ctx context.Context, query string, resultCount, iteration int, path []string) ToolChoice {
	system := "You select the next search tool for a financial product knowledge base. " +
		"Reply with a single number:\n" +
		"0 = vector_search (semantic similarity)\n" +
		"1 = keyword_search (exact term matching)\n" +
		"2 = category_search (filter by document category)\n" +
		"3 = related_search (expand from results found so far)\n" +
		"Reply with the number only."
	user := fmt.Sprintf("Original question: %s\nResults so far: %d\nIteration: %d\nSearch log:\n%s",
		query, resultCount, iteration, strings.Join(path, "\n"))

	reply, err := e.oracle.Complete(ctx, system, user, 0, e.cfg.OracleMaxTokens)
	if err != nil {
		log.Printf("[RETRIEVAL] Tool selection failed, defaulting to keyword_search: %v", err)
		return ToolKeywordSearch
	}
	return ParseToolChoice(reply)
}

// shouldStop asks the oracle whether enough evidence has been gathered.
// Any failure or non-"no" answer stops the loop.
func (e *Engine) shouldStop(ctx context.Context, query string, accumulated []core.KnowledgeItem) bool {
	system := "You judge whether retrieved documents can answer a question about a financial product. " +
		"Reply \"yes\" if they are sufficient, \"no\" if more searching is needed. One word only."
	var titles []string
	for _, item := range accumulated {
		titles = append(titles, item.Title)
	}
	user := fmt.Sprintf("Question: %s\nRetrieved documents (%d): %s\nDo we have enough to answer?",
		query, len(accumulated), strings.Join(titles, "; "))

	reply, err := e.oracle.Complete(ctx, system, user, 0, e.cfg.OracleMaxTokens)
	if err != nil {
		log.Printf("[RETRIEVAL] Continuation check failed, stopping: %v", err)
		return true
	}
	return ParseContinueDecision(reply) == StopSearch
}

// refineQuery asks the oracle for a narrower query targeting the
// information gap. Failures reuse the original query unchanged.
func (e *Engine) refineQuery(ctx context.Context, original, current string, accumulated []core.KnowledgeItem) string {
	system := "You refine search queries. Given a question and what has been found so far, " +
		"produce one short search query targeting the missing information. Reply with the query only."
	var titles []string
	for _, item := range accumulated {
		titles = append(titles, item.Title)
	}
	user := fmt.Sprintf("Question: %s\nCurrent query: %s\nFound so far: %s",
		original, current, strings.Join(titles, "; "))

	reply, err := e.oracle.Complete(ctx, system, user, 0, e.cfg.OracleMaxTokens)
	if err != nil {
		log.Printf("[RETRIEVAL] Query refinement failed, reusing original: %v", err)
		return original
	}
	refined := strings.TrimSpace(strings.Trim(strings.TrimSpace(reply), `"`))
	if refined == "" {
		return original
	}
	if i := strings.IndexByte(refined, '\n'); i >= 0 {
		refined = refined[:i]
	}
	return refined
}

// confidenceFor maps the distinct result count to a coarse confidence
// score. The steps are load-bearing for downstream consumers; change
// them only together with the callers.
func confidenceFor(count int) float64 {
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

// truncateLog truncates text for logging.
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
