package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/avenkit/support-agent/core"
)

// runTool executes the selected tool against query. accumulated feeds
// related_search its context.
func (e *Engine) runTool(ctx context.Context, tool ToolChoice, query string, accumulated []core.KnowledgeItem) ([]core.KnowledgeItem, error) {
	switch tool {
	case ToolVectorSearch:
		return e.store.Query(ctx, query, e.cfg.TopK)
	case ToolKeywordSearch:
		return e.keywordSearch(ctx, query)
	case ToolCategorySearch:
		return e.categorySearch(ctx, query)
	case ToolRelatedSearch:
		return e.relatedSearch(ctx, query, accumulated)
	default:
		return nil, fmt.Errorf("unknown tool: %s", tool)
	}
}

// keywordSearch tokenizes the query into words of 3+ characters,
// re-queries the store with the joined tokens, and keeps only results
// whose title+content contains at least one token.
func (e *Engine) keywordSearch(ctx context.Context, query string) ([]core.KnowledgeItem, error) {
	tokens := tokenizeQuery(query)
	if len(tokens) == 0 {
		return e.store.Query(ctx, query, e.cfg.TopK)
	}

	items, err := e.store.Query(ctx, strings.Join(tokens, " "), e.cfg.TopK)
	if err != nil {
		return nil, err
	}

	var filtered []core.KnowledgeItem
	for _, item := range items {
		haystack := strings.ToLower(item.Title + " " + item.Content)
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return filtered, nil
}

// categorySearch asks the oracle to pick 1-2 categories for the query,
// then filters store results to those categories. If classification
// fails, results come back unfiltered.
func (e *Engine) categorySearch(ctx context.Context, query string) ([]core.KnowledgeItem, error) {
	items, err := e.store.Query(ctx, query, e.cfg.TopK)
	if err != nil {
		return nil, err
	}

	categories := e.classifyCategories(ctx, query)
	if len(categories) == 0 {
		return items, nil
	}

	var filtered []core.KnowledgeItem
	for _, item := range items {
		for _, cat := range categories {
			if strings.EqualFold(item.Category, cat) {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return filtered, nil
}

// classifyCategories asks the oracle for 1-2 categories out of the
// configured taxonomy. Unknown names are dropped; failure returns nil.
func (e *Engine) classifyCategories(ctx context.Context, query string) []string {
	system := fmt.Sprintf("Pick the 1-2 most relevant categories for this question from: %s. "+
		"Reply with the category names only, comma-separated.", strings.Join(e.cfg.Categories, ", "))

	reply, err := e.oracle.Complete(ctx, system, query, 0, e.cfg.OracleMaxTokens)
	if err != nil {
		log.Printf("[RETRIEVAL] Category classification failed: %v", err)
		return nil
	}

	var picked []string
	for _, raw := range strings.FieldsFunc(reply, func(r rune) bool { return r == ',' || r == '\n' }) {
		name := strings.ToLower(strings.TrimSpace(raw))
		for _, cat := range e.cfg.Categories {
			if name == cat {
				picked = append(picked, cat)
				break
			}
		}
		if len(picked) == 2 {
			break
		}
	}
	return picked
}

// relatedSearch expands from evidence already gathered. With no prior
// context it is a no-op; otherwise the oracle proposes 2-3 related terms
// which re-query the store.
func (e *Engine) relatedSearch(ctx context.Context, query string, accumulated []core.KnowledgeItem) ([]core.KnowledgeItem, error) {
	if len(accumulated) == 0 {
		return nil, nil
	}

	top := accumulated
	if len(top) > 3 {
		top = top[:3]
	}
	var parts []string
	for _, item := range top {
		parts = append(parts, fmt.Sprintf("%s: %s", item.Title, truncateLog(item.Content, 200)))
	}

	system := "Given a question and documents found so far, suggest 2-3 related search terms " +
		"that could surface additional relevant documents. Reply with the terms only, comma-separated."
	user := fmt.Sprintf("Question: %s\nFound so far:\n%s", query, strings.Join(parts, "\n"))

	reply, err := e.oracle.Complete(ctx, system, user, 0, e.cfg.OracleMaxTokens)
	if err != nil {
		log.Printf("[RETRIEVAL] Related-term expansion failed: %v", err)
		return nil, nil
	}

	var terms []string
	for _, raw := range strings.FieldsFunc(reply, func(r rune) bool { return r == ',' || r == '\n' }) {
		if t := strings.TrimSpace(raw); t != "" {
			terms = append(terms, t)
		}
		if len(terms) == 3 {
			break
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}

	return e.store.Query(ctx, strings.Join(terms, " "), e.cfg.TopK)
}

// tokenizeQuery lowercases and splits a query into words of 3+
// characters.
func tokenizeQuery(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var tokens []string
	for _, f := range fields {
		if len(f) >= 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
