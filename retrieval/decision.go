package retrieval

import (
	"strconv"
	"strings"
)

// ToolChoice is the closed set of search tools the oracle can select.
type ToolChoice int

const (
	ToolVectorSearch ToolChoice = iota
	ToolKeywordSearch
	ToolCategorySearch
	ToolRelatedSearch
)

// String returns the tool's wire name.
func (t ToolChoice) String() string {
	switch t {
	case ToolVectorSearch:
		return "vector_search"
	case ToolKeywordSearch:
		return "keyword_search"
	case ToolCategorySearch:
		return "category_search"
	case ToolRelatedSearch:
		return "related_search"
	default:
		return "unknown"
	}
}

// ParseToolChoice reads the oracle's reply as an index into the tool
// set. Missing, non-numeric, or out-of-range replies default to
// keyword_search.
func ParseToolChoice(reply string) ToolChoice {
	token := firstNumber(reply)
	if token == "" {
		return ToolKeywordSearch
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 || n > int(ToolRelatedSearch) {
		return ToolKeywordSearch
	}
	return ToolChoice(n)
}

// firstNumber extracts the first digit run from s.
func firstNumber(s string) string {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}

// ContinueDecision is the outcome of the continuation question
// ("do we have enough to answer?").
type ContinueDecision int

const (
	// StopSearch ends the retrieval loop.
	StopSearch ContinueDecision = iota

	// ContinueSearch runs another iteration.
	ContinueSearch
)

// ParseContinueDecision maps the oracle's answer to a decision. The
// question is "do we have enough?", so only a clear "no" continues the
// search; anything else, including malformed output, stops.
func ParseContinueDecision(reply string) ContinueDecision {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(reply)))
	if len(fields) == 0 {
		return StopSearch
	}
	if strings.Trim(fields[0], ".,!:") == "no" {
		return ContinueSearch
	}
	return StopSearch
}
