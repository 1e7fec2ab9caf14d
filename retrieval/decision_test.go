package retrieval_test

import (
	"testing"

	"github.com/avenkit/support-agent/retrieval"
)

func TestParseToolChoice(t *testing.T) {
	tests := []struct {
		reply string
		want  retrieval.ToolChoice
	}{
		{"0", retrieval.ToolVectorSearch},
		{"1", retrieval.ToolKeywordSearch},
		{"2", retrieval.ToolCategorySearch},
		{"3", retrieval.ToolRelatedSearch},
		{"I would pick 2 here.", retrieval.ToolCategorySearch},
		{"Tool: 3\nBecause...", retrieval.ToolRelatedSearch},
		{"", retrieval.ToolKeywordSearch},
		{"vector search please", retrieval.ToolKeywordSearch},
		{"7", retrieval.ToolKeywordSearch},
		{"-1", retrieval.ToolKeywordSearch},
	}
	for _, tt := range tests {
		if got := retrieval.ParseToolChoice(tt.reply); got != tt.want {
			t.Errorf("ParseToolChoice(%q) = %s, want %s", tt.reply, got, tt.want)
		}
	}
}

func TestParseContinueDecision(t *testing.T) {
	tests := []struct {
		reply string
		want  retrieval.ContinueDecision
	}{
		{"no", retrieval.ContinueSearch},
		{"No.", retrieval.ContinueSearch},
		{"NO, we need more", retrieval.ContinueSearch},
		{"yes", retrieval.StopSearch},
		{"Yes, sufficient.", retrieval.StopSearch},
		{"", retrieval.StopSearch},
		{"maybe", retrieval.StopSearch},
		{"not enough", retrieval.StopSearch},
	}
	for _, tt := range tests {
		if got := retrieval.ParseContinueDecision(tt.reply); got != tt.want {
			t.Errorf("ParseContinueDecision(%q) = %d, want %d", tt.reply, got, tt.want)
		}
	}
}

func TestToolChoiceString(t *testing.T) {
	if got := retrieval.ToolVectorSearch.String(); got != "vector_search" {
		t.Errorf("Expected vector_search, got %s", got)
	}
	if got := retrieval.ToolChoice(9).String(); got != "unknown" {
		t.Errorf("Expected unknown, got %s", got)
	}
}
