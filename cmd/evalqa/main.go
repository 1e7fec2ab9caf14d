// Command evalqa runs a question set through the full pipeline and
// scores the answers against expected facts. It needs ANTHROPIC_API_KEY
// (and optionally OPENAI_API_KEY for real embeddings; the mock embedder
// is used otherwise).
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/joho/godotenv"

	"github.com/avenkit/support-agent/embed"
	"github.com/avenkit/support-agent/embed/mock"
	"github.com/avenkit/support-agent/embed/openai"
	"github.com/avenkit/support-agent/knowledge"
	"github.com/avenkit/support-agent/memory"
	"github.com/avenkit/support-agent/orchestrator"
	"github.com/avenkit/support-agent/provider/anthropic"
	"github.com/avenkit/support-agent/retrieval"
)

// evalCase is one scored question. An answer passes when it contains
// every expected substring (case-insensitive).
type evalCase struct {
	category string
	question string
	expected []string
}

var cases = []evalCase{
	{"rates_fees", "What interest rate will I pay on the Aven card?", []string{"7.99", "15.49"}},
	{"rates_fees", "Is there an annual fee?", []string{"no annual fee"}},
	{"rates_fees", "How much does a balance transfer cost?", []string{"2.5%"}},
	{"product_limits", "What's the highest credit line I can get?", []string{"250,000"}},
	{"eligibility", "What credit score do I need to qualify?", []string{"600"}},
	{"eligibility", "Is there a minimum income requirement?", []string{"50,000"}},
	{"rewards", "How much cashback do I earn on purchases?", []string{"2%"}},
	{"rewards", "What do I earn on travel bookings?", []string{"7%"}},
	{"application_process", "How long does approval take?", []string{"5 minutes"}},
	{"product_details", "Which bank issues the card?", []string{"Coastal Community Bank"}},
}

func main() {
	godotenv.Load()

	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	if anthropicKey == "" {
		log.Fatal("[EVAL] ANTHROPIC_API_KEY is required")
	}

	var embedder embed.Embedder = mock.New(0)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		e, err := openai.New(openai.Config{APIKey: key})
		if err != nil {
			log.Fatalf("[EVAL] Failed to create embedder: %v", err)
		}
		embedder = e
	}

	api := anthropicsdk.NewClient(option.WithAPIKey(anthropicKey))
	generator := anthropic.New(&api)

	store, err := knowledge.New(embedder, nil)
	if err != nil {
		log.Fatalf("[EVAL] Failed to create knowledge store: %v", err)
	}
	if err := knowledge.Seed(context.Background(), store); err != nil {
		log.Fatalf("[EVAL] Failed to seed knowledge store: %v", err)
	}

	orch := orchestrator.New(
		memory.NewCache(embedder, nil),
		memory.NewStore(embedder, nil),
		store,
		retrieval.New(store, generator, nil),
		generator,
		nil,
	)

	passed := 0
	byCategory := make(map[string][2]int) // passed, total
	for i, c := range cases {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		start := time.Now()
		result, err := orch.Process(ctx, c.question, "evalqa", nil)
		cancel()

		counts := byCategory[c.category]
		counts[1]++
		if err != nil {
			fmt.Printf("[%2d] FAIL (%s) %q: %v\n", i+1, c.category, c.question, err)
			byCategory[c.category] = counts
			continue
		}

		missing := missingFacts(result.Answer, c.expected)
		if len(missing) == 0 {
			passed++
			counts[0]++
			fmt.Printf("[%2d] PASS (%s) %q in %s\n", i+1, c.category, c.question, time.Since(start).Round(time.Millisecond))
		} else {
			fmt.Printf("[%2d] FAIL (%s) %q: missing %v\n", i+1, c.category, c.question, missing)
			fmt.Printf("     answer: %s\n", result.Answer)
		}
		byCategory[c.category] = counts
	}

	fmt.Printf("\n%d/%d passed (%.0f%%)\n", passed, len(cases), 100*float64(passed)/float64(len(cases)))
	for cat, counts := range byCategory {
		fmt.Printf("  %-20s %d/%d\n", cat, counts[0], counts[1])
	}
	if passed < len(cases) {
		os.Exit(1)
	}
}

// missingFacts returns the expected substrings absent from answer.
func missingFacts(answer string, expected []string) []string {
	lower := strings.ToLower(answer)
	var missing []string
	for _, e := range expected {
		if !strings.Contains(lower, strings.ToLower(e)) {
			missing = append(missing, e)
		}
	}
	return missing
}
