// Command avend runs the Aven support-agent HTTP server.
//
// Configuration comes from the environment (a .env file is loaded when
// present):
//
//	ANTHROPIC_API_KEY   required, answer generation and retrieval oracle
//	OPENAI_API_KEY      optional, real embeddings (mock embedder without it)
//	TRACE_BASE_URL      optional, observability sink
//	TRACE_PUBLIC_KEY    trace sink basic-auth user
//	TRACE_SECRET_KEY    trace sink basic-auth password
//	MEM0_BASE_URL       optional, conversation-memory service
//	MEM0_API_KEY        conversation-memory auth token
//	PORT                listen port (default 8080)
package main

import (
	"context"
	"log"
	"os"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/joho/godotenv"

	"github.com/avenkit/support-agent/convmem"
	"github.com/avenkit/support-agent/embed"
	"github.com/avenkit/support-agent/embed/mock"
	"github.com/avenkit/support-agent/embed/openai"
	"github.com/avenkit/support-agent/knowledge"
	"github.com/avenkit/support-agent/memory"
	"github.com/avenkit/support-agent/orchestrator"
	"github.com/avenkit/support-agent/provider"
	"github.com/avenkit/support-agent/provider/anthropic"
	"github.com/avenkit/support-agent/retrieval"
	"github.com/avenkit/support-agent/server"
	"github.com/avenkit/support-agent/trace"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[MAIN] No .env file found, using environment as-is")
	}

	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	if anthropicKey == "" {
		log.Fatal("[MAIN] ANTHROPIC_API_KEY is required")
	}

	embedder := buildEmbedder()
	generator := buildGenerator(anthropicKey)

	store, err := knowledge.New(embedder, nil)
	if err != nil {
		log.Fatalf("[MAIN] Failed to create knowledge store: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := knowledge.Seed(ctx, store); err != nil {
		cancel()
		log.Fatalf("[MAIN] Failed to seed knowledge store: %v", err)
	}
	cancel()

	cache := memory.NewCache(embedder, nil)
	mem := memory.NewStore(embedder, nil)
	engine := retrieval.New(store, generator, nil)

	opts := []orchestrator.Option{}
	if baseURL := os.Getenv("TRACE_BASE_URL"); baseURL != "" {
		sink := trace.New(trace.Config{
			BaseURL:   baseURL,
			PublicKey: os.Getenv("TRACE_PUBLIC_KEY"),
			SecretKey: os.Getenv("TRACE_SECRET_KEY"),
		})
		opts = append(opts, orchestrator.WithTraceSink(sink))
	}
	if baseURL := os.Getenv("MEM0_BASE_URL"); baseURL != "" {
		conv, err := convmem.New(convmem.Config{
			BaseURL: baseURL,
			APIKey:  os.Getenv("MEM0_API_KEY"),
		})
		if err != nil {
			log.Fatalf("[MAIN] Failed to create conversation memory client: %v", err)
		}
		opts = append(opts, orchestrator.WithConversationLogger(conv))
	}

	orch := orchestrator.New(cache, mem, store, engine, generator, nil, opts...)

	cfg := &server.Config{}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	srv := server.New(orch, cfg)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("[MAIN] Server failed: %v", err)
	}
}

// buildEmbedder returns the OpenAI embedder when a key is configured,
// otherwise the deterministic mock (useful for local development).
func buildEmbedder() embed.Embedder {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		log.Printf("[MAIN] OPENAI_API_KEY not set, using mock embedder")
		return mock.New(0)
	}

	inner, err := openai.New(openai.Config{APIKey: key})
	if err != nil {
		log.Fatalf("[MAIN] Failed to create embedder: %v", err)
	}
	cached, err := embed.NewCached(inner)
	if err != nil {
		log.Fatalf("[MAIN] Failed to create embedding cache: %v", err)
	}
	return cached
}

func buildGenerator(apiKey string) provider.Generator {
	api := anthropicsdk.NewClient(option.WithAPIKey(apiKey))
	var opts []anthropic.Option
	if model := os.Getenv("ANTHROPIC_MODEL"); model != "" {
		opts = append(opts, anthropic.WithModel(model))
	}
	return anthropic.New(&api, opts...)
}
