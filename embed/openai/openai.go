// Package openai implements embed.Embedder against the OpenAI
// embeddings endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const embeddingsURL = "https://api.openai.com/v1/embeddings"

// Config configures the OpenAI embedder.
type Config struct {
	// APIKey is the OpenAI API key. Required.
	APIKey string

	// Model is the embedding model (default: text-embedding-3-small).
	Model string

	// Dimensions is the requested vector size (default: 1024).
	Dimensions int

	// Timeout bounds each HTTP call (default: 15s).
	Timeout time.Duration
}

// Embedder calls the OpenAI embeddings API.
type Embedder struct {
	cfg        Config
	httpClient *http.Client
}

// New creates an OpenAI embedder.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("APIKey is required")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1024
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Embedder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Embed converts text into an embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	requestBody := map[string]interface{}{
		"model":      e.cfg.Model,
		"input":      text,
		"dimensions": e.cfg.Dimensions,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", embeddingsURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings API returned status: %d", resp.StatusCode)
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(apiResp.Data) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}

	return apiResp.Data[0].Embedding, nil
}

// Dimensions returns the configured vector size.
func (e *Embedder) Dimensions() int {
	return e.cfg.Dimensions
}
