// Package convmem is a client for the external conversation-memory
// service, which stores raw chat exchanges per user. It is distinct
// from the in-process semantic memory store and used only by the
// orchestrator.
package convmem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Record is a stored conversation memory returned by Search.
type Record struct {
	ID     string  `json:"id"`
	Memory string  `json:"memory"`
	Score  float64 `json:"score"`
}

// Config configures the client.
type Config struct {
	// BaseURL of the conversation-memory service. Required.
	BaseURL string

	// APIKey authenticates requests.
	APIKey string

	// Timeout bounds each HTTP call (default: 10s).
	Timeout time.Duration
}

// Client talks to the conversation-memory REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New creates a conversation-memory client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Add stores a conversation exchange for a user.
func (c *Client) Add(ctx context.Context, messages []Message, userID string, metadata map[string]string) error {
	payload := map[string]interface{}{
		"messages": messages,
		"user_id":  userID,
		"metadata": metadata,
	}
	return c.do(ctx, "POST", "/v1/memories/", payload, nil)
}

// Search returns stored memories relevant to query for a user.
func (c *Client) Search(ctx context.Context, query, userID string) ([]Record, error) {
	payload := map[string]interface{}{
		"query":   query,
		"user_id": userID,
	}
	var out struct {
		Results []Record `json:"results"`
	}
	if err := c.do(ctx, "POST", "/v1/memories/search/", payload, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// DeleteAll removes every memory for a user.
func (c *Client) DeleteAll(ctx context.Context, userID string) error {
	path := "/v1/memories/?user_id=" + url.QueryEscape(userID)
	return c.do(ctx, "DELETE", path, nil, nil)
}

// do issues one JSON request against the service.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body *bytes.Buffer
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Token "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("memory API returned status: %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
