// Package anthropic implements provider.Generator on the Claude
// Messages API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// Client wraps an Anthropic API client as a provider.Generator.
type Client struct {
	api   *anthropic.Client
	model string
}

// Option configures the client.
type Option func(*Client)

// WithModel overrides the default Claude model.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// New creates a Generator backed by the given Anthropic client.
func New(api *anthropic.Client, opts ...Option) *Client {
	c := &Client{
		api:   api,
		model: "claude-sonnet-4-20250514",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends a single-turn message and returns the concatenated
// text blocks of the response.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if maxTokens == 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	resp, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
