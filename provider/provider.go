// Package provider defines the text-generation collaborator. The same
// Generator serves two roles: producing the final grounded answer, and
// acting as the reasoning oracle for small classification sub-tasks
// (tool choice, continue/stop, query reformulation).
package provider

import "context"

// Generator turns prompts into text completions.
type Generator interface {
	// Complete sends a system prompt and a user prompt and returns the
	// completion text. temperature and maxTokens are passed through to
	// the underlying model.
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}
