// Package ai provides LLM integration for problem generation.
package ai

import (
	"context"
)

// Client is a text completion backend.
type Client interface {
	// Complete sends prompt as a single user message and returns the
	// text of the reply.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)

	// Name identifies the provider, e.g. "anthropic".
	Name() string
}

// defaultTemperature is used for every generation request.
const defaultTemperature = 0.7
