package ai

import (
	"fmt"
	"strings"
)

// Provider names accepted by NewClient.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderBedrock   = "bedrock"
)

// ProviderOptions carries the credentials for every supported provider.
// Bedrock is used only when Bedrock is non-nil.
type ProviderOptions struct {
	Provider        string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	Bedrock         BedrockInvoker
	BedrockModelID  string
}

// NewClient builds the client named by opts.Provider. With no provider
// named, the first one with credentials wins, in the order anthropic,
// openai, bedrock. Returns ErrNotConfigured when none is usable.
func NewClient(opts ProviderOptions) (Client, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Provider))
	if name == "" {
		switch {
		case opts.AnthropicAPIKey != "":
			name = ProviderAnthropic
		case opts.OpenAIAPIKey != "":
			name = ProviderOpenAI
		case opts.Bedrock != nil:
			name = ProviderBedrock
		default:
			return nil, ErrNotConfigured
		}
	}

	switch name {
	case ProviderAnthropic:
		if opts.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is not set", ErrNotConfigured)
		}
		c, err := NewAnthropicClient(opts.AnthropicAPIKey, opts.AnthropicModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrNotConfigured)
		}
		c, err := NewOpenAIClient(opts.OpenAIAPIKey, opts.OpenAIModel, opts.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderBedrock:
		if opts.Bedrock == nil {
			return nil, fmt.Errorf("%w: bedrock is not enabled", ErrNotConfigured)
		}
		return NewBedrockClient(opts.Bedrock, opts.BedrockModelID), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", opts.Provider)
	}
}
