package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// BedrockInvoker defines the interface for the Bedrock runtime client.
type BedrockInvoker interface {
	InvokeModel(ctx context.Context, modelID string, prompt string, maxTokens int) (string, error)
}

// BedrockClient completes prompts with Claude via AWS Bedrock.
type BedrockClient struct {
	client  BedrockInvoker
	modelID string
}

// ClaudeResponse represents the response from Claude.
type ClaudeResponse struct {
	Content []ContentBlock `json:"content"`
}

// ContentBlock represents a content block in Claude's response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// DefaultBedrockModelID is Claude 3 Haiku on Bedrock.
const DefaultBedrockModelID = "anthropic.claude-3-haiku-20240307-v1:0"

// NewBedrockClient creates a new BedrockClient.
func NewBedrockClient(client BedrockInvoker, modelID string) *BedrockClient {
	if modelID == "" {
		modelID = DefaultBedrockModelID
	}
	return &BedrockClient{
		client:  client,
		modelID: modelID,
	}
}

// Name returns "bedrock".
func (c *BedrockClient) Name() string {
	return "bedrock"
}

// Complete invokes the model and returns the first text block.
func (c *BedrockClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	response, err := c.client.InvokeModel(ctx, c.modelID, prompt, maxTokens)
	if err != nil {
		return "", &ErrProviderUnavailable{Err: fmt.Errorf("failed to invoke Bedrock: %w", err)}
	}

	result, err := c.parseResponse(response)
	if err != nil {
		return "", &ErrProviderUnavailable{Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return result, nil
}

// parseResponse parses the Claude response JSON.
func (c *BedrockClient) parseResponse(response string) (string, error) {
	var claudeResp ClaudeResponse
	if err := json.Unmarshal([]byte(response), &claudeResp); err != nil {
		return "", err
	}

	for _, block := range claudeResp.Content {
		if block.Type == "" || block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("empty content in response")
}
