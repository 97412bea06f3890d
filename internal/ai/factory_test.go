package ai

import (
	"errors"
	"testing"

	"github.com/kyiku/caritas-study-back/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	bedrock := testutil.NewMockBedrockClient()

	tests := []struct {
		name     string
		opts     ProviderOptions
		wantName string
		wantErr  error
		anyErr   bool
	}{
		{
			name:    "何も設定されていない",
			opts:    ProviderOptions{},
			wantErr: ErrNotConfigured,
		},
		{
			name:     "Anthropicが優先される",
			opts:     ProviderOptions{AnthropicAPIKey: "a", OpenAIAPIKey: "o", Bedrock: bedrock},
			wantName: ProviderAnthropic,
		},
		{
			name:     "OpenAIのみ",
			opts:     ProviderOptions{OpenAIAPIKey: "o"},
			wantName: ProviderOpenAI,
		},
		{
			name:     "Bedrockのみ",
			opts:     ProviderOptions{Bedrock: bedrock},
			wantName: ProviderBedrock,
		},
		{
			name:     "明示指定が優先される",
			opts:     ProviderOptions{Provider: "Bedrock", AnthropicAPIKey: "a", Bedrock: bedrock},
			wantName: ProviderBedrock,
		},
		{
			name:    "明示指定したプロバイダの認証情報がない",
			opts:    ProviderOptions{Provider: "openai", AnthropicAPIKey: "a"},
			wantErr: ErrNotConfigured,
		},
		{
			name:   "未知のプロバイダ",
			opts:   ProviderOptions{Provider: "gemini"},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.opts)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, client)
				return
			}
			if tt.anyErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, client.Name())
		})
	}
}
