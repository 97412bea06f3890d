package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient(t *testing.T) {
	_, err := NewOpenAIClient("", "", "")
	assert.Error(t, err)

	client, err := NewOpenAIClient("sk-test", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, client.model)
	assert.Equal(t, "openai", client.Name())
}

func TestOpenAIClient_Complete(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		want       string
		wantAPIErr bool
		wantErr    bool
	}{
		{
			name:   "正常系: contentを返す",
			status: http.StatusOK,
			body: `{"id":"chatcmpl-1","object":"chat.completion","choices":[` +
				`{"index":0,"message":{"role":"assistant","content":"{\"word\":\"apple\"}"},"finish_reason":"stop"}]}`,
			want: `{"word":"apple"}`,
		},
		{
			name:       "異常系: レート制限は402扱いのAPIエラー",
			status:     http.StatusTooManyRequests,
			body:       `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`,
			wantAPIErr: true,
			wantErr:    true,
		},
		{
			name:    "異常系: サーバーエラー",
			status:  http.StatusInternalServerError,
			body:    `{"error":{"message":"internal","type":"server_error"}}`,
			wantErr: true,
		},
		{
			name:    "異常系: choicesが空",
			status:  http.StatusOK,
			body:    `{"id":"chatcmpl-2","object":"chat.completion","choices":[]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReq map[string]interface{}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&gotReq)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewOpenAIClient("sk-test", "gpt-test", server.URL)
			require.NoError(t, err)

			result, err := client.Complete(context.Background(), "問題を作って", 1500)

			require.NotNil(t, gotReq)
			assert.Equal(t, "gpt-test", gotReq["model"])

			if tt.wantErr {
				require.Error(t, err)
				var apiErr *ErrAPI
				assert.Equal(t, tt.wantAPIErr, errors.As(err, &apiErr))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}
