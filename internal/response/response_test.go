package response

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kyiku/caritas-study-back/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_Success(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]interface{}
		wantFields []string
	}{
		{
			name: "正常系: 基本的な成功レスポンス",
			data: map[string]interface{}{
				"problem_id": "abc123",
				"message":    "成功しました",
			},
			wantFields: []string{"success", "problem_id", "message"},
		},
		{
			name:       "正常系: 空のデータ",
			data:       map[string]interface{}{},
			wantFields: []string{"success"},
		},
		{
			name: "正常系: successは上書きできない",
			data: map[string]interface{}{
				"success": false,
				"problem": map[string]interface{}{"id": "123"},
			},
			wantFields: []string{"success", "problem"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := testutil.NewTestContext(http.MethodGet, "/", nil)

			err := Success(tc.Context, tt.data)

			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, tc.Recorder.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(tc.Recorder.Body.Bytes(), &resp))

			assert.Equal(t, true, resp["success"])
			for _, field := range tt.wantFields {
				assert.Contains(t, resp, field)
			}
		})
	}
}

func TestResponse_SuccessWithStatus(t *testing.T) {
	tc := testutil.NewTestContext(http.MethodPost, "/", nil)

	err := SuccessWithStatus(tc.Context, http.StatusCreated, map[string]interface{}{"word": "apple"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, tc.Recorder.Code)
	resp := tc.GetResponseBody()
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "apple", resp["word"])
}

func TestResponse_Error(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		message    string
	}{
		{
			name:       "BadRequest",
			statusCode: http.StatusBadRequest,
			message:    "プロンプトが指定されていません",
		},
		{
			name:       "PaymentRequired",
			statusCode: http.StatusPaymentRequired,
			message:    "API利用制限に達しました",
		},
		{
			name:       "ServiceUnavailable",
			statusCode: http.StatusServiceUnavailable,
			message:    "AI機能が利用できません",
		},
		{
			name:       "InternalServerError",
			statusCode: http.StatusInternalServerError,
			message:    "サーバーエラーが発生しました",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := testutil.NewTestContext(http.MethodGet, "/", nil)

			err := Error(tc.Context, tt.statusCode, tt.message)

			require.NoError(t, err)
			assert.Equal(t, tt.statusCode, tc.Recorder.Code)

			resp := tc.GetResponseBody()
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, tt.message, resp["error"])
			assert.Nil(t, resp["details"], "通常のエラーにはdetailsがないべき")
		})
	}
}

func TestResponse_ErrorWithDetails(t *testing.T) {
	tc := testutil.NewTestContext(http.MethodPost, "/", nil)

	err := ErrorWithDetails(tc.Context, http.StatusBadRequest, "AI応答の形式が不正です", "必要フィールドが不足: answer")

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, tc.Recorder.Code)
	resp := tc.GetResponseBody()
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "AI応答の形式が不正です", resp["error"])
	assert.Equal(t, "必要フィールドが不足: answer", resp["details"])
}

func TestResponse_ErrorWithFields(t *testing.T) {
	tc := testutil.NewTestContext(http.MethodPost, "/", nil)

	err := ErrorWithFields(tc.Context, http.StatusBadRequest, "不正です", map[string]interface{}{
		"raw_response": "...",
		"success":      true,
		"error":        "上書き",
	})

	require.NoError(t, err)
	resp := tc.GetResponseBody()
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "不正です", resp["error"])
	assert.Equal(t, "...", resp["raw_response"])
}

func TestResponse_NotFound(t *testing.T) {
	tc := testutil.NewTestContext(http.MethodGet, "/", nil)

	err := NotFound(tc.Context, "問題が見つかりません", "AI生成を利用してください")

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, tc.Recorder.Code)
	resp := tc.GetResponseBody()
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "問題が見つかりません", resp["message"])
	assert.Equal(t, "AI生成を利用してください", resp["suggestion"])
}

func TestResponse_ContentType(t *testing.T) {
	tc := testutil.NewTestContext(http.MethodGet, "/", nil)

	_ = Success(tc.Context, map[string]interface{}{"test": true})

	contentType := tc.Recorder.Header().Get("Content-Type")
	assert.Contains(t, contentType, "application/json")
}
