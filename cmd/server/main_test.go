package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/caritas-study-back/internal/ai"
	"github.com/kyiku/caritas-study-back/internal/config"
	"github.com/kyiku/caritas-study-back/internal/logger"
	"github.com/kyiku/caritas-study-back/internal/middleware"
	"github.com/kyiku/caritas-study-back/internal/model"
	"github.com/kyiku/caritas-study-back/internal/notify"
	"github.com/kyiku/caritas-study-back/internal/pool"
	"github.com/kyiku/caritas-study-back/internal/testutil"
)

func newTestServer(t *testing.T, llm ai.Client, rateLimit int) (*echo.Echo, *pool.Pool) {
	t.Helper()
	cfg := &config.Config{
		Port:           "3001",
		Environment:    "development",
		AllowedOrigins: []string{"http://localhost:3000"},
		PoolFile:       filepath.Join(t.TempDir(), "pool.json"),
	}
	log := logger.NewNop()

	p := pool.New(pool.NewStore(cfg.PoolFile, log), log)
	hub := notify.NewHub(log)
	p.SetNotifier(hub)

	limiter := middleware.NewRateLimiter(rateLimit, time.Minute)
	t.Cleanup(limiter.Stop)

	return newServer(cfg, log, ai.NewGenerator(llm, log, time.Second), p, hub, limiter), p
}

func doRequest(e *echo.Echo, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestServer_Routes(t *testing.T) {
	e, p := newTestServer(t, nil, 10)
	_, err := p.InsertMath(model.MathProblem{ID: "m1", Grade: "中2", Unit: "一次関数", Level: "標準", Problem: "p", Answer: "a"})
	require.NoError(t, err)

	tests := []struct {
		name           string
		method         string
		path           string
		wantStatusCode int
		wantKey        string
	}{
		{name: "ヘルスチェック", method: http.MethodGet, path: "/health", wantStatusCode: http.StatusOK, wantKey: "status"},
		{name: "APIヘルスチェック", method: http.MethodGet, path: "/api/health", wantStatusCode: http.StatusOK, wantKey: "ai_available"},
		{name: "統計はパラメータルートより優先", method: http.MethodGet, path: "/api/problem-pool/stats", wantStatusCode: http.StatusOK, wantKey: "stats"},
		{name: "検索", method: http.MethodGet, path: "/api/problem-pool/search?grade=%E4%B8%AD2", wantStatusCode: http.StatusOK, wantKey: "problems"},
		{name: "数学問題の取得", method: http.MethodGet, path: "/api/problem-pool/%E4%B8%AD2/%E4%B8%80%E6%AC%A1%E9%96%A2%E6%95%B0/%E6%A8%99%E6%BA%96", wantStatusCode: http.StatusOK, wantKey: "problem"},
		{name: "英語問題なし", method: http.MethodGet, path: "/api/english-pool/%E4%B8%AD1/%E5%9F%BA%E7%A4%8E", wantStatusCode: http.StatusNotFound, wantKey: "suggestion"},
		{name: "AI未設定", method: http.MethodPost, path: "/api/generate-math", wantStatusCode: http.StatusServiceUnavailable, wantKey: "demo"},
		{name: "存在しないエンドポイント", method: http.MethodGet, path: "/api/unknown", wantStatusCode: http.StatusNotFound, wantKey: "path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body interface{}
			if tt.method == http.MethodPost {
				body = map[string]string{"prompt": "問題を作って"}
			}

			rec, resp := doRequest(e, tt.method, tt.path, body)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Contains(t, resp, tt.wantKey)
		})
	}
}

func TestServer_GenerateRateLimit(t *testing.T) {
	mock := testutil.NewMockLLMClient()
	mock.Response = `{"word":"apple","meaning":"りんご","level":"基礎","examples":[]}`
	e, _ := newTestServer(t, mock, 2)

	for i := 0; i < 2; i++ {
		rec, _ := doRequest(e, http.MethodPost, "/api/generate-english", map[string]string{"prompt": "単語"})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, resp := doRequest(e, http.MethodPost, "/api/generate-english", map[string]string{"prompt": "単語"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec, _ = doRequest(e, http.MethodGet, "/api/problem-pool/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	e, _ := newTestServer(t, nil, 10)

	req := httptest.NewRequest(http.MethodOptions, "/api/problem-pool/add", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
