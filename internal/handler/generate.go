package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kyiku/caritas-study-back/internal/ai"
	"github.com/kyiku/caritas-study-back/internal/logger"
	"github.com/kyiku/caritas-study-back/internal/response"
	"github.com/kyiku/caritas-study-back/internal/util"
)

// rawResponseLimit is the number of runes of a rejected LLM reply echoed
// back to the client.
const rawResponseLimit = 500

// GenerateHandler proxies generation requests to the LLM.
type GenerateHandler struct {
	gen ProblemGenerator
	log *logger.Logger
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(gen ProblemGenerator, log *logger.Logger) *GenerateHandler {
	return &GenerateHandler{
		gen: gen,
		log: log.With("component", "generate_handler"),
	}
}

// PromptRequest is the body of the free-prompt endpoints.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateRequest is the body of the structured endpoints.
type GenerateRequest struct {
	Grade string `json:"grade"`
	Unit  string `json:"unit"`
	Level string `json:"level"`
	Count int    `json:"count"`
}

// Math handles POST /api/generate-math.
func (h *GenerateHandler) Math(c echo.Context) error {
	if !h.gen.Available() {
		return unavailable(c)
	}
	prompt, ok, err := bindPrompt(c)
	if !ok {
		return err
	}

	result, err := h.gen.GenerateMath(c.Request().Context(), prompt)
	if err != nil {
		return h.generationError(c, err, "AI問題生成中にエラーが発生しました")
	}
	return response.Success(c, map[string]interface{}{"result": result})
}

// English handles POST /api/generate-english.
func (h *GenerateHandler) English(c echo.Context) error {
	if !h.gen.Available() {
		return unavailable(c)
	}
	prompt, ok, err := bindPrompt(c)
	if !ok {
		return err
	}

	result, err := h.gen.GenerateEnglish(c.Request().Context(), prompt)
	if err != nil {
		return h.generationError(c, err, "AI単語生成中にエラーが発生しました")
	}
	return response.Success(c, map[string]interface{}{"result": result})
}

// MathBatch handles POST /api/generate-math-batch.
func (h *GenerateHandler) MathBatch(c echo.Context) error {
	if !h.gen.Available() {
		return unavailable(c)
	}
	req, ok, err := bindGenerateRequest(c, true)
	if !ok {
		return err
	}
	if req.Unit == "" {
		return response.Error(c, http.StatusBadRequest, "学年・単元・難易度を指定してください")
	}

	result, err := h.gen.GenerateMathBatch(c.Request().Context(), req.Grade, req.Unit, req.Level, req.Count)
	if err != nil {
		return h.generationError(c, err, "AI一括問題生成中にエラーが発生しました")
	}
	return response.Success(c, map[string]interface{}{"result": result})
}

// EnglishQuiz handles POST /api/generate-english-quiz.
func (h *GenerateHandler) EnglishQuiz(c echo.Context) error {
	if !h.gen.Available() {
		return unavailable(c)
	}
	req, ok, err := bindGenerateRequest(c, false)
	if !ok {
		return err
	}

	result, err := h.gen.GenerateEnglishQuiz(c.Request().Context(), req.Grade, req.Level)
	if err != nil {
		return h.generationError(c, err, "英語問題生成中にエラーが発生しました")
	}
	return response.Success(c, map[string]interface{}{"result": result})
}

// EnglishQuizBatch handles POST /api/generate-english-quiz-batch.
func (h *GenerateHandler) EnglishQuizBatch(c echo.Context) error {
	if !h.gen.Available() {
		return unavailable(c)
	}
	req, ok, err := bindGenerateRequest(c, true)
	if !ok {
		return err
	}

	result, err := h.gen.GenerateEnglishQuizBatch(c.Request().Context(), req.Grade, req.Level, req.Count)
	if err != nil {
		return h.generationError(c, err, "英語問題一括生成中にエラーが発生しました")
	}
	return response.Success(c, map[string]interface{}{"result": result})
}

func unavailable(c echo.Context) error {
	return response.ErrorWithFields(c, http.StatusServiceUnavailable,
		"AI機能が利用できません。環境変数を確認してください。",
		map[string]interface{}{"demo": true})
}

// bindPrompt and bindGenerateRequest report ok=false after writing a 400;
// the handler then returns the error from writing that response.
func bindPrompt(c echo.Context) (string, bool, error) {
	var req PromptRequest
	if err := c.Bind(&req); err != nil || req.Prompt == "" {
		return "", false, response.Error(c, http.StatusBadRequest, "プロンプトが指定されていません")
	}
	return req.Prompt, true, nil
}

func bindGenerateRequest(c echo.Context, batch bool) (GenerateRequest, bool, error) {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return req, false, response.Error(c, http.StatusBadRequest, "リクエストの解析に失敗しました")
	}
	req.Grade = util.NormalizeKey(req.Grade)
	req.Unit = util.NormalizeKey(req.Unit)
	req.Level = util.NormalizeKey(req.Level)

	if req.Grade == "" || req.Level == "" {
		return req, false, response.Error(c, http.StatusBadRequest, "学年と難易度を指定してください")
	}
	if batch && (req.Count < 1 || req.Count > ai.MaxBatchCount) {
		return req, false, response.Error(c, http.StatusBadRequest, "生成数は1〜10の範囲で指定してください")
	}
	return req, true, nil
}

func (h *GenerateHandler) generationError(c echo.Context, err error, fallback string) error {
	var (
		invalid *ai.ErrInvalidOutput
		apiErr  *ai.ErrAPI
	)

	switch {
	case errors.As(err, &invalid):
		return response.ErrorWithFields(c, http.StatusBadRequest, "AI応答の形式が不正です", map[string]interface{}{
			"details":      invalid.Error(),
			"raw_response": truncateRunes(invalid.Raw, rawResponseLimit),
		})
	case errors.Is(err, ai.ErrNotConfigured):
		return unavailable(c)
	case errors.Is(err, ai.ErrInvalidCount):
		return response.Error(c, http.StatusBadRequest, "生成数は1〜10の範囲で指定してください")
	case errors.As(err, &apiErr):
		return response.ErrorWithDetails(c, http.StatusPaymentRequired, "API利用制限に達しました", err.Error())
	default:
		h.log.Error("generation failed", "path", c.Path(), "error", err)
		return response.ErrorWithDetails(c, http.StatusInternalServerError, fallback, err.Error())
	}
}

// truncateRunes cuts s to at most n runes and marks the cut with "...".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
