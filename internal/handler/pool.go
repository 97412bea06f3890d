package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kyiku/caritas-study-back/internal/logger"
	"github.com/kyiku/caritas-study-back/internal/model"
	"github.com/kyiku/caritas-study-back/internal/pool"
	"github.com/kyiku/caritas-study-back/internal/response"
	"github.com/kyiku/caritas-study-back/internal/util"
)

// MaxBatchInsert bounds the number of problems in one add-batch request.
const MaxBatchInsert = 100

// PoolHandler serves the math and english problem pools.
type PoolHandler struct {
	pool PoolService
	log  *logger.Logger
}

// NewPoolHandler creates a new PoolHandler.
func NewPoolHandler(p PoolService, log *logger.Logger) *PoolHandler {
	return &PoolHandler{
		pool: p,
		log:  log.With("component", "pool_handler"),
	}
}

// MathAddRequest is the body of POST /api/problem-pool/add.
type MathAddRequest struct {
	Problem model.MathProblem `json:"problem"`
}

// MathBatchRequest is the body of POST /api/problem-pool/add-batch.
type MathBatchRequest struct {
	Problems []model.MathProblem `json:"problems"`
}

// EnglishAddRequest is the body of POST /api/english-pool/add.
type EnglishAddRequest struct {
	Problem model.EnglishProblem `json:"problem"`
}

// EnglishBatchRequest is the body of POST /api/english-pool/add-batch.
type EnglishBatchRequest struct {
	Problems []model.EnglishProblem `json:"problems"`
}

// Stats handles GET /api/problem-pool/stats.
func (h *PoolHandler) Stats(c echo.Context) error {
	return response.Success(c, map[string]interface{}{
		"stats": h.pool.Summary(),
	})
}

// Search handles GET /api/problem-pool/search.
func (h *PoolHandler) Search(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return response.Error(c, http.StatusBadRequest, "limitは0以上の整数で指定してください")
		}
		limit = n
	}

	problems := h.pool.SearchMath(pool.SearchFilter{
		Grade:   util.NormalizeKey(c.QueryParam("grade")),
		Unit:    util.NormalizeKey(c.QueryParam("unit")),
		Level:   util.NormalizeKey(c.QueryParam("level")),
		Keyword: c.QueryParam("q"),
		Limit:   limit,
	})
	return response.Success(c, map[string]interface{}{
		"problems": problems,
		"count":    len(problems),
	})
}

// GetMath handles GET /api/problem-pool/:grade/:unit/:level.
func (h *PoolHandler) GetMath(c echo.Context) error {
	grade := pathParam(c, "grade")
	unit := pathParam(c, "unit")
	level := pathParam(c, "level")

	problem := h.pool.SelectMath(grade, unit, level)
	if problem == nil {
		return response.NotFound(c,
			"指定された条件の問題がプールにありません: "+grade+"/"+unit+"/"+level,
			"AI生成で新しい問題を作成するか、別の条件を選択してください")
	}
	return response.Success(c, map[string]interface{}{
		"problem": problem,
		"source":  "pool",
	})
}

// AddMath handles POST /api/problem-pool/add.
func (h *PoolHandler) AddMath(c echo.Context) error {
	var req MathAddRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "リクエストの解析に失敗しました")
	}
	normalizeMath(&req.Problem)

	id, err := h.pool.InsertMath(req.Problem)
	if err != nil {
		return h.insertError(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"problem_id": id,
		"message":    "問題をプールに追加しました",
	})
}

// AddMathBatch handles POST /api/problem-pool/add-batch.
func (h *PoolHandler) AddMathBatch(c echo.Context) error {
	var req MathBatchRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "リクエストの解析に失敗しました")
	}
	if ok, err := checkBatchSize(c, len(req.Problems)); !ok {
		return err
	}
	for i := range req.Problems {
		normalizeMath(&req.Problems[i])
	}

	return batchResponse(c, h.pool.InsertMathBatch(req.Problems))
}

// GetEnglish handles GET /api/english-pool/:grade/:level.
func (h *PoolHandler) GetEnglish(c echo.Context) error {
	grade := pathParam(c, "grade")
	level := pathParam(c, "level")
	exclude := util.SplitList(c.QueryParam("exclude"))
	priority := util.SplitList(c.QueryParam("priority"))

	problem, sel := h.pool.SelectEnglish(grade, level, exclude, priority)
	if problem == nil {
		return response.NotFound(c,
			"指定された条件の英語問題がプールにありません: "+grade+"/"+level,
			"AI生成で新しい問題を作成してください")
	}
	return response.Success(c, map[string]interface{}{
		"problem":       problem,
		"source":        "pool",
		"adaptive_info": sel,
	})
}

// AddEnglish handles POST /api/english-pool/add.
func (h *PoolHandler) AddEnglish(c echo.Context) error {
	var req EnglishAddRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "リクエストの解析に失敗しました")
	}
	normalizeEnglish(&req.Problem)

	if err := h.pool.InsertEnglish(req.Problem); err != nil {
		return h.insertError(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"word":    req.Problem.Word,
		"message": "英語問題をプールに追加しました",
	})
}

// AddEnglishBatch handles POST /api/english-pool/add-batch.
func (h *PoolHandler) AddEnglishBatch(c echo.Context) error {
	var req EnglishBatchRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "リクエストの解析に失敗しました")
	}
	if ok, err := checkBatchSize(c, len(req.Problems)); !ok {
		return err
	}
	for i := range req.Problems {
		normalizeEnglish(&req.Problems[i])
	}

	return batchResponse(c, h.pool.InsertEnglishBatch(req.Problems))
}

func (h *PoolHandler) insertError(c echo.Context, err error) error {
	var validation *pool.ValidationError

	switch {
	case errors.As(err, &validation):
		return response.ErrorWithDetails(c, http.StatusBadRequest, "問題データが不正です", validation.Error())
	case errors.Is(err, pool.ErrDuplicate):
		return response.ErrorWithDetails(c, http.StatusConflict, "同じ問題が既にプールに存在します", err.Error())
	default:
		h.log.Error("pool insert failed", "path", c.Path(), "error", err)
		return response.ErrorWithDetails(c, http.StatusInternalServerError, "問題プールへの保存に失敗しました", err.Error())
	}
}

func checkBatchSize(c echo.Context, n int) (bool, error) {
	if n == 0 {
		return false, response.Error(c, http.StatusBadRequest, "problemsが指定されていません")
	}
	if n > MaxBatchInsert {
		return false, response.Error(c, http.StatusBadRequest, "一度に追加できる問題は100件までです")
	}
	return true, nil
}

// batchResponse reports success when at least one item was stored.
func batchResponse(c echo.Context, results []pool.InsertResult) error {
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       succeeded > 0,
		"success_count": succeeded,
		"failure_count": len(results) - succeeded,
		"results":       results,
	})
}

// pathParam returns a width-normalised route parameter. echo routes on
// URL.RawPath when it is set, and then the parameter is still escaped.
func pathParam(c echo.Context, name string) string {
	v := c.Param(name)
	if c.Request().URL.RawPath != "" {
		if u, err := url.PathUnescape(v); err == nil {
			v = u
		}
	}
	return util.NormalizeKey(v)
}

func normalizeMath(p *model.MathProblem) {
	p.Grade = util.NormalizeKey(p.Grade)
	p.Unit = util.NormalizeKey(p.Unit)
	p.Level = util.NormalizeKey(p.Level)
}

func normalizeEnglish(p *model.EnglishProblem) {
	p.Word = strings.TrimSpace(p.Word)
	p.Grade = util.NormalizeKey(p.Grade)
	p.Level = util.NormalizeKey(p.Level)
}
