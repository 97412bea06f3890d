// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"

	"github.com/kyiku/caritas-study-back/internal/model"
	"github.com/kyiku/caritas-study-back/internal/pool"
)

// PoolService is implemented by *pool.Pool.
type PoolService interface {
	SelectMath(grade, unit, level string) *model.MathProblem
	SelectEnglish(grade, level string, exclude, priority []string) (*model.EnglishProblem, pool.Selection)
	InsertMath(problem model.MathProblem) (string, error)
	InsertEnglish(problem model.EnglishProblem) error
	InsertMathBatch(problems []model.MathProblem) []pool.InsertResult
	InsertEnglishBatch(problems []model.EnglishProblem) []pool.InsertResult
	Summary() pool.Summary
	SearchMath(filter pool.SearchFilter) []model.MathProblem
}

// ProblemGenerator is implemented by *ai.Generator.
type ProblemGenerator interface {
	Available() bool
	Provider() string
	GenerateMath(ctx context.Context, prompt string) (string, error)
	GenerateEnglish(ctx context.Context, prompt string) (string, error)
	GenerateMathBatch(ctx context.Context, grade, unit, level string, count int) (string, error)
	GenerateEnglishQuiz(ctx context.Context, grade, level string) (string, error)
	GenerateEnglishQuizBatch(ctx context.Context, grade, level string, count int) (string, error)
}
