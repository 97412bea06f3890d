package ai

import (
	"context"
	"errors"
	"time"

	"github.com/kyiku/caritas-study-back/internal/logger"
)

// Token budgets per request type.
const (
	MathMaxTokens             = 3000
	EnglishMaxTokens          = 2000
	MathBatchMaxTokens        = 8000
	EnglishQuizMaxTokens      = 1500
	EnglishQuizBatchMaxTokens = 6000
)

// MaxBatchCount bounds the count of a batch generation request.
const MaxBatchCount = 10

// ErrInvalidCount is returned for a batch count outside 1..MaxBatchCount.
var ErrInvalidCount = errors.New("count must be between 1 and 10")

// Generator runs LLM prompts and validates the replies.
// A Generator with a nil client reports ErrNotConfigured.
type Generator struct {
	client  Client
	log     *logger.Logger
	timeout time.Duration
}

// NewGenerator creates a new Generator. timeout <= 0 disables the
// per-request deadline.
func NewGenerator(client Client, log *logger.Logger, timeout time.Duration) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{client: client, log: log.With("component", "generator"), timeout: timeout}
}

// Available reports whether a provider is configured.
func (g *Generator) Available() bool {
	return g != nil && g.client != nil
}

// Provider returns the configured provider name, or "".
func (g *Generator) Provider() string {
	if !g.Available() {
		return ""
	}
	return g.client.Name()
}

// GenerateMath runs a caller-supplied math prompt.
func (g *Generator) GenerateMath(ctx context.Context, prompt string) (string, error) {
	return g.run(ctx, KindMath, prompt, MathMaxTokens)
}

// GenerateEnglish runs a caller-supplied vocabulary prompt.
func (g *Generator) GenerateEnglish(ctx context.Context, prompt string) (string, error) {
	return g.run(ctx, KindEnglish, prompt, EnglishMaxTokens)
}

// GenerateMathBatch asks for count math problems in one request.
func (g *Generator) GenerateMathBatch(ctx context.Context, grade, unit, level string, count int) (string, error) {
	if count < 1 || count > MaxBatchCount {
		return "", ErrInvalidCount
	}
	return g.run(ctx, KindMathBatch, MathBatchPrompt(grade, unit, level, count), MathBatchMaxTokens)
}

// GenerateEnglishQuiz asks for one four-choice vocabulary item.
func (g *Generator) GenerateEnglishQuiz(ctx context.Context, grade, level string) (string, error) {
	return g.run(ctx, KindEnglishQuiz, EnglishQuizPrompt(grade, level), EnglishQuizMaxTokens)
}

// GenerateEnglishQuizBatch asks for count vocabulary items.
func (g *Generator) GenerateEnglishQuizBatch(ctx context.Context, grade, level string, count int) (string, error) {
	if count < 1 || count > MaxBatchCount {
		return "", ErrInvalidCount
	}
	return g.run(ctx, KindEnglishQuizBatch, EnglishQuizBatchPrompt(grade, level, count), EnglishQuizBatchMaxTokens)
}

func (g *Generator) run(ctx context.Context, kind OutputKind, prompt string, maxTokens int) (string, error) {
	if !g.Available() {
		return "", ErrNotConfigured
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := g.client.Complete(ctx, prompt, maxTokens)
	if err != nil {
		g.log.Error("LLM request failed",
			"kind", kind,
			"provider", g.client.Name(),
			"error", err,
		)
		return "", err
	}

	result, err := ValidateOutput(kind, raw)
	if err != nil {
		g.log.Warn("LLM output rejected",
			"kind", kind,
			"provider", g.client.Name(),
			"error", err,
		)
		return "", err
	}

	g.log.Info("LLM generation succeeded",
		"kind", kind,
		"provider", g.client.Name(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
