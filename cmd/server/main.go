package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/kyiku/caritas-study-back/internal/ai"
	"github.com/kyiku/caritas-study-back/internal/config"
	"github.com/kyiku/caritas-study-back/internal/handler"
	"github.com/kyiku/caritas-study-back/internal/logger"
	"github.com/kyiku/caritas-study-back/internal/middleware"
	"github.com/kyiku/caritas-study-back/internal/notify"
	"github.com/kyiku/caritas-study-back/internal/pool"
	"github.com/kyiku/caritas-study-back/internal/storage"
)

// BedrockAdapter adapts AWS Bedrock client to ai.BedrockInvoker.
type BedrockAdapter struct {
	client *bedrockruntime.Client
}

// BedrockRequest represents the request body for Claude via Bedrock
type BedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Temperature      float64          `json:"temperature"`
	Messages         []BedrockMessage `json:"messages"`
}

// BedrockMessage represents a message in the Bedrock request
type BedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (a *BedrockAdapter) InvokeModel(ctx context.Context, modelID string, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(BedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Temperature:      0.7,
		Messages: []BedrockMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	output, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", err
	}
	return string(output.Body), nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()

	// AWS is optional: Bedrock and pool backups are the only users.
	var awsCfg *aws.Config
	if cfg.BedrockEnabled || cfg.BackupEnabled() {
		loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Warn("failed to load AWS config, AWS features disabled", "error", err)
		} else {
			awsCfg = &loaded
		}
	}

	opts := ai.ProviderOptions{
		Provider:        cfg.LLMProvider,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIModel:     cfg.OpenAIModel,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		BedrockModelID:  cfg.BedrockModelID,
	}
	if cfg.BedrockEnabled && awsCfg != nil {
		opts.Bedrock = &BedrockAdapter{client: bedrockruntime.NewFromConfig(*awsCfg)}
	}

	llm, err := ai.NewClient(opts)
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		log.Warn("no LLM provider configured, generation endpoints will return 503", "detail", err.Error())
		llm = nil
	case err != nil:
		log.Fatal("failed to create LLM client", "error", err)
	default:
		log.Info("LLM provider ready", "provider", llm.Name())
	}
	generator := ai.NewGenerator(llm, log, cfg.LLMTimeout)

	store := pool.NewStore(cfg.PoolFile, log)
	if cfg.BackupEnabled() && awsCfg != nil {
		mirror := storage.NewS3Mirror(
			storage.NewS3Adapter(s3.NewFromConfig(*awsCfg), cfg.PoolBackupBucket),
			cfg.PoolBackupBucket, cfg.PoolBackupPrefix)
		restoreFromMirror(ctx, store, mirror, log)
		store.SetMirror(mirror)
	}

	hub := notify.NewHub(log)
	problemPool := pool.New(store, log)
	problemPool.SetNotifier(hub)

	limiter := middleware.NewRateLimiter(cfg.GenerateRateLimit, time.Minute)
	defer limiter.Stop()

	e := newServer(cfg, log, generator, problemPool, hub, limiter)

	go func() {
		log.Info("starting server", "port", cfg.Port, "environment", cfg.Environment, "pool_file", cfg.PoolFile)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Warn("pending pool snapshot was not uploaded", "error", err)
	}
}

func newServer(cfg *config.Config, log *logger.Logger, generator *ai.Generator, problemPool *pool.Pool, hub *notify.Hub, limiter *middleware.RateLimiter) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				log.Warn("request failed", append(fields, "error", v.Error.Error())...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(echomw.GzipWithConfig(echomw.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/ws/pool"
		},
	}))
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("10M"))
	e.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	healthHandler := handler.NewHealthHandler(generator, cfg.Environment, config.Version)
	generateHandler := handler.NewGenerateHandler(generator, log)
	poolHandler := handler.NewPoolHandler(problemPool, log)
	feedHandler := handler.NewPoolFeedHandler(hub, cfg.AllowedOrigins)

	// Health check (root level for ALB)
	e.GET("/health", healthHandler.Check)
	e.GET("/ws/pool", feedHandler.Connect)

	api := e.Group("/api")
	api.GET("/health", healthHandler.Check)

	rateLimit := limiter.Middleware()
	api.POST("/generate-math", generateHandler.Math, rateLimit)
	api.POST("/generate-math-batch", generateHandler.MathBatch, rateLimit)
	api.POST("/generate-english", generateHandler.English, rateLimit)
	api.POST("/generate-english-quiz", generateHandler.EnglishQuiz, rateLimit)
	api.POST("/generate-english-quiz-batch", generateHandler.EnglishQuizBatch, rateLimit)

	// Static routes are registered before the parameterised lookup so the
	// router never treats "stats" as a grade.
	api.GET("/problem-pool/stats", poolHandler.Stats)
	api.GET("/problem-pool/search", poolHandler.Search)
	api.POST("/problem-pool/add", poolHandler.AddMath)
	api.POST("/problem-pool/add-batch", poolHandler.AddMathBatch)
	api.GET("/problem-pool/:grade/:unit/:level", poolHandler.GetMath)

	api.POST("/english-pool/add", poolHandler.AddEnglish)
	api.POST("/english-pool/add-batch", poolHandler.AddEnglishBatch)
	api.GET("/english-pool/:grade/:level", poolHandler.GetEnglish)

	return e
}

// restoreFromMirror seeds a missing pool file from the latest S3 snapshot.
func restoreFromMirror(ctx context.Context, store *pool.Store, mirror *storage.S3Mirror, log *logger.Logger) {
	if store.Exists() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	data, err := mirror.Latest(ctx)
	if err != nil {
		log.Warn("no pool snapshot restored", "bucket", mirror.Bucket(), "error", err)
		return
	}
	if err := store.Restore(data); err != nil {
		log.Error("failed to restore pool snapshot", "error", err)
		return
	}
	log.Info("restored pool from snapshot", "bucket", mirror.Bucket(), "key", mirror.LatestKey())
}
