// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

var (
	developmentOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	productionOrigins  = []string{"https://caritas-study-app.vercel.app"}
)

// Config holds the application configuration.
type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	PoolFile       string

	LLMProvider     string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	BedrockEnabled  bool
	BedrockModelID  string
	AWSRegion       string
	LLMTimeout      time.Duration

	PoolBackupBucket string
	PoolBackupPrefix string

	// GenerateRateLimit is the number of generation requests allowed
	// per client IP per minute.
	GenerateRateLimit int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Port:             getEnv("PORT", "3001"),
		Environment:      env,
		PoolFile:         getEnv("POOL_FILE", "data/problem_pool.json"),
		LLMProvider:      strings.ToLower(getEnv("LLM_PROVIDER", "")),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		BedrockModelID:   getEnv("BEDROCK_MODEL_ID", ""),
		AWSRegion:        getEnv("AWS_REGION", "ap-northeast-1"),
		PoolBackupBucket: getEnv("POOL_BACKUP_BUCKET", ""),
		PoolBackupPrefix: getEnv("POOL_BACKUP_PREFIX", "problem-pool/"),
	}

	origins := developmentOrigins
	if cfg.IsProduction() {
		origins = productionOrigins
	}
	cfg.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", strings.Join(origins, ",")))

	var err error
	if cfg.BedrockEnabled, err = strconv.ParseBool(getEnv("BEDROCK_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("invalid BEDROCK_ENABLED: %w", err)
	}
	if cfg.GenerateRateLimit, err = strconv.Atoi(getEnv("GENERATE_RATE_LIMIT", "30")); err != nil {
		return nil, fmt.Errorf("invalid GENERATE_RATE_LIMIT: %w", err)
	}
	if cfg.LLMTimeout, err = time.ParseDuration(getEnv("LLM_TIMEOUT", "60s")); err != nil {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate port is a number
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.New("invalid port: must be a number")
	}

	switch c.LLMProvider {
	case "", "anthropic", "openai", "bedrock":
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q: must be anthropic, openai or bedrock", c.LLMProvider)
	}

	if c.PoolFile == "" {
		return errors.New("POOL_FILE must not be empty")
	}
	if c.GenerateRateLimit <= 0 {
		return errors.New("GENERATE_RATE_LIMIT must be positive")
	}
	if c.LLMTimeout <= 0 {
		return errors.New("LLM_TIMEOUT must be positive")
	}

	return nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Environment) {
	case "prod", "production":
		return true
	}
	return false
}

// BackupEnabled reports whether pool snapshots go to S3.
func (c *Config) BackupEnabled() bool {
	return c.PoolBackupBucket != ""
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
