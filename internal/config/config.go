package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RetrievalStrategy selects how stored documents are handed back to clients.
type RetrievalStrategy string

const (
	RetrievalDownload  RetrievalStrategy = "download"
	RetrievalSignedURL RetrievalStrategy = "signed_url"
)

func (s RetrievalStrategy) Valid() bool {
	return s == RetrievalDownload || s == RetrievalSignedURL
}

type Config struct {
	Port         string
	DatabasePath string
	LogLevel     string

	// S3
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// OpenRouter, optional
	OpenRouterAPIKey string
	OpenRouterModel  string

	JWTSecret          string
	CORSAllowedOrigins []string

	// Retrieval
	RetrievalStrategy RetrievalStrategy
	SignedURLTTL      time.Duration

	// Upload limits
	MaxFileSize int64
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "data/documents.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		S3Endpoint:         getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "documents"),
		S3UseSSL:           getEnv("S3_USE_SSL", "false") == "true",
		OpenRouterAPIKey:   getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:    getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RetrievalStrategy:  RetrievalStrategy(getEnv("RETRIEVAL_STRATEGY", string(RetrievalSignedURL))),
		SignedURLTTL:       getEnvDuration("SIGNED_URL_TTL", 60*time.Second),
		MaxFileSize:        getEnvInt64("MAX_FILE_SIZE", 10*1024*1024),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if !cfg.RetrievalStrategy.Valid() {
		return nil, fmt.Errorf("RETRIEVAL_STRATEGY must be %q or %q, got %q", RetrievalDownload, RetrievalSignedURL, cfg.RetrievalStrategy)
	}
	if cfg.SignedURLTTL <= 0 {
		return nil, fmt.Errorf("SIGNED_URL_TTL must be positive")
	}

	return cfg, nil
}

// AnalysisEnabled reports whether extracted text is sent to the field analyzer.
func (c *Config) AnalysisEnabled() bool {
	return c.OpenRouterAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
