package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"ramresume-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	Env                string        `envconfig:"ENV" default:"dev"`
	CORSAllowOrigin    []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000"`
	DatabaseURL        string        `envconfig:"DATABASE_URL"`
	ObjectStoreType    string        `envconfig:"OBJECT_STORE" default:"local"`
	LocalStoreDir      string        `envconfig:"LOCAL_STORE_DIR" default:"./data"`
	AWSRegion          string        `envconfig:"AWS_REGION"`
	S3Bucket           string        `envconfig:"S3_BUCKET"`
	S3Prefix           string        `envconfig:"S3_PREFIX"`
	SSEKMSKeyID        string        `envconfig:"SSE_KMS_KEY_ID"`
	LLMProvider        string        `envconfig:"LLM_PROVIDER" default:"openai"`
	LLMModel           string        `envconfig:"LLM_MODEL"`
	LLMTimeout         time.Duration `envconfig:"LLM_TIMEOUT" default:"120s"`
	OpenAIAPIKey       string        `envconfig:"OPENAI_API_KEY"`
	GeminiAPIKey       string        `envconfig:"GEMINI_API_KEY"`
	JWTSecret          string        `envconfig:"JWT_SECRET"`
	GoogleClientID     string        `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string        `envconfig:"GOOGLE_REDIRECT_URL"`
	ClientURL          string        `envconfig:"CLIENT_URL" default:"http://localhost:3000"`
	UIRedirectURL      string        `envconfig:"UI_REDIRECT_URL"`
	AllowedEmailDomain string        `envconfig:"ALLOWED_EMAIL_DOMAIN" default:"fordham.edu"`
	RedisURL           string        `envconfig:"REDIS_URL"`
	RateLimitEnabled   bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	CookieSecure       bool          `envconfig:"COOKIE_SECURE"`
}

// Load reads configuration from .env files and environment variables.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.LLMProvider = normalizeProvider(cfg.LLMProvider)
	cfg.CORSAllowOrigin = splitAndTrim(cfg.CORSAllowOrigin)
	cfg.AllowedEmailDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(cfg.AllowedEmailDomain)), "@")

	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" {
			telemetry.Error("config.invalid", map[string]any{"reason": "DATABASE_URL is required in production"})
		}
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return Config{}, fmt.Errorf("JWT_SECRET is required in production")
		}
	}
	return cfg, nil
}

// IsProduction reports whether the config targets production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func splitAndTrim(raw []string) []string {
	var out []string
	for _, p := range raw {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "openai", "":
		return "openai"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}
