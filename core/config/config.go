package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel               OTelConfig
	LLM                LLMConfig
	Compiler           CompilerConfig
	Generation         GenerationConfig
	RateLimit          RateLimitConfig
	Env                string
	Port               string
	CORSAllowedOrigins []string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
	SampleRatio    float64 // 0 or >=1 means sample everything
}

type LLMConfig struct {
	Provider  string // "gemini", "openai" or "anthropic"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string // Optional: provider default when empty
	MaxTokens int
	Timeout   time.Duration
}

type CompilerConfig struct {
	Bin     string
	Timeout time.Duration
	WorkDir string // Optional: os.TempDir() when empty
}

type GenerationConfig struct {
	MaxRetries int
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeCLI    ServiceType = "cli"
)

// providerKeyEnv maps each provider to the env var its SDK conventionally reads.
var providerKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the HTTP server
//   - .env.cli for the forge CLI
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("FORGE_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "gemini"))

	cfg := Config{
		Env:                getEnv("FORGE_ENV", "development"),
		Port:               getEnv("PORT", "8000"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "forge"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			SampleRatio:    getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		},
		LLM: LLMConfig{
			Provider:  provider,
			APIKey:    firstNonEmpty(getEnv("LLM_API_KEY", ""), getEnv(providerKeyEnv[provider], "")),
			BaseURL:   getEnv("LLM_BASE_URL", ""),
			Model:     getEnv("LLM_MODEL", ""),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 2048),
			Timeout:   getEnvSeconds("LLM_TIMEOUT_SECONDS", 60),
		},
		Compiler: CompilerConfig{
			Bin:     getEnv("OPENSCAD_BIN", "openscad"),
			Timeout: getEnvSeconds("COMPILE_TIMEOUT_SECONDS", 60),
			WorkDir: getEnv("COMPILE_WORK_DIR", ""),
		},
		Generation: GenerationConfig{
			MaxRetries: getEnvInt("GENERATION_MAX_RETRIES", 2),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat("RATE_LIMIT_RPS", 0),
			Burst: getEnvInt("RATE_LIMIT_BURST", 5),
		},
	}

	if _, ok := providerKeyEnv[cfg.LLM.Provider]; !ok {
		return Config{}, fmt.Errorf("LLM_PROVIDER %q is not one of gemini, openai, anthropic", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey == "" {
		return Config{}, &ConfigurationError{Key: "LLM_API_KEY", Err: ErrMissingCredential}
	}
	if cfg.Generation.MaxRetries < 0 {
		return Config{}, fmt.Errorf("GENERATION_MAX_RETRIES must be >= 0, got %d", cfg.Generation.MaxRetries)
	}
	if cfg.Compiler.Timeout <= 0 {
		return Config{}, fmt.Errorf("COMPILE_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c RateLimitConfig) Enabled() bool {
	return c.RPS > 0
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
