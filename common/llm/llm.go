package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// Provider selects the backing LLM API.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("llm returned no text")

// Config holds LLM client configuration.
type Config struct {
	Provider  Provider // defaults to gemini
	APIKey    string   // Required: API key for the provider
	BaseURL   string   // Optional: custom API endpoint
	Model     string   // Optional: provider default when empty
	MaxTokens int
}

// Client is a plain text-completion capability.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Model() string
}

type Request struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  *float64 // nil = model default
}

type Response struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// New creates a Client for cfg.Provider.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderGemini
	}

	switch provider {
	case ProviderGemini:
		return newGeminiClient(cfg)
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-sonnet-4-5-20250514"
	default:
		return "gemini-2.0-flash-exp"
	}
}

// IsTransient reports whether err is likely to go away if the same request is
// sent again: rate limits, provider 5xx and network failures.
func IsTransient(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		slog.DebugContext(ctx, "llm deadline exceeded, treating as transient")
		return true
	}
	if errors.Is(err, ErrEmptyResponse) {
		return false
	}

	// genai returns APIError by value; the pointer form is matched as well.
	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return transientStatus(ctx, "gemini", geminiErr.Code)
	}
	var geminiPtrErr *genai.APIError
	if errors.As(err, &geminiPtrErr) && geminiPtrErr != nil {
		return transientStatus(ctx, "gemini", geminiPtrErr.Code)
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return transientStatus(ctx, "openai", openaiErr.StatusCode)
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return transientStatus(ctx, "anthropic", anthropicErr.StatusCode)
	}

	// Network errors (no API response) are generally transient
	slog.WarnContext(ctx, "llm network error", "error", err)
	return true
}

func transientStatus(ctx context.Context, provider string, status int) bool {
	switch {
	case status == 429:
		slog.WarnContext(ctx, "llm rate limited", "provider", provider, "status_code", status)
		return true
	case status >= 500:
		slog.WarnContext(ctx, "llm server error", "provider", provider, "status_code", status)
		return true
	default:
		slog.ErrorContext(ctx, "llm client error", "provider", provider, "status_code", status)
		return false
	}
}
