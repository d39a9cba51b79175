package ai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/config"
)

// Role is the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation
type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// CompletionRequest is a provider-neutral completion request
type CompletionRequest struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Completion is the reply of a provider
type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Provider completes conversations with a language model
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context, req CompletionRequest) (Completion, error)

func (f ProviderFunc) Name() string {
	return "func"
}

func (f ProviderFunc) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	return f(ctx, req)
}

// unconfigured is used when no API key is available
type unconfigured struct {
	name string
}

func (u unconfigured) Name() string {
	return u.name
}

func (u unconfigured) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	return Completion{}, apperr.Unavailable("AI provider "+u.name+" is not configured", nil).
		WithSuggestion("set the provider API key")
}

// NewProviderFromConfig returns the provider selected by ai_provider. A
// provider without its API key reports SERVICE_UNAVAILABLE on every call.
func NewProviderFromConfig(cfg *config.Config) (Provider, error) {
	switch cfg.AIProvider {
	case "openrouter":
		key := os.Getenv("OPENROUTER_API_KEY")
		if key == "" {
			return unconfigured{name: "openrouter"}, nil
		}
		return NewOpenRouterProvider(key, cfg.AIModel), nil
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return unconfigured{name: "anthropic"}, nil
		}
		return NewAnthropicProvider(key, cfg.AIModel), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

// statusError classifies a non-2xx provider response
func statusError(provider string, status int, retryAfter string, body string) error {
	msg := fmt.Sprintf("%s returned HTTP %d", provider, status)
	cause := fmt.Errorf("%s: %s", msg, body)
	switch {
	case status == http.StatusTooManyRequests:
		var wait time.Duration
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			wait = time.Duration(secs) * time.Second
		}
		return apperr.RateLimited(wait).Wrap(cause)
	case status >= 500:
		return apperr.Unavailable(msg, cause)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.Unavailable(provider+" rejected the API credentials", cause)
	default:
		return apperr.BusinessRule(msg).Wrap(cause)
	}
}
