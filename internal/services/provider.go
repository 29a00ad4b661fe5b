package services

import (
	"context"
	"fmt"
	"strings"

	"chatrelay/internal/config"
)

// Provider generates a reply for a single prompt. Implementations classify
// their own SDK failures and return them as *ProviderError.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAuth
	KindQuota
	KindContentBlocked
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindQuota:
		return "quota"
	case KindContentBlocked:
		return "content_blocked"
	default:
		return "unknown"
	}
}

// ProviderError is the tagged failure returned by every provider.
type ProviderError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

func (e *ProviderError) Unwrap() error { return e.Err }

func newProviderError(kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Kind: kind, Detail: err.Error(), Err: err}
}

var (
	authMarkers    = []string{"api_key", "api key", "unauthenticated", "unauthorized", "permission denied", "permission_denied", "permissiondenied"}
	quotaMarkers   = []string{"quota", "rate limit", "rate_limit", "resource_exhausted", "resource exhausted", "resourceexhausted", "too many requests"}
	blockedMarkers = []string{"safety", "blocked", "content_filter", "content policy", "prohibited"}
)

// classifyMessage is the last-resort classification for SDK errors that
// carry no structured status.
func classifyMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	switch {
	case containsAny(lower, authMarkers):
		return KindAuth
	case containsAny(lower, quotaMarkers):
		return KindQuota
	case containsAny(lower, blockedMarkers):
		return KindContentBlocked
	default:
		return KindUnknown
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// NewProvider builds the backend selected by cfg.Provider.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiService(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	case config.ProviderGenAI:
		return NewGenAIService(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	case config.ProviderOpenAI:
		return NewOpenAIService(cfg.APIKey, cfg.OpenAIBaseURL, cfg.Model, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
