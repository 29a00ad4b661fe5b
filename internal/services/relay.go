package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrEmptyReply   = errors.New("provider returned empty response")
)

// Relay forwards one message to the provider and normalizes the outcome.
// It holds no per-request state and is safe for concurrent use.
type Relay struct {
	provider Provider
	timeout  time.Duration
}

func NewRelay(provider Provider, timeout time.Duration) *Relay {
	return &Relay{provider: provider, timeout: timeout}
}

func (r *Relay) ProviderName() string { return r.provider.Name() }
func (r *Relay) Model() string        { return r.provider.Model() }
func (r *Relay) Timeout() time.Duration {
	return r.timeout
}

// Reply calls the provider exactly once. Every failure is a *ProviderError
// except ErrEmptyMessage, which is returned before any provider call.
func (r *Relay) Reply(ctx context.Context, message string) (string, error) {
	logger := zerolog.Ctx(ctx)

	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	logger.Info().
		Int("message_length", len(message)).
		Str("provider", r.provider.Name()).
		Str("model", r.provider.Model()).
		Msg("Chat request received")

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	reply, err := r.provider.Generate(callCtx, message)
	elapsed := time.Since(start)

	if err != nil {
		perr := r.normalize(ctx, callCtx, err)
		logger.Error().
			Err(err).
			Str("kind", perr.Kind.String()).
			Str("detail", perr.Detail).
			Dur("latency", elapsed).
			Msg("Provider call failed")
		return "", perr
	}

	if strings.TrimSpace(reply) == "" {
		logger.Warn().Dur("latency", elapsed).Msg("Provider returned empty text")
		return "", newProviderError(KindUnknown, ErrEmptyReply)
	}

	logger.Info().
		Int("reply_length", len(reply)).
		Dur("latency", elapsed).
		Msg("Provider reply received")

	return reply, nil
}

func (r *Relay) normalize(parent, callCtx context.Context, err error) *ProviderError {
	if parent.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &ProviderError{
			Kind:   KindUnknown,
			Detail: fmt.Sprintf("timeout: provider did not respond within %s", r.timeout),
			Err:    err,
		}
	}
	if parent.Err() != nil {
		return &ProviderError{Kind: KindUnknown, Detail: "canceled: " + parent.Err().Error(), Err: err}
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return newProviderError(KindUnknown, err)
}
