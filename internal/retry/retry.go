package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/postscout/internal/ai"
	"github.com/amishk599/postscout/internal/model"
)

// Provider is a decorator that retries transient model backend failures with
// exponential backoff and jitter before giving up.
type Provider struct {
	inner      ai.Provider
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewProvider wraps an ai.Provider with retry logic.
// maxRetries is the number of additional attempts after the first failure (default: 2).
// baseDelay is the delay before the first retry (default: 5s), doubled on each subsequent retry.
func NewProvider(inner ai.Provider, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Provider {
	return &Provider{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Chat delegates to the wrapped provider, retrying on transient errors.
func (p *Provider) Chat(ctx context.Context, messages []ai.Message, schema ai.Schema) (string, error) {
	reply, err := p.inner.Chat(ctx, messages, schema)
	if err == nil {
		return reply, nil
	}
	if !isRetryable(err) {
		return "", err
	}

	lastErr := err
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		delay := p.backoffDelay(attempt, lastErr)

		p.logger.Warn("retrying model call after transient error",
			"schema", schema.Name,
			"attempt", attempt,
			"max_retries", p.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		reply, err = p.inner.Chat(ctx, messages, schema)
		if err == nil {
			return reply, nil
		}
		if !isRetryable(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("giving up after %d retries: %w", p.maxRetries, lastErr)
}

// backoffDelay is baseDelay*2^(attempt-1) with ±30% jitter. A Retry-After
// from the server takes precedence.
func (p *Provider) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := p.baseDelay << (attempt - 1)
	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable reports whether err is a transient failure worth retrying.
// Network errors are; cancellation, bad arguments and 4xx other than 429 are not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ai.ErrInvalidArgument) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return true
}
