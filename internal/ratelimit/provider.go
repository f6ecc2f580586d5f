package ratelimit

import (
	"context"

	"github.com/amishk599/postscout/internal/ai"
)

// Provider is a decorator that waits on a Throttle before delegating to the
// wrapped ai.Provider.
type Provider struct {
	inner    ai.Provider
	throttle Throttle
}

// NewProvider wraps inner so every Chat first passes throttle.
func NewProvider(inner ai.Provider, throttle Throttle) *Provider {
	return &Provider{inner: inner, throttle: throttle}
}

// Chat waits for the throttle, then delegates.
func (p *Provider) Chat(ctx context.Context, messages []ai.Message, schema ai.Schema) (string, error) {
	if err := p.throttle.Wait(ctx); err != nil {
		return "", err
	}
	return p.inner.Chat(ctx, messages, schema)
}
