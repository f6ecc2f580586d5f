package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amishk599/postscout/internal/ai"
)

type countingProvider struct{ calls int }

func (c *countingProvider) Chat(context.Context, []ai.Message, ai.Schema) (string, error) {
	c.calls++
	return `{"classification":1}`, nil
}

func TestProvider_WaitsBeforeEachCall(t *testing.T) {
	rec := &recordingSleeper{}
	inner := &countingProvider{}
	p := NewProvider(inner, NewCooldown(time.Second, rec.sleep))

	for i := 0; i < 3; i++ {
		if _, err := p.Chat(context.Background(), nil, ai.HiringPostSchema); err != nil {
			t.Fatalf("Chat: %v", err)
		}
	}
	if len(rec.calls) != 3 || inner.calls != 3 {
		t.Errorf("waits=%d calls=%d, want 3 and 3", len(rec.calls), inner.calls)
	}
}

func TestProvider_ThrottleErrorSkipsCall(t *testing.T) {
	inner := &countingProvider{}
	p := NewProvider(inner, NewCooldown(time.Second, (&recordingSleeper{err: context.Canceled}).sleep))

	_, err := p.Chat(context.Background(), nil, ai.HiringPostSchema)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("inner called %d times, want 0", inner.calls)
	}
}
