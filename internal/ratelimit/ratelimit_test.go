package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

// recordingSleeper records requested durations without sleeping.
type recordingSleeper struct {
	calls []time.Duration
	err   error
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return r.err
}

func TestCooldown_SleepsFixedDelay(t *testing.T) {
	rec := &recordingSleeper{}
	c := NewCooldown(10*time.Second, rec.sleep)

	for i := 0; i < 2; i++ {
		if err := c.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}

	if len(rec.calls) != 2 {
		t.Fatalf("sleeper calls = %d, want 2", len(rec.calls))
	}
	for _, d := range rec.calls {
		if d != 10*time.Second {
			t.Errorf("slept %v, want 10s", d)
		}
	}
}

func TestCooldown_PropagatesCancellation(t *testing.T) {
	rec := &recordingSleeper{err: context.Canceled}
	c := NewCooldown(time.Second, rec.sleep)

	err := c.Wait(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestJitter_StaysWithinBounds(t *testing.T) {
	j := NewJitter(time.Second, 4*time.Second, nil)

	for _, r := range []float64{0, 0.5, 0.999} {
		j.rand = func() float64 { return r }
		d := j.Next()
		if d < time.Second || d > 4*time.Second {
			t.Errorf("Next() with rand=%v = %v, want within [1s, 4s]", r, d)
		}
	}

	j.rand = func() float64 { return 0.5 }
	if d := j.Next(); d != 2500*time.Millisecond {
		t.Errorf("Next() at midpoint = %v, want 2.5s", d)
	}
}

func TestJitter_SwapsInvertedBounds(t *testing.T) {
	rec := &recordingSleeper{}
	j := NewJitter(4*time.Second, time.Second, rec.sleep)
	j.rand = func() float64 { return 0 }

	if err := j.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if rec.calls[0] != time.Second {
		t.Errorf("slept %v, want 1s lower bound", rec.calls[0])
	}
}

func TestSleep_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep did not return promptly on cancelled context")
	}
}

func TestSleep_ShortDelay(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("elapsed %v, want >= 15ms", elapsed)
	}
}

func TestLimiter_DisabledNeverBlocks(t *testing.T) {
	l := NewLimiter(0, 0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("disabled limiter should not block")
	}
}

func TestLimiter_BurstThenCancel(t *testing.T) {
	l := NewLimiter(1, 1) // one request per minute

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected second wait to fail before the next token")
	}
}

func TestNop_Wait(t *testing.T) {
	if err := (Nop{}).Wait(context.Background()); err != nil {
		t.Fatalf("Nop.Wait: %v", err)
	}
}
