package ratelimit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Throttle is a pause policy applied before talking to an external service.
// Wait returns early with an error when ctx is cancelled.
type Throttle interface {
	Wait(ctx context.Context) error
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the wall-clock Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Cooldown waits a fixed delay on every call.
type Cooldown struct {
	delay time.Duration
	sleep Sleeper
}

// NewCooldown returns a fixed-delay throttle. A nil sleeper uses Sleep.
func NewCooldown(delay time.Duration, sleep Sleeper) *Cooldown {
	if sleep == nil {
		sleep = Sleep
	}
	return &Cooldown{delay: delay, sleep: sleep}
}

// Wait sleeps for the configured delay.
func (c *Cooldown) Wait(ctx context.Context) error {
	if err := c.sleep(ctx, c.delay); err != nil {
		return fmt.Errorf("cooldown %s: %w", c.delay, err)
	}
	return nil
}

// Delay returns the configured delay.
func (c *Cooldown) Delay() time.Duration { return c.delay }

// Jitter waits a uniformly random delay in [min, max] on every call. Used to
// pace browser actions so they do not arrive at a fixed cadence.
type Jitter struct {
	min, max time.Duration
	sleep    Sleeper
	rand     func() float64
}

// NewJitter returns a random-delay throttle. If max < min the bounds are
// swapped. A nil sleeper uses Sleep.
func NewJitter(min, max time.Duration, sleep Sleeper) *Jitter {
	if max < min {
		min, max = max, min
	}
	if sleep == nil {
		sleep = Sleep
	}
	return &Jitter{min: min, max: max, sleep: sleep, rand: rand.Float64}
}

// Next returns the next delay without sleeping.
func (j *Jitter) Next() time.Duration {
	return j.min + time.Duration(j.rand()*float64(j.max-j.min))
}

// Wait sleeps for a random delay between min and max.
func (j *Jitter) Wait(ctx context.Context) error {
	d := j.Next()
	if err := j.sleep(ctx, d); err != nil {
		return fmt.Errorf("jitter %s: %w", d, err)
	}
	return nil
}

// Limiter caps the request rate with a token bucket.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter allows perMinute requests per minute with the given burst.
// perMinute <= 0 disables limiting.
func NewLimiter(perMinute, burst int) *Limiter {
	if perMinute <= 0 {
		return &Limiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)}
}

// Wait blocks until a token is available.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.lim == nil {
		return ctx.Err()
	}
	if err := l.lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// Nop never waits.
type Nop struct{}

func (Nop) Wait(ctx context.Context) error { return ctx.Err() }
