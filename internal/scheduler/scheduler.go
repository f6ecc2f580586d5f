package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/postscout/internal/pipeline"
)

// Iterator runs one scrape-and-classify cycle.
type Iterator interface {
	RunIteration(ctx context.Context) (pipeline.Result, error)
}

// Scheduler owns the main loop: one immediate iteration, then one per interval.
type Scheduler struct {
	iterator Iterator
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs iterator at the given interval.
func NewScheduler(iterator Iterator, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		iterator: iterator,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. A failed iteration is logged and the loop carries on.
// It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	for iteration := 1; ; iteration++ {
		s.runOnce(ctx, iteration)
		if ctx.Err() != nil {
			s.logger.Info("shutting down scheduler", "iterations", iteration)
			return nil
		}

		s.logger.Info("waiting until next iteration",
			"interval", s.interval.String(),
			"next_at", time.Now().Add(s.interval).Format(time.TimeOnly),
		)
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler", "iterations", iteration)
			return nil
		case <-time.After(s.interval):
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, iteration int) {
	logger := s.logger.With("iteration", iteration, "iteration_id", uuid.NewString())
	logger.Info("starting iteration")
	start := time.Now()

	res, err := s.iterator.RunIteration(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("iteration interrupted", "persisted", res.Persisted)
			return
		}
		logger.Error("iteration failed", "error", err, "duration", time.Since(start).Round(time.Millisecond))
		return
	}

	if res.Collected == 0 {
		logger.Warn("iteration completed but no posts were collected")
		return
	}
	logger.Info("iteration completed",
		"collected", res.Collected,
		"persisted", res.Persisted,
		"hiring", res.Hiring,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}
