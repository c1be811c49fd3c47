package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edusight/prism/internal/service"
)

// Scheduler triggers one pipeline run per day at a fixed local time. There
// is no catch-up: a trigger that could not fire (process down, run still
// active) is simply the next day's problem.
type Scheduler struct {
	runner     *Runner
	scheduleAt string
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler constructs a Scheduler firing daily at scheduleAt ("HH:MM",
// local time).
func NewScheduler(runner *Runner, scheduleAt string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{runner: runner, scheduleAt: scheduleAt, logger: logger}
}

// Start launches the scheduling loop. It returns an error only when the
// schedule string does not parse.
func (s *Scheduler) Start(ctx context.Context) error {
	hour, minute, err := parseScheduleAt(s.scheduleAt)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(loopCtx, hour, minute)
	s.logger.Info("pipeline scheduler started", zap.String("schedule_at", s.scheduleAt))
	return nil
}

// Stop halts the scheduling loop and waits for it to exit. An in-flight
// run keeps going; only future triggers are cancelled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("pipeline scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, hour, minute int) {
	defer s.wg.Done()
	for {
		next := nextRunAt(time.Now(), hour, minute)
		timer := time.NewTimer(time.Until(next))
		s.logger.Info("next pipeline run scheduled", zap.Time("at", next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.runner.Execute(ctx, service.BatchOptions{}); err != nil {
			s.logger.Error("scheduled pipeline run failed", zap.Error(err))
		}
		if missedOccurrence(next, time.Now()) {
			s.logger.Warn("scheduled occurrence skipped, previous run overran",
				zap.Time("missed", next.AddDate(0, 0, 1)))
		}
	}
}

// missedOccurrence reports whether the run triggered at fired lasted past
// the following day's trigger. That occurrence is skipped, not queued.
func missedOccurrence(fired, now time.Time) bool {
	return !now.Before(fired.AddDate(0, 0, 1))
}

// nextRunAt returns the next occurrence of hour:minute strictly after now.
func nextRunAt(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func parseScheduleAt(raw string) (int, int, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid schedule time %q: %w", raw, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}
