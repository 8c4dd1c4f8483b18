// Package scheduler triggers periodic dispatch passes. It uses
// robfig/cron/v3 for schedule parsing and guarantees at most one pass
// runs at a time.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/orchestrator"
)

// passRunner runs one dispatch pass.
type passRunner interface {
	RunPass(ctx context.Context) (orchestrator.Summary, error)
}

// Config holds scheduler settings.
type Config struct {
	Spec           string // standard 5-field cron expression
	WorkShiftHours int    // passes run only while hour-of-day < WorkShiftHours; 0 or 24 disables the window
}

// Scheduler fires dispatch passes on a cron schedule within the configured
// work shift. An overlapping trigger is skipped, never queued.
type Scheduler struct {
	cron    *cron.Cron
	runner  passRunner
	logger  *logger.Logger
	cfg     Config
	now     func() time.Time
	running sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduler's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a Scheduler. Start must be called to begin triggering.
func New(runner passRunner, log *logger.Logger, cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:   cron.New(),
		runner: runner,
		logger: log,
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the cron entry and begins triggering passes. ctx bounds
// every triggered pass.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.Spec, func() {
		s.trigger(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", s.cfg.Spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		logger.Field{Key: "spec", Value: s.cfg.Spec},
		logger.Field{Key: "work_shift_hours", Value: s.cfg.WorkShiftHours},
	)
	return nil
}

// Stop halts triggering and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	// Acquiring the guard means no pass is in flight.
	s.running.Lock()
	s.running.Unlock()
	s.logger.Info("scheduler stopped")
}

// trigger runs one pass if inside the work shift and no pass is running.
func (s *Scheduler) trigger(ctx context.Context) {
	if !s.InWorkShift() {
		s.logger.Info("outside work shift, skipping pass",
			logger.Field{Key: "hour", Value: s.now().Hour()},
		)
		return
	}

	if !s.running.TryLock() {
		s.logger.Warn("previous pass still running, skipping trigger")
		return
	}
	defer s.running.Unlock()

	summary, err := s.runner.RunPass(ctx)
	if err != nil {
		s.logger.Error("scheduled pass failed", err,
			logger.Field{Key: "pass_id", Value: summary.PassID},
		)
	}
}

// InWorkShift reports whether the current hour falls inside the configured
// work window.
func (s *Scheduler) InWorkShift() bool {
	if s.cfg.WorkShiftHours <= 0 || s.cfg.WorkShiftHours >= 24 {
		return true
	}
	return s.now().Hour() < s.cfg.WorkShiftHours
}
