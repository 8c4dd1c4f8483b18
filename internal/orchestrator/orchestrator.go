// Package orchestrator runs dispatch passes over every profile with queued
// work.
package orchestrator

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/profilebot/profilebot/internal/dispatch"
	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/profile"
	"github.com/profilebot/profilebot/internal/repository"
)

// Config holds pass pacing settings.
type Config struct {
	MinDelay time.Duration // minimum pause between profiles
	MaxDelay time.Duration // maximum pause between profiles
}

// PassMetrics is the slice of the metrics surface the orchestrator reports to.
type PassMetrics interface {
	RecordPassStarted()
	RecordProfileProcessed()
	SetPendingTasks(count int)
}

// dispatcher processes one profile's queue.
type dispatcher interface {
	ProcessProfile(ctx context.Context, p *profile.Profile) (dispatch.Result, error)
}

// Summary reports the outcome of one pass.
type Summary struct {
	PassID         string
	Profiles       int
	TasksCompleted int
	TasksFailed    int
	ProfileErrors  int
	Duration       time.Duration
}

// Orchestrator selects profiles with pending tasks and dispatches them one
// at a time. One profile's fatal error does not stop the pass.
type Orchestrator struct {
	repo    *repository.Repository
	engine  dispatcher
	metrics PassMetrics
	logger  *logger.Logger
	cfg     Config
}

// New creates an Orchestrator. m may be nil.
func New(repo *repository.Repository, engine dispatcher, m PassMetrics, log *logger.Logger, cfg Config) *Orchestrator {
	return &Orchestrator{
		repo:    repo,
		engine:  engine,
		metrics: m,
		logger:  log,
		cfg:     cfg,
	}
}

// RunPass drains every profile with queued tasks. Cancellation is honored
// between profiles, never mid-task.
func (o *Orchestrator) RunPass(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{PassID: uuid.NewString()}

	profiles, err := o.repo.GetWithPendingTasks()
	if err != nil {
		return summary, err
	}

	pending := 0
	for _, p := range profiles {
		pending += len(p.DueTasks)
	}
	if o.metrics != nil {
		o.metrics.RecordPassStarted()
		o.metrics.SetPendingTasks(pending)
	}

	o.logger.Info("dispatch pass started",
		logger.Field{Key: "pass_id", Value: summary.PassID},
		logger.Field{Key: "profiles", Value: len(profiles)},
		logger.Field{Key: "pending_tasks", Value: pending},
	)

	for i, p := range profiles {
		select {
		case <-ctx.Done():
			summary.Duration = time.Since(start)
			return summary, ctx.Err()
		default:
		}

		result, err := o.engine.ProcessProfile(ctx, p)
		summary.TasksCompleted += result.Completed
		summary.TasksFailed += result.Failed
		if err != nil {
			summary.ProfileErrors++
			o.logger.Error("profile pass failed", err,
				logger.Field{Key: "pass_id", Value: summary.PassID},
				logger.Field{Key: "profile", Value: p.UserName},
			)
		} else {
			summary.Profiles++
			if o.metrics != nil {
				o.metrics.RecordProfileProcessed()
			}
		}

		if i < len(profiles)-1 {
			if err := o.pause(ctx); err != nil {
				summary.Duration = time.Since(start)
				return summary, err
			}
		}
	}

	summary.Duration = time.Since(start)
	o.logger.Info("dispatch pass finished",
		logger.Field{Key: "pass_id", Value: summary.PassID},
		logger.Field{Key: "profiles", Value: summary.Profiles},
		logger.Field{Key: "completed", Value: summary.TasksCompleted},
		logger.Field{Key: "failed", Value: summary.TasksFailed},
		logger.Field{Key: "duration", Value: summary.Duration.String()},
	)
	return summary, nil
}

// pause sleeps for a randomized inter-profile delay, abandoning the wait
// on cancellation.
func (o *Orchestrator) pause(ctx context.Context) error {
	delay := o.cfg.MinDelay
	if o.cfg.MaxDelay > o.cfg.MinDelay {
		delay += rand.N(o.cfg.MaxDelay - o.cfg.MinDelay)
	}
	if delay <= 0 {
		return nil
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
