// Package dispatch executes a profile's queued tasks against the external
// service collaborators.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/notify"
	"github.com/profilebot/profilebot/internal/profile"
	"github.com/profilebot/profilebot/internal/repository"
	"github.com/profilebot/profilebot/internal/services"
)

var (
	ErrUnknownModule = errors.New("unknown module")
	ErrUnknownAction = errors.New("unknown action")
)

// TaskMetrics is the slice of the metrics surface the engine reports to.
type TaskMetrics interface {
	RecordTask(status string, duration time.Duration)
}

// handlerFunc executes one routed task and returns a human-readable result.
type handlerFunc func(ctx context.Context, p *profile.Profile, args []any) (string, error)

// Limits caps platform-sensitive actions per profile per calendar day.
// A zero value disables the corresponding cap.
type Limits struct {
	MaxDailyFollows        int
	MaxDailyLikes          int
	MinDaysToCheckResource int
}

// Engine drains a profile's task queue sequentially. One task runs to
// completion before the next starts; a failed task stays queued and does
// not block the tasks behind it.
type Engine struct {
	repo     *repository.Repository
	services services.Set
	observer notify.TaskObserver
	metrics  TaskMetrics
	logger   *logger.Logger
	now      func() time.Time
	limits   Limits
	likes    map[string]int
	handlers map[string]map[string]handlerFunc
}

// Result summarizes one profile's dispatch outcome.
type Result struct {
	Profile   string
	Completed int
	Failed    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLimits sets the daily action caps enforced during dispatch.
func WithLimits(l Limits) Option {
	return func(e *Engine) {
		e.limits = l
	}
}

// New creates an Engine. observer and m may be nil.
func New(repo *repository.Repository, svcs services.Set, observer notify.TaskObserver, m TaskMetrics, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		services: svcs,
		observer: observer,
		metrics:  m,
		logger:   log,
		now:      time.Now,
		likes:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registerHandlers()
	return e
}

// ProcessProfile drains p's task queue in FIFO order. Completed tasks are
// removed from the queue; failed tasks keep their recorded error and stay
// queued. Cancelling ctx stops the drain between tasks: the in-flight task
// runs to completion and the untouched tasks are re-queued still pending.
// The profile is saved once at the end; a save failure is fatal for this
// profile's pass and the computed results are lost.
func (e *Engine) ProcessProfile(ctx context.Context, p *profile.Profile) (Result, error) {
	result := Result{Profile: p.UserName}
	if !p.HasPendingTasks() {
		return result, nil
	}

	e.logger.Info("processing profile",
		logger.Field{Key: "profile", Value: p.UserName},
		logger.Field{Key: "tasks", Value: len(p.DueTasks)},
	)

	if err := e.initServices(ctx, p); err != nil {
		return result, fmt.Errorf("initialize services for %s: %w", p.UserName, err)
	}
	defer e.cleanupServices(ctx, p)

	// Handlers get an uncancelable context so a shutdown signal never
	// aborts the task already running; cancellation takes effect between
	// tasks only.
	taskCtx := context.WithoutCancel(ctx)

	var remaining []profile.Task
	for i, task := range p.DueTasks {
		if ctx.Err() != nil {
			e.logger.Info("dispatch interrupted, re-queuing untouched tasks",
				logger.Field{Key: "profile", Value: p.UserName},
				logger.Field{Key: "requeued", Value: len(p.DueTasks) - i},
			)
			remaining = append(remaining, p.DueTasks[i:]...)
			break
		}

		task.MarkRunning(e.now())
		e.observe(func(o notify.TaskObserver) { o.TaskStarted(task, p) })

		output, err := e.route(taskCtx, p, task)
		if err != nil {
			task.MarkFailed(err.Error(), e.now())
			result.Failed++
			remaining = append(remaining, task)
			e.record("failed", task.Duration())
			e.observe(func(o notify.TaskObserver) { o.TaskFailed(task, p, err) })
			continue
		}

		task.MarkCompleted(output, e.now())
		result.Completed++
		e.record("completed", task.Duration())
		e.observe(func(o notify.TaskObserver) { o.TaskCompleted(task, p) })
	}
	p.DueTasks = remaining

	if err := e.repo.Save(p); err != nil {
		return result, fmt.Errorf("save profile %s after dispatch: %w", p.UserName, err)
	}
	return result, nil
}

// route resolves the task's (module, action) pair through the handler map
// and executes it.
func (e *Engine) route(ctx context.Context, p *profile.Profile, task profile.Task) (string, error) {
	actions, ok := e.handlers[task.ParentModuleName]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModule, task.ParentModuleName)
	}
	handler, ok := actions[task.ActionName]
	if !ok {
		return "", fmt.Errorf("%w: %q in module %q", ErrUnknownAction, task.ActionName, task.ParentModuleName)
	}
	return handler(ctx, p, ParseArguments(task.ArgumentsString))
}

// initServices attaches the profile-scoped collaborators. Media services
// are stateless and need no per-profile setup.
func (e *Engine) initServices(ctx context.Context, p *profile.Profile) error {
	if e.services.Automation != nil {
		if err := e.services.Automation.Initialize(ctx, p); err != nil {
			return fmt.Errorf("automation driver: %w", err)
		}
	}
	if e.services.Scraper != nil {
		if err := e.services.Scraper.Initialize(ctx, p); err != nil {
			return fmt.Errorf("scraper: %w", err)
		}
	}
	return nil
}

// cleanupServices releases every profile-scoped collaborator. Cleanup
// failures are logged, never propagated, and cleanup still runs when the
// pass context is already cancelled.
func (e *Engine) cleanupServices(ctx context.Context, p *profile.Profile) {
	ctx = context.WithoutCancel(ctx)
	if e.services.Scraper != nil {
		if err := e.services.Scraper.Cleanup(ctx); err != nil {
			e.logger.Warn("scraper cleanup failed",
				logger.Field{Key: "profile", Value: p.UserName},
				logger.Field{Key: "error", Value: err.Error()},
			)
		}
	}
	if e.services.Automation != nil {
		if err := e.services.Automation.Cleanup(ctx); err != nil {
			e.logger.Warn("automation cleanup failed",
				logger.Field{Key: "profile", Value: p.UserName},
				logger.Field{Key: "error", Value: err.Error()},
			)
		}
	}
}

// likeKey buckets like counts by profile and calendar day. Likes leave no
// trace on the persisted record, so the daily cap is tracked in process
// memory only.
func (e *Engine) likeKey(userName string) string {
	return userName + "|" + e.now().Format("2006-01-02")
}

func (e *Engine) observe(fn func(notify.TaskObserver)) {
	if e.observer != nil {
		fn(e.observer)
	}
}

func (e *Engine) record(status string, duration time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordTask(status, duration)
	}
}
