// Package notify delivers task lifecycle observations to external sinks.
// Sinks are fire-and-forget: a failing sink never fails the task.
package notify

import (
	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/profile"
)

// TaskObserver receives task lifecycle events during a dispatch pass.
type TaskObserver interface {
	TaskStarted(task profile.Task, p *profile.Profile)
	TaskCompleted(task profile.Task, p *profile.Profile)
	TaskFailed(task profile.Task, p *profile.Profile, err error)
}

// LogObserver writes task observations to the structured log.
type LogObserver struct {
	logger *logger.Logger
}

var _ TaskObserver = (*LogObserver)(nil)

// NewLogObserver creates a logger-backed observer.
func NewLogObserver(log *logger.Logger) *LogObserver {
	return &LogObserver{logger: log}
}

func (o *LogObserver) TaskStarted(task profile.Task, p *profile.Profile) {
	o.logger.Info("task started",
		logger.Field{Key: "profile", Value: p.UserName},
		logger.Field{Key: "action", Value: task.FullActionName()},
		logger.Field{Key: "args", Value: task.ArgumentsString},
	)
}

func (o *LogObserver) TaskCompleted(task profile.Task, p *profile.Profile) {
	o.logger.Info("task completed",
		logger.Field{Key: "profile", Value: p.UserName},
		logger.Field{Key: "action", Value: task.FullActionName()},
		logger.Field{Key: "duration", Value: task.Duration().String()},
		logger.Field{Key: "result", Value: task.Result},
	)
}

func (o *LogObserver) TaskFailed(task profile.Task, p *profile.Profile, err error) {
	o.logger.Error("task failed", err,
		logger.Field{Key: "profile", Value: p.UserName},
		logger.Field{Key: "action", Value: task.FullActionName()},
	)
}

// Multi fans one observation out to several observers in order.
type Multi struct {
	observers []TaskObserver
}

var _ TaskObserver = (*Multi)(nil)

// NewMulti creates a fan-out observer.
func NewMulti(observers ...TaskObserver) *Multi {
	return &Multi{observers: observers}
}

func (m *Multi) TaskStarted(task profile.Task, p *profile.Profile) {
	for _, o := range m.observers {
		o.TaskStarted(task, p)
	}
}

func (m *Multi) TaskCompleted(task profile.Task, p *profile.Profile) {
	for _, o := range m.observers {
		o.TaskCompleted(task, p)
	}
}

func (m *Multi) TaskFailed(task profile.Task, p *profile.Profile, err error) {
	for _, o := range m.observers {
		o.TaskFailed(task, p, err)
	}
}
