package profile

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a queued task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task is one queued unit of work. Its identity within a profile's queue is
// structural: the (parentModuleName, actionName, argumentsString) tuple.
// There is no surrogate id.
type Task struct {
	ParentModuleName string     `json:"parentModuleName"`
	ActionName       string     `json:"actionName"`
	ArgumentsString  string     `json:"argumentsString"`
	Status           TaskStatus `json:"status,omitempty"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	Result           string     `json:"result,omitempty"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
}

// NewTask constructs a pending task.
func NewTask(module, action, args string) Task {
	return Task{
		ParentModuleName: module,
		ActionName:       action,
		ArgumentsString:  args,
		Status:           TaskStatusPending,
	}
}

// TaskFromDocument materializes a task from a raw queued record. Both the
// object form {parentModuleName, actionName, argumentsString} and the legacy
// positional form [module, action, args] are accepted.
func TaskFromDocument(raw any) (Task, error) {
	switch v := raw.(type) {
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return Task{}, fmt.Errorf("failed to marshal task record: %w", err)
		}
		var t Task
		if err := json.Unmarshal(data, &t); err != nil {
			return Task{}, fmt.Errorf("failed to decode task record: %w", err)
		}
		if t.Status == "" {
			t.Status = TaskStatusPending
		}
		return t, nil

	case []any:
		t := Task{Status: TaskStatusPending}
		if len(v) > 0 {
			t.ParentModuleName, _ = v[0].(string)
		}
		if len(v) > 1 {
			t.ActionName, _ = v[1].(string)
		}
		if len(v) > 2 {
			t.ArgumentsString, _ = v[2].(string)
		}
		if t.ParentModuleName == "" || t.ActionName == "" {
			return Task{}, fmt.Errorf("positional task record is missing module or action")
		}
		return t, nil

	default:
		return Task{}, fmt.Errorf("unsupported task record type %T", raw)
	}
}

// Matches reports whether two tasks share the same structural identity.
func (t Task) Matches(other Task) bool {
	return t.ParentModuleName == other.ParentModuleName &&
		t.ActionName == other.ActionName &&
		t.ArgumentsString == other.ArgumentsString
}

// FullActionName returns "module.action" for logs and observations.
func (t Task) FullActionName() string {
	return t.ParentModuleName + "." + t.ActionName
}

// MarkRunning transitions the task to running and stamps the start time.
func (t *Task) MarkRunning(now time.Time) {
	t.Status = TaskStatusRunning
	t.StartedAt = &now
}

// MarkCompleted transitions the task to completed with its result payload.
func (t *Task) MarkCompleted(result string, now time.Time) {
	t.Status = TaskStatusCompleted
	t.Result = result
	t.CompletedAt = &now
}

// MarkFailed transitions the task to failed with the error message. The task
// stays in its profile's queue for a future retry.
func (t *Task) MarkFailed(message string, now time.Time) {
	t.Status = TaskStatusFailed
	t.ErrorMessage = message
	t.CompletedAt = &now
}

// Duration returns the elapsed time between start and completion, or zero
// when either timestamp is missing.
func (t Task) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}
