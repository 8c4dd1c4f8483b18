package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/profile"
)

type recordingObserver struct {
	started, completed, failed []string
}

func (r *recordingObserver) TaskStarted(task profile.Task, p *profile.Profile) {
	r.started = append(r.started, task.FullActionName())
}

func (r *recordingObserver) TaskCompleted(task profile.Task, p *profile.Profile) {
	r.completed = append(r.completed, task.FullActionName())
}

func (r *recordingObserver) TaskFailed(task profile.Task, p *profile.Profile, err error) {
	r.failed = append(r.failed, task.FullActionName())
}

type mockSender struct {
	texts []string
	err   error
}

func (m *mockSender) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.texts = append(m.texts, params.Text)
	return &telego.Message{}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func TestMulti_FansOutInOrder(t *testing.T) {
	first := &recordingObserver{}
	second := &recordingObserver{}
	multi := NewMulti(first, second)

	p := profile.New("alice", profile.TypeAgent)
	task := profile.NewTask("automation", "follow", "bob")

	multi.TaskStarted(task, p)
	multi.TaskCompleted(task, p)
	multi.TaskFailed(task, p, errors.New("boom"))

	for _, r := range []*recordingObserver{first, second} {
		assert.Equal(t, []string{"automation.follow"}, r.started)
		assert.Equal(t, []string{"automation.follow"}, r.completed)
		assert.Equal(t, []string{"automation.follow"}, r.failed)
	}
}

func TestLogObserver_DoesNotPanic(t *testing.T) {
	obs := NewLogObserver(testLogger(t))
	p := profile.New("alice", profile.TypeAgent)
	task := profile.NewTask("automation", "follow", "bob")
	task.MarkRunning(time.Now())
	task.MarkCompleted("ok", time.Now())

	obs.TaskStarted(task, p)
	obs.TaskCompleted(task, p)
	obs.TaskFailed(task, p, errors.New("boom"))
}

func TestTelegramObserver_SendsCompletionAndFailure(t *testing.T) {
	sender := &mockSender{}
	obs := &TelegramObserver{bot: sender, chatID: 42, logger: testLogger(t)}

	p := profile.New("alice", profile.TypeAgent)
	task := profile.NewTask("automation", "follow", "bob")
	task.MarkRunning(time.Now())
	task.MarkCompleted("ok", time.Now())

	obs.TaskStarted(task, p) // no message for starts
	obs.TaskCompleted(task, p)
	obs.TaskFailed(task, p, errors.New("driver crashed"))

	require.Len(t, sender.texts, 2)
	assert.Contains(t, sender.texts[0], "automation.follow")
	assert.Contains(t, sender.texts[1], "driver crashed")
}

func TestTelegramObserver_SendFailureIsSwallowed(t *testing.T) {
	sender := &mockSender{err: errors.New("network down")}
	obs := &TelegramObserver{bot: sender, chatID: 42, logger: testLogger(t)}

	p := profile.New("alice", profile.TypeAgent)
	task := profile.NewTask("automation", "follow", "bob")

	// Must not panic or propagate.
	obs.TaskFailed(task, p, errors.New("boom"))
}
