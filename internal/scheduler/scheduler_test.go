package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/orchestrator"
)

type countingRunner struct {
	mu    sync.Mutex
	runs  int
	block chan struct{}
}

func (r *countingRunner) RunPass(ctx context.Context) (orchestrator.Summary, error) {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	return orchestrator.Summary{}, nil
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func TestStart_InvalidSpec(t *testing.T) {
	s := New(&countingRunner{}, testLogger(t), Config{Spec: "not a cron spec"})

	err := s.Start(context.Background())
	assert.Error(t, err)
}

func TestInWorkShift(t *testing.T) {
	morning := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	night := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		hours int
		now   time.Time
		want  bool
	}{
		{"inside window", 16, morning, true},
		{"outside window", 16, night, false},
		{"zero disables window", 0, night, true},
		{"full day disables window", 24, night, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&countingRunner{}, testLogger(t), Config{WorkShiftHours: tt.hours},
				WithClock(func() time.Time { return tt.now }))
			assert.Equal(t, tt.want, s.InWorkShift())
		})
	}
}

func TestTrigger_SkipsOutsideWorkShift(t *testing.T) {
	runner := &countingRunner{}
	night := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	s := New(runner, testLogger(t), Config{WorkShiftHours: 16},
		WithClock(func() time.Time { return night }))

	s.trigger(context.Background())
	assert.Zero(t, runner.count())
}

func TestTrigger_RunsPass(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, testLogger(t), Config{})

	s.trigger(context.Background())
	s.trigger(context.Background())
	assert.Equal(t, 2, runner.count())
}

func TestTrigger_SkipsWhilePassRunning(t *testing.T) {
	runner := &countingRunner{block: make(chan struct{})}
	s := New(runner, testLogger(t), Config{})

	done := make(chan struct{})
	go func() {
		s.trigger(context.Background())
		close(done)
	}()

	// Wait for the first pass to be in flight, then trigger again.
	assert.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, time.Millisecond)
	s.trigger(context.Background())
	assert.Equal(t, 1, runner.count())

	close(runner.block)
	<-done
}
