package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid json config stdout",
			config:  Config{Level: "debug", Format: "json", Output: "stdout"},
			wantErr: false,
		},
		{
			name:    "valid text config stderr",
			config:  Config{Level: "info", Format: "text", Output: "stderr"},
			wantErr: false,
		},
		{
			name:    "invalid level",
			config:  Config{Level: "invalid", Format: "json", Output: "stdout"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "debug", Format: "xml", Output: "stdout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "profilebot.log")

	log, err := New(Config{Level: "info", Format: "json", Output: logPath})
	require.NoError(t, err)

	log.Info("task started", Field{Key: "user_name", Value: "alice"})

	assert.FileExists(t, logPath)
}

func TestWith(t *testing.T) {
	log, err := New(Config{Level: "debug", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	child := log.With(Field{Key: "profile", Value: "alice"})
	assert.NotNil(t, child)
	assert.NotSame(t, log, child)
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		_, ok := parseLevel(level)
		assert.True(t, ok, "level %q should parse", level)
	}

	_, ok := parseLevel("verbose")
	assert.False(t, ok)
}
