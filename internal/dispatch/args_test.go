package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []any
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"single string", "bob", []any{"bob"}},
		{"trims spaces", " bob , carol ", []any{"bob", "carol"}},
		{"booleans", "true,false", []any{true, false}},
		{"numbers become float64", "42,3.14", []any{float64(42), 3.14}},
		{"mixed", "bob,true,5", []any{"bob", true, float64(5)}},
		{"numeric-looking string is lossy", "007", []any{float64(7)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArguments(tt.raw))
		})
	}
}

func TestArgString(t *testing.T) {
	got, err := argString([]any{"bob"}, 0, "target")
	require.NoError(t, err)
	assert.Equal(t, "bob", got)

	_, err = argString(nil, 0, "target")
	assert.Error(t, err)

	_, err = argString([]any{true}, 0, "target")
	assert.Error(t, err)
}

func TestArgBool(t *testing.T) {
	assert.True(t, argBool([]any{true}, 0, false))
	assert.False(t, argBool(nil, 0, false))
	assert.True(t, argBool([]any{"x"}, 0, true))
}

func TestArgStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, argStrings([]any{"a", true, "b"}, 0))
	assert.Nil(t, argStrings(nil, 0))
}
