package dispatch

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseArguments splits a raw comma-separated argument string into typed
// values: "true"/"false" become bool, numeric-looking tokens become
// float64, everything else stays a string. The coercion is lossy on
// purpose: a literal string "42" cannot survive the round trip.
func ParseArguments(raw string) []any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	args := make([]any, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch {
		case part == "true":
			args = append(args, true)
		case part == "false":
			args = append(args, false)
		default:
			if n, err := strconv.ParseFloat(part, 64); err == nil {
				args = append(args, n)
			} else {
				args = append(args, part)
			}
		}
	}
	return args
}

// argString returns the required string argument at index i.
func argString(args []any, i int, name string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s, ok := args[i].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string, got %v", name, args[i])
	}
	return s, nil
}

// argBool returns the bool argument at index i, or fallback when absent.
func argBool(args []any, i int, fallback bool) bool {
	if i >= len(args) {
		return fallback
	}
	if b, ok := args[i].(bool); ok {
		return b
	}
	return fallback
}

// argStrings returns every string-typed argument from index i on.
func argStrings(args []any, i int) []string {
	var out []string
	for ; i < len(args); i++ {
		if s, ok := args[i].(string); ok {
			out = append(out, s)
		}
	}
	return out
}
