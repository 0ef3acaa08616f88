package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCategory(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"input", ErrInputRequired, "InputError"},
		{"prompt store", fmt.Errorf("prompt %q: %w: status 503", "k", ErrPromptStore), "PromptStoreError"},
		{"llm", fmt.Errorf("completion API error 429: rate limited: %w", ErrLLM), "LLMError"},
		{"parse", fmt.Errorf("%w: no object found", ErrParse), "ParseError"},
		{"database", fmt.Errorf("%w: connection refused", ErrDatabase), "DatabaseError"},
		{"format", fmt.Errorf("%w: template missing", ErrFormat), "FormatError"},
		{"unknown", errors.New("boom"), "InternalError"},
		{"nil chain depth", fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ErrDatabase)), "DatabaseError"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorCategory(tc.err); got != tc.want {
				t.Errorf("ErrorCategory(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorCategory_FormatWinsOverEmbeddedCause(t *testing.T) {
	// The formatter wraps only ErrFormat; the cause is embedded as text so a
	// degraded format stage reports FormatError, not the cause's category.
	err := fmt.Errorf("%w: %s", ErrFormat, ErrLLM.Error())
	if got := ErrorCategory(err); got != "FormatError" {
		t.Errorf("expected FormatError, got %q", got)
	}
}
