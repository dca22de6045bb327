package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend serves prompts through an [Executor]. It satisfies the
// backend.Backend interface.
type Backend struct {
	executor Executor
}

// NewBackend creates a Backend using executor.
func NewBackend(executor Executor) *Backend {
	return &Backend{executor: executor}
}

// Invoke runs prompt and returns the completion text.
//
// The final result event's text is preferred; without one the assistant
// text blocks are concatenated. A result event flagged as an error, a
// non-zero exit or a process failure is returned as an error whose message
// keeps the CLI's own wording, so throttling stays recognizable.
func (b *Backend) Invoke(ctx context.Context, prompt string) (string, error) {
	var (
		text      strings.Builder
		result    string
		hasResult bool
		failure   string
	)
	handler := func(event Event) {
		switch {
		case event.IsText():
			text.WriteString(event.Text)
		case event.Type == EventTypeResult:
			if event.IsError {
				failure = event.Result
				return
			}
			result = event.Result
			hasResult = true
		}
	}

	exitCode, err := b.executor.ExecuteWithResult(ctx, prompt, handler)
	if failure != "" {
		return "", fmt.Errorf("claude reported an error: %s", failure)
	}
	if err != nil {
		var procErr *ProcessError
		if errors.As(err, &procErr) {
			return "", procErr
		}
		return "", fmt.Errorf("claude execution failed: %w", err)
	}
	if exitCode != 0 {
		return "", &ProcessError{ExitCode: exitCode}
	}

	if hasResult && strings.TrimSpace(result) != "" {
		return result, nil
	}
	if text.Len() == 0 {
		return "", errors.New("claude returned no text")
	}
	return text.String(), nil
}
