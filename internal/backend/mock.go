package backend

import (
	"context"
	"errors"
)

// MockBackend is a scripted [Backend] for tests.
//
// Each call consumes the next entry of Responses and Errors by index; a
// non-nil error at that index wins. Once the script runs out the last entry
// repeats. Every prompt is recorded in Prompts.
type MockBackend struct {
	Responses []string
	Errors    []error
	Prompts   []string
}

// Invoke records prompt and returns the scripted response or error.
func (m *MockBackend) Invoke(_ context.Context, prompt string) (string, error) {
	i := len(m.Prompts)
	m.Prompts = append(m.Prompts, prompt)

	if err := pick(m.Errors, i); err != nil {
		return "", err
	}
	if len(m.Responses) == 0 {
		if len(m.Errors) == 0 {
			return "", errors.New("mock backend has no scripted response")
		}
		return "", nil
	}
	return pick(m.Responses, i), nil
}

// Calls returns how many times Invoke was called.
func (m *MockBackend) Calls() int {
	return len(m.Prompts)
}

func pick[T any](items []T, i int) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	if i >= len(items) {
		i = len(items) - 1
	}
	return items[i]
}
