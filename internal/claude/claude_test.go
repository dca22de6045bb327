package claude

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"contentpipe/internal/backend"
)

var _ backend.Backend = (*Backend)(nil)

func TestNewEventFromStream(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		check func(t *testing.T, e Event)
	}{
		{
			name: "system init",
			line: `{"type":"system","subtype":"init"}`,
			check: func(t *testing.T, e Event) {
				assert.True(t, e.SessionStarted)
				assert.False(t, e.IsText())
			},
		},
		{
			name: "assistant text blocks are joined",
			line: `{"type":"assistant","message":{"content":[{"type":"text","text":"{\"a\":"},{"type":"text","text":" 1}"}]}}`,
			check: func(t *testing.T, e Event) {
				assert.True(t, e.IsText())
				assert.Equal(t, `{"a": 1}`, e.Text)
			},
		},
		{
			name: "tool use",
			line: `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Read"}]}}`,
			check: func(t *testing.T, e Event) {
				assert.True(t, e.IsToolUse())
				assert.Equal(t, "Read", e.ToolName)
			},
		},
		{
			name: "result",
			line: `{"type":"result","subtype":"success","result":"done","is_error":false}`,
			check: func(t *testing.T, e Event) {
				assert.True(t, e.SessionComplete)
				assert.Equal(t, "done", e.Result)
				assert.False(t, e.IsError)
			},
		},
		{
			name: "error result",
			line: `{"type":"result","subtype":"error","result":"API Error: 429 rate_limit_error","is_error":true}`,
			check: func(t *testing.T, e Event) {
				assert.True(t, e.IsError)
				assert.Contains(t, e.Result, "429")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw StreamEvent
			require.NoError(t, json.Unmarshal([]byte(tt.line), &raw))
			tt.check(t, NewEventFromStream(&raw))
		})
	}
}

func TestDefaultParser_Parse(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"system","subtype":"init"}`,
		``,
		`garbage`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"hi"}]}}`,
		`{"type":"result","result":"hi"}`,
	}, "\n")

	var events []Event
	for e := range NewParser().Parse(strings.NewReader(input)) {
		events = append(events, e)
	}

	require.Len(t, events, 3)
	assert.Equal(t, EventTypeSystem, events[0].Type)
	assert.Equal(t, "hi", events[1].Text)
	assert.True(t, events[2].SessionComplete)
}

func TestBackend_Invoke(t *testing.T) {
	tests := []struct {
		name          string
		mock          *MockExecutor
		want          string
		wantErrSubstr string
		wantRetryable bool
	}{
		{
			name: "result text preferred",
			mock: &MockExecutor{Events: []Event{
				{Type: EventTypeAssistant, Text: "partial"},
				{Type: EventTypeResult, Result: `{"a": 1}`, SessionComplete: true},
			}},
			want: `{"a": 1}`,
		},
		{
			name: "assistant text when result is empty",
			mock: &MockExecutor{Events: []Event{
				{Type: EventTypeAssistant, Text: `{"a":`},
				{Type: EventTypeAssistant, Text: ` 1}`},
				{Type: EventTypeResult, SessionComplete: true},
			}},
			want: `{"a": 1}`,
		},
		{
			name: "error result keeps throttling wording",
			mock: &MockExecutor{
				Events:   []Event{{Type: EventTypeResult, Result: "API Error: 429 rate limit", IsError: true}},
				ExitCode: 1,
				Error:    &ProcessError{ExitCode: 1},
			},
			wantErrSubstr: "429 rate limit",
			wantRetryable: true,
		},
		{
			name:          "stderr carried through",
			mock:          &MockExecutor{ExitCode: 1, Error: &ProcessError{ExitCode: 1, Stderr: "Usage quota exhausted"}},
			wantErrSubstr: "Usage quota exhausted",
			wantRetryable: true,
		},
		{
			name:          "start failure",
			mock:          &MockExecutor{ExitCode: -1, Error: errors.New("executable file not found")},
			wantErrSubstr: "claude execution failed",
		},
		{
			name:          "non-zero exit without error",
			mock:          &MockExecutor{ExitCode: 2},
			wantErrSubstr: "exited with code 2",
		},
		{
			name:          "no text",
			mock:          &MockExecutor{},
			wantErrSubstr: "no text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBackend(tt.mock)

			got, err := b.Invoke(context.Background(), "the prompt")

			require.Len(t, tt.mock.RecordedPrompts, 1)
			assert.Equal(t, "the prompt", tt.mock.RecordedPrompts[0])
			if tt.wantErrSubstr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrSubstr)
				assert.Equal(t, tt.wantRetryable, backend.IsRetryable(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultExecutor_Args(t *testing.T) {
	e := NewExecutor(ExecutorConfig{}, nil)
	assert.Equal(t, []string{"-p", "hi", "--output-format", "stream-json", "--verbose"}, e.Args("hi"))

	e = NewExecutor(ExecutorConfig{OutputFormat: "json"}, nil)
	assert.Equal(t, []string{"-p", "hi", "--output-format", "json"}, e.Args("hi"))
}

// writeScript creates an executable shell script standing in for the CLI.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "claude")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestDefaultExecutor_ExecuteWithResult(t *testing.T) {
	script := writeScript(t, `cat <<'EOF'
{"type":"system","subtype":"init"}
{"type":"assistant","message":{"content":[{"type":"text","text":"{\"ok\": true}"}]}}
{"type":"result","subtype":"success","result":"{\"ok\": true}"}
EOF
`)
	e := NewExecutor(ExecutorConfig{BinaryPath: script}, zap.NewNop())

	var events []Event
	code, err := e.ExecuteWithResult(context.Background(), "p", func(ev Event) {
		events = append(events, ev)
	})

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	require.Len(t, events, 3)

	text, err := NewBackend(e).Invoke(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, text)
}

func TestDefaultExecutor_FailureCarriesStderr(t *testing.T) {
	script := writeScript(t, "echo 'rate limit exceeded' >&2\nexit 3\n")
	e := NewExecutor(ExecutorConfig{BinaryPath: script}, nil)

	code, err := e.ExecuteWithResult(context.Background(), "p", nil)

	assert.Equal(t, 3, code)
	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "rate limit exceeded", procErr.Stderr)
	assert.True(t, backend.IsRetryable(err))
}

func TestDefaultExecutor_MissingBinary(t *testing.T) {
	e := NewExecutor(ExecutorConfig{BinaryPath: filepath.Join(t.TempDir(), "missing")}, nil)

	code, err := e.ExecuteWithResult(context.Background(), "p", nil)

	assert.Equal(t, -1, code)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start")
}
