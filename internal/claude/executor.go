package claude

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Defaults for [DefaultExecutor].
const (
	DefaultBinaryPath   = "claude"
	DefaultOutputFormat = "stream-json"
)

// EventHandler receives each parsed event in stream order.
type EventHandler func(Event)

// Executor runs a single prompt through the Claude CLI.
type Executor interface {
	// ExecuteWithResult runs prompt, calling handler for every streamed event,
	// and returns the process exit code. A non-nil error means the process
	// could not be run or failed; when it failed, the error carries stderr.
	ExecuteWithResult(ctx context.Context, prompt string, handler EventHandler) (int, error)
}

// ExecutorConfig configures a [DefaultExecutor].
type ExecutorConfig struct {
	BinaryPath   string
	OutputFormat string
}

// ProcessError reports a CLI run that exited with a non-zero code.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("claude exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("claude exited with code %d: %s", e.ExitCode, e.Stderr)
}

// DefaultExecutor spawns the Claude CLI in print mode.
type DefaultExecutor struct {
	config ExecutorConfig
	parser Parser
	logger *zap.Logger
}

// NewExecutor creates a [DefaultExecutor], filling unset fields of cfg with
// the package defaults.
func NewExecutor(cfg ExecutorConfig, logger *zap.Logger) *DefaultExecutor {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = DefaultBinaryPath
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultExecutor{
		config: cfg,
		parser: NewParser(),
		logger: logger.Named("claude"),
	}
}

// Args returns the command-line arguments used for prompt.
func (e *DefaultExecutor) Args(prompt string) []string {
	args := []string{"-p", prompt, "--output-format", e.config.OutputFormat}
	if e.config.OutputFormat == DefaultOutputFormat {
		args = append(args, "--verbose")
	}
	return args
}

// ExecuteWithResult implements [Executor].
func (e *DefaultExecutor) ExecuteWithResult(ctx context.Context, prompt string, handler EventHandler) (int, error) {
	cmd := exec.CommandContext(ctx, e.config.BinaryPath, e.Args(prompt)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start %s: %w", e.config.BinaryPath, err)
	}
	e.logger.Debug("claude started", zap.Int("pid", cmd.Process.Pid))

	for event := range e.parser.Parse(stdout) {
		if handler != nil {
			handler(event)
		}
	}

	err = cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		return code, &ProcessError{ExitCode: code, Stderr: strings.TrimSpace(stderr.String())}
	}
	return -1, fmt.Errorf("wait for %s: %w", e.config.BinaryPath, err)
}

// MockExecutor implements [Executor] for tests.
//
// It replays Events to the handler and returns ExitCode and Error. Every
// prompt is recorded in RecordedPrompts.
type MockExecutor struct {
	Events          []Event
	ExitCode        int
	Error           error
	RecordedPrompts []string
}

// ExecuteWithResult implements [Executor].
func (m *MockExecutor) ExecuteWithResult(_ context.Context, prompt string, handler EventHandler) (int, error) {
	m.RecordedPrompts = append(m.RecordedPrompts, prompt)
	if handler != nil {
		for _, event := range m.Events {
			handler(event)
		}
	}
	return m.ExitCode, m.Error
}
