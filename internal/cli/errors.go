package cli

import "fmt"

// ExitError represents a command execution failure with a specific exit code.
//
// Commands return it from RunE instead of calling os.Exit, so tests can
// assert on exit codes without terminating the process. [Run] extracts the
// code into an [ExecuteResult] and main performs the actual exit.
type ExitError struct {
	// Code is the exit code to return to the shell.
	// Convention: 1 = run error, 2 = quality report FAILED.
	Code int
}

// Error implements the error interface, returning a string in the format
// "exit status N". This matches the os/exec ExitError wording.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an [ExitError] with the given exit code.
//
// Use this in Cobra RunE functions to signal failure:
//
//	if err != nil {
//	    return NewExitError(ExitRunError)
//	}
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError checks if an error is an [ExitError] and extracts its exit code.
//
// Returns (code, true) if err is an *ExitError. Returns (0, false) for nil
// or non-ExitError errors.
func IsExitError(err error) (int, bool) {
	if exitErr, ok := err.(*ExitError); ok {
		return exitErr.Code, true
	}
	return 0, false
}
