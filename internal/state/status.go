// Package state tracks the progress of a single pipeline run.
//
// A [Store] is the run context: it holds one [Record] per named step (status,
// result and timing) plus an append-only log of [Event] values used for audit
// and tracing. Stores are in-memory only and are owned by exactly one run.
//
// Key types:
//   - [Status] is the lifecycle state of a step
//   - [Store] records statuses, results and events for a run
//   - [Event] is one immutable entry of the run's event log
package state

import "errors"

// Status represents the lifecycle state of a step within a run.
type Status string

const (
	// StatusPending is the implicit status of a step that has not started.
	StatusPending Status = "PENDING"

	// StatusRunning indicates the step's contract call is in progress.
	StatusRunning Status = "RUNNING"

	// StatusCompleted indicates the step finished and stored its result.
	StatusCompleted Status = "COMPLETED"

	// StatusFailed indicates the step faulted during validation or execution.
	StatusFailed Status = "FAILED"

	// StatusSkipped indicates the step was never started in this run.
	StatusSkipped Status = "SKIPPED"
)

// ErrInvalidTransition is returned by [Store.SetStatus] when the requested
// status cannot follow the step's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// IsValid returns true if the status is one of the known status values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for statuses a step never leaves within a run.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}

// canTransition reports whether a step may move from s to next.
// Re-setting the current status is handled by the caller as a no-op.
func (s Status) canTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusSkipped
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}
