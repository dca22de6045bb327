package state

import "time"

// EventType identifies the kind of an entry in the run's event log.
type EventType string

const (
	EventWorkflowStarted   EventType = "workflow_started"
	EventWorkflowCompleted EventType = "workflow_completed"
	EventWorkflowFailed    EventType = "workflow_failed"
	EventStatusChange      EventType = "status_change"
	EventResultStored      EventType = "result_stored"

	// EventTrace records step execution traces (started, completed, failed).
	EventTrace EventType = "trace"

	// EventDecision records a choice a step made and the context it used.
	EventDecision EventType = "decision"

	// EventWarning records a recovered fault, such as a fallback substitution.
	EventWarning EventType = "warning"
)

// Event is a single entry of the run's event log.
//
// Events are never modified after they are appended. Data holds small,
// human-oriented details; do not put generated payloads here.
type Event struct {
	Type      EventType      `json:"event_type" yaml:"event_type"`
	Data      map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
}
