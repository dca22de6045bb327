package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is the state of one named step within a run.
type Record struct {
	Name       string
	Status     Status
	Result     any
	HasResult  bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary is a point-in-time digest of a run, suitable for reporting.
type Summary struct {
	RunID           string            `json:"run_id" yaml:"run_id"`
	WorkflowStart   *time.Time        `json:"workflow_start,omitempty" yaml:"workflow_start,omitempty"`
	WorkflowEnd     *time.Time        `json:"workflow_end,omitempty" yaml:"workflow_end,omitempty"`
	StepStatuses    map[string]Status `json:"step_statuses" yaml:"step_statuses"`
	TotalEvents     int               `json:"total_events" yaml:"total_events"`
	DurationSeconds float64           `json:"total_duration_seconds,omitempty" yaml:"total_duration_seconds,omitempty"`
}

// Store is the run context of a single pipeline execution.
//
// Store is not safe for concurrent use. A run owns its Store exclusively and
// mutates it from a single goroutine; independent runs need independent
// stores. Use [NewStore] to create one.
type Store struct {
	runID         string
	records       map[string]*Record
	order         []string
	events        []Event
	workflowStart time.Time
	workflowEnd   time.Time
	now           func() time.Time
}

// NewStore creates an empty Store with a fresh run ID.
func NewStore() *Store {
	return &Store{
		runID:   uuid.NewString(),
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// RunID returns the identifier of the run this store belongs to.
func (s *Store) RunID() string {
	return s.runID
}

// StartWorkflow marks the run as started.
func (s *Store) StartWorkflow() {
	s.workflowStart = s.now()
	s.AppendEvent(EventWorkflowStarted, map[string]any{
		"run_id":    s.runID,
		"timestamp": s.workflowStart.Format(time.RFC3339Nano),
	})
}

// EndWorkflow marks the run as ended and logs its duration when the start
// time is known.
func (s *Store) EndWorkflow() {
	s.workflowEnd = s.now()
	if s.workflowStart.IsZero() {
		return
	}
	s.AppendEvent(EventWorkflowCompleted, map[string]any{
		"timestamp":        s.workflowEnd.Format(time.RFC3339Nano),
		"duration_seconds": s.workflowEnd.Sub(s.workflowStart).Seconds(),
	})
}

// FailWorkflow marks the run as ended by a fatal fault in the named step.
func (s *Store) FailWorkflow(step string, err error) {
	s.workflowEnd = s.now()
	s.AppendEvent(EventWorkflowFailed, map[string]any{
		"step":      step,
		"error":     err.Error(),
		"timestamp": s.workflowEnd.Format(time.RFC3339Nano),
	})
}

// SetStatus records a new status for the step and appends a status_change event.
//
// Setting the status a step already has is a no-op and logs nothing. Moving a
// step out of a terminal status, or skipping RUNNING, returns an error
// wrapping [ErrInvalidTransition].
func (s *Store) SetStatus(step string, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: unknown status %q for step %s", ErrInvalidTransition, status, step)
	}

	current := s.Status(step)
	if current == status {
		return nil
	}
	if !current.canTransition(status) {
		return fmt.Errorf("%w: step %s cannot move from %s to %s", ErrInvalidTransition, step, current, status)
	}

	rec := s.record(step)
	rec.Status = status
	now := s.now()
	switch {
	case status == StatusRunning:
		rec.StartedAt = now
	case status.IsTerminal():
		rec.FinishedAt = now
	}

	s.AppendEvent(EventStatusChange, map[string]any{
		"step":      step,
		"status":    string(status),
		"timestamp": now.Format(time.RFC3339Nano),
	})
	return nil
}

// Status returns the current status of the step, or [StatusPending] if no
// status was ever set for it.
func (s *Store) Status(step string) Status {
	if rec, ok := s.records[step]; ok {
		return rec.Status
	}
	return StatusPending
}

// SetResult stores the step's result and appends a result_stored event.
func (s *Store) SetResult(step string, value any) {
	rec := s.record(step)
	rec.Result = value
	rec.HasResult = true
	s.AppendEvent(EventResultStored, map[string]any{
		"step":      step,
		"timestamp": s.now().Format(time.RFC3339Nano),
	})
}

// Result returns the step's stored result. The boolean is false when no
// result was stored.
func (s *Store) Result(step string) (any, bool) {
	rec, ok := s.records[step]
	if !ok || !rec.HasResult {
		return nil, false
	}
	return rec.Result, true
}

// Record returns a copy of the step's record. The boolean is false when the
// store has never seen the step.
func (s *Store) Record(step string) (Record, bool) {
	rec, ok := s.records[step]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Steps returns the names of all steps the store has seen, in first-seen order.
func (s *Store) Steps() []string {
	return append([]string(nil), s.order...)
}

// AppendEvent appends an event to the log. The data map is copied.
func (s *Store) AppendEvent(eventType EventType, data map[string]any) {
	var copied map[string]any
	if data != nil {
		copied = make(map[string]any, len(data))
		for k, v := range data {
			copied[k] = v
		}
	}
	s.events = append(s.events, Event{
		Type:      eventType,
		Data:      copied,
		Timestamp: s.now(),
	})
}

// Events returns a copy of the event log in append order.
func (s *Store) Events() []Event {
	return append([]Event(nil), s.events...)
}

// EventsOfType returns the events of the given type in append order.
func (s *Store) EventsOfType(eventType EventType) []Event {
	var out []Event
	for _, ev := range s.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// Summary returns a digest of the run's progress.
func (s *Store) Summary() Summary {
	sum := Summary{
		RunID:        s.runID,
		StepStatuses: make(map[string]Status, len(s.records)),
		TotalEvents:  len(s.events),
	}
	if !s.workflowStart.IsZero() {
		start := s.workflowStart
		sum.WorkflowStart = &start
	}
	if !s.workflowEnd.IsZero() {
		end := s.workflowEnd
		sum.WorkflowEnd = &end
	}
	if sum.WorkflowStart != nil && sum.WorkflowEnd != nil {
		sum.DurationSeconds = s.workflowEnd.Sub(s.workflowStart).Seconds()
	}
	for name, rec := range s.records {
		sum.StepStatuses[name] = rec.Status
	}
	return sum
}

func (s *Store) record(step string) *Record {
	rec, ok := s.records[step]
	if !ok {
		rec = &Record{Name: step, Status: StatusPending}
		s.records[step] = rec
		s.order = append(s.order, step)
	}
	return rec
}
