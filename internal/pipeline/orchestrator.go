// Package pipeline sequences steps into a run and produces its final report.
//
// The [Orchestrator] runs a [Workflow]'s steps strictly in declaration order,
// each through the step contract, pacing backend-bound steps with a fixed
// pause. Non-fatal step faults are absorbed: a warning is logged and the
// step's fallback output stands in for its result. A fatal fault ends the run.
// After the last step the workflow's report step aggregates the results.
//
// Key types:
//   - [Definition] declares one step, its input, fatality and fallback
//   - [Workflow] is the ordered step list plus the report step
//   - [Orchestrator] runs workflows
//   - [Outcome] is what a run leaves behind
//   - [Report] is the consolidated pass/fail report
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"contentpipe/internal/state"
	"contentpipe/internal/step"
)

// DefaultPause is the fixed pause between backend-bound steps.
const DefaultPause = 5 * time.Second

const tracerName = "contentpipe/internal/pipeline"

// ErrInvalidReport is returned when the report step does not produce a [Report].
var ErrInvalidReport = errors.New("report step did not produce a report")

// ErrNoStep is returned when a workflow definition has no step to run.
var ErrNoStep = errors.New("definition has no step")

// Inputs gives input and fallback producers access to the run's raw input
// and the results of earlier steps.
type Inputs struct {
	Raw   any
	store *state.Store
}

// Result returns the stored result of an earlier step.
func (in Inputs) Result(name string) (any, bool) {
	if in.store == nil {
		return nil, false
	}
	return in.store.Result(name)
}

// Definition declares one step of a workflow.
type Definition struct {
	Step step.Step

	// Input derives the step's input. When nil the raw run input is used.
	Input func(Inputs) any

	// Fatal steps end the run on failure.
	Fatal bool

	// UsesBackend marks steps that call the generative backend; they are paced.
	UsesBackend bool

	// Fallback produces the substitute result of a failed non-fatal step.
	// When nil the step's result is absent.
	Fallback func(Inputs) any
}

// Name returns the step's name, or "" when no step is set.
func (d Definition) Name() string {
	if d.Step == nil {
		return ""
	}
	return d.Step.Name()
}

// Workflow is an ordered list of steps followed by a report step whose
// output must be a [Report]. The report step always runs as fatal.
type Workflow struct {
	Name   string
	Steps  []Definition
	Report Definition
}

// StepError reports the fatal fault that ended a run.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ProgressCallback is invoked before each step begins.
//
// It receives stepIndex (1-based), totalSteps including the report step, and
// the step name.
type ProgressCallback func(stepIndex, totalSteps int, name string)

// Outcome is what a run leaves behind.
type Outcome struct {
	RunID   string
	Report  Report
	Results map[string]any
	Summary state.Summary
	Events  []state.Event
}

// Orchestrator runs workflows. Each run gets its own [state.Store].
//
// Use [NewOrchestrator] to create an instance.
type Orchestrator struct {
	logger           *zap.Logger
	tracer           trace.Tracer
	pause            time.Duration
	sleep            func(time.Duration)
	progressCallback ProgressCallback
}

// NewOrchestrator creates an Orchestrator with the default pause. A nil
// logger is replaced by a no-op logger.
func NewOrchestrator(logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		logger: logger,
		tracer: otel.Tracer(tracerName),
		pause:  DefaultPause,
		sleep:  time.Sleep,
	}
}

// SetPause sets the pause between backend-bound steps. Zero disables pacing.
func (o *Orchestrator) SetPause(d time.Duration) {
	if d < 0 {
		d = 0
	}
	o.pause = d
}

// SetSleeper replaces the blocking sleep used for pacing.
func (o *Orchestrator) SetSleeper(s func(time.Duration)) {
	if s == nil {
		s = time.Sleep
	}
	o.sleep = s
}

// SetProgressCallback configures an optional callback invoked before each step.
func (o *Orchestrator) SetProgressCallback(cb ProgressCallback) {
	o.progressCallback = cb
}

// Run executes wf against raw input.
//
// Steps run in order. A backend-bound step that follows an earlier
// backend-bound step waits for the configured pause first. A failed
// non-fatal step logs a warning event and stores its fallback output (or
// nothing) as its result. A failed fatal step ends the run with a
// [*StepError]; no later step is started.
//
// A workflow with a definition lacking its step fails with [ErrNoStep]
// before anything runs.
//
// The returned Outcome is never nil, so a failed run can still be inspected.
func (o *Orchestrator) Run(ctx context.Context, wf Workflow, raw any) (*Outcome, error) {
	store := state.NewStore()
	if err := wf.validate(); err != nil {
		return newOutcome(store), err
	}
	contract := step.NewContract(store, o.logger)
	inputs := Inputs{Raw: raw, store: store}
	log := o.logger.Named("pipeline").With(zap.String("workflow", wf.Name), zap.String("run_id", store.RunID()))

	ctx, span := o.tracer.Start(ctx, "pipeline "+wf.Name, trace.WithAttributes(
		attribute.String("run.id", store.RunID()),
		attribute.Int("pipeline.steps", len(wf.Steps)),
	))
	defer span.End()

	store.StartWorkflow()
	log.Info("workflow started")

	total := len(wf.Steps) + 1
	backendCalled := false

	for i, def := range wf.Steps {
		name := def.Name()
		if o.progressCallback != nil {
			o.progressCallback(i+1, total, name)
		}

		if def.UsesBackend {
			if backendCalled && o.pause > 0 {
				log.Debug("pacing before backend step", zap.String("step", name), zap.Duration("pause", o.pause))
				o.sleep(o.pause)
			}
			backendCalled = true
		}

		_, err := contract.Run(ctx, def.Step, def.input(inputs))
		if err == nil {
			continue
		}

		if def.Fatal {
			return o.fail(store, span, log, name, err)
		}

		var fallback any
		if def.Fallback != nil {
			fallback = def.Fallback(inputs)
		}
		store.AppendEvent(state.EventWarning, map[string]any{
			"step":          name,
			"error":         err.Error(),
			"used_fallback": def.Fallback != nil,
		})
		store.SetResult(name, fallback)
		log.Warn("step failed, continuing with fallback", zap.String("step", name), zap.Error(err))
	}

	name := wf.Report.Name()
	if o.progressCallback != nil {
		o.progressCallback(total, total, name)
	}
	out, err := contract.Run(ctx, wf.Report.Step, wf.Report.input(inputs))
	if err != nil {
		return o.fail(store, span, log, name, err)
	}
	report, ok := asReport(out)
	if !ok {
		return o.fail(store, span, log, name, fmt.Errorf("%w: got %T", ErrInvalidReport, out))
	}

	store.EndWorkflow()
	log.Info("workflow completed", zap.String("status", report.Status))
	span.SetAttributes(attribute.String("report.status", report.Status))
	span.SetStatus(codes.Ok, "")

	outcome := newOutcome(store)
	outcome.Report = report
	return outcome, nil
}

func (o *Orchestrator) fail(store *state.Store, span trace.Span, log *zap.Logger, name string, err error) (*Outcome, error) {
	store.FailWorkflow(name, err)
	log.Error("workflow failed", zap.String("step", name), zap.Error(err))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return newOutcome(store), &StepError{Step: name, Err: err}
}

func (wf Workflow) validate() error {
	for i, def := range wf.Steps {
		if def.Step == nil {
			return fmt.Errorf("workflow %s: step %d: %w", wf.Name, i+1, ErrNoStep)
		}
	}
	if wf.Report.Step == nil {
		return fmt.Errorf("workflow %s: report: %w", wf.Name, ErrNoStep)
	}
	return nil
}

func (d Definition) input(in Inputs) any {
	if d.Input == nil {
		return in.Raw
	}
	return d.Input(in)
}

func newOutcome(store *state.Store) *Outcome {
	results := make(map[string]any)
	for _, name := range store.Steps() {
		if v, ok := store.Result(name); ok {
			results[name] = v
		}
	}
	return &Outcome{
		RunID:   store.RunID(),
		Results: results,
		Summary: store.Summary(),
		Events:  store.Events(),
	}
}

func asReport(v any) (Report, bool) {
	switch r := v.(type) {
	case Report:
		return r, true
	case *Report:
		if r != nil {
			return *r, true
		}
	}
	return Report{}, false
}
