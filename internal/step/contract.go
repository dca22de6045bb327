package step

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"contentpipe/internal/state"
)

const tracerName = "contentpipe/internal/step"

// Trace statuses recorded in trace events.
const (
	TraceStarted   = "started"
	TraceCompleted = "completed"
	TraceFailed    = "failed"
)

// Contract runs steps against a single run's store.
//
// Create one per run with [NewContract]. Every call to [Contract.Run] leaves
// the step in a terminal status and appends a terminal trace event carrying
// the elapsed time in milliseconds.
type Contract struct {
	store  *state.Store
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewContract creates a Contract recording into store. A nil logger is
// replaced by a no-op logger.
func NewContract(store *state.Store, logger *zap.Logger) *Contract {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Contract{
		store:  store,
		logger: logger.Named("step"),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
}

// Store returns the run store the contract records into.
func (c *Contract) Store() *state.Store {
	return c.store
}

// Run executes s with input using the template:
//
//  1. set RUNNING and trace the start
//  2. Validate, 3. Execute, 4. Format
//  5. store the result, set COMPLETED and trace the elapsed time
//  6. return the formatted result
//
// A fault in 2-4 sets FAILED, traces the elapsed time and is returned as-is,
// so callers can match it with errors.Is. Run never swallows errors.
func (c *Contract) Run(ctx context.Context, s Step, input any) (any, error) {
	name := s.Name()
	start := c.now()

	ctx, span := c.tracer.Start(ctx, "step "+name, trace.WithAttributes(
		attribute.String("step.name", name),
		attribute.String("run.id", c.store.RunID()),
	))
	defer span.End()
	ctx = WithStore(ctx, c.store)

	log := c.logger.With(zap.String("step", name))

	if err := c.store.SetStatus(name, state.StatusRunning); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("start step %s: %w", name, err)
	}
	c.trace(name, TraceStarted, nil)
	log.Info("starting execution")

	result, err := c.invoke(ctx, s, input, log)
	elapsed := c.now().Sub(start)
	if err != nil {
		if statusErr := c.store.SetStatus(name, state.StatusFailed); statusErr != nil {
			log.Warn("could not mark step failed", zap.Error(statusErr))
		}
		c.trace(name, TraceFailed, &elapsed)
		log.Error("execution failed", zap.Error(err), zap.Duration("duration", elapsed))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c.store.SetResult(name, result)
	if err := c.store.SetStatus(name, state.StatusCompleted); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("complete step %s: %w", name, err)
	}
	c.trace(name, TraceCompleted, &elapsed)
	log.Info("execution completed", zap.Duration("duration", elapsed))
	span.SetStatus(codes.Ok, "")

	return result, nil
}

func (c *Contract) invoke(ctx context.Context, s Step, input any, log *zap.Logger) (any, error) {
	log.Debug("validating input")
	if err := s.Validate(input); err != nil {
		return nil, err
	}

	log.Debug("executing step logic")
	raw, err := s.Execute(ctx, input)
	if err != nil {
		return nil, err
	}

	log.Debug("formatting output")
	return s.Format(raw)
}

func (c *Contract) trace(name, status string, elapsed *time.Duration) {
	data := map[string]any{
		"step":   name,
		"action": "execute",
		"status": status,
	}
	if elapsed != nil {
		data["duration_ms"] = float64(*elapsed) / float64(time.Millisecond)
	}
	c.store.AppendEvent(state.EventTrace, data)
}
