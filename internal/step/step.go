// Package step defines the execution contract every pipeline step follows.
//
// A step is any type that provides the [Step] capability set: a name, input
// validation, execution and output formatting. [Contract.Run] wraps a step in
// the uniform template: mark RUNNING, validate, execute, format, store the
// result, mark COMPLETED, and trace the elapsed time. Any fault marks the step
// FAILED, is traced with its elapsed time, and is returned unchanged.
//
// Key types:
//   - [Step] is the capability set a step implements
//   - [Base] supplies the default Validate and Format; embed it in steps
//   - [Contract] runs steps against a run's [state.Store]
package step

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"contentpipe/internal/state"
)

// ErrInvalidInput is the condition family for step input that fails its
// contract. Validators must return errors that match it with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Step is the capability set a pipeline step provides.
type Step interface {
	// Name returns the step name used for status, results and events.
	Name() string

	// Validate checks the input before execution. It must return an error
	// matching [ErrInvalidInput] when the input is unacceptable.
	Validate(input any) error

	// Execute runs the step's logic and returns its raw output.
	Execute(ctx context.Context, input any) (any, error)

	// Format normalizes the raw output into the shape stored for the step.
	Format(output any) (any, error)
}

// Base implements the default Validate and Format policies.
//
// Embed Base in a step to inherit them:
//
//	type extractStep struct {
//	    step.Base
//	}
//
// The default Validate rejects only absent input; Format returns its argument.
type Base struct {
	StepName string
}

// Name returns the configured step name.
func (b Base) Name() string {
	return b.StepName
}

// Validate rejects nil input, including typed nil pointers, maps and slices.
func (b Base) Validate(input any) error {
	if isNil(input) {
		return Invalid("[%s] input data cannot be nil", b.StepName)
	}
	return nil
}

// Format returns the output unchanged.
func (Base) Format(output any) (any, error) {
	return output, nil
}

// Invalid returns an error wrapping [ErrInvalidInput] with a formatted message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

type storeKey struct{}

// WithStore returns a context carrying the run's store, so step logic can
// record decisions with [RecordDecision].
func WithStore(ctx context.Context, store *state.Store) context.Context {
	return context.WithValue(ctx, storeKey{}, store)
}

// StoreFrom returns the run store carried by ctx, if any.
func StoreFrom(ctx context.Context) (*state.Store, bool) {
	store, ok := ctx.Value(storeKey{}).(*state.Store)
	return store, ok && store != nil
}

// RecordDecision appends a decision event for the named step to the run
// store carried by ctx. It does nothing when ctx carries no store.
func RecordDecision(ctx context.Context, stepName, decision string, details map[string]any) {
	store, ok := StoreFrom(ctx)
	if !ok {
		return
	}
	data := map[string]any{
		"step":     stepName,
		"decision": decision,
	}
	if len(details) > 0 {
		data["context"] = details
	}
	store.AppendEvent(state.EventDecision, data)
}
