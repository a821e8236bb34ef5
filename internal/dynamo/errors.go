package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for environment and backend operations.
var (
	// ErrNotImplemented indicates a capability the variant does not supply.
	ErrNotImplemented = errors.New("dynamo: capability not implemented")

	// ErrLoad indicates a model descriptor that cannot be loaded.
	ErrLoad = errors.New("dynamo: model could not be loaded")

	// ErrActionShape indicates an action whose length differs from the actuator count.
	ErrActionShape = errors.New("dynamo: action dimension does not match actuators")

	// ErrUninitialized indicates use of an environment before Initialize.
	ErrUninitialized = errors.New("dynamo: environment not initialized")

	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates a state whose shape differs from the model.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and model")

	// ErrNilBackend indicates an environment constructed without a backend.
	ErrNilBackend = errors.New("dynamo: nil backend")

	// ErrNilPolicy indicates ApplyControl called without a policy.
	ErrNilPolicy = errors.New("dynamo: nil policy")
)

// StepError wraps a failure raised while applying control at a given step.
type StepError struct {
	Step    int
	Op      string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Op, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// ShapeError reports the expected and actual lengths of a mismatched vector.
type ShapeError struct {
	Field    string
	Expected int
	Got      int
	Kind     error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%v: %s has length %d, want %d", e.Kind, e.Field, e.Got, e.Expected)
}

func (e *ShapeError) Unwrap() error {
	return e.Kind
}
