package sim

import (
	"errors"
	"fmt"
)

// Usage errors. They are returned wrapped with context; match with errors.Is.
var (
	ErrInvalidModel    = errors.New("invalid model")
	ErrModelAttached   = errors.New("model is attached to another simulator")
	ErrClosed          = errors.New("simulator is closed")
	ErrEmptyEvent      = errors.New("event has no target model")
	ErrUnknownModel    = errors.New("model is not part of the simulated tree")
	ErrTimeOutOfWindow = errors.New("time outside [last event, next event]")
	ErrNotComponent    = errors.New("route target is not a component of the routing network")
	ErrSelfInfluence   = errors.New("model tried to influence itself")
	ErrAlreadyOwned    = errors.New("model already belongs to another network")

	// ErrNegativeTimeAdvance is wrapped in a ModelError when a model
	// reports a negative or NaN time advance.
	ErrNegativeTimeAdvance = errors.New("negative time advance")
)

// ModelError attributes a failure raised inside a model function to the
// model that raised it. Panics recovered from model code are reported the
// same way.
type ModelError struct {
	Model Model
	ID    ModelID
	Op    string // "output", "internal", "external", "confluent", "timeAdvance", "route", "components", "structure"
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %d (%T): %s: %v", e.ID, e.Model, e.Op, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// errPanic carries a value recovered from a panicking model function.
type errPanic struct {
	value any
}

func (e errPanic) Error() string { return fmt.Sprintf("panic: %v", e.value) }
