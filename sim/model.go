package sim

import (
	"fmt"
	"math"
	"reflect"
)

// Inf is the time advance of a model with no autonomous event pending.
// Any time advance >= math.MaxFloat64 is treated as Inf.
var Inf = math.Inf(1)

// Model is the behaviour shared by atomic and network models.
//
// StructureChangeRequested is evaluated by the Simulator after every state
// transition of an atomic model, and on a network when one of its components
// asked for a structure change. Returning true makes the parent network
// re-derive its component set before the next step.
type Model interface {
	StructureChangeRequested() bool
}

// Base supplies the default "no structure change" answer. Embed it in
// models that never restructure.
type Base struct{}

// StructureChangeRequested always returns false.
func (Base) StructureChangeRequested() bool { return false }

// Atomic is a leaf model with private state. All methods are invoked only by
// the Simulator and never concurrently on the same model.
//
// Output is called immediately before InternalTransition (or the confluent
// transition) of an imminent model and never before ExternalTransition. The
// model must not change state inside Output.
type Atomic interface {
	Model
	// TimeAdvance returns the time from the last transition to the next
	// internal event, or Inf.
	TimeAdvance() float64
	InternalTransition() error
	// ExternalTransition receives the time elapsed since the last
	// transition and the unordered bag of inputs routed to the model.
	ExternalTransition(elapsed float64, inputs []any) error
	Output() ([]any, error)
}

// Confluent is implemented by atomic models that override the default
// confluent transition. Without it the Simulator applies
// InternalTransition followed by ExternalTransition(0, inputs).
type Confluent interface {
	ConfluentTransition(inputs []any) error
}

// Network is a coupled model that owns a set of components and routes
// values between them.
type Network interface {
	Model
	// Components returns the current children. Duplicates are ignored.
	Components() []Model
	// Route appends the (target, value) pairs for a value produced by src
	// to collect and returns the extended slice. src is the network
	// itself for input arriving at its boundary; a target equal to the
	// network is output leaving the network. Route must not mutate any
	// model.
	Route(value any, src Model, collect []Event) []Event
}

// Kind distinguishes leaves from containers.
type Kind int

const (
	KindAtomic Kind = iota + 1
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAtomic:
		return "atomic"
	case KindNetwork:
		return "network"
	default:
		return "invalid"
	}
}

// KindOf classifies m. Models must be pointers, so identity is reference
// equality, and must implement exactly one of Atomic and Network.
func KindOf(m Model) (Kind, error) {
	if m == nil {
		return 0, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	if reflect.TypeOf(m).Kind() != reflect.Pointer {
		return 0, fmt.Errorf("%w: %T is not a pointer", ErrInvalidModel, m)
	}
	_, isAtomic := m.(Atomic)
	_, isNetwork := m.(Network)
	switch {
	case isAtomic && isNetwork:
		return 0, fmt.Errorf("%w: %T implements both Atomic and Network", ErrInvalidModel, m)
	case isAtomic:
		return KindAtomic, nil
	case isNetwork:
		return KindNetwork, nil
	default:
		return 0, fmt.Errorf("%w: %T implements neither Atomic nor Network", ErrInvalidModel, m)
	}
}

// normalizeTimeAdvance maps the maximum representable value onto Inf.
func normalizeTimeAdvance(ta float64) float64 {
	if ta >= math.MaxFloat64 {
		return Inf
	}
	return ta
}
