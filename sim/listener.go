package sim

// Listener observes a running simulation. Values passed to the callbacks
// are read-only and must not be retained past the call.
type Listener interface {
	// OnOutput is invoked for every output value, produced by an atomic
	// model or leaving a network, at absolute time t.
	OnOutput(e Event, t float64)
	// OnStateChange is invoked after an atomic model changed state at t.
	OnStateChange(m Atomic, t float64)
}

// ListenerFuncs adapts a pair of functions to the Listener interface.
// Either function may be nil. Register it by pointer so that
// RemoveListener can find it again.
type ListenerFuncs struct {
	Output      func(e Event, t float64)
	StateChange func(m Atomic, t float64)
}

func (l *ListenerFuncs) OnOutput(e Event, t float64) {
	if l.Output != nil {
		l.Output(e, t)
	}
}

func (l *ListenerFuncs) OnStateChange(m Atomic, t float64) {
	if l.StateChange != nil {
		l.StateChange(m, t)
	}
}
