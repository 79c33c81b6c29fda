// sim/simulator.go
package sim

import (
	"fmt"
	"math"
	"slices"

	"github.com/sirupsen/logrus"
)

// Config holds Simulator options.
type Config struct {
	// Workers > 1 runs the output and transition phases of each step on a
	// pool of that many goroutines. Routing, structure changes and listener
	// notification always run on the calling goroutine.
	Workers int
}

// Simulator drives the global clock over a model tree. It does not own the
// tree, but it must have exclusive access to it for the duration of every
// call. A Simulator is not safe for concurrent use.
type Simulator struct {
	root      Model
	arena     *arena
	sched     *schedule
	listeners []Listener
	workers   int

	// tL is the time of the last completed step.
	tL    float64
	steps int

	// Per-step scratch state.
	activated   []*node // imminent or targeted atomic models
	pending     []Event // output notifications in routing order
	notified    int     // pending[:notified] already delivered
	outputReady bool    // output of the imminent set has been computed
	closed      bool
}

// NewSimulator registers every model of the tree rooted at root, querying
// the first time advance of each atomic model with t = 0.
//
// A model still attached to another Simulator that has not been closed is
// rejected with ErrModelAttached.
func NewSimulator(root Model, cfg Config) (*Simulator, error) {
	s := &Simulator{
		root:    root,
		arena:   newArena(),
		sched:   newSchedule(),
		workers: cfg.Workers,
	}
	entries, err := s.walk(root, nil)
	if err != nil {
		return nil, err
	}
	models := entryModels(entries)
	if err := claim(s, models); err != nil {
		return nil, err
	}
	if _, err := s.register(entries, 0); err != nil {
		release(s, models)
		return nil, err
	}
	logrus.Debugf("simulator created: %d models, next event at %g", len(models), s.NextEventTime())
	return s, nil
}

// Root returns the model the Simulator was created with.
func (s *Simulator) Root() Model { return s.root }

// NextEventTime returns the earliest scheduled internal event over all
// atomic models, or Inf. It does not change any state.
func (s *Simulator) NextEventTime() float64 {
	if s.closed {
		return Inf
	}
	return s.sched.minPriority()
}

// LastEventTime returns the time of the last completed step.
func (s *Simulator) LastEventTime() float64 { return s.tL }

// Steps returns the number of completed steps.
func (s *Simulator) Steps() int { return s.steps }

// ID returns the handle assigned to m.
func (s *Simulator) ID(m Model) (ModelID, bool) {
	if s.closed {
		return 0, false
	}
	n, ok := s.arena.lookup(m)
	if !ok {
		return 0, false
	}
	return n.id, true
}

// Parent returns the network containing m, or nil for the root.
func (s *Simulator) Parent(m Model) (Network, bool) {
	if s.closed {
		return nil, false
	}
	n, ok := s.arena.lookup(m)
	if !ok {
		return nil, false
	}
	if p := s.arena.get(n.parent); p != nil {
		return p.network, true
	}
	return nil, true
}

// Times returns the last event time and the scheduled next event time of
// an atomic model.
func (s *Simulator) Times(m Model) (tL, tN float64, ok bool) {
	if s.closed {
		return 0, 0, false
	}
	n, found := s.arena.lookup(m)
	if !found || n.kind != KindAtomic {
		return 0, 0, false
	}
	return n.tL, n.tN, true
}

// AddListener registers l. Listeners are notified in registration order.
func (s *Simulator) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

// RemoveListener unregisters the first registration of l.
func (s *Simulator) RemoveListener(l Listener) {
	if i := slices.Index(s.listeners, l); i >= 0 {
		s.listeners = slices.Delete(s.listeners, i, i+1)
	}
}

// ExecNextEvent performs one complete step at NextEventTime(). It does
// nothing when no event is scheduled.
func (s *Simulator) ExecNextEvent() error {
	if s.closed {
		return ErrClosed
	}
	t := s.sched.minPriority()
	if t == Inf {
		return nil
	}
	if err := s.computeOutput(); err != nil {
		return err
	}
	return s.computeNextState(nil, t)
}

// ExecUntil executes steps while NextEventTime() <= tEnd.
func (s *Simulator) ExecUntil(tEnd float64) error {
	if s.closed {
		return ErrClosed
	}
	if math.IsNaN(tEnd) {
		return fmt.Errorf("%w: tEnd is NaN", ErrTimeOutOfWindow)
	}
	for {
		t := s.NextEventTime()
		if t > tEnd || t == Inf {
			return nil
		}
		if err := s.ExecNextEvent(); err != nil {
			return err
		}
	}
}

// ComputeNextOutput computes and routes the output of the imminent models
// and notifies listeners of it, without changing the state of any model or
// the clock. The result is reused by a following ComputeNextState at the
// same time.
func (s *Simulator) ComputeNextOutput() error {
	if s.closed {
		return ErrClosed
	}
	if err := s.computeOutput(); err != nil {
		return err
	}
	s.notifyOutputs(s.sched.minPriority())
	return nil
}

// ComputeNextState applies the injected (target, value) pairs at time t and
// computes the next state of every affected model. t must lie in
// [LastEventTime(), NextEventTime()]; models imminent at exactly t also
// undergo their internal event.
func (s *Simulator) ComputeNextState(inputs []Event, t float64) error {
	if s.closed {
		return ErrClosed
	}
	next := s.NextEventTime()
	if math.IsNaN(t) || math.IsInf(t, 0) || t < s.tL || t > next {
		return fmt.Errorf("%w: t=%g, window [%g, %g]", ErrTimeOutOfWindow, t, s.tL, next)
	}
	for _, ev := range inputs {
		if ev.IsEmpty() {
			return ErrEmptyEvent
		}
		if _, ok := s.arena.lookup(ev.Model); !ok {
			return fmt.Errorf("%w: %T", ErrUnknownModel, ev.Model)
		}
	}
	return s.computeNextState(inputs, t)
}

// Close releases the kernel-side bookkeeping so the model tree can be
// attached to another Simulator. The Simulator rejects every later call.
func (s *Simulator) Close() {
	if s.closed {
		return
	}
	models := make([]Model, 0, len(s.arena.nodes))
	for _, n := range s.arena.nodes {
		models = append(models, n.model)
	}
	release(s, models)
	s.reset()
	s.arena = newArena()
	s.sched = newSchedule()
	s.closed = true
	logrus.Debugf("simulator closed after %d steps at t=%g", s.steps, s.tL)
}

// walk collects the tree below root breadth first, so that every network
// precedes its components. parent is the container of root, if any.
func (s *Simulator) walk(root Model, parent Model) ([]treeEntry, error) {
	kind, err := KindOf(root)
	if err != nil {
		return nil, err
	}
	entries := []treeEntry{{model: root, kind: kind, parent: parent}}
	seen := map[Model]bool{root: true}
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		if e.kind != KindNetwork {
			continue
		}
		var comps []Model
		err := guard(e.model, s.idOf(e.model), "components", func() error {
			comps = e.model.(Network).Components()
			return nil
		})
		if err != nil {
			return nil, err
		}
		local := make(map[Model]bool, len(comps))
		for _, c := range comps {
			kind, err := KindOf(c)
			if err != nil {
				return nil, err
			}
			if local[c] {
				continue
			}
			local[c] = true
			if seen[c] {
				return nil, fmt.Errorf("%w: %T listed by more than one network", ErrAlreadyOwned, c)
			}
			seen[c] = true
			entries = append(entries, treeEntry{model: c, kind: kind, parent: e.model})
		}
	}
	return entries, nil
}

// treeEntry is a model discovered by walk.
type treeEntry struct {
	model  Model
	kind   Kind
	parent Model
}

func entryModels(entries []treeEntry) []Model {
	out := make([]Model, len(entries))
	for i, e := range entries {
		out[i] = e.model
	}
	return out
}

// register creates nodes for entries not yet in the arena, links every
// entry to its parent and schedules new atomic models with last event time
// t. Entries must be in walk order.
func (s *Simulator) register(entries []treeEntry, t float64) ([]*node, error) {
	var added []*node
	for _, e := range entries {
		n, ok := s.arena.lookup(e.model)
		if !ok {
			n = s.arena.add(e.model, e.kind, 0)
			added = append(added, n)
		}
		if n.kind == KindNetwork {
			n.children = n.children[:0]
		}
		if e.parent == nil {
			continue
		}
		p, _ := s.arena.lookup(e.parent)
		n.parent = p.id
		p.children = append(p.children, n.id)
	}
	for _, n := range added {
		if n.kind != KindAtomic {
			continue
		}
		n.tL = t
		if err := s.reschedule(n, t); err != nil {
			return added, err
		}
	}
	return added, nil
}

// reschedule queries the time advance of n and places it in the schedule.
// A model whose time advance cannot be used is passivated, so that its
// previous event never fires again.
func (s *Simulator) reschedule(n *node, t float64) error {
	var ta float64
	err := guard(n.model, n.id, "timeAdvance", func() error {
		ta = normalizeTimeAdvance(n.atomic.TimeAdvance())
		return nil
	})
	if err != nil {
		s.sched.set(n, Inf)
		return err
	}
	if ta < 0 || math.IsNaN(ta) {
		s.sched.set(n, Inf)
		return &ModelError{Model: n.model, ID: n.id, Op: "timeAdvance", Err: fmt.Errorf("%w: %g", ErrNegativeTimeAdvance, ta)}
	}
	s.sched.set(n, t+ta)
	return nil
}

func (s *Simulator) idOf(m Model) ModelID {
	if n, ok := s.arena.lookup(m); ok {
		return n.id
	}
	return 0
}

// guard runs a model function, converting a returned error or a panic into
// a ModelError attributed to m.
func guard(m Model, id ModelID, op string, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Warnf("recovered panic in %s of model %d (%T): %v", op, id, m, r)
			err = &ModelError{Model: m, ID: id, Op: op, Err: errPanic{value: r}}
		}
	}()
	if err := f(); err != nil {
		return &ModelError{Model: m, ID: id, Op: op, Err: err}
	}
	return nil
}
