package sim

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// computeOutput runs the output and routing phases for the imminent set,
// unless they already ran for the current next event time.
func (s *Simulator) computeOutput() error {
	if s.outputReady {
		return nil
	}
	t := s.sched.minPriority()
	if t == Inf {
		s.outputReady = true
		return nil
	}
	imminent := s.sched.imminent()
	err := s.forEach(imminent, func(n *node) error {
		return guard(n.model, n.id, "output", func() error {
			y, err := n.atomic.Output()
			n.outputs = y
			return err
		})
	})
	if err != nil {
		s.reset(imminent...)
		return err
	}
	for _, n := range imminent {
		n.imminent = true
		s.activate(n)
	}
	for _, n := range imminent {
		for _, y := range n.outputs {
			if err := s.route(s.arena.get(n.parent), n, y); err != nil {
				s.reset()
				return err
			}
		}
	}
	s.outputReady = true
	logrus.Debugf("[t=%g] output: %d imminent, %d activated", t, len(imminent), len(s.activated))
	return nil
}

// computeNextState runs the injection, transition, structure and
// notification phases at time t. The clock advances only when all of them
// succeed.
func (s *Simulator) computeNextState(inputs []Event, t float64) error {
	if t < s.sched.minPriority() {
		// Output computed for a later time is stale once input arrives earlier.
		s.reset()
	} else if err := s.computeOutput(); err != nil {
		return err
	}
	for _, ev := range inputs {
		n, _ := s.arena.lookup(ev.Model)
		var err error
		if n.kind == KindAtomic {
			s.inject(n, ev.Value)
		} else {
			err = s.route(n, n, ev.Value)
		}
		if err != nil {
			s.reset()
			return err
		}
	}

	slices.SortFunc(s.activated, func(a, b *node) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	changed := slices.Clone(s.activated)
	restructure := make([]bool, len(changed))
	done := make([]bool, len(changed))
	err := s.forEachIndex(changed, func(i int, n *node) error {
		if err := s.transition(n, t); err != nil {
			return err
		}
		done[i] = true
		return guard(n.model, n.id, "structure", func() error {
			restructure[i] = n.atomic.StructureChangeRequested()
			return nil
		})
	})
	if err != nil {
		s.abortStep(changed, done, t)
		return err
	}

	flagged := make(map[ModelID]bool)
	for i, n := range changed {
		if restructure[i] && n.parent != 0 {
			flagged[n.parent] = true
		}
	}
	if err := s.changeStructure(flagged, t); err != nil {
		s.abortStep(changed, done, t)
		return err
	}
	var firstErr error
	for _, n := range changed {
		if s.arena.get(n.id) != n {
			continue // removed by the structure change
		}
		if err := s.reschedule(n, t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		s.reset()
		return firstErr
	}

	s.tL = t
	s.steps++
	logrus.Debugf("[t=%g] step %d: %d transitions", t, s.steps, len(changed))
	s.notifyOutputs(t)
	for _, n := range changed {
		for _, l := range s.listeners {
			l.OnStateChange(n.atomic, t)
		}
	}
	s.reset()
	return nil
}

// abortStep discards the scratch state of a failed step. Models that
// completed their transition keep their new state and are scheduled from
// it so the bookkeeping matches.
func (s *Simulator) abortStep(changed []*node, done []bool, t float64) {
	for i, n := range changed {
		if !done[i] || s.arena.get(n.id) != n {
			continue
		}
		if err := s.reschedule(n, t); err != nil {
			logrus.Warnf("[t=%g] rescheduling after a failed step: %v", t, err)
		}
	}
	s.reset()
}

// transition applies exactly one of the internal, external or confluent
// transition functions to n and records t as its last event time.
func (s *Simulator) transition(n *node, t float64) error {
	var err error
	switch {
	case n.imminent && len(n.inputs) == 0:
		err = guard(n.model, n.id, "internal", n.atomic.InternalTransition)
	case n.imminent:
		err = guard(n.model, n.id, "confluent", func() error {
			if c, ok := n.model.(Confluent); ok {
				return c.ConfluentTransition(n.inputs)
			}
			if err := n.atomic.InternalTransition(); err != nil {
				return err
			}
			return n.atomic.ExternalTransition(0, n.inputs)
		})
	default:
		elapsed := t - n.tL
		err = guard(n.model, n.id, "external", func() error {
			return n.atomic.ExternalTransition(elapsed, n.inputs)
		})
	}
	if err != nil {
		return err
	}
	n.tL = t
	return nil
}

// route delivers value produced by src to the targets chosen by parent.
// src == parent means the value is input arriving at parent's boundary; a
// nil parent means the value left the root.
func (s *Simulator) route(parent, src *node, value any) error {
	if parent != src {
		s.pending = append(s.pending, Event{Model: src.model, Value: value})
	}
	if parent == nil {
		return nil
	}
	var targets []Event
	err := guard(parent.model, parent.id, "route", func() error {
		targets = parent.network.Route(value, src.model, nil)
		return nil
	})
	if err != nil {
		return err
	}
	for _, ev := range targets {
		switch {
		case ev.IsEmpty():
			return fmt.Errorf("%w: routed by network %d (%T)", ErrEmptyEvent, parent.id, parent.model)
		case ev.Model == parent.model:
			if err := s.route(s.arena.get(parent.parent), parent, ev.Value); err != nil {
				return err
			}
		case ev.Model == src.model:
			return fmt.Errorf("%w: model %d (%T)", ErrSelfInfluence, src.id, src.model)
		default:
			target, ok := s.arena.lookup(ev.Model)
			if !ok || target.parent != parent.id {
				return fmt.Errorf("%w: %T routed by network %d (%T)", ErrNotComponent, ev.Model, parent.id, parent.model)
			}
			if target.kind == KindAtomic {
				s.inject(target, ev.Value)
			} else if err := s.route(target, target, ev.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// inject adds value to the input bag of an atomic model.
func (s *Simulator) inject(n *node, value any) {
	n.inputs = append(n.inputs, value)
	s.activate(n)
}

func (s *Simulator) activate(n *node) {
	if !n.activated {
		n.activated = true
		s.activated = append(s.activated, n)
	}
}

// notifyOutputs delivers the output notifications not yet delivered.
func (s *Simulator) notifyOutputs(t float64) {
	for _, ev := range s.pending[s.notified:] {
		for _, l := range s.listeners {
			l.OnOutput(ev, t)
		}
	}
	s.notified = len(s.pending)
}

// reset discards the per-step scratch state: input and output bags of the
// activated models and of extra, and all pending notifications.
func (s *Simulator) reset(extra ...*node) {
	for _, n := range append(s.activated, extra...) {
		n.inputs = nil
		n.outputs = nil
		n.imminent = false
		n.activated = false
	}
	s.activated = s.activated[:0]
	s.pending = s.pending[:0]
	s.notified = 0
	s.outputReady = false
}
