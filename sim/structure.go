package sim

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// changeStructure re-derives the component sets of the flagged networks.
//
// Networks are visited bottom-up: deepest first, ties broken by ID. A
// visited network whose own StructureChangeRequested returns true flags its
// parent in turn. Once every request is collected, the subtrees of the
// topmost visited networks are walked again and diffed against the arena:
// new models are registered with last event time t and a fresh time
// advance, vanished models are deregistered along with any pending input,
// and models that moved keep their schedule. Every check runs before the
// arena is touched.
func (s *Simulator) changeStructure(flagged map[ModelID]bool, t float64) error {
	if len(flagged) == 0 {
		return nil
	}
	visited := make(map[ModelID]bool)
	for len(flagged) > 0 {
		n := s.deepest(flagged)
		delete(flagged, n.id)
		visited[n.id] = true
		var again bool
		err := guard(n.model, n.id, "structure", func() error {
			again = n.network.StructureChangeRequested()
			return nil
		})
		if err != nil {
			return err
		}
		if again && n.parent != 0 && !visited[n.parent] {
			flagged[n.parent] = true
		}
	}

	tops := s.topmost(visited)
	var prev []*node
	var entries []treeEntry
	for _, top := range tops {
		prev = s.arena.descendants(top, prev)
		walked, err := s.walk(top.model, nil)
		if err != nil {
			return err
		}
		entries = append(entries, walked...)
	}

	before := make(map[ModelID]bool, len(prev))
	for _, n := range prev {
		before[n.id] = true
	}
	after := make(map[Model]bool, len(entries))
	var added []Model
	for _, e := range entries {
		if after[e.model] {
			return fmt.Errorf("%w: %T listed by more than one network", ErrAlreadyOwned, e.model)
		}
		after[e.model] = true
		n, ok := s.arena.lookup(e.model)
		if !ok {
			added = append(added, e.model)
			continue
		}
		if e.parent != nil && !before[n.id] {
			// Registered, but outside every subtree being rebuilt.
			return fmt.Errorf("%w: %T", ErrAlreadyOwned, e.model)
		}
		if n.kind != e.kind {
			return fmt.Errorf("%w: %T changed kind", ErrInvalidModel, e.model)
		}
	}
	var removed []*node
	for _, n := range prev {
		if !after[n.model] {
			removed = append(removed, n)
		}
	}
	if err := claim(s, added); err != nil {
		return err
	}

	gone := make([]Model, len(removed))
	for i, n := range removed {
		s.sched.remove(n)
		n.inputs = nil
		n.outputs = nil
		n.imminent = false
		s.arena.remove(n)
		gone[i] = n.model
	}
	release(s, gone)
	s.activated = slices.DeleteFunc(s.activated, func(n *node) bool {
		return s.arena.get(n.id) != n
	})

	if _, err := s.register(entries, t); err != nil {
		return err
	}
	logrus.Infof("[t=%g] structure change in %d network(s): %d added, %d removed", t, len(tops), len(added), len(removed))
	return nil
}

// deepest returns the flagged network farthest from the root, ties broken
// by smallest ID.
func (s *Simulator) deepest(flagged map[ModelID]bool) *node {
	var best *node
	bestDepth := -1
	for id := range flagged {
		n := s.arena.get(id)
		d := s.arena.depth(n)
		if d > bestDepth || (d == bestDepth && n.id < best.id) {
			best, bestDepth = n, d
		}
	}
	return best
}

// topmost returns the visited networks with no visited ancestor, by ID.
func (s *Simulator) topmost(visited map[ModelID]bool) []*node {
	var tops []*node
	for id := range visited {
		n := s.arena.get(id)
		covered := false
		for p := n.parent; p != 0; p = s.arena.get(p).parent {
			if visited[p] {
				covered = true
				break
			}
		}
		if !covered {
			tops = append(tops, n)
		}
	}
	slices.SortFunc(tops, func(a, b *node) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return tops
}
