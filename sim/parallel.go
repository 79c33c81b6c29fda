package sim

import (
	"golang.org/x/sync/errgroup"
)

// forEach applies f to every node. With more than one worker configured the
// calls run concurrently, one task per node, and forEach returns after all
// of them finished (the barrier between phases). Each task touches only
// its own node and model.
func (s *Simulator) forEach(nodes []*node, f func(*node) error) error {
	return s.forEachIndex(nodes, func(_ int, n *node) error { return f(n) })
}

// forEachIndex is forEach with the position of the node in nodes.
func (s *Simulator) forEachIndex(nodes []*node, f func(int, *node) error) error {
	if s.workers <= 1 || len(nodes) < 2 {
		for i, n := range nodes {
			if err := f(i, n); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, n := range nodes {
		i, n := i, n
		g.Go(func() error {
			return f(i, n)
		})
	}
	return g.Wait()
}
