package sim

import (
	"container/heap"
	"slices"
)

// schedule is a priority queue of atomic models with deterministic ordering.
// Ordering: scheduled time → model ID.
// Models with an infinite time advance are kept out of the heap.
type schedule struct {
	nodes []*node
}

func newSchedule() *schedule {
	s := &schedule{nodes: make([]*node, 0)}
	heap.Init(s)
	return s
}

// Len implements heap.Interface
func (s *schedule) Len() int { return len(s.nodes) }

// Less implements heap.Interface with deterministic ordering
func (s *schedule) Less(i, j int) bool {
	ni, nj := s.nodes[i], s.nodes[j]
	if ni.tN != nj.tN {
		return ni.tN < nj.tN
	}
	return ni.id < nj.id
}

// Swap implements heap.Interface
func (s *schedule) Swap(i, j int) {
	s.nodes[i], s.nodes[j] = s.nodes[j], s.nodes[i]
	s.nodes[i].heapIdx = i
	s.nodes[j].heapIdx = j
}

// Push implements heap.Interface
func (s *schedule) Push(x any) {
	n := x.(*node)
	n.heapIdx = len(s.nodes)
	s.nodes = append(s.nodes, n)
}

// Pop implements heap.Interface
func (s *schedule) Pop() any {
	old := s.nodes
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.heapIdx = -1
	s.nodes = old[:last]
	return n
}

// set places n at time tN, or removes it when tN is Inf.
func (s *schedule) set(n *node, tN float64) {
	n.tN = tN
	switch {
	case tN == Inf:
		s.remove(n)
	case n.heapIdx >= 0:
		heap.Fix(s, n.heapIdx)
	default:
		heap.Push(s, n)
	}
}

func (s *schedule) remove(n *node) {
	if n.heapIdx >= 0 {
		heap.Remove(s, n.heapIdx)
	}
}

// minPriority returns the earliest scheduled time, or Inf.
func (s *schedule) minPriority() float64 {
	if len(s.nodes) == 0 {
		return Inf
	}
	return s.nodes[0].tN
}

// imminent returns every model scheduled at minPriority, ordered by ID.
// The heap is walked only through entries equal to the minimum, since
// children are never earlier than their parents.
func (s *schedule) imminent() []*node {
	if len(s.nodes) == 0 {
		return nil
	}
	t := s.nodes[0].tN
	var out []*node
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if i >= len(s.nodes) || s.nodes[i].tN != t {
			continue
		}
		out = append(out, s.nodes[i])
		stack = append(stack, 2*i+1, 2*i+2)
	}
	slices.SortFunc(out, func(a, b *node) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return out
}
