package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNode(id ModelID) *node {
	return &node{id: id, heapIdx: -1}
}

func ids(nodes []*node) []ModelID {
	out := make([]ModelID, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}

// TestSchedule_TimeOrdering tests that the earliest scheduled time is at the top
func TestSchedule_TimeOrdering(t *testing.T) {
	s := newSchedule()
	n1, n2, n3 := newTestNode(1), newTestNode(2), newTestNode(3)

	s.set(n1, 100)
	s.set(n2, 50)
	s.set(n3, 150)

	assert.Equal(t, 50.0, s.minPriority())
	assert.Equal(t, []ModelID{2}, ids(s.imminent()))

	s.set(n2, 200)
	assert.Equal(t, 100.0, s.minPriority())
	assert.Equal(t, []ModelID{1}, ids(s.imminent()))
}

// TestSchedule_ImminentTies tests that all models at the minimum are returned, by ID
func TestSchedule_ImminentTies(t *testing.T) {
	s := newSchedule()
	nodes := make([]*node, 10)
	for i := range nodes {
		nodes[i] = newTestNode(ModelID(10 - i))
	}
	// Insert in reverse ID order; even IDs tie at t=5.
	for _, n := range nodes {
		if n.id%2 == 0 {
			s.set(n, 5)
		} else {
			s.set(n, 7)
		}
	}

	assert.Equal(t, []ModelID{2, 4, 6, 8, 10}, ids(s.imminent()))
	assert.Equal(t, 10, s.Len(), "imminent must not pop")
}

// TestSchedule_InfRemoves tests that an infinite next event time takes a model out
func TestSchedule_InfRemoves(t *testing.T) {
	s := newSchedule()
	n1, n2 := newTestNode(1), newTestNode(2)
	s.set(n1, 1)
	s.set(n2, 2)

	s.set(n1, Inf)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, -1, n1.heapIdx)
	assert.Equal(t, Inf, n1.tN)
	assert.Equal(t, 2.0, s.minPriority())

	// Removing twice is harmless.
	s.remove(n1)
	s.set(n2, Inf)
	assert.Equal(t, Inf, s.minPriority())
	assert.Empty(t, s.imminent())
}

// TestSchedule_HeapIndexInvariant tests that heapIdx tracks positions through updates
func TestSchedule_HeapIndexInvariant(t *testing.T) {
	s := newSchedule()
	nodes := make([]*node, 20)
	for i := range nodes {
		nodes[i] = newTestNode(ModelID(i + 1))
		s.set(nodes[i], float64((i*7)%13))
	}
	for i, n := range nodes {
		if i%3 == 0 {
			s.set(n, float64(i))
		}
		if i%5 == 0 {
			s.remove(n)
		}
	}
	for i, n := range s.nodes {
		require.Equal(t, i, n.heapIdx, "node %d", n.id)
	}
	prev := -1.0
	for s.Len() > 0 {
		top := s.nodes[0]
		require.GreaterOrEqual(t, top.tN, prev)
		prev = top.tN
		s.remove(top)
	}
}
