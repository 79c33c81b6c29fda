package sim

import (
	"fmt"
	"reflect"
	"sync"
)

// ModelID is the stable handle the Simulator assigns to every model it
// manages. IDs are handed out in discovery order and never reused within
// one Simulator; 0 means "no model".
type ModelID uint64

// node is the kernel-side bookkeeping for one model.
type node struct {
	id      ModelID
	model   Model
	kind    Kind
	atomic  Atomic
	network Network

	parent   ModelID   // non-owning handle, 0 for the root
	children []ModelID // networks only, last known component set

	tL      float64 // time of last event
	tN      float64 // scheduled time of next internal event
	heapIdx int     // position in the schedule, -1 when not queued

	inputs    []any
	outputs   []any
	imminent  bool // outputs belong to the step being computed
	activated bool // listed in Simulator.activated
}

// arena maps models to their bookkeeping. Parents are referenced by ID
// so subtrees can be swapped without dangling pointers.
type arena struct {
	nextID ModelID
	nodes  map[ModelID]*node
	ids    map[Model]ModelID
}

func newArena() *arena {
	return &arena{
		nodes: make(map[ModelID]*node),
		ids:   make(map[Model]ModelID),
	}
}

func (a *arena) lookup(m Model) (*node, bool) {
	if m == nil || !reflect.TypeOf(m).Comparable() {
		return nil, false
	}
	id, ok := a.ids[m]
	if !ok {
		return nil, false
	}
	return a.nodes[id], true
}

func (a *arena) get(id ModelID) *node {
	return a.nodes[id]
}

// add registers m under parent. The caller has already classified m.
func (a *arena) add(m Model, kind Kind, parent ModelID) *node {
	a.nextID++
	n := &node{
		id:      a.nextID,
		model:   m,
		kind:    kind,
		parent:  parent,
		heapIdx: -1,
	}
	switch kind {
	case KindAtomic:
		n.atomic = m.(Atomic)
	case KindNetwork:
		n.network = m.(Network)
	}
	a.nodes[n.id] = n
	a.ids[m] = n.id
	return n
}

func (a *arena) remove(n *node) {
	delete(a.nodes, n.id)
	delete(a.ids, n.model)
}

// depth is the number of ancestors of n.
func (a *arena) depth(n *node) int {
	d := 0
	for p := n.parent; p != 0; p = a.nodes[p].parent {
		d++
	}
	return d
}

// descendants appends every registered model below n, depth first.
func (a *arena) descendants(n *node, out []*node) []*node {
	for _, cid := range n.children {
		c := a.nodes[cid]
		out = append(out, c)
		if c.kind == KindNetwork {
			out = a.descendants(c, out)
		}
	}
	return out
}

// owners records which live Simulator manages each model. Attaching a model
// that is still owned by another Simulator is rejected until that
// Simulator is closed.
var owners = struct {
	sync.Mutex
	m map[Model]*Simulator
}{m: make(map[Model]*Simulator)}

// claim takes ownership of every model in ms for s, or none of them.
func claim(s *Simulator, ms []Model) error {
	owners.Lock()
	defer owners.Unlock()
	for _, m := range ms {
		if o, ok := owners.m[m]; ok && o != s {
			return fmt.Errorf("%w: %T", ErrModelAttached, m)
		}
	}
	for _, m := range ms {
		owners.m[m] = s
	}
	return nil
}

func release(s *Simulator, ms []Model) {
	owners.Lock()
	defer owners.Unlock()
	for _, m := range ms {
		if owners.m[m] == s {
			delete(owners.m, m)
		}
	}
}
