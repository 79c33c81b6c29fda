package network

import (
	"slices"

	"github.com/inference-sim/devsim/sim"
)

// SimpleDigraph is a network without ports: a value emitted by a component
// reaches every model coupled to it, unchanged.
type SimpleDigraph struct {
	sim.Base
	owner     sim.Model
	models    []sim.Model
	member    map[sim.Model]bool
	graph     map[sim.Model][]sim.Model // nil key and value are the boundary
	couplings []Coupling
}

// NewSimpleDigraph returns an empty SimpleDigraph.
func NewSimpleDigraph() *SimpleDigraph {
	return &SimpleDigraph{}
}

// SetOwner sets the model that stands for this network's boundary. See
// Digraph.SetOwner.
func (d *SimpleDigraph) SetOwner(owner sim.Model) {
	d.owner = owner
}

func (d *SimpleDigraph) self() sim.Model {
	if d.owner != nil {
		return d.owner
	}
	return d
}

// Add makes m a component.
func (d *SimpleDigraph) Add(m sim.Model) {
	if m == d.self() {
		panic("network: a digraph cannot contain itself")
	}
	if d.member == nil {
		d.member = make(map[sim.Model]bool)
	}
	if !d.member[m] {
		d.member[m] = true
		d.models = append(d.models, m)
	}
}

// Couple routes every value emitted by src to dst.
func (d *SimpleDigraph) Couple(src, dst sim.Model) {
	from, to := d.key(src), d.key(dst)
	if d.graph == nil {
		d.graph = make(map[sim.Model][]sim.Model)
	}
	if slices.Contains(d.graph[from], to) {
		return
	}
	d.graph[from] = append(d.graph[from], to)
	d.couplings = append(d.couplings, Coupling{Src: from, Dst: to})
}

func (d *SimpleDigraph) key(m sim.Model) sim.Model {
	if m == d.self() {
		return nil
	}
	d.Add(m)
	return m
}

// Remove drops component m and every coupling that touches it.
func (d *SimpleDigraph) Remove(m sim.Model) {
	if !d.member[m] {
		return
	}
	delete(d.member, m)
	delete(d.graph, m)
	d.models = slices.DeleteFunc(d.models, func(c sim.Model) bool { return c == m })
	for from, tos := range d.graph {
		d.graph[from] = slices.DeleteFunc(tos, func(to sim.Model) bool { return to == m })
	}
	d.couplings = slices.DeleteFunc(d.couplings, func(c Coupling) bool {
		return c.Src == m || c.Dst == m
	})
}

func (d *SimpleDigraph) Components() []sim.Model {
	return slices.Clone(d.models)
}

func (d *SimpleDigraph) Couplings() []Coupling {
	return slices.Clone(d.couplings)
}

func (d *SimpleDigraph) Route(value any, src sim.Model, collect []sim.Event) []sim.Event {
	from := src
	if src == d.self() {
		from = nil
	}
	for _, to := range d.graph[from] {
		if to == nil {
			to = d.self()
		}
		collect = append(collect, sim.Event{Model: to, Value: value})
	}
	return collect
}
