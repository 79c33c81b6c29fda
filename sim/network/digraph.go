package network

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/devsim/sim"
)

// PortValue is the value type carried by a Digraph.
type PortValue struct {
	Port  int
	Value any
}

// Coupling binds an output port of Src to an input port of Dst. A nil Src
// or Dst stands for the boundary of the network holding the coupling.
type Coupling struct {
	Src     sim.Model
	SrcPort int
	Dst     sim.Model
	DstPort int
}

type endpoint struct {
	model sim.Model // nil is the boundary
	port  int
}

// Digraph is a network whose components exchange PortValues along
// couplings between ports. The zero value is an empty network.
//
// A type that embeds a Digraph to add behaviour, typically a structure
// changing network, must call SetOwner with itself before coupling to the
// boundary, since the kernel identifies the network by the outer value.
type Digraph struct {
	sim.Base
	owner     sim.Model
	models    []sim.Model
	member    map[sim.Model]bool
	graph     map[endpoint][]endpoint
	couplings []Coupling
}

// NewDigraph returns an empty Digraph.
func NewDigraph() *Digraph {
	return &Digraph{}
}

// SetOwner sets the model that stands for this network's boundary.
func (d *Digraph) SetOwner(owner sim.Model) {
	d.owner = owner
}

func (d *Digraph) self() sim.Model {
	if d.owner != nil {
		return d.owner
	}
	return d
}

// Add makes m a component. Adding a component twice has no effect.
func (d *Digraph) Add(m sim.Model) {
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

// Couple connects port srcPort of src to port dstPort of dst, adding both
// as components unless they are the network itself. The same binding
// coupled twice is kept once; every distinct destination receives the
// value.
func (d *Digraph) Couple(src sim.Model, srcPort int, dst sim.Model, dstPort int) {
	from := d.endpoint(src, srcPort)
	to := d.endpoint(dst, dstPort)
	if d.graph == nil {
		d.graph = make(map[endpoint][]endpoint)
	}
	if slices.Contains(d.graph[from], to) {
		return
	}
	d.graph[from] = append(d.graph[from], to)
	d.couplings = append(d.couplings, Coupling{Src: from.model, SrcPort: srcPort, Dst: to.model, DstPort: dstPort})
}

func (d *Digraph) endpoint(m sim.Model, port int) endpoint {
	if m == d.self() {
		return endpoint{port: port}
	}
	d.Add(m)
	return endpoint{model: m, port: port}
}

// Remove drops component m and every coupling that touches it.
func (d *Digraph) Remove(m sim.Model) {
	if !d.member[m] {
		return
	}
	delete(d.member, m)
	d.models = slices.DeleteFunc(d.models, func(c sim.Model) bool { return c == m })
	for from, tos := range d.graph {
		if from.model == m {
			delete(d.graph, from)
			continue
		}
		d.graph[from] = slices.DeleteFunc(tos, func(to endpoint) bool { return to.model == m })
	}
	d.couplings = slices.DeleteFunc(d.couplings, func(c Coupling) bool {
		return c.Src == m || c.Dst == m
	})
}

// Components returns the components in the order they were added.
func (d *Digraph) Components() []sim.Model {
	return slices.Clone(d.models)
}

// Couplings returns the couplings in the order they were made.
func (d *Digraph) Couplings() []Coupling {
	return slices.Clone(d.couplings)
}

// Route sends a PortValue emitted by src to every port coupled to its
// port. Values of any other type are not routed and are logged at Warn.
func (d *Digraph) Route(value any, src sim.Model, collect []sim.Event) []sim.Event {
	pv, ok := value.(PortValue)
	if !ok {
		logrus.Warnf("digraph: dropping %T value from %T, want network.PortValue", value, src)
		return collect
	}
	from := endpoint{model: src, port: pv.Port}
	if src == d.self() {
		from.model = nil
	}
	for _, to := range d.graph[from] {
		target := to.model
		if target == nil {
			target = d.self()
		}
		collect = append(collect, sim.Event{Model: target, Value: PortValue{Port: to.port, Value: pv.Value}})
	}
	return collect
}
