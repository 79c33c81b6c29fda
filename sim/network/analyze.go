package network

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/inference-sim/devsim/sim"
)

// Coupled is a network that can list its couplings.
type Coupled interface {
	Components() []sim.Model
	Couplings() []Coupling
}

// Report describes the coupling graph of one network. Models appear in
// component order.
type Report struct {
	// Loops are groups of components that feed each other, directly or
	// through other components. Loops with no time advance between the
	// hops never settle.
	Loops [][]sim.Model
	// SelfCoupled components are coupled to themselves; the kernel rejects
	// the resulting route.
	SelfCoupled []sim.Model
	// NoInput components receive nothing from siblings or the boundary.
	NoInput []sim.Model
	// NoOutput components send nothing to siblings or the boundary.
	NoOutput []sim.Model
}

// Analyze builds a directed graph with one node per component plus the
// network's input and output boundaries and reports its shape.
func Analyze(c Coupled) Report {
	comps := c.Components()
	index := make(map[sim.Model]int64, len(comps))
	g := simple.NewDirectedGraph()
	for i, m := range comps {
		index[m] = int64(i)
		g.AddNode(simple.Node(i))
	}
	in, out := int64(len(comps)), int64(len(comps)+1)
	g.AddNode(simple.Node(in))
	g.AddNode(simple.Node(out))

	var report Report
	self := make(map[int64]bool)
	for _, cp := range c.Couplings() {
		from, ok := nodeID(index, cp.Src, in)
		if !ok {
			continue
		}
		to, ok := nodeID(index, cp.Dst, out)
		if !ok {
			continue
		}
		if from == to {
			// simple graphs have no self edges
			self[from] = true
			continue
		}
		g.SetEdge(g.NewEdge(g.Node(from), g.Node(to)))
	}

	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		slices.SortFunc(scc, func(a, b graph.Node) int { return cmp.Compare(a.ID(), b.ID()) })
		report.Loops = append(report.Loops, models(comps, scc))
	}
	slices.SortFunc(report.Loops, func(a, b []sim.Model) int {
		return int(index[a[0]] - index[b[0]])
	})

	for i, m := range comps {
		id := int64(i)
		if self[id] {
			report.SelfCoupled = append(report.SelfCoupled, m)
		}
		if g.To(id).Len() == 0 && !self[id] {
			report.NoInput = append(report.NoInput, m)
		}
		if g.From(id).Len() == 0 && !self[id] {
			report.NoOutput = append(report.NoOutput, m)
		}
	}
	return report
}

// nodeID maps a coupling endpoint onto the graph. A nil model is the
// boundary node given.
func nodeID(index map[sim.Model]int64, m sim.Model, boundary int64) (int64, bool) {
	if m == nil {
		return boundary, true
	}
	id, ok := index[m]
	return id, ok
}

func models(comps []sim.Model, nodes []graph.Node) []sim.Model {
	out := make([]sim.Model, len(nodes))
	for i, n := range nodes {
		out[i] = comps[n.ID()]
	}
	return out
}
