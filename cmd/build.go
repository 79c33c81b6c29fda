package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/devsim/sim"
	"github.com/inference-sim/devsim/sim/models"
	"github.com/inference-sim/devsim/sim/network"
)

// Built is the model tree of a scenario, ready to simulate.
type Built struct {
	Root sim.Model
	// names labels the models created at build time. Models added later by
	// a structure change fall back to their type.
	names  map[sim.Model]string
	report func(w io.Writer)
}

// Name returns the label of m used in traces and diagnostics.
func (b *Built) Name(m sim.Model) string {
	if n, ok := b.names[m]; ok {
		return n
	}
	return fmt.Sprintf("%T", m)
}

// Report writes the scenario-specific counters.
func (b *Built) Report(w io.Writer) {
	b.report(w)
}

// Build constructs the model tree of a validated scenario.
func Build(sc *Scenario) (*Built, error) {
	switch sc.Kind {
	case KindPingPong:
		maxServes := 0
		if sc.PingPong != nil {
			maxServes = sc.PingPong.MaxServes
		}
		pp := models.NewPingPong(maxServes)
		return &Built{
			Root:  pp,
			names: map[sim.Model]string{pp: "pingpong", pp.P1: "p1", pp.P2: "p2"},
			report: func(w io.Writer) {
				fmt.Fprintf(w, "Serves (p1, p2)      : %d, %d\n", pp.P1.Count, pp.P2.Count)
			},
		}, nil

	case KindDynPingPong:
		dp := models.NewDynPingPong()
		return &Built{
			Root:  dp,
			names: map[sim.Model]string{dp: "dynpingpong", dp.P2: "p2"},
			report: func(w io.Writer) {
				fmt.Fprintf(w, "Structure changes    : %d\n", dp.Changes)
				fmt.Fprintf(w, "Nesting depth        : %d\n", dp.Depth())
			},
		}, nil

	case KindServer:
		line := models.NewServerLine(sc.Server.Period, sc.Server.ServiceTime)
		return &Built{
			Root: line.Root,
			names: map[sim.Model]string{
				line.Root:    "line",
				line.Servers: "servers",
				line.Genr:    "genr",
				line.Q1:      "q1",
				line.Q2:      "q2",
			},
			report: func(w io.Writer) {
				fmt.Fprintf(w, "Jobs sent            : %d\n", line.Genr.Out)
				fmt.Fprintf(w, "Jobs returned        : %d\n", line.Genr.In)
				fmt.Fprintf(w, "Queued (q1, q2)      : %d, %d\n", line.Q1.Len(), line.Q2.Len())
			},
		}, nil

	case KindCheckout:
		arrivals := sc.Checkout.Arrivals
		if r := sc.Checkout.Random; r != nil {
			rng := models.NewPartitionedRNG(models.NewSimulationKey(sc.Seed))
			arrivals = models.RandomArrivals(rng, r.Customers, r.MeanInterarrival, r.MeanOrder)
		}
		store, err := models.NewStore(arrivals, sc.Checkout.Preemptive)
		if err != nil {
			return nil, fmt.Errorf("checkout: %w", err)
		}
		return &Built{
			Root: store.Root,
			names: map[sim.Model]string{
				store.Root:     "store",
				store.Genr:     "genr",
				store.Clerk:    "clerk",
				store.Observer: "observer",
			},
			report: func(w io.Writer) {
				st := store.Observer.Stats()
				fmt.Fprintf(w, "Customers served     : %d of %d\n", st.Customers, len(arrivals))
				if st.Customers > 0 {
					fmt.Fprintf(w, "Waiting mean/std     : %.3f / %.3f\n", st.Mean, st.StdDev)
					fmt.Fprintf(w, "Waiting p90/max      : %.3f / %.3f\n", st.P90, st.Max)
				}
				if pc, ok := store.Clerk.(*models.PreemptiveClerk); ok {
					fmt.Fprintf(w, "Preemptions          : %d\n", pc.Preemptions)
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", sc.Kind)
}

// diagnose logs the coupling analysis of every network in the tree that
// lists its couplings.
func diagnose(m sim.Model, name func(sim.Model) string) {
	n, ok := m.(sim.Network)
	if !ok {
		return
	}
	if c, ok := m.(network.Coupled); ok {
		rep := network.Analyze(c)
		for _, loop := range rep.Loops {
			logrus.Infof("%s: feedback loop through %s", name(m), joinNames(loop, name))
		}
		if len(rep.SelfCoupled) > 0 {
			logrus.Warnf("%s: coupled to themselves: %s", name(m), joinNames(rep.SelfCoupled, name))
		}
		if len(rep.NoInput) > 0 {
			logrus.Infof("%s: no inbound coupling: %s", name(m), joinNames(rep.NoInput, name))
		}
		if len(rep.NoOutput) > 0 {
			logrus.Infof("%s: no outbound coupling: %s", name(m), joinNames(rep.NoOutput, name))
		}
	}
	for _, c := range n.Components() {
		diagnose(c, name)
	}
}

func joinNames(ms []sim.Model, name func(sim.Model) string) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = name(m)
	}
	return strings.Join(parts, ", ")
}
