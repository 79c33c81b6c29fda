package models

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/devsim/sim"
	"github.com/inference-sim/devsim/sim/network"
)

// Checkout ports.
const (
	// PortArrive carries customers from the generator to a clerk.
	PortArrive = iota
	// PortDepart carries customers leaving a clerk.
	PortDepart
)

// Customer is a shopper in the checkout line.
type Customer struct {
	ID int
	// Order is the time the clerk needs to check the customer out.
	Order float64
	// Enter and Leave are the times the customer joined and left the line.
	Enter float64
	Leave float64
}

// Waiting returns the time spent in line before checkout started.
func (c Customer) Waiting() float64 {
	return (c.Leave - c.Enter) - c.Order
}

// Arrival schedules a customer at an absolute time.
type Arrival struct {
	At    float64 `yaml:"at"`
	Order float64 `yaml:"order"`
}

// RandomArrivals draws n arrivals with exponential inter-arrival times and
// order sizes.
func RandomArrivals(rng *PartitionedRNG, n int, meanInterarrival, meanOrder float64) []Arrival {
	gaps := rng.ForSubsystem(SubsystemArrivals)
	orders := rng.ForSubsystem(SubsystemOrders)
	out := make([]Arrival, n)
	t := 0.0
	for i := range out {
		t += exp(gaps, meanInterarrival)
		out[i] = Arrival{At: t, Order: exp(orders, meanOrder)}
	}
	return out
}

func exp(r *rand.Rand, mean float64) float64 {
	return r.ExpFloat64() * mean
}

// Generator releases customers according to a schedule of arrivals.
type Generator struct {
	sim.Base
	arrivals []Arrival
	last     float64
	next     int
}

// NewGenerator returns a generator for arrivals, which must be sorted by
// time and lie at or after zero.
func NewGenerator(arrivals []Arrival) (*Generator, error) {
	prev := 0.0
	for i, a := range arrivals {
		if a.At < prev {
			return nil, fmt.Errorf("arrival %d at %g is before %g", i, a.At, prev)
		}
		if a.Order < 0 {
			return nil, fmt.Errorf("arrival %d has negative order %g", i, a.Order)
		}
		prev = a.At
	}
	return &Generator{arrivals: slices.Clone(arrivals)}, nil
}

func (g *Generator) TimeAdvance() float64 {
	if g.next == len(g.arrivals) {
		return sim.Inf
	}
	return g.arrivals[g.next].At - g.last
}

func (g *Generator) InternalTransition() error {
	g.last = g.arrivals[g.next].At
	g.next++
	return nil
}

// ExternalTransition ignores input; the generator has none.
func (g *Generator) ExternalTransition(float64, []any) error { return nil }

func (g *Generator) Output() ([]any, error) {
	a := g.arrivals[g.next]
	return []any{network.PortValue{Port: PortArrive, Value: Customer{ID: g.next + 1, Order: a.Order}}}, nil
}

// Clerk checks customers out in arrival order.
type Clerk struct {
	sim.Base
	line  []Customer
	t     float64 // the clerk's clock
	spent float64 // time spent on the customer at the front
}

// Len returns the number of customers in line, the one at the counter included.
func (c *Clerk) Len() int { return len(c.line) }

func (c *Clerk) TimeAdvance() float64 {
	if len(c.line) == 0 {
		return sim.Inf
	}
	return c.line[0].Order - c.spent
}

func (c *Clerk) InternalTransition() error {
	c.t += c.TimeAdvance()
	c.spent = 0
	c.line = c.line[1:]
	logrus.Debugf("clerk: customer left at t=%g, %d waiting", c.t, len(c.line))
	return nil
}

func (c *Clerk) ExternalTransition(elapsed float64, inputs []any) error {
	c.t += elapsed
	if len(c.line) > 0 {
		c.spent += elapsed
	}
	for _, x := range inputs {
		cu, err := customerOn(x, PortArrive)
		if err != nil {
			return err
		}
		cu.Enter = c.t
		c.line = append(c.line, cu)
	}
	return nil
}

func (c *Clerk) Output() ([]any, error) {
	leaving := c.line[0]
	leaving.Leave = c.t + c.TimeAdvance()
	return []any{network.PortValue{Port: PortDepart, Value: leaving}}, nil
}

func customerOn(x any, port int) (Customer, error) {
	pv, ok := x.(network.PortValue)
	if !ok || pv.Port != port {
		return Customer{}, fmt.Errorf("unexpected input %v", x)
	}
	cu, ok := pv.Value.(Customer)
	if !ok {
		return Customer{}, fmt.Errorf("unexpected value %T on port %d", pv.Value, port)
	}
	return cu, nil
}

// Preemption settings of a PreemptiveClerk.
const (
	SmallOrder  = 1.0
	PreemptTime = 5.0
)

type waiting struct {
	customer Customer
	left     float64 // checkout time remaining
}

// PreemptiveClerk lets a customer with a small order jump to the front of
// the line, at most once every PreemptTime.
type PreemptiveClerk struct {
	sim.Base
	line    []waiting
	t       float64
	preempt float64 // time before the next preemption is allowed
	// Preemptions counts customers moved to the front.
	Preemptions int
}

func (c *PreemptiveClerk) Len() int { return len(c.line) }

func (c *PreemptiveClerk) TimeAdvance() float64 {
	if len(c.line) == 0 {
		return sim.Inf
	}
	return c.line[0].left
}

func (c *PreemptiveClerk) InternalTransition() error {
	ta := c.TimeAdvance()
	c.t += ta
	c.preempt -= ta
	c.line = c.line[1:]
	if c.preempt > 0 {
		return nil
	}
	for i, w := range c.line {
		if w.left <= SmallOrder {
			c.line = slices.Delete(c.line, i, i+1)
			c.line = slices.Insert(c.line, 0, w)
			c.preempt = PreemptTime
			c.Preemptions++
			break
		}
	}
	return nil
}

func (c *PreemptiveClerk) ExternalTransition(elapsed float64, inputs []any) error {
	c.t += elapsed
	if len(c.line) > 0 {
		c.line[0].left -= elapsed
	}
	c.preempt -= elapsed
	for _, x := range inputs {
		cu, err := customerOn(x, PortArrive)
		if err != nil {
			return err
		}
		cu.Enter = c.t
		w := waiting{customer: cu, left: cu.Order}
		if c.preempt <= 0 && w.left <= SmallOrder {
			c.preempt = PreemptTime
			c.Preemptions++
			c.line = slices.Insert(c.line, 0, w)
			continue
		}
		c.line = append(c.line, w)
	}
	return nil
}

func (c *PreemptiveClerk) Output() ([]any, error) {
	leaving := c.line[0].customer
	leaving.Leave = c.t + c.TimeAdvance()
	return []any{network.PortValue{Port: PortDepart, Value: leaving}}, nil
}

// Observer collects the customers leaving the store.
type Observer struct {
	sim.Base
	Departed []Customer
}

func (o *Observer) TimeAdvance() float64 { return sim.Inf }
func (o *Observer) InternalTransition() error { return nil }
func (o *Observer) Output() ([]any, error) { return nil, nil }

func (o *Observer) ExternalTransition(_ float64, inputs []any) error {
	for _, x := range inputs {
		cu, err := customerOn(x, PortDepart)
		if err != nil {
			return err
		}
		o.Departed = append(o.Departed, cu)
	}
	return nil
}

// WaitingStats summarizes the time customers spent waiting in line.
type WaitingStats struct {
	Customers int
	Mean      float64
	StdDev    float64
	P90       float64
	Max       float64
}

// Stats computes waiting time statistics over the departed customers.
func (o *Observer) Stats() WaitingStats {
	if len(o.Departed) == 0 {
		return WaitingStats{}
	}
	w := make([]float64, len(o.Departed))
	for i, c := range o.Departed {
		w[i] = c.Waiting()
	}
	st := WaitingStats{
		Customers: len(w),
		Mean:      stat.Mean(w, nil),
		Max:       floats.Max(w),
	}
	if len(w) > 1 {
		st.StdDev = stat.StdDev(w, nil)
	}
	slices.Sort(w)
	st.P90 = stat.Quantile(0.9, stat.Empirical, w, nil)
	return st
}

// Store is the checkout scenario: a generator, a clerk and an observer
// coupled in a Digraph.
type Store struct {
	Root     *network.Digraph
	Genr     *Generator
	Clerk    sim.Atomic
	Observer *Observer
}

// NewStore couples a generator for arrivals to a clerk. A preemptive clerk
// lets small orders jump the line.
func NewStore(arrivals []Arrival, preemptive bool) (*Store, error) {
	genr, err := NewGenerator(arrivals)
	if err != nil {
		return nil, err
	}
	var clerk sim.Atomic = &Clerk{}
	if preemptive {
		clerk = &PreemptiveClerk{}
	}
	s := &Store{
		Root:     network.NewDigraph(),
		Genr:     genr,
		Clerk:    clerk,
		Observer: &Observer{},
	}
	s.Root.Couple(genr, PortArrive, clerk, PortArrive)
	s.Root.Couple(clerk, PortDepart, s.Observer, PortDepart)
	return s, nil
}
