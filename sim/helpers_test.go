package sim

import (
	"fmt"
	"math"
	"testing"
)

// player holds the ball while active and passes it after one time unit.
type player struct {
	Base
	active  bool
	sent    int
	hits    int
	elapsed []float64
}

func (p *player) TimeAdvance() float64 {
	if p.active {
		return 1
	}
	return Inf
}

func (p *player) InternalTransition() error {
	p.active = false
	p.sent++
	return nil
}

func (p *player) ExternalTransition(elapsed float64, inputs []any) error {
	p.active = true
	p.hits += len(inputs)
	p.elapsed = append(p.elapsed, elapsed)
	return nil
}

func (p *player) Output() ([]any, error) { return []any{"ball"}, nil }

// ticker fires every period and records what it went through.
type ticker struct {
	Base
	name     string
	period   float64
	n        int
	received []any
	log      []string
	outputs  int
}

func newTicker(name string, period float64) *ticker {
	return &ticker{name: name, period: period}
}

func (k *ticker) TimeAdvance() float64 { return k.period }

func (k *ticker) InternalTransition() error {
	k.n++
	k.log = append(k.log, "int")
	return nil
}

func (k *ticker) ExternalTransition(elapsed float64, inputs []any) error {
	k.received = append(k.received, inputs...)
	k.log = append(k.log, fmt.Sprintf("ext %g", elapsed))
	return nil
}

func (k *ticker) Output() ([]any, error) {
	k.outputs++
	return []any{fmt.Sprintf("%s:%d", k.name, k.n)}, nil
}

// confluentTicker overrides the default confluent transition.
type confluentTicker struct {
	ticker
}

func (c *confluentTicker) ConfluentTransition(inputs []any) error {
	c.received = append(c.received, inputs...)
	c.log = append(c.log, "conf")
	return nil
}

// flagger fires once at t=at and then asks for a structure change.
type flagger struct {
	at   float64
	done bool
	want bool
}

func (f *flagger) TimeAdvance() float64 {
	if f.done {
		return Inf
	}
	return f.at
}

func (f *flagger) InternalTransition() error {
	f.done = true
	f.want = true
	return nil
}

func (f *flagger) ExternalTransition(float64, []any) error { return nil }

func (f *flagger) Output() ([]any, error) { return []any{"flag"}, nil }

func (f *flagger) StructureChangeRequested() bool {
	w := f.want
	f.want = false
	return w
}

// faulty misbehaves in the function selected by mode.
// "negative later" reports a negative time advance once it transitioned.
type faulty struct {
	Base
	mode    string
	changes int
}

func (f *faulty) TimeAdvance() float64 {
	if f.mode == "negative" || (f.mode == "negative later" && f.changes > 0) {
		return -1
	}
	return 1
}

func (f *faulty) InternalTransition() error {
	switch f.mode {
	case "panic":
		panic("boom")
	case "error":
		return fmt.Errorf("internal failure")
	}
	f.changes++
	return nil
}

func (f *faulty) ExternalTransition(float64, []any) error { return nil }

func (f *faulty) Output() ([]any, error) { return nil, nil }

// sleeper reports math.MaxFloat64 until an input wakes it, then fires once
// after delay.
type sleeper struct {
	Base
	delay    float64
	awake    bool
	internal int
	external int
}

func (z *sleeper) TimeAdvance() float64 {
	if z.awake {
		return z.delay
	}
	return math.MaxFloat64
}

func (z *sleeper) InternalTransition() error {
	z.internal++
	z.awake = false
	return nil
}

func (z *sleeper) ExternalTransition(float64, []any) error {
	z.external++
	z.awake = true
	return nil
}

func (z *sleeper) Output() ([]any, error) { return []any{"woke"}, nil }

// valueAtomic implements Atomic on a value receiver, which the kernel rejects.
type valueAtomic struct{ Base }

func (valueAtomic) TimeAdvance() float64 { return Inf }
func (valueAtomic) InternalTransition() error { return nil }
func (valueAtomic) ExternalTransition(float64, []any) error { return nil }
func (valueAtomic) Output() ([]any, error) { return nil, nil }

// testNet is a network whose routing and structure hooks are plain funcs.
type testNet struct {
	comps       []Model
	route       func(value any, src Model) []Event
	restructure func(n *testNet) bool
	calls       int
}

func (n *testNet) Components() []Model { return n.comps }

func (n *testNet) Route(value any, src Model, collect []Event) []Event {
	if n.route == nil {
		return collect
	}
	return append(collect, n.route(value, src)...)
}

func (n *testNet) StructureChangeRequested() bool {
	n.calls++
	if n.restructure == nil {
		return false
	}
	return n.restructure(n)
}

// newPair couples two models so that each one's output reaches the other.
func newPair(a, b Model) *testNet {
	return &testNet{
		comps: []Model{a, b},
		route: func(v any, src Model) []Event {
			if src == a {
				return []Event{{Model: b, Value: v}}
			}
			return []Event{{Model: a, Value: v}}
		},
	}
}

type record struct {
	t     float64
	src   Model
	value any
}

// collector gathers listener callbacks.
type collector struct {
	outputs []record
	changes []record
}

func (c *collector) OnOutput(e Event, t float64) {
	c.outputs = append(c.outputs, record{t: t, src: e.Model, value: e.Value})
}

func (c *collector) OnStateChange(m Atomic, t float64) {
	c.changes = append(c.changes, record{t: t, src: m})
}

func mustSimulator(t *testing.T, root Model, cfg Config) *Simulator {
	t.Helper()
	s, err := NewSimulator(root, cfg)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}
