package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/devsim/sim"
)

// counter counts the inputs it receives.
type counter struct {
	sim.Base
	seen []any
}

func (c *counter) TimeAdvance() float64 { return sim.Inf }
func (c *counter) InternalTransition() error { return nil }
func (c *counter) Output() ([]any, error) { return nil, nil }

func (c *counter) ExternalTransition(_ float64, inputs []any) error {
	c.seen = append(c.seen, inputs...)
	return nil
}

func TestSimpleDigraph_Route(t *testing.T) {
	a, b, c := &counter{}, &counter{}, &counter{}
	d := NewSimpleDigraph()
	d.Couple(d, a)
	d.Couple(a, b)
	d.Couple(a, c)
	d.Couple(a, b)
	d.Couple(c, d)

	assert.Equal(t, []sim.Model{a, b, c}, d.Components())
	assert.Equal(t, []sim.Event{{Model: a, Value: 3}}, d.Route(3, d, nil))
	assert.Equal(t, []sim.Event{{Model: b, Value: "x"}, {Model: c, Value: "x"}}, d.Route("x", a, nil))
	assert.Equal(t, []sim.Event{{Model: d, Value: 1.5}}, d.Route(1.5, c, nil))
	assert.Empty(t, d.Route("x", b, nil))
	assert.Len(t, d.Couplings(), 4)

	d.Remove(c)
	assert.Equal(t, []sim.Event{{Model: b, Value: "x"}}, d.Route("x", a, nil))
	assert.Empty(t, d.Route(1.5, c, nil))
	assert.Len(t, d.Couplings(), 2)
}

func TestSimpleDigraph_InSimulator(t *testing.T) {
	// GIVEN input injected at the network boundary and fanned out
	a, b := &counter{}, &counter{}
	d := NewSimpleDigraph()
	d.Couple(d, a)
	d.Couple(d, b)
	s, err := sim.NewSimulator(d, sim.Config{})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.ComputeNextState([]sim.Event{{Model: d, Value: "job"}}, 2))

	assert.Equal(t, []any{"job"}, a.seen)
	assert.Equal(t, []any{"job"}, b.seen)
	assert.Equal(t, 2.0, s.LastEventTime())
}
