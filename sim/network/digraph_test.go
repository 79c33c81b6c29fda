package network

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/devsim/sim"
)

// Parrot ports.
const (
	shout = iota
	whisper
	said
)

// parrot repeats what it hears one time unit later, shouting or whispering
// depending on the port the words arrived on.
type parrot struct {
	sim.Base
	queue []string
}

func (p *parrot) TimeAdvance() float64 {
	if len(p.queue) == 0 {
		return sim.Inf
	}
	return 1
}

func (p *parrot) InternalTransition() error {
	p.queue = p.queue[1:]
	return nil
}

func (p *parrot) ExternalTransition(_ float64, inputs []any) error {
	for _, x := range inputs {
		pv := x.(PortValue)
		switch pv.Port {
		case shout:
			p.queue = append(p.queue, strings.ToUpper(pv.Value.(string)))
		case whisper:
			p.queue = append(p.queue, strings.ToLower(pv.Value.(string)))
		}
	}
	return nil
}

func (p *parrot) Output() ([]any, error) {
	return []any{PortValue{Port: said, Value: p.queue[0]}}, nil
}

func TestDigraph_RouteFanOut(t *testing.T) {
	a, b, c := &parrot{}, &parrot{}, &parrot{}
	d := NewDigraph()
	d.Couple(a, said, b, shout)
	d.Couple(a, said, c, whisper)
	d.Couple(a, said, b, shout)

	got := d.Route(PortValue{Port: said, Value: "hi"}, a, nil)

	require.Len(t, got, 2, "duplicate couplings are kept once")
	assert.Equal(t, sim.Event{Model: b, Value: PortValue{Port: shout, Value: "hi"}}, got[0])
	assert.Equal(t, sim.Event{Model: c, Value: PortValue{Port: whisper, Value: "hi"}}, got[1])
	assert.Equal(t, []sim.Model{a, b, c}, d.Components())
	assert.Len(t, d.Couplings(), 2)

	assert.Empty(t, d.Route(PortValue{Port: shout, Value: "hi"}, a, nil), "uncoupled port")
	assert.Empty(t, d.Route("not a port value", a, nil))
}

// permutations returns every ordering of 0..n-1.
func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			q := make([]int, 0, n)
			q = append(q, p[:i]...)
			q = append(q, n-1)
			q = append(q, p[i:]...)
			out = append(out, q)
		}
	}
	return out
}

func TestDigraph_FanOut_InsertionOrderIndependent(t *testing.T) {
	ports := []int{shout, whisper, shout}
	perms := permutations(len(ports))
	require.Len(t, perms, 6)

	for _, perm := range perms {
		t.Run(fmt.Sprint(perm), func(t *testing.T) {
			// GIVEN one speaker coupled to three listeners in this order
			src := &parrot{queue: []string{"Hi"}}
			dsts := []*parrot{{}, {}, {}}
			d := NewDigraph()
			for _, i := range perm {
				d.Couple(src, said, dsts[i], ports[i])
			}
			s, err := sim.NewSimulator(d, sim.Config{})
			require.NoError(t, err)
			defer s.Close()

			// WHEN the speaker talks
			require.NoError(t, s.ExecNextEvent())

			// THEN every listener heard it in the same step and ends in the same state
			for i, p := range dsts {
				tL, tN, ok := s.Times(p)
				require.True(t, ok)
				assert.Equal(t, 1.0, tL, "listener %d", i)
				assert.Equal(t, 2.0, tN, "listener %d", i)
			}
			assert.Equal(t, [][]string{{"HI"}, {"hi"}, {"HI"}},
				[][]string{dsts[0].queue, dsts[1].queue, dsts[2].queue})
			assert.Equal(t, 1, s.Steps())
		})
	}
}

// captureLogOutput runs fn and returns the log output as a string.
func captureLogOutput(fn func()) string {
	var buf bytes.Buffer
	origOutput := logrus.StandardLogger().Out
	origLevel := logrus.GetLevel()
	logrus.SetOutput(&buf)
	logrus.SetLevel(logrus.WarnLevel)
	defer func() {
		if origOutput != nil {
			logrus.SetOutput(origOutput)
		} else {
			logrus.SetOutput(os.Stderr)
		}
		logrus.SetLevel(origLevel)
	}()
	fn()
	return buf.String()
}

func TestDigraph_Route_WarnsOnBareValue(t *testing.T) {
	// GIVEN a model that forgot to wrap its output in a PortValue
	a, b := &parrot{}, &parrot{}
	d := NewDigraph()
	d.Couple(a, said, b, shout)

	var got []sim.Event
	output := captureLogOutput(func() {
		got = d.Route("hi", a, nil)
	})

	// THEN nothing is routed and the drop is logged with the source type
	assert.Empty(t, got)
	assert.Contains(t, output, "dropping string value from *network.parrot")
}

func TestDigraph_RouteAppends(t *testing.T) {
	a, b := &parrot{}, &parrot{}
	d := NewDigraph()
	d.Couple(a, said, b, shout)
	prior := []sim.Event{{Model: a, Value: 1}}

	got := d.Route(PortValue{Port: said, Value: "x"}, a, prior)

	require.Len(t, got, 2)
	assert.Equal(t, prior[0], got[0])
}

func TestDigraph_Boundary(t *testing.T) {
	a := &parrot{}
	d := NewDigraph()
	d.Couple(d, 7, a, shout)
	d.Couple(a, said, d, 9)

	assert.Equal(t, []sim.Model{a}, d.Components(), "the network is not its own component")
	assert.Equal(t,
		[]sim.Event{{Model: a, Value: PortValue{Port: shout, Value: "in"}}},
		d.Route(PortValue{Port: 7, Value: "in"}, d, nil))
	assert.Equal(t,
		[]sim.Event{{Model: d, Value: PortValue{Port: 9, Value: "out"}}},
		d.Route(PortValue{Port: said, Value: "out"}, a, nil))

	cs := d.Couplings()
	require.Len(t, cs, 2)
	assert.Nil(t, cs[0].Src)
	assert.Nil(t, cs[1].Dst)

	assert.Panics(t, func() { d.Add(d) })
}

// relay embeds a Digraph and restructures on demand.
type relay struct {
	*Digraph
	pending bool
}

func (r *relay) StructureChangeRequested() bool { return r.pending }

func TestDigraph_Owner(t *testing.T) {
	a := &parrot{}
	r := &relay{Digraph: NewDigraph()}
	r.SetOwner(r)
	r.Couple(r, 0, a, whisper)
	r.Couple(a, said, r, 1)

	got := r.Route(PortValue{Port: said, Value: "v"}, a, nil)
	require.Len(t, got, 1)
	assert.Same(t, r, got[0].Model)
	assert.Len(t, r.Route(PortValue{Port: 0, Value: "v"}, r, nil), 1)

	r.pending = true
	assert.True(t, r.StructureChangeRequested(), "the embedding type overrides the default")
}

func TestDigraph_Remove(t *testing.T) {
	a, b, c := &parrot{}, &parrot{}, &parrot{}
	d := NewDigraph()
	d.Couple(a, said, b, shout)
	d.Couple(b, said, c, shout)
	d.Couple(c, said, a, shout)

	d.Remove(b)
	d.Remove(b)

	assert.Equal(t, []sim.Model{a, c}, d.Components())
	assert.Empty(t, d.Route(PortValue{Port: said, Value: "x"}, a, nil))
	assert.Empty(t, d.Route(PortValue{Port: said, Value: "x"}, b, nil))
	assert.Len(t, d.Route(PortValue{Port: said, Value: "x"}, c, nil), 1)
	assert.Equal(t, []Coupling{{Src: c, SrcPort: said, Dst: a, DstPort: shout}}, d.Couplings())
}

func TestDigraph_ParrotRing(t *testing.T) {
	// GIVEN dusty -> lefty (shout) -> ned (whisper) -> dusty (shout)
	dusty := &parrot{queue: []string{"bird, bird, bird: bird is the word"}}
	lefty, ned := &parrot{}, &parrot{}
	d := NewDigraph()
	d.Add(dusty)
	d.Add(lefty)
	d.Add(ned)
	d.Couple(dusty, said, lefty, shout)
	d.Couple(lefty, said, ned, whisper)
	d.Couple(ned, said, dusty, shout)

	s, err := sim.NewSimulator(d, sim.Config{})
	require.NoError(t, err)
	defer s.Close()
	type heard struct {
		t     float64
		who   sim.Model
		words string
	}
	var log []heard
	s.AddListener(&sim.ListenerFuncs{Output: func(e sim.Event, at float64) {
		if pv, ok := e.Value.(PortValue); ok {
			log = append(log, heard{at, e.Model, pv.Value.(string)})
		}
	}})

	require.NoError(t, s.ExecUntil(10))

	// THEN the words circle the ring once every three time units
	require.Len(t, log, 10)
	order := []sim.Model{dusty, lefty, ned}
	for i, h := range log {
		assert.Equal(t, float64(i+1), h.t)
		assert.Same(t, order[i%3], h.who)
		switch {
		case h.who == lefty:
			assert.Equal(t, strings.ToUpper(h.words), h.words)
		case h.who == ned:
			assert.Equal(t, strings.ToLower(h.words), h.words)
		}
	}
	assert.Equal(t, "BIRD, BIRD, BIRD: BIRD IS THE WORD", log[3].words)
}
