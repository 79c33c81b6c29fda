package models

import (
	"github.com/inference-sim/devsim/sim"
)

// Player passes the ball one time unit after receiving it. Every serve
// emits two values, "Ping" and "Pong".
type Player struct {
	HasBall bool
	// Count is the number of serves so far.
	Count int
	// Received is the number of values received so far.
	Received int
	// MaxServes stops the player after that many serves; 0 means never.
	MaxServes int
	// RestructureAfter makes the player request a structure change on
	// every transition once Count exceeds it; 0 means never.
	RestructureAfter int
}

func (p *Player) TimeAdvance() float64 {
	if p.HasBall && (p.MaxServes == 0 || p.Count < p.MaxServes) {
		return 1
	}
	return sim.Inf
}

func (p *Player) InternalTransition() error {
	p.Count++
	p.HasBall = false
	return nil
}

func (p *Player) ExternalTransition(_ float64, inputs []any) error {
	p.Received += len(inputs)
	p.HasBall = true
	return nil
}

func (p *Player) Output() ([]any, error) {
	return []any{"Ping", "Pong"}, nil
}

func (p *Player) StructureChangeRequested() bool {
	return p.RestructureAfter > 0 && p.Count > p.RestructureAfter
}

// PingPong is a fixed pair of players, the first one serving.
type PingPong struct {
	sim.Base
	P1, P2 *Player
}

// NewPingPong returns a pair that stops after maxServes serves each.
func NewPingPong(maxServes int) *PingPong {
	return &PingPong{
		P1: &Player{HasBall: true, MaxServes: maxServes},
		P2: &Player{MaxServes: maxServes},
	}
}

func (n *PingPong) Components() []sim.Model {
	return []sim.Model{n.P1, n.P2}
}

func (n *PingPong) Route(value any, src sim.Model, collect []sim.Event) []sim.Event {
	return append(collect, sim.Event{Model: passTo(src, n.P1, n.P2), Value: value})
}

// passTo returns the model that receives what src emits: p1 sends to p2,
// everything else, boundary input included, goes to p1.
func passTo(src, p1, p2 sim.Model) sim.Model {
	if src == p1 {
		return p2
	}
	return p1
}

// DynPingPong is a pair whose first slot alternates between a player and a
// nested DynPingPong. Players ask for a change once they served more than
// twice; the pair then swaps its first slot and passes the request up.
type DynPingPong struct {
	P1 sim.Model
	P2 *Player
	// Changes counts the structure changes of this pair.
	Changes int
}

// DynRestructureAfter is the serve count after which players of a
// DynPingPong request structure changes.
const DynRestructureAfter = 2

func NewDynPingPong() *DynPingPong {
	return &DynPingPong{
		P1: &Player{HasBall: true, RestructureAfter: DynRestructureAfter},
		P2: &Player{RestructureAfter: DynRestructureAfter},
	}
}

func (n *DynPingPong) Components() []sim.Model {
	return []sim.Model{n.P1, n.P2}
}

func (n *DynPingPong) Route(value any, src sim.Model, collect []sim.Event) []sim.Event {
	return append(collect, sim.Event{Model: passTo(src, n.P1, n.P2), Value: value})
}

func (n *DynPingPong) StructureChangeRequested() bool {
	if _, ok := n.P1.(*Player); ok {
		n.P1 = NewDynPingPong()
	} else {
		n.P1 = &Player{HasBall: !n.P2.HasBall, RestructureAfter: DynRestructureAfter}
	}
	n.Changes++
	return true
}

// Depth returns the number of nested pairs below n.
func (n *DynPingPong) Depth() int {
	if inner, ok := n.P1.(*DynPingPong); ok {
		return 1 + inner.Depth()
	}
	return 0
}
