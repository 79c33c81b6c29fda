package models

import (
	"github.com/inference-sim/devsim/sim"
	"github.com/inference-sim/devsim/sim/network"
)

// Job is the value exchanged by the server scenario.
type Job struct {
	ID int
}

// QueuedServer serves jobs one at a time in arrival order, each taking
// ServiceTime, and holds the rest in an unbounded queue.
type QueuedServer struct {
	sim.Base
	ServiceTime float64
	// Served counts completed jobs.
	Served int

	queue []any
	ttg   float64 // time to go for the job in service
}

func NewQueuedServer(serviceTime float64) *QueuedServer {
	return &QueuedServer{ServiceTime: serviceTime, ttg: serviceTime}
}

// Len returns the number of jobs in the server, the one in service included.
func (s *QueuedServer) Len() int { return len(s.queue) }

func (s *QueuedServer) TimeAdvance() float64 {
	if len(s.queue) == 0 {
		return sim.Inf
	}
	return s.ttg
}

func (s *QueuedServer) InternalTransition() error {
	s.queue = s.queue[1:]
	s.ttg = s.ServiceTime
	s.Served++
	return nil
}

func (s *QueuedServer) ExternalTransition(elapsed float64, inputs []any) error {
	if len(s.queue) > 0 {
		s.ttg -= elapsed
	}
	s.queue = append(s.queue, inputs...)
	return nil
}

func (s *QueuedServer) Output() ([]any, error) {
	return []any{s.queue[0]}, nil
}

// GenrTransd emits a job every Period and counts the jobs that come back.
type GenrTransd struct {
	sim.Base
	Period float64
	In     int
	Out    int

	ttg float64
}

func NewGenrTransd(period float64) *GenrTransd {
	return &GenrTransd{Period: period, ttg: period}
}

func (g *GenrTransd) TimeAdvance() float64 { return g.ttg }

func (g *GenrTransd) InternalTransition() error {
	g.Out++
	g.ttg = g.Period
	return nil
}

func (g *GenrTransd) ExternalTransition(elapsed float64, inputs []any) error {
	g.ttg -= elapsed
	g.In += len(inputs)
	return nil
}

func (g *GenrTransd) Output() ([]any, error) {
	return []any{Job{ID: g.Out + 1}}, nil
}

// ServerLine is the server scenario: a generator/transducer feeding a
// network of two servers in series, which returns finished jobs.
type ServerLine struct {
	Root    *network.SimpleDigraph
	Servers *network.SimpleDigraph
	Genr    *GenrTransd
	Q1, Q2  *QueuedServer
}

// NewServerLine couples a generator with the given period to two servers
// with the given service time.
func NewServerLine(period, serviceTime float64) *ServerLine {
	l := &ServerLine{
		Root:    network.NewSimpleDigraph(),
		Servers: network.NewSimpleDigraph(),
		Genr:    NewGenrTransd(period),
		Q1:      NewQueuedServer(serviceTime),
		Q2:      NewQueuedServer(serviceTime),
	}
	l.Servers.Couple(l.Servers, l.Q1)
	l.Servers.Couple(l.Q1, l.Q2)
	l.Servers.Couple(l.Q2, l.Servers)
	l.Root.Couple(l.Genr, l.Servers)
	l.Root.Couple(l.Servers, l.Genr)
	return l
}
