package trace

import (
	"fmt"

	"github.com/inference-sim/devsim/sim"
)

// Recorder is a sim.Listener that fills a SimulationTrace.
type Recorder struct {
	trace *SimulationTrace
	name  func(sim.Model) string
}

// NewRecorder records into st, naming models with name. A nil name
// function falls back to the model's type.
func NewRecorder(st *SimulationTrace, name func(sim.Model) string) *Recorder {
	if name == nil {
		name = func(m sim.Model) string { return fmt.Sprintf("%T", m) }
	}
	return &Recorder{trace: st, name: name}
}

// Trace returns the trace being filled.
func (r *Recorder) Trace() *SimulationTrace { return r.trace }

func (r *Recorder) OnOutput(e sim.Event, t float64) {
	switch r.trace.Config.Level {
	case TraceLevelOutputs, TraceLevelAll:
		r.trace.RecordOutput(OutputRecord{Time: t, Model: r.name(e.Model), Value: fmt.Sprintf("%v", e.Value)})
	}
}

func (r *Recorder) OnStateChange(m sim.Atomic, t float64) {
	if r.trace.Config.Level == TraceLevelAll {
		r.trace.RecordStateChange(StateChangeRecord{Time: t, Model: r.name(m)})
	}
}
