// Package trace provides output and state-change recording for simulation runs.
// Records are pure data; only recorder.go depends on sim/.
package trace

// OutputRecord captures one output notification: a value emitted by an
// atomic model or leaving a network.
type OutputRecord struct {
	Time  float64
	Model string
	Value string // formatted with %v
}

// StateChangeRecord captures one state transition of an atomic model.
type StateChangeRecord struct {
	Time  float64
	Model string
}
