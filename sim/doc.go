// Package sim provides a DEVS (Discrete Event System Specification)
// simulation kernel with support for dynamic structure.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - model.go: the Atomic and Network contracts user models implement
//   - simulator.go: the Simulator API and model registration
//   - step.go: one step (output, routing, transitions, notification)
//
// structure.go re-derives component sets after a structure change request,
// schedule.go keeps atomic models ordered by next event time and
// parallel.go spreads the output and transition phases over a worker pool.
//
// # Architecture
//
// The kernel never owns user models. It keeps an arena of nodes keyed by
// ModelID and refers to parents by ID. A model tree is attached to at most
// one live Simulator at a time; Close detaches it.
//
// Sub-packages build on the kernel:
//   - sim/network/: reusable Network implementations (port-based digraph,
//     all-to-all digraph) and static coupling analysis
//   - sim/models/: example models used by the CLI scenarios and tests
//   - sim/trace/: a Listener that records outputs and state changes
//
// # Driving a simulation
//
// ExecNextEvent and ExecUntil run closed simulations. A driver embedding the
// kernel in a larger system uses NextEventTime, ComputeNextOutput and
// ComputeNextState to interleave its own inputs with internal events.
package sim
