package trace

// TraceLevel controls the verbosity of simulation tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelOutputs captures every output notification.
	TraceLevelOutputs TraceLevel = "outputs"
	// TraceLevelAll captures outputs and state changes.
	TraceLevelAll TraceLevel = "all"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelOutputs: true,
	TraceLevelAll:     true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
	// MaxRecords caps each record list; 0 means unbounded. Records past
	// the cap are counted in Dropped.
	MaxRecords int
}

// SimulationTrace collects records during a simulation run.
type SimulationTrace struct {
	Config       TraceConfig
	Outputs      []OutputRecord
	StateChanges []StateChangeRecord
	Dropped      int
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:       config,
		Outputs:      make([]OutputRecord, 0),
		StateChanges: make([]StateChangeRecord, 0),
	}
}

// RecordOutput appends an output record.
func (st *SimulationTrace) RecordOutput(record OutputRecord) {
	if st.full(len(st.Outputs)) {
		st.Dropped++
		return
	}
	st.Outputs = append(st.Outputs, record)
}

// RecordStateChange appends a state change record.
func (st *SimulationTrace) RecordStateChange(record StateChangeRecord) {
	if st.full(len(st.StateChanges)) {
		st.Dropped++
		return
	}
	st.StateChanges = append(st.StateChanges, record)
}

func (st *SimulationTrace) full(n int) bool {
	return st.Config.MaxRecords > 0 && n >= st.Config.MaxRecords
}
