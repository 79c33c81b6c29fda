package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalOutputs         int
	TotalStateChanges    int
	FirstTime            float64
	LastTime             float64
	UniqueSources        int
	OutputsPerModel      map[string]int // model name → outputs emitted
	StateChangesPerModel map[string]int // model name → transitions
	BusiestModel         string         // most outputs, ties by name
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		OutputsPerModel:      make(map[string]int),
		StateChangesPerModel: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalOutputs = len(st.Outputs)
	summary.TotalStateChanges = len(st.StateChanges)

	observed := false
	seen := func(t float64) {
		if !observed || t < summary.FirstTime {
			summary.FirstTime = t
		}
		if !observed || t > summary.LastTime {
			summary.LastTime = t
		}
		observed = true
	}
	for _, o := range st.Outputs {
		summary.OutputsPerModel[o.Model]++
		seen(o.Time)
	}
	for _, s := range st.StateChanges {
		summary.StateChangesPerModel[s.Model]++
		seen(s.Time)
	}

	summary.UniqueSources = len(summary.OutputsPerModel)
	best := 0
	for name, n := range summary.OutputsPerModel {
		if n > best || (n == best && name < summary.BusiestModel) {
			best = n
			summary.BusiestModel = name
		}
	}

	return summary
}
