package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelAll})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalOutputs != 0 || summary.TotalStateChanges != 0 {
		t.Error("expected 0 outputs and state changes")
	}
	if summary.UniqueSources != 0 {
		t.Errorf("expected 0 unique sources, got %d", summary.UniqueSources)
	}
	if summary.FirstTime != 0 || summary.LastTime != 0 {
		t.Error("expected zero time span")
	}
	if summary.BusiestModel != "" {
		t.Errorf("expected no busiest model, got %q", summary.BusiestModel)
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary == nil || summary.OutputsPerModel == nil {
		t.Fatal("expected non-nil summary with initialized maps")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with outputs from two models
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelAll})
	st.RecordOutput(OutputRecord{Time: 2, Model: "b", Value: "1"})
	st.RecordOutput(OutputRecord{Time: 3, Model: "a", Value: "2"})
	st.RecordOutput(OutputRecord{Time: 4, Model: "b", Value: "3"})
	st.RecordStateChange(StateChangeRecord{Time: 1, Model: "a"})
	st.RecordStateChange(StateChangeRecord{Time: 4, Model: "b"})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalOutputs != 3 {
		t.Errorf("expected 3 outputs, got %d", summary.TotalOutputs)
	}
	if summary.UniqueSources != 2 {
		t.Errorf("expected 2 unique sources, got %d", summary.UniqueSources)
	}
	if summary.OutputsPerModel["b"] != 2 {
		t.Errorf("expected 2 outputs from b, got %d", summary.OutputsPerModel["b"])
	}
	if summary.StateChangesPerModel["a"] != 1 {
		t.Errorf("expected 1 state change for a, got %d", summary.StateChangesPerModel["a"])
	}
	if summary.BusiestModel != "b" {
		t.Errorf("expected busiest model b, got %q", summary.BusiestModel)
	}
	if summary.FirstTime != 1 || summary.LastTime != 4 {
		t.Errorf("expected span [1, 4], got [%v, %v]", summary.FirstTime, summary.LastTime)
	}
}

func TestSummarize_BusiestModel_TieBreaksByName(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelOutputs})
	st.RecordOutput(OutputRecord{Time: 1, Model: "zeta"})
	st.RecordOutput(OutputRecord{Time: 1, Model: "alpha"})

	if got := Summarize(st).BusiestModel; got != "alpha" {
		t.Errorf("expected alpha, got %q", got)
	}
}
