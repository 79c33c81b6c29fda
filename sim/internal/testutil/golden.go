// Package testutil provides shared test infrastructure for the sim packages.
// It holds the golden dataset types and assertion helpers used by the
// scenario tests.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase represents a single scenario run from the golden dataset.
type GoldenTestCase struct {
	Name     string  `json:"name"`
	Scenario string  `json:"scenario"`
	Horizon  float64 `json:"horizon"`

	// pingpong
	MaxServes int `json:"max-serves"`

	// server
	Period      float64 `json:"period"`
	ServiceTime float64 `json:"service-time"`

	// checkout
	Arrivals   [][2]float64 `json:"arrivals"` // [at, order]
	Preemptive bool         `json:"preemptive"`

	Metrics GoldenMetrics `json:"metrics"`
}

// GoldenMetrics represents the expected results of a golden test case.
type GoldenMetrics struct {
	// Exact match metrics (integers)
	Steps   int `json:"steps"`
	Outputs int `json:"outputs"`
	In      int `json:"in"`
	Out     int `json:"out"`

	// Deterministic floating-point metrics (derived from simulation clock)
	FinalTime float64 `json:"final_time"`
	MeanWait  float64 `json:"mean_wait"`
	MaxWait   float64 `json:"max_wait"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
