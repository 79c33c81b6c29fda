package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/devsim/sim"
	"github.com/inference-sim/devsim/sim/trace"
)

var (
	scenarioPath string  // Path to the scenario YAML file
	horizon      float64 // Overrides the scenario horizon
	workers      int     // Overrides the scenario worker count
	seed         int64   // Overrides the scenario seed
	logLevel     string  // Log verbosity level
	traceLevel   string  // Trace verbosity level
	maxRecords   int     // Cap on recorded trace entries
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "devsim",
	Short: "DEVS simulator with dynamic structure",
}

// runCmd executes the scenario named by --scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s; valid: none, outputs, all", traceLevel)
		}
		sc := loadScenario(cmd)
		cfg := trace.TraceConfig{Level: trace.TraceLevel(traceLevel), MaxRecords: maxRecords}
		if err := runScenario(sc, cfg, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// validateCmd only loads and checks the scenario
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a scenario file without running it",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		sc := loadScenario(cmd)
		if _, err := Build(sc); err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		fmt.Printf("%s: %s scenario is valid\n", scenarioPath, sc.Kind)
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadScenario reads the scenario file and applies the flags the user set
// explicitly on top of it.
func loadScenario(cmd *cobra.Command) *Scenario {
	sc, err := LoadScenario(scenarioPath)
	if err != nil {
		logrus.Fatalf("Failed to load scenario: %v", err)
	}
	applyOverrides(cmd, sc)
	if err := sc.Validate(); err != nil {
		logrus.Fatalf("Invalid scenario: %v", err)
	}
	return sc
}

func applyOverrides(cmd *cobra.Command, sc *Scenario) {
	flags := cmd.Flags()
	if flags.Changed("horizon") {
		sc.Horizon = horizon
		if horizon == 0 {
			sc.Horizon = sim.Inf
		}
	}
	if flags.Changed("workers") {
		sc.Workers = workers
	}
	if flags.Changed("seed") {
		sc.Seed = seed
	}
}

// runScenario simulates sc until its horizon and writes a summary to w.
func runScenario(sc *Scenario, cfg trace.TraceConfig, w io.Writer) error {
	b, err := Build(sc)
	if err != nil {
		return err
	}
	diagnose(b.Root, b.Name)

	s, err := sim.NewSimulator(b.Root, sim.Config{Workers: sc.Workers})
	if err != nil {
		return err
	}
	defer s.Close()
	st := trace.NewSimulationTrace(cfg)
	s.AddListener(trace.NewRecorder(st, b.Name))

	logrus.Infof("Starting %s scenario: horizon %g, %d worker(s)", sc.Kind, sc.Horizon, sc.Workers)
	if err := s.ExecUntil(sc.Horizon); err != nil {
		return err
	}
	printSummary(w, sc, s, st)
	b.Report(w)
	return nil
}

func printSummary(w io.Writer, sc *Scenario, s *sim.Simulator, st *trace.SimulationTrace) {
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Scenario             : %s\n", sc.Kind)
	fmt.Fprintf(w, "Steps                : %d\n", s.Steps())
	fmt.Fprintf(w, "Last event time      : %g\n", s.LastEventTime())
	fmt.Fprintf(w, "Next event time      : %g\n", s.NextEventTime())
	if st.Config.Level == trace.TraceLevelNone || st.Config.Level == "" {
		return
	}
	sum := trace.Summarize(st)
	fmt.Fprintf(w, "Outputs traced       : %d\n", sum.TotalOutputs)
	if st.Config.Level == trace.TraceLevelAll {
		fmt.Fprintf(w, "Transitions traced   : %d\n", sum.TotalStateChanges)
	}
	if st.Dropped > 0 {
		fmt.Fprintf(w, "Records dropped      : %d\n", st.Dropped)
	}
	names := make([]string, 0, len(sum.OutputsPerModel))
	for name := range sum.OutputsPerModel {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-18s : %d outputs\n", name, sum.OutputsPerModel[name])
	}
	if sum.BusiestModel != "" {
		fmt.Fprintf(w, "Busiest model        : %s\n", sum.BusiestModel)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, validateCmd} {
		c.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
		_ = c.MarkFlagRequired("scenario")
		c.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	}

	runCmd.Flags().Float64Var(&horizon, "horizon", sim.Inf, "Simulation horizon (0 = unbounded); overrides the scenario file")
	runCmd.Flags().IntVar(&workers, "workers", 1, "Worker goroutines for the output and transition phases; overrides the scenario file")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for random arrivals; overrides the scenario file")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "outputs", "Trace verbosity (none, outputs, all)")
	runCmd.Flags().IntVar(&maxRecords, "trace-max-records", 0, "Cap on recorded trace entries per kind (0 = unbounded)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
