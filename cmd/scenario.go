package cmd

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/devsim/sim/models"
)

// Scenario kinds accepted in a scenario file.
const (
	KindPingPong    = "pingpong"
	KindDynPingPong = "dynpingpong"
	KindServer      = "server"
	KindCheckout    = "checkout"
)

var validKinds = map[string]bool{
	KindPingPong:    true,
	KindDynPingPong: true,
	KindServer:      true,
	KindCheckout:    true,
}

// Scenario is the top-level YAML structure of a scenario file.
type Scenario struct {
	Kind string `yaml:"kind"`
	// Horizon is the last simulated time; zero or .inf runs until no
	// event is scheduled.
	Horizon  float64       `yaml:"horizon"`
	Workers  int           `yaml:"workers"`
	Seed     int64         `yaml:"seed"`
	PingPong *PingPongSpec `yaml:"pingpong,omitempty"`
	Server   *ServerSpec   `yaml:"server,omitempty"`
	Checkout *CheckoutSpec `yaml:"checkout,omitempty"`
}

// PingPongSpec configures the pingpong scenario.
type PingPongSpec struct {
	MaxServes int `yaml:"max_serves"` // 0 = unlimited
}

// ServerSpec configures the generator and the two servers in series.
type ServerSpec struct {
	Period      float64 `yaml:"period"`
	ServiceTime float64 `yaml:"service_time"`
}

// CheckoutSpec configures the checkout line. Exactly one of Arrivals and
// Random is set.
type CheckoutSpec struct {
	Preemptive bool                `yaml:"preemptive"`
	Arrivals   []models.Arrival    `yaml:"arrivals,omitempty"`
	Random     *RandomArrivalsSpec `yaml:"random,omitempty"`
}

// RandomArrivalsSpec draws customers from the scenario seed.
type RandomArrivalsSpec struct {
	Customers        int     `yaml:"customers"`
	MeanInterarrival float64 `yaml:"mean_interarrival"`
	MeanOrder        float64 `yaml:"mean_order"`
}

// LoadScenario reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (e.g., typos) are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (*Scenario, error) {
	sc := Scenario{Workers: 1}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if sc.Horizon == 0 {
		sc.Horizon = math.Inf(1)
	}
	return &sc, nil
}

// Validate checks that all fields in the scenario are valid.
func (s *Scenario) Validate() error {
	if !validKinds[s.Kind] {
		return fmt.Errorf("unknown kind %q; valid: pingpong, dynpingpong, server, checkout", s.Kind)
	}
	if math.IsNaN(s.Horizon) || s.Horizon < 0 {
		return fmt.Errorf("horizon must be non-negative, got %v", s.Horizon)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	switch s.Kind {
	case KindPingPong:
		if s.PingPong != nil && s.PingPong.MaxServes < 0 {
			return fmt.Errorf("pingpong: max_serves must be non-negative, got %d", s.PingPong.MaxServes)
		}
		if (s.PingPong == nil || s.PingPong.MaxServes == 0) && math.IsInf(s.Horizon, 1) {
			return fmt.Errorf("pingpong: unlimited serves need a finite horizon")
		}
	case KindDynPingPong:
		if math.IsInf(s.Horizon, 1) {
			return fmt.Errorf("dynpingpong: a finite horizon is required")
		}
	case KindServer:
		if s.Server == nil {
			return fmt.Errorf("server: section required")
		}
		if s.Server.Period <= 0 || s.Server.ServiceTime <= 0 {
			return fmt.Errorf("server: period and service_time must be positive, got %v and %v", s.Server.Period, s.Server.ServiceTime)
		}
		if math.IsInf(s.Horizon, 1) {
			return fmt.Errorf("server: a finite horizon is required")
		}
	case KindCheckout:
		return s.Checkout.validate()
	}
	return nil
}

func (c *CheckoutSpec) validate() error {
	if c == nil {
		return fmt.Errorf("checkout: section required")
	}
	if (len(c.Arrivals) == 0) == (c.Random == nil) {
		return fmt.Errorf("checkout: exactly one of arrivals or random required")
	}
	if r := c.Random; r != nil {
		if r.Customers <= 0 {
			return fmt.Errorf("checkout.random: customers must be positive, got %d", r.Customers)
		}
		if r.MeanInterarrival <= 0 || r.MeanOrder <= 0 {
			return fmt.Errorf("checkout.random: means must be positive, got %v and %v", r.MeanInterarrival, r.MeanOrder)
		}
	}
	return nil
}
