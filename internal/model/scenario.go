package model

import "github.com/rotisserie/eris"

// Scenario is a labeled stochastic branch with a positive weight, per
// spec §3.1's Scenario entity.
type Scenario struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// NormalizeScenarioWeights validates scenario names (non-empty, unique)
// and weights (positive), then renormalizes them to sum to 1, mirroring
// the "exported weights sum to 1" global invariant in spec §3.1 (5).
func NormalizeScenarioWeights(scenarios []Scenario) (map[string]float64, error) {
	if len(scenarios) == 0 {
		return nil, eris.New("at least one scenario is required")
	}
	seen := make(map[string]bool, len(scenarios))
	sum := 0.0
	for _, s := range scenarios {
		if s.Name == "" {
			return nil, eris.New("scenario name must not be empty")
		}
		if seen[s.Name] {
			return nil, eris.Errorf("duplicate scenario name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Weight <= 0 {
			return nil, eris.Errorf("scenario %q weight must be positive", s.Name)
		}
		sum += s.Weight
	}
	out := make(map[string]float64, len(scenarios))
	for _, s := range scenarios {
		out[s.Name] = s.Weight / sum
	}
	return out, nil
}

// Names extracts the scenario name list in the caller-supplied order,
// the order Expand uses to build per-scenario TimeSeries.
func Names(scenarios []Scenario) []string {
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	return names
}
