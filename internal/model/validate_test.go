package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baselineTimeLine() []time.Time {
	return []time.Time{
		time.Date(2024, 11, 19, 13, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 19, 14, 0, 0, 0, time.UTC),
	}
}

func TestInferFeatureFlags(t *testing.T) {
	line := baselineTimeLine()
	d := InputData{
		Temporals: MakeTemporals(line),
		Setup:     InputDataSetup{UseReserves: true},
		Nodes: map[string]Node{
			"n1": {IsRes: true, IsState: true, Inflow: NewResolvedForecastable(TimeSeriesData{})},
		},
		Processes: map[string]Process{
			"p1": {IsOnline: true, EffOps: []string{"op"}},
		},
		Risk:          map[string]float64{"beta": 0.5},
		NodeDiffusion: []NodeDiffusion{{Node1: "a", Node2: "b"}},
		NodeDelay:     []NodeDelay{{Node1: "a", Node2: "b"}},
		Markets:       map[string]Market{"m1": {}},
	}

	d.InferFeatureFlags()

	assert.True(t, d.Setup.ContainsReserves)
	assert.True(t, d.Setup.ContainsOnline)
	assert.True(t, d.Setup.ContainsStates)
	assert.True(t, d.Setup.ContainsPiecewiseEff)
	assert.True(t, d.Setup.ContainsRisk)
	assert.True(t, d.Setup.ContainsDiffusion)
	assert.True(t, d.Setup.ContainsDelay)
	assert.True(t, d.Setup.ContainsMarkets)
}

func TestInferFeatureFlagsIsIdempotent(t *testing.T) {
	line := baselineTimeLine()
	d := InputData{
		Temporals: MakeTemporals(line),
		Setup:     InputDataSetup{UseReserves: true},
		Nodes:     map[string]Node{"n1": {IsRes: true}},
	}
	d.InferFeatureFlags()
	first := d.Setup
	d.InferFeatureFlags()
	assert.Equal(t, first, d.Setup)
}

func TestInferFeatureFlagsReservesRequireUseReservesFlag(t *testing.T) {
	d := InputData{Nodes: map[string]Node{"n1": {IsRes: true}}}
	d.InferFeatureFlags()
	assert.False(t, d.Setup.ContainsReserves)
}

func TestCheckTimeSeriesAgainstTemporalsPasses(t *testing.T) {
	line := baselineTimeLine()
	scenarios := []string{"S1"}
	base := BaseInputData{
		Nodes: map[string]BaseNode{
			"East": {Name: "East", Cost: 1.0, Inflow: NewScalarValue(1.0)},
		},
	}
	expanded := base.Expand(line, scenarios)
	require.NoError(t, expanded.CheckTimeSeriesAgainstTemporals())
}

func TestCheckTimeSeriesAgainstTemporalsFailsOnUnresolvedForecast(t *testing.T) {
	line := baselineTimeLine()
	expanded := InputData{
		Temporals: MakeTemporals(line),
		Nodes: map[string]Node{
			"East": {Name: "East", Inflow: NewForecast("FMI", "weather")},
		},
	}
	err := expanded.CheckTimeSeriesAgainstTemporals()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not been replaced forecasted time series")
}

func TestCheckTimeSeriesAgainstTemporalsFailsOnMismatchedSeries(t *testing.T) {
	line := baselineTimeLine()
	badSeries := TimeSeriesData{TSData: []TimeSeries{{
		Scenario: "S1",
		Series:   map[time.Time]float64{line[0]: 1.0},
	}}}
	expanded := InputData{
		Temporals: MakeTemporals(line),
		Nodes: map[string]Node{
			"East": {Name: "East", Cost: badSeries, Inflow: NewResolvedForecastable(TimeSeriesData{})},
		},
	}
	err := expanded.CheckTimeSeriesAgainstTemporals()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time series mismatch")
}
