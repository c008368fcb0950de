package expand

import (
	"testing"
	"time"

	"github.com/sells-group/hertta/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExpandBaselineRoundTrip implements Concrete scenario #1: a single
// scenario, one node with scalar inflow, no forecasts.
func TestExpandBaselineRoundTrip(t *testing.T) {
	start := time.Date(2024, 11, 19, 13, 0, 0, 0, time.UTC)
	duration, err := model.NewDuration(2, 0, 0)
	require.NoError(t, err)
	step, err := model.NewDuration(1, 0, 0)
	require.NoError(t, err)
	settings, err := model.NewTimeLineSettings(duration, step)
	require.NoError(t, err)
	line := model.Materialize(start, settings)

	base := model.BaseInputData{
		Nodes: map[string]model.BaseNode{
			"east": {Name: "east", IsInflow: true, Inflow: model.NewScalarValue(1.2)},
		},
	}

	expanded, err := Expand(base, line, []model.Scenario{{Name: "S1", Weight: 1.0}})
	require.NoError(t, err)
	require.NoError(t, FinishAndValidate(expanded))

	node := expanded.Nodes["east"]
	require.True(t, node.Inflow.IsResolved())
	require.Len(t, node.Inflow.Data.TSData, 1)
	for _, v := range node.Inflow.Data.TSData[0].Series {
		assert.Equal(t, 1.2, v)
	}
	assert.InDelta(t, 1.0, expanded.Temporals.Dtf, 1e-9)
	assert.Equal(t, 1.0, expanded.Scenarios["S1"])
}

// TestExpandCarriesForecastRequestThrough checks that a node's declared
// weather forecast survives expansion unresolved, so the Weather-forecast
// fetcher stage can find and fuse it before validation runs.
func TestExpandCarriesForecastRequestThrough(t *testing.T) {
	line := []time.Time{time.Now()}
	base := model.BaseInputData{
		Nodes: map[string]model.BaseNode{
			"east": {Name: "east", IsInflow: true, Inflow: model.NewScalarForecast("FMI", "weather")},
		},
	}

	expanded, err := Expand(base, line, []model.Scenario{{Name: "S1", Weight: 1.0}})
	require.NoError(t, err)

	node := expanded.Nodes["east"]
	assert.False(t, node.Inflow.IsResolved())
	assert.Equal(t, "FMI", node.Inflow.Forecast.Name)

	err = FinishAndValidate(expanded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not been replaced forecasted time series")
}

// TestExpandCarriesMarketForecastRequestThrough mirrors the node case for
// an electricity-price forecast on a market.
func TestExpandCarriesMarketForecastRequestThrough(t *testing.T) {
	line := []time.Time{time.Now()}
	base := model.BaseInputData{
		Nodes: map[string]model.BaseNode{
			"fi": {Name: "fi", Inflow: model.NewScalarValue(0)},
		},
		Markets: map[string]model.BaseMarket{
			"fi-day-ahead": {
				Name:  "fi-day-ahead",
				MType: "energy",
				Node:  "fi",
				Price: model.NewScalarForecast("ELERING", "electricity"),
			},
		},
	}

	expanded, err := Expand(base, line, []model.Scenario{{Name: "S1", Weight: 1.0}})
	require.NoError(t, err)

	market := expanded.Markets["fi-day-ahead"]
	assert.False(t, market.Price.IsResolved())
	assert.Equal(t, "ELERING", market.Price.Forecast.Name)
	assert.Equal(t, "electricity", market.Price.Forecast.FType)
}

func TestExpandRejectsDuplicateScenarioNames(t *testing.T) {
	line := []time.Time{time.Now()}
	_, err := Expand(model.BaseInputData{}, line, []model.Scenario{
		{Name: "S1", Weight: 1.0},
		{Name: "S1", Weight: 1.0},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate scenario name")
}

func TestExpandRejectsNamespaceClash(t *testing.T) {
	line := []time.Time{time.Now()}
	base := model.BaseInputData{
		Nodes:     map[string]model.BaseNode{"x": {Name: "x"}},
		Processes: map[string]model.BaseProcess{"x": {Name: "x"}},
	}
	_, err := Expand(base, line, []model.Scenario{{Name: "S1", Weight: 1.0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disjoint")
}
