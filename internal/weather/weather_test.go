package weather

import (
	"testing"
	"time"

	"github.com/sells-group/hertta/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureOutput = `
[
	["2024-11-08T11:00:00", 6.5],
	["2024-11-08T12:00:00", 6.6],
	["2024-11-08T13:00:00", 6.2],
	["2024-11-08T14:00:00", 5.9],
	["2024-11-08T15:00:00", 6.1],
	["2024-11-08T16:00:00", 6.3],
	["2024-11-08T17:00:00", 6.4],
	["2024-11-08T18:00:00", 6.7]
]`

func TestParseOutputParsesDataCorrectly(t *testing.T) {
	points, err := parseOutput([]byte(fixtureOutput))
	require.NoError(t, err)

	expectedStamps := []time.Time{
		time.Date(2024, 11, 8, 11, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 8, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 8, 13, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 8, 14, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 8, 15, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 8, 16, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 8, 17, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 8, 18, 0, 0, 0, time.UTC),
	}
	expectedTemps := []float64{6.5, 6.6, 6.2, 5.9, 6.1, 6.3, 6.4, 6.7}

	require.Len(t, points, len(expectedTemps))
	for i, p := range points {
		assert.Equal(t, expectedStamps[i], p.Stamp)
		assert.Equal(t, expectedTemps[i], p.Temperature)
	}
}

func TestParseOutputRejectsMalformedJSON(t *testing.T) {
	_, err := parseOutput([]byte("not json"))
	require.Error(t, err)
}

func TestApplicableDetectsFMIForecast(t *testing.T) {
	nodes := map[string]model.Node{
		"outside": {Inflow: model.NewForecast("FMI", "weather")},
	}
	assert.True(t, Applicable(nodes))

	nodes["outside"] = model.Node{Inflow: model.NewResolvedForecastable(model.TimeSeriesData{})}
	assert.False(t, Applicable(nodes))
}

func TestFuseAppliesConsecutiveDifferences(t *testing.T) {
	points := []Point{
		{Stamp: time.Date(2024, 11, 8, 11, 0, 0, 0, time.UTC), Temperature: 6.5},
		{Stamp: time.Date(2024, 11, 8, 12, 0, 0, 0, time.UTC), Temperature: 6.6},
		{Stamp: time.Date(2024, 11, 8, 13, 0, 0, 0, time.UTC), Temperature: 6.2},
	}
	nodes := map[string]model.Node{
		"outside": {
			IsInflow: true,
			State: &model.State{
				IsTemp:   true,
				StateMin: 0,
				StateMax: 20,
			},
			Inflow: model.NewForecast("FMI", "weather"),
		},
	}

	require.NoError(t, Fuse(nodes, points, []string{"S1"}))

	node := nodes["outside"]
	require.True(t, node.Inflow.IsResolved())
	assert.Equal(t, 6.5, node.State.InitialState)
	series := node.Inflow.Data.TSData[0].Series
	assert.InDelta(t, 0.0, series[points[0].Stamp], 1e-9)
	assert.InDelta(t, 0.1, series[points[1].Stamp], 1e-9)
	assert.InDelta(t, -0.4, series[points[2].Stamp], 1e-9)
}

func TestFuseRejectsInitialTemperatureOutsideBounds(t *testing.T) {
	points := []Point{{Stamp: time.Now(), Temperature: 50}}
	nodes := map[string]model.Node{
		"outside": {
			IsInflow: true,
			State:    &model.State{IsTemp: true, StateMin: 0, StateMax: 20},
			Inflow:   model.NewForecast("FMI", "weather"),
		},
	}
	err := Fuse(nodes, points, []string{"S1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "above outside node state_max")
}

func TestFuseRejectsMissingState(t *testing.T) {
	points := []Point{{Stamp: time.Now(), Temperature: 5}}
	nodes := map[string]model.Node{
		"outside": {IsInflow: true, Inflow: model.NewForecast("FMI", "weather")},
	}
	err := Fuse(nodes, points, []string{"S1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no state")
}
