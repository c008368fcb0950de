// Package weather implements the Weather-forecast fetcher component
// (spec §4.2): an external Python process fetch plus the FMI fusion rule
// that turns a node's inflow into a consecutive-difference series.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sells-group/hertta/internal/model"
)

const timeFormat = "2006-01-02T15:04:05"

// Point is a single (stamp, temperature) sample.
type Point struct {
	Stamp       time.Time
	Temperature float64
}

// Applicable reports whether any node's inflow is declared as an FMI
// weather forecast, per spec §4.2's "Applicability" rule.
func Applicable(nodes map[string]model.Node) bool {
	for _, n := range nodes {
		if n.Inflow.Kind == model.ForecastableKindForecast && n.Inflow.Forecast.Name == "FMI" {
			return true
		}
	}
	return false
}

// Fetch invokes the external Python helper and returns its parsed forecast.
// Argument order mirrors weather_forecast_job.rs's fetch_weather_data:
// start end step_minutes place, all formatted "%Y-%m-%dT%H:%M:%S".
func Fetch(ctx context.Context, pythonExec, script string, start, end time.Time, step time.Duration, place string) ([]Point, error) {
	cmd := exec.CommandContext(ctx, pythonExec,
		script,
		start.Format(timeFormat),
		end.Format(timeFormat),
		strconv.FormatInt(int64(step.Minutes()), 10),
		place,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, eris.Wrap(err, "weather fetching returned non-zero exit status")
	}
	return parseOutput(output)
}

func parseOutput(output []byte) ([]Point, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(output, &rows); err != nil {
		return nil, eris.Wrapf(err, "failed to parse output")
	}
	points := make([]Point, 0, len(rows))
	for _, raw := range rows {
		var pair [2]json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil {
			return nil, eris.New("failed to parse data pair in time series")
		}
		var stampStr string
		if err := json.Unmarshal(pair[0], &stampStr); err != nil {
			return nil, eris.New("failed to parse time stamp")
		}
		stamp, err := time.Parse(timeFormat, stampStr)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to parse stamp from string %s", stampStr)
		}
		var temperature float64
		if err := json.Unmarshal(pair[1], &temperature); err != nil {
			return nil, eris.New("failed to convert temperature to float")
		}
		points = append(points, Point{Stamp: stamp.UTC(), Temperature: temperature})
	}
	if !sort.SliceIsSorted(points, func(i, j int) bool { return points[i].Stamp.Before(points[j].Stamp) }) {
		return nil, eris.New("weather forecast stamps are out of order")
	}
	return points, nil
}

// Fuse applies the FMI fusion rule (spec §4.2) to every node whose inflow
// is an FMI forecast: it requires a temperature-marked State whose bounds
// contain the first forecast value, sets the state's initial_state to that
// value, and replaces inflow with the consecutive-difference series,
// broadcast across scenarios. Grounded on optimization_job.rs's
// update_outside_node/diffs/time_series_diffs.
func Fuse(nodes map[string]model.Node, points []Point, scenarios []string) error {
	if len(points) == 0 {
		return eris.New("weather data should have at least one point")
	}
	initial := points[0].Temperature

	for name, node := range nodes {
		if node.Inflow.Kind != model.ForecastableKindForecast || node.Inflow.Forecast.Name != "FMI" {
			continue
		}
		if !node.IsInflow {
			return eris.Errorf("%s node is not marked for inflow", name)
		}
		if node.State == nil {
			return eris.Errorf("%s node has no state", name)
		}
		state := *node.State
		if !state.IsTemp {
			return eris.Errorf("%s node state is not marked as temperature", name)
		}
		if state.StateMin > state.StateMax {
			return eris.Errorf("%s node state has state_min greater than state_max", name)
		}
		if state.StateMin > initial {
			return eris.New("forecast temperature is below outside node state_min")
		}
		if state.StateMax < initial {
			return eris.New("forecast temperature is above outside node state_max")
		}
		state.InitialState = initial
		node.State = &state

		diffSeries := diffs(initial, points)
		tsData := model.TimeSeriesData{TSData: make([]model.TimeSeries, len(scenarios))}
		for i, scenario := range scenarios {
			series := make(map[time.Time]float64, len(diffSeries))
			for k, v := range diffSeries {
				series[k] = v
			}
			tsData.TSData[i] = model.TimeSeries{Scenario: scenario, Series: series}
		}
		node.Inflow = model.NewResolvedForecastable(tsData)
		nodes[name] = node
	}
	return nil
}

func diffs(initial float64, points []Point) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(points))
	prev := initial
	for _, p := range points {
		out[p.Stamp] = p.Temperature - prev
		prev = p.Temperature
	}
	return out
}

// ErrLocationNotSet is returned when no default location/place is
// configured and the job requires a weather fetch.
var ErrLocationNotSet = fmt.Errorf("location/place has not been set")
