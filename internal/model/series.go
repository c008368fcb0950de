// Package model holds Hertta's base (scalar) and expanded (time-indexed)
// energy-system data model, grounded on the original input_data_base.rs and
// input_data.rs definitions.
package model

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/rotisserie/eris"
)

// TimeSeries is one scenario's value at every point of a time line.
type TimeSeries struct {
	Scenario string
	Series   map[time.Time]float64
}

// SortedStamps returns the series' time stamps in ascending order.
func (ts TimeSeries) SortedStamps() []time.Time {
	stamps := make([]time.Time, 0, len(ts.Series))
	for t := range ts.Series {
		stamps = append(stamps, t)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	return stamps
}

// MatchesTimeLine reports whether ts is indexed by exactly the stamps in t,
// in the same order, mirroring input_data.rs's check_series.
func (ts TimeSeries) MatchesTimeLine(t []time.Time) bool {
	stamps := ts.SortedStamps()
	if len(stamps) != len(t) {
		return false
	}
	for i, s := range stamps {
		if !s.Equal(t[i]) {
			return false
		}
	}
	return true
}

// TimeSeriesData is a per-scenario collection of TimeSeries.
type TimeSeriesData struct {
	TSData []TimeSeries
}

// Scale multiplies every value in every scenario series by factor, returning
// a new TimeSeriesData (used for up_price/down_price derivation).
func (d TimeSeriesData) Scale(factor float64) TimeSeriesData {
	out := TimeSeriesData{TSData: make([]TimeSeries, len(d.TSData))}
	for i, ts := range d.TSData {
		scaled := make(map[time.Time]float64, len(ts.Series))
		for t, v := range ts.Series {
			scaled[t] = v * factor
		}
		out.TSData[i] = TimeSeries{Scenario: ts.Scenario, Series: scaled}
	}
	return out
}

// Forecast names an external forecast to be resolved during fusion.
type Forecast struct {
	Name  string `json:"name"`
	FType string `json:"type"`
}

// ForecastableKind discriminates the two Forecastable variants.
type ForecastableKind int

const (
	// ForecastableKindForecast marks an unresolved external forecast.
	ForecastableKindForecast ForecastableKind = iota
	// ForecastableKindTimeSeriesData marks a resolved value.
	ForecastableKindTimeSeriesData
)

// Forecastable is either an unresolved Forecast or a resolved
// TimeSeriesData. The pipeline must turn every Forecast into
// TimeSeriesData before validation runs.
type Forecastable struct {
	Kind     ForecastableKind
	Forecast Forecast
	Data     TimeSeriesData
}

// NewForecast builds an unresolved Forecastable.
func NewForecast(name, fType string) Forecastable {
	return Forecastable{Kind: ForecastableKindForecast, Forecast: Forecast{Name: name, FType: fType}}
}

// NewResolvedForecastable wraps a resolved TimeSeriesData.
func NewResolvedForecastable(data TimeSeriesData) Forecastable {
	return Forecastable{Kind: ForecastableKindTimeSeriesData, Data: data}
}

// IsResolved reports whether the Forecastable has been fused into a
// concrete series.
func (f Forecastable) IsResolved() bool {
	return f.Kind == ForecastableKindTimeSeriesData
}

// ScalarForecastable is the base-model form of Forecastable: a field that is
// either a literal scalar value, edited directly by the front end, or a
// named external forecast request (e.g. Node.inflow = Forecast{"FMI",
// "weather"}), mirroring input_data_base.rs's ForecastValue. Expansion
// resolves the literal case into a broadcast TimeSeriesData and carries a
// forecast request through unchanged for the fuser stages to resolve.
type ScalarForecastable struct {
	Kind     ForecastableKind
	Forecast Forecast
	Value    float64
}

// NewScalarValue wraps a literal scalar as a resolved ScalarForecastable.
func NewScalarValue(v float64) ScalarForecastable {
	return ScalarForecastable{Kind: ForecastableKindTimeSeriesData, Value: v}
}

// NewScalarForecast wraps an external forecast request.
func NewScalarForecast(name, fType string) ScalarForecastable {
	return ScalarForecastable{Kind: ForecastableKindForecast, Forecast: Forecast{Name: name, FType: fType}}
}

// IsResolvedValue reports whether sf holds a literal value rather than an
// unresolved forecast request.
func (sf ScalarForecastable) IsResolvedValue() bool {
	return sf.Kind == ForecastableKindTimeSeriesData
}

// expand resolves a ScalarForecastable into a Forecastable.
func (sf ScalarForecastable) expand(t []time.Time, scenarios []string) Forecastable {
	if sf.Kind == ForecastableKindForecast {
		return Forecastable{Kind: ForecastableKindForecast, Forecast: sf.Forecast}
	}
	return NewResolvedForecastable(toTimeSeries(sf.Value, t, scenarios))
}

// MarshalJSON renders a literal value as a bare JSON number and a forecast
// request as {"name":...,"type":...}, an untagged encoding mirroring the
// original's BaseForecastable enum so front-end edits round-trip without a
// wrapper discriminant.
func (sf ScalarForecastable) MarshalJSON() ([]byte, error) {
	if sf.Kind == ForecastableKindForecast {
		return json.Marshal(sf.Forecast)
	}
	return json.Marshal(sf.Value)
}

// UnmarshalJSON accepts either a bare number or a {"name","type"} object.
func (sf *ScalarForecastable) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*sf = NewScalarValue(v)
		return nil
	}
	var f Forecast
	if err := json.Unmarshal(data, &f); err != nil {
		return eris.Wrap(err, "scalar forecastable: expected a number or a {name,type} object")
	}
	*sf = NewScalarForecast(f.Name, f.FType)
	return nil
}

// toTimeSeries broadcasts a constant scalar to every scenario over t,
// mirroring input_data_base.rs's to_time_series.
func toTimeSeries(y float64, t []time.Time, scenarios []string) TimeSeriesData {
	single := make(map[time.Time]float64, len(t))
	for _, stamp := range t {
		single[stamp] = y
	}
	out := TimeSeriesData{TSData: make([]TimeSeries, len(scenarios))}
	for i, scenario := range scenarios {
		series := make(map[time.Time]float64, len(single))
		for k, v := range single {
			series[k] = v
		}
		out.TSData[i] = TimeSeries{Scenario: scenario, Series: series}
	}
	return out
}
