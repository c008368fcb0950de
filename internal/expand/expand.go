// Package expand implements the Model expander and flag inferrer component
// (spec §4.4): turning the scalar BaseInputData into the time-indexed
// InputData over a materialized time line and scenario set, then, once
// forecast fusion has run, inferring feature flags and checking every
// TimeSeries against the time line. The expansion and check logic itself
// lives on model.BaseInputData/model.InputData (mirroring
// input_data_base.rs's expand_to_time_series and input_data.rs's
// infer_feature_flags/check_ts_data_against_temporals); this package is the
// named pipeline stage that sequences them, the same way internal/timeline
// names the TimeLine materializer stage around model.Materialize.
package expand

import (
	"time"

	"github.com/sells-group/hertta/internal/model"
)

// Expand validates the base model's structural invariants and materializes
// it into the time-indexed form over t and scenarios. Forecastable fields
// are left unresolved (Forecast variant); the caller is responsible for
// running the weather/electricity-price fusion stages before calling
// FinishAndValidate.
func Expand(base model.BaseInputData, t []time.Time, scenarios []model.Scenario) (*model.InputData, error) {
	if err := base.ValidateStructure(); err != nil {
		return nil, err
	}
	weights, err := model.NormalizeScenarioWeights(scenarios)
	if err != nil {
		return nil, err
	}
	base.Scenarios = weights
	expanded := base.Expand(t, model.Names(scenarios))
	return &expanded, nil
}

// FinishAndValidate infers the eight feature flags and checks every
// TimeSeries in d against d.Temporals.T, per spec §4.4's "Flag inference"
// and "Temporal validation". It must run after forecast fusion.
func FinishAndValidate(d *model.InputData) error {
	d.InferFeatureFlags()
	return d.CheckTimeSeriesAgainstTemporals()
}
