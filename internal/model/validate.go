package model

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// InferFeatureFlags recomputes the eight subsystem flags on d.Setup from
// the current model contents, mirroring InputData::infer_feature_flags.
// It must run after forecast fusion and before validation.
func (d *InputData) InferFeatureFlags() {
	s := &d.Setup

	containsRes := false
	for _, n := range d.Nodes {
		if n.IsRes {
			containsRes = true
			break
		}
	}
	s.ContainsReserves = s.UseReserves && containsRes

	s.ContainsOnline = false
	for _, p := range d.Processes {
		if p.IsOnline {
			s.ContainsOnline = true
			break
		}
	}

	s.ContainsStates = false
	for _, n := range d.Nodes {
		if n.IsState {
			s.ContainsStates = true
			break
		}
	}

	s.ContainsPiecewiseEff = false
	for _, p := range d.Processes {
		if len(p.EffOps) > 0 {
			s.ContainsPiecewiseEff = true
			break
		}
	}

	s.ContainsRisk = d.Risk["beta"] > 0

	s.ContainsDiffusion = len(d.NodeDiffusion) > 0
	s.ContainsDelay = len(d.NodeDelay) > 0
	s.ContainsMarkets = len(d.Markets) > 0
}

// WithInferredFlags is a convenience wrapper mirroring with_inferred_flags.
func (d InputData) WithInferredFlags() InputData {
	d.InferFeatureFlags()
	return d
}

// CheckTimeSeriesAgainstTemporals validates that the TimeSeries of process
// cf/eff_ts, topology cap_ts, node cost/inflow, diffusion coefficients,
// gen-constraint constants and factors, and market realisation, prices and
// reserve activation price are indexed by exactly d.Temporals.T, mirroring
// InputData::check_ts_data_against_temporals. Node histories and inflow
// blocks are not checked. Any Forecastable still in the Forecast variant is
// also an error here.
func (d InputData) CheckTimeSeriesAgainstTemporals() error {
	t := d.Temporals.T
	for name, p := range d.Processes {
		if err := checkSeriesData(p.Cf, t, name); err != nil {
			return err
		}
		if err := checkSeriesData(p.EffTs, t, name); err != nil {
			return err
		}
		for _, topo := range p.Topos {
			if err := checkSeriesData(topo.CapTs, t, name); err != nil {
				return err
			}
		}
	}
	for name, n := range d.Nodes {
		if err := checkSeriesData(n.Cost, t, name); err != nil {
			return err
		}
		if err := checkForecastable(n.Inflow, t, name); err != nil {
			return err
		}
	}
	for _, diff := range d.NodeDiffusion {
		context := fmt.Sprintf("diffusion %s-%s", diff.Node1, diff.Node2)
		if err := checkSeriesData(diff.Coefficient, t, context); err != nil {
			return err
		}
	}
	for name, gc := range d.GenConstraints {
		if err := checkSeriesData(gc.Constant, t, name); err != nil {
			return err
		}
		for _, factor := range gc.Factors {
			context := fmt.Sprintf("%s factor %s.%s", name, factor.VarTuple[0], factor.VarTuple[1])
			if err := checkSeriesData(factor.Data, t, context); err != nil {
				return err
			}
		}
	}
	for name, m := range d.Markets {
		if err := checkSeriesData(m.Realisation, t, name); err != nil {
			return err
		}
		if err := checkForecastable(m.Price, t, name); err != nil {
			return err
		}
		if err := checkForecastable(m.UpPrice, t, name); err != nil {
			return err
		}
		if err := checkForecastable(m.DownPrice, t, name); err != nil {
			return err
		}
		if err := checkSeriesData(m.ReserveActivationPrice, t, name); err != nil {
			return err
		}
	}
	return nil
}

func checkSeriesData(data TimeSeriesData, t []time.Time, context string) error {
	for _, ts := range data.TSData {
		if err := checkSeries(ts, t, context); err != nil {
			return err
		}
	}
	return nil
}

func checkForecastable(f Forecastable, t []time.Time, context string) error {
	if !f.IsResolved() {
		return eris.Errorf("%s data has not been replaced forecasted time series", context)
	}
	return checkSeriesData(f.Data, t, context)
}

func checkSeries(ts TimeSeries, t []time.Time, context string) error {
	if !ts.MatchesTimeLine(t) {
		return eris.Errorf("time series mismatch in %s, scenario %s", context, ts.Scenario)
	}
	return nil
}
