// Package resultextract implements the terminal result-extraction step
// (spec §4.7): turning the solver's v_flow record batch into a
// (time line, control signals) outcome.
package resultextract

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ControlSignal is a named per-time-step float series decoded from the
// solver's v_flow result, per spec §4.7.
type ControlSignal struct {
	Name    string
	Samples []float64
}

// Outcome is the pipeline's final product: the time line the run was
// computed over plus the decoded control signals.
type Outcome struct {
	TimeLine []time.Time
	Signals  []ControlSignal
}

// FromVFlow converts the v_flow batch into an Outcome. The "t" column must
// be a non-null Timestamp(ms) column; every Float64 column becomes a
// ControlSignal, other columns are skipped with a warning. Grounded on
// optimization_job.rs's result-decoding pass in event_loop/optimization_job.rs.
func FromVFlow(rec arrow.Record) (Outcome, error) {
	schema := rec.Schema()
	tIdx := schema.FieldIndices("t")
	if len(tIdx) == 0 {
		return Outcome{}, eris.New("v_flow batch has no t column")
	}
	tCol, ok := rec.Column(tIdx[0]).(*array.Timestamp)
	if !ok {
		return Outcome{}, eris.New("v_flow batch t column is not a Timestamp array")
	}
	tType, ok := schema.Field(tIdx[0]).Type.(*arrow.TimestampType)
	if !ok {
		return Outcome{}, eris.New("v_flow batch t column has no timestamp type")
	}

	n := tCol.Len()
	timeLine := make([]time.Time, n)
	for i := 0; i < n; i++ {
		if tCol.IsNull(i) {
			return Outcome{}, eris.Errorf("v_flow batch t column has a null at row %d", i)
		}
		timeLine[i] = tCol.Value(i).ToTime(tType.Unit).UTC()
	}

	var signals []ControlSignal
	for i, field := range schema.Fields() {
		if field.Name == "t" {
			continue
		}
		col, ok := rec.Column(i).(*array.Float64)
		if !ok {
			zap.L().Warn("skipping non-float v_flow column", zap.String("column", field.Name))
			continue
		}
		samples := make([]float64, col.Len())
		for r := 0; r < col.Len(); r++ {
			if col.IsNull(r) {
				continue
			}
			samples[r] = col.Value(r)
		}
		signals = append(signals, ControlSignal{Name: field.Name, Samples: samples})
	}

	return Outcome{TimeLine: timeLine, Signals: signals}, nil
}
