// Package timeline implements the TimeLine materializer component
// (spec §4.1): producing the concrete time line T from a start instant and
// a validated TimeLineSettings.
package timeline

import (
	"time"

	"github.com/sells-group/hertta/internal/model"
)

// Materialize produces T = {t0, t1, ..., tn} with t(i+1)-t(i) == step and
// |T| = n+1, strictly ascending. This stage never validates the step and
// duration bounds, matching the "Policy" note in spec §4.1; those checks
// live in model.NewTimeLineSettings and TimeLineSettings.Validate, and
// settings decoded straight from JSON reach this stage unchecked.
func Materialize(start time.Time, settings model.TimeLineSettings) []time.Time {
	return model.Materialize(start, settings)
}
