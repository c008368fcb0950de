package resultextract

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFromVFlowHappyPath implements Concrete scenario #4's decoding half:
// a v_flow batch with t: Timestamp(ms, "UTC") length 3 and hp1: Float64
// length 3 decodes to 3 stamps and 1 control signal named hp1.
func TestFromVFlowHappyPath(t *testing.T) {
	pool := memory.NewGoAllocator()
	stamps := []time.Time{
		time.Date(2024, 11, 19, 13, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 19, 14, 0, 0, 0, time.UTC),
		time.Date(2024, 11, 19, 15, 0, 0, 0, time.UTC),
	}
	tsType := &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}
	tBuilder := array.NewTimestampBuilder(pool, tsType)
	defer tBuilder.Release()
	for _, s := range stamps {
		tBuilder.Append(arrow.Timestamp(s.UnixMilli()))
	}
	tArr := tBuilder.NewArray()
	defer tArr.Release()

	hpBuilder := array.NewFloat64Builder(pool)
	defer hpBuilder.Release()
	hpBuilder.AppendValues([]float64{1.0, 2.0, 3.0}, nil)
	hpArr := hpBuilder.NewArray()
	defer hpArr.Release()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "t", Type: tsType},
		{Name: "hp1", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
	rec := array.NewRecord(schema, []arrow.Array{tArr, hpArr}, 3)
	defer rec.Release()

	outcome, err := FromVFlow(rec)
	require.NoError(t, err)
	require.Len(t, outcome.TimeLine, 3)
	assert.True(t, stamps[0].Equal(outcome.TimeLine[0]))
	require.Len(t, outcome.Signals, 1)
	assert.Equal(t, "hp1", outcome.Signals[0].Name)
	assert.Equal(t, []float64{1.0, 2.0, 3.0}, outcome.Signals[0].Samples)
}

func TestFromVFlowMissingTColumn(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "hp1", Type: arrow.PrimitiveTypes.Float64}}, nil)
	pool := memory.NewGoAllocator()
	b := array.NewFloat64Builder(pool)
	defer b.Release()
	arr := b.NewArray()
	defer arr.Release()
	rec := array.NewRecord(schema, []arrow.Array{arr}, 0)
	defer rec.Release()

	_, err := FromVFlow(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no t column")
}
