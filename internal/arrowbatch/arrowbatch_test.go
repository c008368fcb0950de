package arrowbatch

import (
	"bytes"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hertta/internal/model"
)

func threeHourTimeLine() []time.Time {
	start := time.Date(2024, 11, 19, 0, 0, 0, 0, time.UTC)
	return []time.Time{start, start.Add(time.Hour), start.Add(2 * time.Hour)}
}

func emptyInputData() *model.InputData {
	t := threeHourTimeLine()
	return &model.InputData{
		Temporals:      model.MakeTemporals(t),
		Processes:      map[string]model.Process{},
		Nodes:          map[string]model.Node{},
		NodeHistories:  map[string]model.NodeHistory{},
		Markets:        map[string]model.Market{},
		Groups:         map[string]model.Group{},
		Scenarios:      map[string]float64{},
		ReserveType:    map[string]float64{},
		Risk:           map[string]float64{},
		InflowBlocks:   map[string]model.InflowBlock{},
		BidSlots:       map[string]model.BidSlot{},
		GenConstraints: map[string]model.GenConstraint{},
	}
}

func batchByKey(t *testing.T, batches []Batch, key string) Batch {
	t.Helper()
	for _, b := range batches {
		if b.Key == key {
			return b
		}
	}
	t.Fatalf("no batch with key %q", key)
	return Batch{}
}

// TestBuildBatchesEmptyModelShapes covers the empty markets/diffusion/
// inflow_blocks boundary behaviors called out in spec §8.
func TestBuildBatchesEmptyModelShapes(t *testing.T) {
	d := emptyInputData()
	batches, err := BuildBatches(d)
	require.NoError(t, err)

	names := make(map[string]bool, len(batches))
	for _, b := range batches {
		names[b.Key] = true
	}
	for _, want := range []string{
		"temps", "setup", "nodes", "processes", "groups", "process_topology",
		"node_diffusion", "node_history", "node_delay", "inflow_blocks",
		"markets", "market_price", "market_balance_price", "market_fixed",
		"processes_cap", "processes_cf", "eff_ts", "processes_eff_fun",
		"reserve_type", "risk", "scenarios", "gen_constraints", "constraints",
		"bid_slots",
	} {
		assert.Truef(t, names[want], "missing batch %q", want)
	}

	diffusion := batchByKey(t, batches, "node_diffusion")
	assert.EqualValues(t, 3, diffusion.Record.NumRows(), "node_diffusion still carries the t column for an empty model")
	assert.Equal(t, int64(1), int64(diffusion.Record.NumCols()), "no diffusion pairs means no data columns beyond t")

	markets := batchByKey(t, batches, "markets")
	assert.EqualValues(t, 0, markets.Record.NumRows())

	inflow := batchByKey(t, batches, "inflow_blocks")
	assert.EqualValues(t, emptyInflowBlockPlaceholderRows, inflow.Record.NumRows())
	assert.Equal(t, int64(1), int64(inflow.Record.NumCols()))

	nodes := batchByKey(t, batches, "nodes")
	assert.EqualValues(t, 0, nodes.Record.NumRows())
}

// TestBuildSetupBatchUnionEncoding covers the setup batch's 4-child union
// encoding and fixed 16-row shape.
func TestBuildSetupBatchUnionEncoding(t *testing.T) {
	d := emptyInputData()
	d.Setup = model.InputDataSetup{
		ContainsReserves:   true,
		CommonTimesteps:    3,
		CommonScenarioName: "base",
	}
	batch := buildSetupBatch(d)
	require.EqualValues(t, 16, batch.Record.NumRows())
	require.Equal(t, int64(2), int64(batch.Record.NumCols()))

	paramCol, ok := batch.Record.Column(0).(*array.String)
	require.True(t, ok)
	assert.Equal(t, "contains_reserves", paramCol.Value(0))
	assert.Equal(t, "common_timesteps", paramCol.Value(10))
	assert.Equal(t, "common_scenario_name", paramCol.Value(11))

	valueField := batch.Record.Schema().Field(1)
	assert.Equal(t, "value", valueField.Name)
	unionType, ok := valueField.Type.(*arrow.SparseUnionType)
	require.True(t, ok, "setup batch's value column must be a sparse union")
	assert.Len(t, unionType.Fields(), 4)

	data, err := SerializeStream(batch.Record)
	require.NoError(t, err)
	decoded, err := DeserializeStreamSingle(data)
	require.NoError(t, err)
	defer decoded.Release()
	assert.EqualValues(t, 16, decoded.NumRows())
}

func populatedInputData() *model.InputData {
	d := emptyInputData()
	t := d.Temporals.T

	series := func(v float64) model.TimeSeriesData {
		s := make(map[time.Time]float64, len(t))
		for _, stamp := range t {
			s[stamp] = v
		}
		return model.TimeSeriesData{TSData: []model.TimeSeries{{Scenario: "S1", Series: s}}}
	}

	d.Scenarios = map[string]float64{"S1": 1.0}
	d.Nodes["heat"] = model.Node{
		Name:        "heat",
		IsCommodity: true,
		Cost:        series(1.5),
		Inflow:      model.NewResolvedForecastable(series(0)),
	}
	d.Processes["boiler"] = model.Process{
		Name: "boiler",
		Eff:  0.9,
		Topos: []model.Topology{
			{Source: "fuel", Sink: "boiler", Capacity: 10, CapTs: series(10)},
		},
		Cf:    series(1),
		EffTs: series(0.9),
	}
	d.Markets["npool"] = model.Market{
		Name:        "npool",
		MType:       "energy",
		Node:        "heat",
		Realisation: series(1),
		Price:       model.NewResolvedForecastable(series(45.0)),
		UpPrice:     model.NewResolvedForecastable(series(46.0)),
		DownPrice:   model.NewResolvedForecastable(series(44.0)),
	}
	return d
}

// TestBuildBatchesRoundTripsThroughArrowIPC builds a small populated model,
// serializes the nodes batch to an Arrow IPC stream, reads it back, and
// checks the values survive the round trip.
func TestBuildBatchesRoundTripsThroughArrowIPC(t *testing.T) {
	d := populatedInputData()
	batches, err := BuildBatches(d)
	require.NoError(t, err)

	nodes := batchByKey(t, batches, "nodes")
	data, err := SerializeStream(nodes.Record)
	require.NoError(t, err)

	decoded, err := DeserializeStreamSingle(data)
	require.NoError(t, err)
	defer decoded.Release()

	assert.EqualValues(t, nodes.Record.NumRows(), decoded.NumRows())
	assert.True(t, decoded.Schema().Equal(nodes.Record.Schema()))

	nameCol, ok := decoded.Column(0).(*array.String)
	require.True(t, ok)
	assert.Equal(t, "heat", nameCol.Value(0))
}

// TestDeserializeStreamSingleRejectsMultipleBatches covers the malformed
// transport payload named in spec §4.6: more than one record batch in a
// single IPC stream message is an error, not a silent pick-the-first.
func TestDeserializeStreamSingleRejectsMultipleBatches(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{float64Field("v")}, nil)
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(Pool))

	for i := 0; i < 2; i++ {
		arr := float64Array([]float64{float64(i)}, nil)
		rec := array.NewRecord(schema, []arrow.Array{arr}, 1)
		require.NoError(t, w.Write(rec))
		rec.Release()
		arr.Release()
	}
	require.NoError(t, w.Close())

	_, err := DeserializeStreamSingle(buf.Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 2")
}

// TestDeserializeStreamSingleRejectsEmptyStream covers the zero-batch half
// of the same boundary.
func TestDeserializeStreamSingleRejectsEmptyStream(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{float64Field("v")}, nil)
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(Pool))
	require.NoError(t, w.Close())

	_, err := DeserializeStreamSingle(buf.Bytes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 0")
}

func TestSortedKeysIsLexicographic(t *testing.T) {
	m := map[string]int{"b": 1, "a": 2, "c": 3}
	assert.Equal(t, []string{"a", "b", "c"}, sortedKeys(m))
}
