package arrowbatch

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/sells-group/hertta/internal/model"
)

// emptyInflowBlockPlaceholderRows is the running-integer row count the
// inflow_blocks batch falls back to when no InflowBlock is defined. The
// meaning of "10" is undocumented upstream; preserved per spec §9's Open
// Question on this exact point.
const emptyInflowBlockPlaceholderRows = 10

// BuildBatches converts the expanded model into the ordered list of named
// record batches described in spec §4.5, grounded schema-by-schema on
// event_loop/arrow_input.rs.
func BuildBatches(d *model.InputData) ([]Batch, error) {
	batches := []Batch{
		buildTempsBatch(d),
		buildSetupBatch(d),
		buildNodesBatch(d),
		buildProcessesBatch(d),
		buildGroupsBatch(d),
		buildProcessTopologyBatch(d),
		buildNodeDiffusionBatch(d),
		buildNodeHistoryBatch(d),
		buildNodeDelayBatch(d),
		buildInflowBlocksBatch(d),
		buildMarketsBatch(d),
		buildMarketRealisationBatch(d),
		buildMarketReserveActivationPriceBatch(d),
		buildScenariosBatch(d),
		buildEfficienciesBatch(d),
		buildReserveTypeBatch(d),
		buildRiskBatch(d),
		buildCapTsBatch(d),
		buildGenConstraintsBatch(d),
		buildConstraintsBatch(d),
		buildBidSlotsBatch(d),
		buildProcessesCfBatch(d),
		buildMarketFixedBatch(d),
		buildMarketPriceBatch(d),
		buildMarketBalancePriceBatch(d),
		buildEffTsBatch(d),
	}
	return batches, nil
}

// --- shared helpers -------------------------------------------------------

func scenarioNames(d *model.InputData) []string {
	return sortedKeys(d.Scenarios)
}

func seriesForScenario(data model.TimeSeriesData, scenario string) (map[time.Time]float64, bool) {
	for _, ts := range data.TSData {
		if ts.Scenario == scenario {
			return ts.Series, true
		}
	}
	return nil, false
}

// seriesColumn projects data's scenario series onto t, producing a nullable
// column: positions with no value for that scenario/stamp are invalid.
func seriesColumn(data model.TimeSeriesData, scenario string, t []time.Time) ([]float64, []bool) {
	values := make([]float64, len(t))
	valid := make([]bool, len(t))
	series, ok := seriesForScenario(data, scenario)
	if !ok {
		return values, valid
	}
	for i, stamp := range t {
		if v, present := series[stamp]; present {
			values[i] = v
			valid[i] = true
		}
	}
	return values, valid
}

func forecastableData(f model.Forecastable) model.TimeSeriesData {
	if f.IsResolved() {
		return f.Data
	}
	return model.TimeSeriesData{}
}

func anyValid(valid []bool) bool {
	for _, v := range valid {
		if v {
			return true
		}
	}
	return false
}

func timestampArrayNullable(stamps []time.Time, valid []bool) arrow.Array {
	b := array.NewTimestampBuilder(Pool, arrow.FixedWidthTypes.Timestamp_ms)
	defer b.Release()
	for i, s := range stamps {
		if valid != nil && !valid[i] {
			b.AppendNull()
			continue
		}
		b.Append(arrow.Timestamp(s.UnixMilli()))
	}
	return b.NewArray()
}

// namedFloatColumn is one emitted "{entity},{scenario}"-style float column
// awaiting a deterministic sort by name.
type namedFloatColumn struct {
	name  string
	value []float64
	valid []bool
}

func sortAndAppend(fields []arrow.Field, cols []arrow.Array, named []namedFloatColumn) ([]arrow.Field, []arrow.Array) {
	sort.Slice(named, func(i, j int) bool { return named[i].name < named[j].name })
	for _, c := range named {
		fields = append(fields, float64Field(c.name))
		cols = append(cols, float64Array(c.value, c.valid))
	}
	return fields, cols
}

// --- temps -----------------------------------------------------------------

func buildTempsBatch(d *model.InputData) Batch {
	fields := []arrow.Field{timestampField()}
	cols := []arrow.Array{timestampArray(d.Temporals.T)}
	return newBatch("temps", fields, cols, int64(len(d.Temporals.T)))
}

// --- setup -------------------------------------------------------------

type setupRow struct {
	parameter string
	kind      int8
	b         bool
	f         float64
	i         int64
	s         string
}

func setupRows(s model.InputDataSetup) []setupRow {
	scenarioName := s.CommonScenarioName
	if scenarioName == "" {
		scenarioName = "missing"
	}
	return []setupRow{
		{parameter: "contains_reserves", kind: 0, b: s.ContainsReserves},
		{parameter: "contains_online", kind: 0, b: s.ContainsOnline},
		{parameter: "contains_states", kind: 0, b: s.ContainsStates},
		{parameter: "contains_piecewise_eff", kind: 0, b: s.ContainsPiecewiseEff},
		{parameter: "contains_risk", kind: 0, b: s.ContainsRisk},
		{parameter: "contains_diffusion", kind: 0, b: s.ContainsDiffusion},
		{parameter: "contains_delay", kind: 0, b: s.ContainsDelay},
		{parameter: "contains_markets", kind: 0, b: s.ContainsMarkets},
		{parameter: "reserve_realisation", kind: 0, b: s.ReserveRealisation},
		{parameter: "use_market_bids", kind: 0, b: s.UseMarketBids},
		{parameter: "common_timesteps", kind: 2, i: s.CommonTimesteps},
		{parameter: "common_scenario_name", kind: 3, s: scenarioName},
		{parameter: "use_node_dummy_variables", kind: 0, b: s.UseNodeDummyVariables},
		{parameter: "use_ramp_dummy_variables", kind: 0, b: s.UseRampDummyVariables},
		{parameter: "node_dummy_variable_cost", kind: 1, f: s.NodeDummyVariableCost},
		{parameter: "ramp_dummy_variable_cost", kind: 1, f: s.RampDummyVariableCost},
	}
}

// buildSetupBatch encodes the fixed 16-row setup table, whose "value"
// column is a 4-child union (bool/float/int/str), per spec §4.5.
func buildSetupBatch(d *model.InputData) Batch {
	rows := setupRows(d.Setup)

	unionFields := []arrow.Field{
		{Name: "bool", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
		{Name: "float", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "int", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "str", Type: arrow.BinaryTypes.String, Nullable: true},
	}
	codes := []arrow.UnionTypeCode{0, 1, 2, 3}
	unionType := arrow.SparseUnionOf(unionFields, codes)
	ub := array.NewSparseUnionBuilder(Pool, unionType)
	defer ub.Release()

	boolB := ub.Child(0).(*array.BooleanBuilder)
	floatB := ub.Child(1).(*array.Float64Builder)
	intB := ub.Child(2).(*array.Int64Builder)
	strB := ub.Child(3).(*array.StringBuilder)

	params := make([]string, len(rows))
	for i, row := range rows {
		params[i] = row.parameter
		ub.Append(arrow.UnionTypeCode(row.kind))
		if row.kind == 0 {
			boolB.Append(row.b)
		} else {
			boolB.AppendNull()
		}
		if row.kind == 1 {
			floatB.Append(row.f)
		} else {
			floatB.AppendNull()
		}
		if row.kind == 2 {
			intB.Append(row.i)
		} else {
			intB.AppendNull()
		}
		if row.kind == 3 {
			strB.Append(row.s)
		} else {
			strB.AppendNull()
		}
	}
	valueArr := ub.NewArray()

	fields := []arrow.Field{utf8Field("parameter"), {Name: "value", Type: unionType}}
	cols := []arrow.Array{utf8Array(params), valueArr}
	return newBatch("setup", fields, cols, int64(len(rows)))
}

// --- nodes -------------------------------------------------------------

func buildNodesBatch(d *model.InputData) Batch {
	names := sortedKeys(d.Nodes)
	n := len(names)
	nodeCol := make([]string, n)
	isCommodity := make([]bool, n)
	isMarket := make([]bool, n)
	isState := make([]bool, n)
	isRes := make([]bool, n)
	isInflow := make([]bool, n)
	stateMin := make([]float64, n)
	stateMinValid := make([]bool, n)
	stateMax := make([]float64, n)
	stateMaxValid := make([]bool, n)
	initial := make([]float64, n)
	initialValid := make([]bool, n)
	loss := make([]float64, n)
	lossValid := make([]bool, n)
	isTemp := make([]bool, n)
	teConv := make([]float64, n)
	teConvValid := make([]bool, n)
	residual := make([]float64, n)
	residualValid := make([]bool, n)

	for i, name := range names {
		node := d.Nodes[name]
		nodeCol[i] = name
		isCommodity[i] = node.IsCommodity
		isMarket[i] = node.IsMarket
		isState[i] = node.IsState
		isRes[i] = node.IsRes
		isInflow[i] = node.IsInflow
		if node.State != nil {
			s := node.State
			stateMin[i], stateMinValid[i] = s.StateMin, true
			stateMax[i], stateMaxValid[i] = s.StateMax, true
			initial[i], initialValid[i] = s.InitialState, true
			loss[i], lossValid[i] = s.StateLossProportional, true
			isTemp[i] = s.IsTemp
			teConv[i], teConvValid[i] = s.TEConversion, true
			residual[i], residualValid[i] = s.ResidualValue, true
		}
	}

	fields := []arrow.Field{
		utf8Field("node"), boolField("is_commodity"), boolField("is_market"),
		boolField("is_state"), boolField("is_res"), boolField("is_inflow"),
		float64Field("state_min"), float64Field("state_max"),
		float64Field("initial_state"), float64Field("loss"),
		boolField("is_temp"), float64Field("t_e_conversion"), float64Field("residual_value"),
	}
	cols := []arrow.Array{
		utf8Array(nodeCol), boolArray(isCommodity), boolArray(isMarket),
		boolArray(isState), boolArray(isRes), boolArray(isInflow),
		float64Array(stateMin, stateMinValid), float64Array(stateMax, stateMaxValid),
		float64Array(initial, initialValid), float64Array(loss, lossValid),
		boolArray(isTemp), float64Array(teConv, teConvValid), float64Array(residual, residualValid),
	}
	return newBatch("nodes", fields, cols, int64(n))
}

// --- processes -----------------------------------------------------------

func buildProcessesBatch(d *model.InputData) Batch {
	names := sortedKeys(d.Processes)
	n := len(names)
	processCol := make([]string, n)
	isCf := make([]bool, n)
	isCfFix := make([]bool, n)
	isOnline := make([]bool, n)
	isRes := make([]bool, n)
	conversion := make([]int64, n)
	eff := make([]float64, n)
	loadMin := make([]float64, n)
	loadMax := make([]float64, n)
	startCost := make([]float64, n)
	minOnline := make([]float64, n)
	maxOnline := make([]float64, n)
	minOffline := make([]float64, n)
	maxOffline := make([]float64, n)
	initialState := make([]bool, n)
	scenarioIndependent := make([]bool, n)
	delay := make([]float64, n)
	delayValid := make([]bool, n) // the Process entity carries no delay field; always null, see DESIGN.md

	for i, name := range names {
		p := d.Processes[name]
		processCol[i] = name
		isCf[i] = p.IsCf
		isCfFix[i] = p.IsCfFix
		isOnline[i] = p.IsOnline
		isRes[i] = p.IsRes
		conversion[i] = p.Conversion
		eff[i] = p.Eff
		loadMin[i] = p.LoadMin
		loadMax[i] = p.LoadMax
		startCost[i] = p.StartCost
		minOnline[i] = p.MinOnline
		maxOnline[i] = p.MaxOnline
		minOffline[i] = p.MinOffline
		maxOffline[i] = p.MaxOffline
		initialState[i] = p.InitialState
		scenarioIndependent[i] = p.IsScenarioIndependent
	}

	fields := []arrow.Field{
		utf8Field("process"), boolField("is_cf"), boolField("is_cf_fix"), boolField("is_online"), boolField("is_res"),
		int64Field("conversion"), float64Field("eff"), float64Field("load_min"), float64Field("load_max"), float64Field("start_cost"),
		float64Field("min_online"), float64Field("max_online"), float64Field("min_offline"), float64Field("max_offline"),
		boolField("initial_state"), boolField("scenario_independent_online"), float64Field("delay"),
	}
	cols := []arrow.Array{
		utf8Array(processCol), boolArray(isCf), boolArray(isCfFix), boolArray(isOnline), boolArray(isRes),
		int64Array(conversion), float64Array(eff, nil), float64Array(loadMin, nil), float64Array(loadMax, nil), float64Array(startCost, nil),
		float64Array(minOnline, nil), float64Array(maxOnline, nil), float64Array(minOffline, nil), float64Array(maxOffline, nil),
		boolArray(initialState), boolArray(scenarioIndependent), float64Array(delay, delayValid),
	}
	return newBatch("processes", fields, cols, int64(n))
}

// --- groups -----------------------------------------------------------

func buildGroupsBatch(d *model.InputData) Batch {
	var groupType, entity, group []string
	for _, name := range sortedKeys(d.Groups) {
		g := d.Groups[name]
		for _, member := range g.Members {
			groupType = append(groupType, string(g.GType))
			entity = append(entity, member)
			group = append(group, name)
		}
	}
	fields := []arrow.Field{utf8Field("group_type"), utf8Field("entity"), utf8Field("group")}
	cols := []arrow.Array{utf8Array(groupType), utf8Array(entity), utf8Array(group)}
	return newBatch("groups", fields, cols, int64(len(groupType)))
}

// --- process_topology ---------------------------------------------------

func buildProcessTopologyBatch(d *model.InputData) Batch {
	var processCol, sourceSink, nodeCol []string
	var capacity, vomCost, rampUp, rampDown, initialLoad, initialFlow, convCoeff []float64

	for _, pname := range sortedKeys(d.Processes) {
		p := d.Processes[pname]
		for _, topo := range p.Topos {
			var ss, node string
			switch {
			case topo.Sink == pname:
				ss, node = "source", topo.Source
			default:
				ss, node = "sink", topo.Sink
			}
			processCol = append(processCol, pname)
			sourceSink = append(sourceSink, ss)
			nodeCol = append(nodeCol, node)
			convCoeff = append(convCoeff, 1.0)
			capacity = append(capacity, topo.Capacity)
			vomCost = append(vomCost, topo.VomCost)
			rampUp = append(rampUp, topo.RampUp)
			rampDown = append(rampDown, topo.RampDown)
			initialLoad = append(initialLoad, topo.InitialLoad)
			initialFlow = append(initialFlow, topo.InitialFlow)
		}
	}

	fields := []arrow.Field{
		utf8Field("process"), utf8Field("source_sink"), utf8Field("node"),
		float64Field("conversion_coeff"), float64Field("capacity"), float64Field("vom_cost"),
		float64Field("ramp_up"), float64Field("ramp_down"), float64Field("initial_load"), float64Field("initial_flow"),
	}
	cols := []arrow.Array{
		utf8Array(processCol), utf8Array(sourceSink), utf8Array(nodeCol),
		float64Array(convCoeff, nil), float64Array(capacity, nil), float64Array(vomCost, nil),
		float64Array(rampUp, nil), float64Array(rampDown, nil), float64Array(initialLoad, nil), float64Array(initialFlow, nil),
	}
	return newBatch("process_topology", fields, cols, int64(len(processCol)))
}

// --- node_diffusion ------------------------------------------------------

func buildNodeDiffusionBatch(d *model.InputData) Batch {
	fields := []arrow.Field{timestampField()}
	cols := []arrow.Array{timestampArray(d.Temporals.T)}
	scenarios := scenarioNames(d)
	for _, diff := range d.NodeDiffusion {
		for _, scenario := range scenarios {
			values, valid := seriesColumn(diff.Coefficient, scenario, d.Temporals.T)
			if !anyValid(valid) {
				continue
			}
			fields = append(fields, float64Field(fmt.Sprintf("%s,%s,%s", diff.Node1, diff.Node2, scenario)))
			cols = append(cols, float64Array(values, valid))
		}
	}
	return newBatch("node_diffusion", fields, cols, int64(len(d.Temporals.T)))
}

// --- node_history --------------------------------------------------------

func buildNodeHistoryBatch(d *model.InputData) Batch {
	type historySeries struct {
		node     string
		scenario string
		stamps   []time.Time
		values   []float64
	}
	var series []historySeries
	maxLen := 0
	for _, name := range sortedKeys(d.NodeHistories) {
		h := d.NodeHistories[name]
		for _, ts := range h.Steps.TSData {
			stamps := ts.SortedStamps()
			values := make([]float64, len(stamps))
			for i, s := range stamps {
				values[i] = ts.Series[s]
			}
			if len(stamps) > maxLen {
				maxLen = len(stamps)
			}
			series = append(series, historySeries{node: h.Node, scenario: ts.Scenario, stamps: stamps, values: values})
		}
	}

	type namedEntry struct {
		name        string
		isTimestamp bool
		entry       historySeries
	}
	var named []namedEntry
	for _, e := range series {
		named = append(named, namedEntry{name: fmt.Sprintf("%s,t,%s", e.node, e.scenario), isTimestamp: true, entry: e})
		named = append(named, namedEntry{name: fmt.Sprintf("%s,%s", e.node, e.scenario), isTimestamp: false, entry: e})
	}
	sort.Slice(named, func(i, j int) bool { return named[i].name < named[j].name })

	tValues := make([]int64, maxLen)
	for i := range tValues {
		tValues[i] = int64(i)
	}
	fields := []arrow.Field{int64Field("t")}
	cols := []arrow.Array{int64Array(tValues)}

	for _, e := range named {
		if e.isTimestamp {
			stamps := make([]time.Time, maxLen)
			valid := make([]bool, maxLen)
			for i, s := range e.entry.stamps {
				stamps[i], valid[i] = s, true
			}
			fields = append(fields, arrow.Field{Name: e.name, Type: arrow.FixedWidthTypes.Timestamp_ms, Nullable: true})
			cols = append(cols, timestampArrayNullable(stamps, valid))
		} else {
			values := make([]float64, maxLen)
			valid := make([]bool, maxLen)
			for i, v := range e.entry.values {
				values[i], valid[i] = v, true
			}
			fields = append(fields, float64Field(e.name))
			cols = append(cols, float64Array(values, valid))
		}
	}
	return newBatch("node_history", fields, cols, int64(maxLen))
}

// --- node_delay ----------------------------------------------------------

func buildNodeDelayBatch(d *model.InputData) Batch {
	n := len(d.NodeDelay)
	node1 := make([]string, n)
	node2 := make([]string, n)
	delayT := make([]float64, n)
	minFlow := make([]float64, n)
	maxFlow := make([]float64, n)
	for i, nd := range d.NodeDelay {
		node1[i] = nd.Node1
		node2[i] = nd.Node2
		delayT[i] = nd.DelayT
		minFlow[i] = nd.MinFlow
		maxFlow[i] = nd.MaxFlow
	}
	fields := []arrow.Field{utf8Field("node1"), utf8Field("node2"), float64Field("delay_t"), float64Field("min_flow"), float64Field("max_flow")}
	cols := []arrow.Array{utf8Array(node1), utf8Array(node2), float64Array(delayT, nil), float64Array(minFlow, nil), float64Array(maxFlow, nil)}
	return newBatch("node_delay", fields, cols, int64(n))
}

// --- inflow_blocks ---------------------------------------------------------

func buildInflowBlocksBatch(d *model.InputData) Batch {
	names := sortedKeys(d.InflowBlocks)
	if len(names) == 0 {
		tValues := make([]int64, emptyInflowBlockPlaceholderRows)
		for i := range tValues {
			tValues[i] = int64(i)
		}
		return newBatch("inflow_blocks", []arrow.Field{int64Field("t")}, []arrow.Array{int64Array(tValues)}, emptyInflowBlockPlaceholderRows)
	}

	type entry struct {
		name        string
		isTimestamp bool
		block       model.InflowBlock
		scenario    string
	}
	var named []entry
	maxLen := 0
	for _, name := range names {
		ib := d.InflowBlocks[name]
		named = append(named, entry{name: fmt.Sprintf("%s,%s", name, ib.Node), isTimestamp: true, block: ib})
		for _, ts := range ib.Data.TSData {
			stamps := ts.SortedStamps()
			if len(stamps) > maxLen {
				maxLen = len(stamps)
			}
			named = append(named, entry{name: fmt.Sprintf("%s,%s", name, ts.Scenario), isTimestamp: false, block: ib, scenario: ts.Scenario})
		}
	}
	sort.Slice(named, func(i, j int) bool { return named[i].name < named[j].name })

	tValues := make([]int64, maxLen)
	for i := range tValues {
		tValues[i] = int64(i)
	}
	fields := []arrow.Field{int64Field("t")}
	cols := []arrow.Array{int64Array(tValues)}

	for _, e := range named {
		if e.isTimestamp {
			stamps := make([]time.Time, maxLen)
			valid := make([]bool, maxLen)
			if len(e.block.Data.TSData) > 0 {
				s := e.block.Data.TSData[0].SortedStamps()
				for i, st := range s {
					stamps[i], valid[i] = st, true
				}
			}
			fields = append(fields, arrow.Field{Name: e.name, Type: arrow.FixedWidthTypes.Timestamp_ms, Nullable: true})
			cols = append(cols, timestampArrayNullable(stamps, valid))
		} else {
			values := make([]float64, maxLen)
			valid := make([]bool, maxLen)
			if series, ok := seriesForScenario(e.block.Data, e.scenario); ok {
				stamps := model.TimeSeries{Series: series}.SortedStamps()
				for i, st := range stamps {
					values[i], valid[i] = series[st], true
				}
			}
			fields = append(fields, float64Field(e.name))
			cols = append(cols, float64Array(values, valid))
		}
	}
	return newBatch("inflow_blocks", fields, cols, int64(maxLen))
}

// --- markets -----------------------------------------------------------

func buildMarketsBatch(d *model.InputData) Batch {
	names := sortedKeys(d.Markets)
	n := len(names)
	market := make([]string, n)
	mType := make([]string, n)
	node := make([]string, n)
	pg := make([]string, n)
	direction := make([]string, n)
	reserveType := make([]string, n)
	isBid := make([]bool, n)
	isLimited := make([]bool, n)
	minBid := make([]float64, n)
	maxBid := make([]float64, n)
	fee := make([]float64, n)
	for i, name := range names {
		m := d.Markets[name]
		market[i] = name
		mType[i] = m.MType
		node[i] = m.Node
		pg[i] = m.Processgroup
		direction[i] = m.Direction
		reserveType[i] = m.ReserveType
		isBid[i] = m.IsBid
		isLimited[i] = m.IsLimited
		minBid[i] = m.MinBid
		maxBid[i] = m.MaxBid
		fee[i] = m.Fee
	}
	fields := []arrow.Field{
		utf8Field("market"), utf8Field("market_type"), utf8Field("node"),
		utf8Field("processgroup"), utf8Field("direction"), utf8Field("reserve_type"),
		boolField("is_bid"), boolField("is_limited"), float64Field("min_bid"), float64Field("max_bid"), float64Field("fee"),
	}
	cols := []arrow.Array{
		utf8Array(market), utf8Array(mType), utf8Array(node), utf8Array(pg),
		utf8Array(direction), utf8Array(reserveType), boolArray(isBid), boolArray(isLimited),
		float64Array(minBid, nil), float64Array(maxBid, nil), float64Array(fee, nil),
	}
	return newBatch("markets", fields, cols, int64(n))
}

// --- per-market time-series batches --------------------------------------

func timeSeriesPerMarketBatch(d *model.InputData, key string, pick func(model.Market) model.TimeSeriesData) Batch {
	fields := []arrow.Field{timestampField()}
	cols := []arrow.Array{timestampArray(d.Temporals.T)}
	scenarios := scenarioNames(d)
	var named []namedFloatColumn
	for _, mname := range sortedKeys(d.Markets) {
		data := pick(d.Markets[mname])
		for _, scenario := range scenarios {
			values, valid := seriesColumn(data, scenario, d.Temporals.T)
			named = append(named, namedFloatColumn{name: fmt.Sprintf("%s,%s", mname, scenario), value: values, valid: valid})
		}
	}
	fields, cols = sortAndAppend(fields, cols, named)
	return newBatch(key, fields, cols, int64(len(d.Temporals.T)))
}

func buildMarketRealisationBatch(d *model.InputData) Batch {
	return timeSeriesPerMarketBatch(d, "market_realisation", func(m model.Market) model.TimeSeriesData { return m.Realisation })
}

func buildMarketReserveActivationPriceBatch(d *model.InputData) Batch {
	return timeSeriesPerMarketBatch(d, "market_reserve_activation_price", func(m model.Market) model.TimeSeriesData { return m.ReserveActivationPrice })
}

func buildMarketPriceBatch(d *model.InputData) Batch {
	return timeSeriesPerMarketBatch(d, "market_price", func(m model.Market) model.TimeSeriesData { return forecastableData(m.Price) })
}

func buildMarketBalancePriceBatch(d *model.InputData) Batch {
	fields := []arrow.Field{timestampField()}
	cols := []arrow.Array{timestampArray(d.Temporals.T)}
	scenarios := scenarioNames(d)
	var named []namedFloatColumn
	for _, mname := range sortedKeys(d.Markets) {
		m := d.Markets[mname]
		if m.MType != "energy" {
			continue
		}
		up := forecastableData(m.UpPrice)
		down := forecastableData(m.DownPrice)
		for _, scenario := range scenarios {
			uv, uValid := seriesColumn(up, scenario, d.Temporals.T)
			named = append(named, namedFloatColumn{name: fmt.Sprintf("%s,up,%s", mname, scenario), value: uv, valid: uValid})
			dv, dValid := seriesColumn(down, scenario, d.Temporals.T)
			named = append(named, namedFloatColumn{name: fmt.Sprintf("%s,dw,%s", mname, scenario), value: dv, valid: dValid})
		}
	}
	fields, cols = sortAndAppend(fields, cols, named)
	return newBatch("market_balance_price", fields, cols, int64(len(d.Temporals.T)))
}

// market_fixed preserves the textual (not Timestamp(ms)) timestamp column
// intentionally; see spec §9's Open Question on this asymmetry.
func buildMarketFixedBatch(d *model.InputData) Batch {
	var market, stamp []string
	var value []float64
	for _, mname := range sortedKeys(d.Markets) {
		for _, fp := range d.Markets[mname].Fixed {
			market = append(market, mname)
			stamp = append(stamp, fp.Stamp)
			value = append(value, fp.Value)
		}
	}
	fields := []arrow.Field{utf8Field("market"), utf8Field("t"), float64Field("value")}
	cols := []arrow.Array{utf8Array(market), utf8Array(stamp), float64Array(value, nil)}
	return newBatch("market_fixed", fields, cols, int64(len(market)))
}

// --- cap_ts (processes_cap) -----------------------------------------------

func buildCapTsBatch(d *model.InputData) Batch {
	fields := []arrow.Field{timestampField()}
	cols := []arrow.Array{timestampArray(d.Temporals.T)}
	scenarios := scenarioNames(d)
	var named []namedFloatColumn
	for _, pname := range sortedKeys(d.Processes) {
		for _, topo := range d.Processes[pname].Topos {
			flow := topo.Sink
			if topo.Sink == pname {
				flow = topo.Source
			}
			for _, scenario := range scenarios {
				values, valid := seriesColumn(topo.CapTs, scenario, d.Temporals.T)
				named = append(named, namedFloatColumn{name: fmt.Sprintf("%s,%s,%s", pname, flow, scenario), value: values, valid: valid})
			}
		}
	}
	fields, cols = sortAndAppend(fields, cols, named)
	return newBatch("processes_cap", fields, cols, int64(len(d.Temporals.T)))
}

// --- processes_cf ----------------------------------------------------------

func buildProcessesCfBatch(d *model.InputData) Batch {
	fields := []arrow.Field{timestampField()}
	cols := []arrow.Array{timestampArray(d.Temporals.T)}
	scenarios := scenarioNames(d)
	for _, pname := range sortedKeys(d.Processes) {
		p := d.Processes[pname]
		for _, scenario := range scenarios {
			values, valid := seriesColumn(p.Cf, scenario, d.Temporals.T)
			fields = append(fields, float64Field(fmt.Sprintf("%s,%s", pname, scenario)))
			cols = append(cols, float64Array(values, valid))
		}
	}
	return newBatch("processes_cf", fields, cols, int64(len(d.Temporals.T)))
}

// --- eff_ts ------------------------------------------------------------

func buildEffTsBatch(d *model.InputData) Batch {
	fields := []arrow.Field{timestampField()}
	cols := []arrow.Array{timestampArray(d.Temporals.T)}
	processNames := sortedKeys(d.Processes)
	for _, scenario := range scenarioNames(d) {
		for _, pname := range processNames {
			values, valid := seriesColumn(d.Processes[pname].EffTs, scenario, d.Temporals.T)
			fields = append(fields, float64Field(fmt.Sprintf("%s,%s", pname, scenario)))
			cols = append(cols, float64Array(values, valid))
		}
	}
	return newBatch("eff_ts", fields, cols, int64(len(d.Temporals.T)))
}

// --- processes_eff_fun (efficiencies) -------------------------------------

func buildEfficienciesBatch(d *model.InputData) Batch {
	names := sortedKeys(d.Processes)
	maxLen := 0
	for _, name := range names {
		if n := len(d.Processes[name].EffFun); n > maxLen {
			maxLen = n
		}
	}

	var processCol []string
	pointValues := make([][]float64, maxLen)
	pointValid := make([][]bool, maxLen)

	for _, name := range names {
		p := d.Processes[name]
		processCol = append(processCol, name+",op", name+",eff")
		for i := 0; i < maxLen; i++ {
			if i < len(p.EffFun) {
				pointValues[i] = append(pointValues[i], p.EffFun[i][0], p.EffFun[i][1])
				pointValid[i] = append(pointValid[i], true, true)
			} else {
				pointValues[i] = append(pointValues[i], 0, 0)
				pointValid[i] = append(pointValid[i], false, false)
			}
		}
	}

	fields := []arrow.Field{utf8Field("process")}
	cols := []arrow.Array{utf8Array(processCol)}
	for i := 0; i < maxLen; i++ {
		fields = append(fields, float64Field(strconv.Itoa(i+1)))
		cols = append(cols, float64Array(pointValues[i], pointValid[i]))
	}
	return newBatch("processes_eff_fun", fields, cols, int64(len(processCol)))
}

// --- reserve_type / risk / scenarios --------------------------------------

func buildReserveTypeBatch(d *model.InputData) Batch {
	names := sortedKeys(d.ReserveType)
	values := make([]float64, len(names))
	for i, n := range names {
		values[i] = d.ReserveType[n]
	}
	fields := []arrow.Field{utf8Field("type"), float64Field("value")}
	cols := []arrow.Array{utf8Array(names), float64Array(values, nil)}
	return newBatch("reserve_type", fields, cols, int64(len(names)))
}

func buildRiskBatch(d *model.InputData) Batch {
	names := sortedKeys(d.Risk)
	values := make([]float64, len(names))
	for i, n := range names {
		values[i] = d.Risk[n]
	}
	fields := []arrow.Field{utf8Field("parameter"), float64Field("value")}
	cols := []arrow.Array{utf8Array(names), float64Array(values, nil)}
	return newBatch("risk", fields, cols, int64(len(names)))
}

func buildScenariosBatch(d *model.InputData) Batch {
	names := sortedKeys(d.Scenarios)
	values := make([]float64, len(names))
	for i, n := range names {
		values[i] = d.Scenarios[n]
	}
	fields := []arrow.Field{utf8Field("scenario"), float64Field("probability")}
	cols := []arrow.Array{utf8Array(names), float64Array(values, nil)}
	return newBatch("scenarios", fields, cols, int64(len(names)))
}

// --- gen_constraints / constraints -----------------------------------------

func buildGenConstraintsBatch(d *model.InputData) Batch {
	fields := []arrow.Field{timestampField()}
	cols := []arrow.Array{timestampArray(d.Temporals.T)}
	scenarios := scenarioNames(d)
	var named []namedFloatColumn
	for _, cname := range sortedKeys(d.GenConstraints) {
		gc := d.GenConstraints[cname]
		for _, scenario := range scenarios {
			values, valid := seriesColumn(gc.Constant, scenario, d.Temporals.T)
			named = append(named, namedFloatColumn{name: fmt.Sprintf("%s,%s", cname, scenario), value: values, valid: valid})
		}
		for _, f := range gc.Factors {
			varTuple := fmt.Sprintf("%s-%s", f.VarTuple[0], f.VarTuple[1])
			for _, scenario := range scenarios {
				values, valid := seriesColumn(f.Data, scenario, d.Temporals.T)
				named = append(named, namedFloatColumn{name: fmt.Sprintf("%s,%s,%s", cname, varTuple, scenario), value: values, valid: valid})
			}
		}
	}
	fields, cols = sortAndAppend(fields, cols, named)
	return newBatch("gen_constraints", fields, cols, int64(len(d.Temporals.T)))
}

func buildConstraintsBatch(d *model.InputData) Batch {
	names := sortedKeys(d.GenConstraints)
	n := len(names)
	nameCol := make([]string, n)
	operator := make([]string, n)
	isSetpoint := make([]bool, n)
	penalty := make([]float64, n)
	for i, name := range names {
		gc := d.GenConstraints[name]
		nameCol[i] = name
		operator[i] = gc.GcType
		isSetpoint[i] = gc.IsSetpoint
		penalty[i] = gc.Penalty
	}
	fields := []arrow.Field{utf8Field("name"), utf8Field("operator"), boolField("is_setpoint"), float64Field("penalty")}
	cols := []arrow.Array{utf8Array(nameCol), utf8Array(operator), boolArray(isSetpoint), float64Array(penalty, nil)}
	return newBatch("constraints", fields, cols, int64(n))
}

// --- bid_slots -----------------------------------------------------------

func buildBidSlotsBatch(d *model.InputData) Batch {
	fields := []arrow.Field{timestampField()}
	cols := []arrow.Array{timestampArray(d.Temporals.T)}
	for _, marketName := range sortedKeys(d.BidSlots) {
		bs := d.BidSlots[marketName]
		for _, slot := range bs.Slots {
			values := make([]float64, len(d.Temporals.T))
			valid := make([]bool, len(d.Temporals.T))
			for i, stamp := range d.Temporals.T {
				if v, ok := bs.Prices[model.BidSlotPriceKey{Stamp: stamp, Slot: slot}]; ok {
					values[i], valid[i] = v, true
				}
			}
			fields = append(fields, float64Field(fmt.Sprintf("%s,%s", marketName, slot)))
			cols = append(cols, float64Array(values, valid))
		}
	}
	return newBatch("bid_slots", fields, cols, int64(len(d.Temporals.T)))
}
