package model

import "time"

// BaseInputData is the scalar (unexpanded) energy-system model as edited by
// the front end, grounded on input_data_base.rs's BaseInputData. JSON tags
// mirror the original's serde field names (snake_case) since this struct
// crosses the HTTP job-submission boundary (spec §6.1).
type BaseInputData struct {
	Setup          InputDataSetup               `json:"setup"`
	Processes      map[string]BaseProcess       `json:"processes"`
	Nodes          map[string]BaseNode          `json:"nodes"`
	NodeDiffusion  []BaseNodeDiffusion          `json:"node_diffusion"`
	NodeDelay      []NodeDelay                  `json:"node_delay"`
	NodeHistories  map[string]BaseNodeHistory   `json:"node_histories"`
	Markets        map[string]BaseMarket        `json:"markets"`
	Groups         map[string]Group             `json:"groups"`
	Scenarios      map[string]float64           `json:"scenarios"`
	ReserveType    map[string]float64           `json:"reserve_type"`
	Risk           map[string]float64           `json:"risk"`
	InflowBlocks   map[string]BaseInflowBlock   `json:"inflow_blocks"`
	GenConstraints map[string]BaseGenConstraint `json:"gen_constraints"`
}

// NodeDelay is a transport delay between two nodes; kept as a named struct
// rather than a bare tuple (the Rust original uses a 5-tuple) since Go has
// no positional-field shorthand worth imitating here.
type NodeDelay struct {
	Node1   string  `json:"node1"`
	Node2   string  `json:"node2"`
	DelayT  float64 `json:"delay_t"`
	MinFlow float64 `json:"min_flow"`
	MaxFlow float64 `json:"max_flow"`
}

// BaseProcess is the scalar form of a conversion/transport unit.
type BaseProcess struct {
	Name                  string          `json:"name"`
	Groups                []string        `json:"groups"`
	Conversion            int64           `json:"conversion"`
	IsCf                  bool            `json:"is_cf"`
	IsCfFix               bool            `json:"is_cf_fix"`
	IsOnline              bool            `json:"is_online"`
	IsRes                 bool            `json:"is_res"`
	Eff                   float64         `json:"eff"`
	LoadMin               float64         `json:"load_min"`
	LoadMax               float64         `json:"load_max"`
	StartCost             float64         `json:"start_cost"`
	MinOnline             float64         `json:"min_online"`
	MinOffline            float64         `json:"min_offline"`
	MaxOnline             float64         `json:"max_online"`
	MaxOffline            float64         `json:"max_offline"`
	InitialState          bool            `json:"initial_state"`
	IsScenarioIndependent bool            `json:"is_scenario_independent"`
	Topos                 []BaseTopology  `json:"topos"`
	Cf                    float64         `json:"cf"`
	EffTs                 float64         `json:"eff_ts"`
	EffOps                []string        `json:"eff_ops"`
	EffFun                [][2]float64    `json:"eff_fun"`
}

// BaseTopology is the scalar form of a process flow edge.
type BaseTopology struct {
	Source      string  `json:"source"`
	Sink        string  `json:"sink"`
	Capacity    float64 `json:"capacity"`
	VomCost     float64 `json:"vom_cost"`
	RampUp      float64 `json:"ramp_up"`
	RampDown    float64 `json:"ramp_down"`
	InitialLoad float64 `json:"initial_load"`
	InitialFlow float64 `json:"initial_flow"`
	CapTs       float64 `json:"cap_ts"`
}

// BaseNode is the scalar form of a commodity/state vertex.
type BaseNode struct {
	Name        string             `json:"name"`
	Groups      []string           `json:"groups"`
	IsCommodity bool               `json:"is_commodity"`
	IsMarket    bool               `json:"is_market"`
	IsState     bool               `json:"is_state"`
	IsRes       bool               `json:"is_res"`
	IsInflow    bool               `json:"is_inflow"`
	State       *State             `json:"state,omitempty"`
	Cost        float64            `json:"cost"`
	Inflow      ScalarForecastable `json:"inflow"`
}

// State is a continuous reservoir attached to a Node; shared unchanged
// between the base and expanded forms (it carries no per-time series).
type State struct {
	InMax                 float64 `json:"in_max"`
	OutMax                float64 `json:"out_max"`
	StateLossProportional float64 `json:"state_loss_proportional"`
	StateMax              float64 `json:"state_max"`
	StateMin              float64 `json:"state_min"`
	InitialState          float64 `json:"initial_state"`
	IsScenarioIndependent bool    `json:"is_scenario_independent"`
	IsTemp                bool    `json:"is_temp"`
	TEConversion          float64 `json:"t_e_conversion"`
	ResidualValue         float64 `json:"residual_value"`
}

// BaseNodeDiffusion is the scalar form of a pairwise heat-like coupling.
type BaseNodeDiffusion struct {
	Node1       string  `json:"node1"`
	Node2       string  `json:"node2"`
	Coefficient float64 `json:"coefficient"`
}

// BaseNodeHistory is the scalar form of a per-scenario past trajectory.
type BaseNodeHistory struct {
	Node  string  `json:"node"`
	Steps float64 `json:"steps"`
}

// BaseMarket is the scalar form of a tradable interface to a node.
type BaseMarket struct {
	Name                   string             `json:"name"`
	MType                  string             `json:"m_type"`
	Node                   string             `json:"node"`
	Processgroup           string             `json:"processgroup"`
	Direction              string             `json:"direction"`
	Realisation            float64            `json:"realisation"`
	ReserveType            string             `json:"reserve_type"`
	IsBid                  bool               `json:"is_bid"`
	IsLimited              bool               `json:"is_limited"`
	MinBid                 float64            `json:"min_bid"`
	MaxBid                 float64            `json:"max_bid"`
	Fee                    float64            `json:"fee"`
	Price                  ScalarForecastable `json:"price"`
	UpPrice                ScalarForecastable `json:"up_price"`
	DownPrice              ScalarForecastable `json:"down_price"`
	ReserveActivationPrice float64            `json:"reserve_activation_price"`
	Fixed                  []FixedPoint       `json:"fixed"`
}

// FixedPoint is a single (textual timestamp, value) pair in Market.Fixed.
// The textual (not Timestamp(ms)) representation is preserved intentionally
// -- see spec §9's Open Question on this asymmetry.
type FixedPoint struct {
	Stamp string  `json:"stamp"`
	Value float64 `json:"value"`
}

// BaseInflowBlock is the scalar form of a bounded inflow override.
type BaseInflowBlock struct {
	Name string  `json:"name"`
	Node string  `json:"node"`
	Data float64 `json:"data"`
}

// BaseGenConstraint is the scalar form of a generic linear constraint.
type BaseGenConstraint struct {
	Name       string           `json:"name"`
	GcType     string           `json:"gc_type"`
	IsSetpoint bool             `json:"is_setpoint"`
	Penalty    float64          `json:"penalty"`
	Factors    []BaseConFactor  `json:"factors"`
	Constant   float64          `json:"constant"`
}

// BaseConFactor is the scalar form of a constraint coefficient.
type BaseConFactor struct {
	VarType  string     `json:"var_type"`
	VarTuple [2]string  `json:"var_tuple"`
	Data     float64    `json:"data"`
}

// Group is a named collection of node or process members; it carries no
// per-time data so it is shared unchanged between base and expanded forms.
type Group struct {
	Name    string    `json:"name"`
	GType   GroupType `json:"g_type"`
	Members []string  `json:"members"`
}

// GroupType discriminates Group membership kind.
type GroupType string

const (
	GroupTypeNode    GroupType = "node"
	GroupTypeProcess GroupType = "process"
)

// Expand materializes the scalar base model into the time-indexed expanded
// model over time line t and scenarios, mirroring
// BaseInputData::expand_to_time_series.
func (b BaseInputData) Expand(t []time.Time, scenarios []string) InputData {
	processes := make(map[string]Process, len(b.Processes))
	for name, p := range b.Processes {
		processes[name] = p.expand(t, scenarios)
	}
	nodes := make(map[string]Node, len(b.Nodes))
	for name, n := range b.Nodes {
		nodes[name] = n.expand(t, scenarios)
	}
	diffusion := make([]NodeDiffusion, len(b.NodeDiffusion))
	for i, d := range b.NodeDiffusion {
		diffusion[i] = d.expand(t, scenarios)
	}
	histories := make(map[string]NodeHistory, len(b.NodeHistories))
	for name, h := range b.NodeHistories {
		histories[name] = h.expand(t, scenarios)
	}
	markets := make(map[string]Market, len(b.Markets))
	for name, m := range b.Markets {
		markets[name] = m.expand(t, scenarios)
	}
	inflowBlocks := make(map[string]InflowBlock, len(b.InflowBlocks))
	for name, ib := range b.InflowBlocks {
		inflowBlocks[name] = ib.expand(t, scenarios)
	}
	genConstraints := make(map[string]GenConstraint, len(b.GenConstraints))
	for name, gc := range b.GenConstraints {
		genConstraints[name] = gc.expand(t, scenarios)
	}
	return InputData{
		Temporals:      MakeTemporals(t),
		Setup:          b.Setup,
		Processes:      processes,
		Nodes:          nodes,
		NodeDiffusion:  diffusion,
		NodeDelay:      append([]NodeDelay(nil), b.NodeDelay...),
		NodeHistories:  histories,
		Markets:        markets,
		Groups:         b.Groups,
		Scenarios:      b.Scenarios,
		ReserveType:    b.ReserveType,
		Risk:           b.Risk,
		InflowBlocks:   inflowBlocks,
		BidSlots:       map[string]BidSlot{},
		GenConstraints: genConstraints,
	}
}

func (p BaseProcess) expand(t []time.Time, scenarios []string) Process {
	topos := make([]Topology, len(p.Topos))
	for i, topo := range p.Topos {
		topos[i] = topo.expand(t, scenarios)
	}
	return Process{
		Name:                  p.Name,
		Groups:                p.Groups,
		Conversion:            p.Conversion,
		IsCf:                  p.IsCf,
		IsCfFix:               p.IsCfFix,
		IsOnline:              p.IsOnline,
		IsRes:                 p.IsRes,
		Eff:                   p.Eff,
		LoadMin:               p.LoadMin,
		LoadMax:               p.LoadMax,
		StartCost:             p.StartCost,
		MinOnline:             p.MinOnline,
		MinOffline:            p.MinOffline,
		MaxOnline:             p.MaxOnline,
		MaxOffline:            p.MaxOffline,
		InitialState:          p.InitialState,
		IsScenarioIndependent: p.IsScenarioIndependent,
		Topos:                 topos,
		Cf:                    toTimeSeries(p.Cf, t, scenarios),
		EffTs:                 toTimeSeries(p.EffTs, t, scenarios),
		EffOps:                p.EffOps,
		EffFun:                p.EffFun,
	}
}

func (topo BaseTopology) expand(t []time.Time, scenarios []string) Topology {
	return Topology{
		Source:      topo.Source,
		Sink:        topo.Sink,
		Capacity:    topo.Capacity,
		VomCost:     topo.VomCost,
		RampUp:      topo.RampUp,
		RampDown:    topo.RampDown,
		InitialLoad: topo.InitialLoad,
		InitialFlow: topo.InitialFlow,
		CapTs:       toTimeSeries(topo.CapTs, t, scenarios),
	}
}

func (n BaseNode) expand(t []time.Time, scenarios []string) Node {
	return Node{
		Name:        n.Name,
		Groups:      n.Groups,
		IsCommodity: n.IsCommodity,
		IsMarket:    n.IsMarket,
		IsState:     n.IsState,
		IsRes:       n.IsRes,
		IsInflow:    n.IsInflow,
		State:       n.State,
		Cost:        toTimeSeries(n.Cost, t, scenarios),
		Inflow:      n.Inflow.expand(t, scenarios),
	}
}

func (d BaseNodeDiffusion) expand(t []time.Time, scenarios []string) NodeDiffusion {
	return NodeDiffusion{
		Node1:       d.Node1,
		Node2:       d.Node2,
		Coefficient: toTimeSeries(d.Coefficient, t, scenarios),
	}
}

func (h BaseNodeHistory) expand(t []time.Time, scenarios []string) NodeHistory {
	return NodeHistory{
		Node:  h.Node,
		Steps: toTimeSeries(h.Steps, t, scenarios),
	}
}

func (m BaseMarket) expand(t []time.Time, scenarios []string) Market {
	return Market{
		Name:                   m.Name,
		MType:                  m.MType,
		Node:                   m.Node,
		Processgroup:           m.Processgroup,
		Direction:              m.Direction,
		Realisation:            toTimeSeries(m.Realisation, t, scenarios),
		ReserveType:            m.ReserveType,
		IsBid:                  m.IsBid,
		IsLimited:              m.IsLimited,
		MinBid:                 m.MinBid,
		MaxBid:                 m.MaxBid,
		Fee:                    m.Fee,
		Price:                  m.Price.expand(t, scenarios),
		UpPrice:                m.UpPrice.expand(t, scenarios),
		DownPrice:              m.DownPrice.expand(t, scenarios),
		ReserveActivationPrice: toTimeSeries(m.ReserveActivationPrice, t, scenarios),
		Fixed:                  m.Fixed,
	}
}

func (ib BaseInflowBlock) expand(t []time.Time, scenarios []string) InflowBlock {
	var start time.Time
	if len(t) > 0 {
		start = t[0]
	}
	return InflowBlock{
		Name:      ib.Name,
		Node:      ib.Node,
		StartTime: start,
		Data:      toTimeSeries(ib.Data, t, scenarios),
	}
}

func (gc BaseGenConstraint) expand(t []time.Time, scenarios []string) GenConstraint {
	factors := make([]ConFactor, len(gc.Factors))
	for i, f := range gc.Factors {
		factors[i] = f.expand(t, scenarios)
	}
	return GenConstraint{
		Name:       gc.Name,
		GcType:     gc.GcType,
		IsSetpoint: gc.IsSetpoint,
		Penalty:    gc.Penalty,
		Factors:    factors,
		Constant:   toTimeSeries(gc.Constant, t, scenarios),
	}
}

func (f BaseConFactor) expand(t []time.Time, scenarios []string) ConFactor {
	return ConFactor{
		VarType:  f.VarType,
		VarTuple: f.VarTuple,
		Data:     toTimeSeries(f.Data, t, scenarios),
	}
}

// MakeTemporals derives the Temporals record from a materialized time line,
// mirroring input_data_base.rs's make_temporals.
func MakeTemporals(t []time.Time) Temporals {
	temporals := Temporals{T: append([]time.Time(nil), t...)}
	if len(t) >= 2 {
		temporals.Dtf = t[1].Sub(t[0]).Hours()
	}
	return temporals
}
