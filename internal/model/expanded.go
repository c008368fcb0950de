package model

import "time"

// Temporals carries the materialized time line and its step length in
// hours, mirroring input_data.rs's Temporals.
type Temporals struct {
	T          []time.Time
	Dtf        float64
	VariableDt []VariableDt
}

// VariableDt is a named, non-uniform step override; the original carries
// this as an optional Vec<(String, f64)> that nothing in the base model
// ever populates -- kept for shape-fidelity, unused by the expander.
type VariableDt struct {
	Name string
	Dt   float64
}

// InputDataSetup is the 17-field feature-flag and scalar block that tells
// the solver which subsystems are active, mirroring input_data.rs's
// InputDataSetup. Every field except UseReserves becomes one of the 16 rows
// of the Arrow setup batch, in the order listed here.
type InputDataSetup struct {
	ContainsReserves      bool    `json:"contains_reserves"`
	ContainsOnline        bool    `json:"contains_online"`
	ContainsStates        bool    `json:"contains_states"`
	ContainsPiecewiseEff  bool    `json:"contains_piecewise_eff"`
	ContainsRisk          bool    `json:"contains_risk"`
	ContainsDiffusion     bool    `json:"contains_diffusion"`
	ContainsDelay         bool    `json:"contains_delay"`
	ContainsMarkets       bool    `json:"contains_markets"`
	ReserveRealisation    bool    `json:"reserve_realisation"`
	UseMarketBids         bool    `json:"use_market_bids"`
	UseReserves           bool    `json:"use_reserves"`
	CommonTimesteps       int64   `json:"common_timesteps"`
	CommonScenarioName    string  `json:"common_scenario_name"`
	UseNodeDummyVariables bool    `json:"use_node_dummy_variables"`
	UseRampDummyVariables bool    `json:"use_ramp_dummy_variables"`
	NodeDummyVariableCost float64 `json:"node_dummy_variable_cost"`
	RampDummyVariableCost float64 `json:"ramp_dummy_variable_cost"`
}

// InputData is the fully expanded, time-indexed energy-system model handed
// to the Arrow serializer, mirroring input_data.rs's InputData.
type InputData struct {
	Temporals      Temporals
	Setup          InputDataSetup
	Processes      map[string]Process
	Nodes          map[string]Node
	NodeDiffusion  []NodeDiffusion
	NodeDelay      []NodeDelay
	NodeHistories  map[string]NodeHistory
	Markets        map[string]Market
	Groups         map[string]Group
	Scenarios      map[string]float64
	ReserveType    map[string]float64
	Risk           map[string]float64
	InflowBlocks   map[string]InflowBlock
	BidSlots       map[string]BidSlot
	GenConstraints map[string]GenConstraint
}

// Process is the expanded form of a conversion/transport unit.
type Process struct {
	Name                  string
	Groups                []string
	Conversion            int64
	IsCf                  bool
	IsCfFix               bool
	IsOnline              bool
	IsRes                 bool
	Eff                   float64
	LoadMin               float64
	LoadMax               float64
	StartCost             float64
	MinOnline             float64
	MinOffline            float64
	MaxOnline             float64
	MaxOffline            float64
	InitialState          bool
	IsScenarioIndependent bool
	Topos                 []Topology
	Cf                    TimeSeriesData
	EffTs                 TimeSeriesData
	EffOps                []string
	EffFun                [][2]float64
}

// Topology is the expanded form of a process flow edge.
type Topology struct {
	Source      string
	Sink        string
	Capacity    float64
	VomCost     float64
	RampUp      float64
	RampDown    float64
	InitialLoad float64
	InitialFlow float64
	CapTs       TimeSeriesData
}

// Node is the expanded form of a commodity/state vertex.
type Node struct {
	Name        string
	Groups      []string
	IsCommodity bool
	IsMarket    bool
	IsState     bool
	IsRes       bool
	IsInflow    bool
	State       *State
	Cost        TimeSeriesData
	Inflow      Forecastable
}

// NodeDiffusion is the expanded form of a pairwise heat-like coupling.
type NodeDiffusion struct {
	Node1       string
	Node2       string
	Coefficient TimeSeriesData
}

// NodeHistory is the expanded form of a per-scenario past trajectory.
type NodeHistory struct {
	Node  string
	Steps TimeSeriesData
}

// Market is the expanded form of a tradable interface to a node.
type Market struct {
	Name                   string
	MType                  string
	Node                   string
	Processgroup           string
	Direction              string
	Realisation            TimeSeriesData
	ReserveType            string
	IsBid                  bool
	IsLimited              bool
	MinBid                 float64
	MaxBid                 float64
	Fee                    float64
	Price                  Forecastable
	UpPrice                Forecastable
	DownPrice              Forecastable
	ReserveActivationPrice TimeSeriesData
	Fixed                  []FixedPoint
}

// InflowBlock is the expanded form of a bounded inflow override.
type InflowBlock struct {
	Name      string
	Node      string
	StartTime time.Time
	Data      TimeSeriesData
}

// GenConstraint is the expanded form of a generic linear constraint.
type GenConstraint struct {
	Name       string
	GcType     string
	IsSetpoint bool
	Penalty    float64
	Factors    []ConFactor
	Constant   TimeSeriesData
}

// ConFactor is the expanded form of a constraint coefficient.
type ConFactor struct {
	VarType  string
	VarTuple [2]string
	Data     TimeSeriesData
}

// BidSlot describes market bidding time slots; the expander always starts
// with an empty map (input_data_base.rs never populates it from the base
// model), so no expansion logic is needed here -- only the shape survives.
type BidSlot struct {
	Market               string
	TimeSteps            []time.Time
	Slots                []string
	Prices               map[BidSlotPriceKey]float64
	MarketPriceAllocation map[BidSlotAllocationKey][2]string
}

// BidSlotPriceKey is the (timestamp, slot) key of a BidSlot price entry.
type BidSlotPriceKey struct {
	Stamp time.Time
	Slot  string
}

// BidSlotAllocationKey is the (market, timestamp) key of a BidSlot
// allocation entry.
type BidSlotAllocationKey struct {
	Market string
	Stamp  time.Time
}
