package alarm

import "go.uber.org/zap"

// Vector is the fixed set of boolean alarm outputs.
type Vector struct {
	LowCellVoltage        bool
	HighCellVoltage       bool
	CellImbalance         bool
	LowSoc                bool
	HighChargeCurrent     bool
	HighDischargeCurrent  bool
	CellTemperature       bool
	InternalFailure       bool
}

// Any reports whether any alarm in the vector is asserted.
func (v Vector) Any() bool {
	return v.LowCellVoltage || v.HighCellVoltage || v.CellImbalance || v.LowSoc ||
		v.HighChargeCurrent || v.HighDischargeCurrent || v.CellTemperature || v.InternalFailure
}

// Inputs is the aggregated snapshot the Engine evaluates against thresholds.
type Inputs struct {
	MinCellMilliVolts uint16
	MaxCellMilliVolts uint16
	MinCellTempC      float64
	MaxCellTempC      float64
	SocPct            uint8
	CurrentA          float64
	InternalErrors    uint8
}

// Edge describes a transition of the any-alarm output.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

// Engine evaluates Inputs against Thresholds and tracks the any-alarm edge
// for the relay. Adapted from the donor's alarm state-change tracking
// (internal/bms/alarm_processor.go's previousAlarmStates comparison), here
// collapsed to a single previous/current boolean since there is exactly one
// relay output rather than a per-bit alarm table.
type Engine struct {
	thresholds  Thresholds
	previousAny bool
	log         *zap.Logger
}

// NewEngine constructs an Engine with the given thresholds.
func NewEngine(thresholds Thresholds, logger *zap.Logger) *Engine {
	return &Engine{
		thresholds: thresholds,
		log:        logger.With(zap.String("component", "alarm_engine")),
	}
}

// Evaluate computes the alarm vector and the relay edge against the previous
// call's any() result. No time-based hysteresis: a single evaluation above
// threshold asserts immediately.
func (e *Engine) Evaluate(in Inputs) (Vector, Edge) {
	t := e.thresholds
	v := Vector{
		LowCellVoltage:       in.MinCellMilliVolts != 0 && in.MinCellMilliVolts < t.MinCellMilliVolts,
		HighCellVoltage:      in.MaxCellMilliVolts > t.MaxCellMilliVolts,
		CellImbalance:        cellImbalance(in.MinCellMilliVolts, in.MaxCellMilliVolts) > t.CellImbalanceMilliVolts,
		LowSoc:               in.SocPct < t.MinSocPct,
		HighChargeCurrent:    in.CurrentA > t.MaxChargeCurrentA,
		HighDischargeCurrent: absFloat(in.CurrentA) > t.MaxDischargeCurrentA,
		CellTemperature:      in.MaxCellTempC > t.MaxCellTempC || in.MinCellTempC < t.MinCellTempC,
		InternalFailure:      in.InternalErrors != 0,
	}

	any := v.Any()
	edge := EdgeNone
	switch {
	case any && !e.previousAny:
		edge = EdgeRising
	case !any && e.previousAny:
		edge = EdgeFalling
	}
	if edge != EdgeNone {
		e.log.Info("any-alarm edge", zap.Bool("asserted", any))
	}
	e.previousAny = any

	return v, edge
}

func cellImbalance(min, max uint16) uint16 {
	if max < min {
		return 0
	}
	return max - min
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
