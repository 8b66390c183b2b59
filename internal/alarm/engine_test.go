package alarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestEngineEvaluateThresholds(t *testing.T) {
	e := NewEngine(DefaultThresholds(), zap.NewNop())

	v, edge := e.Evaluate(Inputs{
		MinCellMilliVolts: 3300,
		MaxCellMilliVolts: 3300,
		MinCellTempC:      20,
		MaxCellTempC:      25,
		SocPct:            50,
		CurrentA:           -11,
	})

	assert.False(t, v.Any())
	assert.Equal(t, EdgeNone, edge)

	v, edge = e.Evaluate(Inputs{
		MinCellMilliVolts: 3300,
		MaxCellMilliVolts: 3650,
		MinCellTempC:      20,
		MaxCellTempC:      25,
		SocPct:            50,
		CurrentA:           -11,
	})

	assert.True(t, v.HighCellVoltage)
	assert.True(t, v.Any())
	assert.Equal(t, EdgeRising, edge)

	// Same inputs again: no further edge.
	_, edge = e.Evaluate(Inputs{
		MinCellMilliVolts: 3300,
		MaxCellMilliVolts: 3650,
		MinCellTempC:      20,
		MaxCellTempC:      25,
		SocPct:            50,
		CurrentA:           -11,
	})
	assert.Equal(t, EdgeNone, edge)
}

func TestEngineCellImbalance(t *testing.T) {
	e := NewEngine(DefaultThresholds(), zap.NewNop())
	v, _ := e.Evaluate(Inputs{MinCellMilliVolts: 3300, MaxCellMilliVolts: 3350, SocPct: 50})
	assert.False(t, v.CellImbalance)

	v, _ = e.Evaluate(Inputs{MinCellMilliVolts: 3300, MaxCellMilliVolts: 3300 + 51, SocPct: 50})
	assert.True(t, v.CellImbalance)
}

func TestEngineLowSoc(t *testing.T) {
	e := NewEngine(DefaultThresholds(), zap.NewNop())
	v, _ := e.Evaluate(Inputs{MinCellMilliVolts: 3300, MaxCellMilliVolts: 3300, SocPct: 4})
	assert.True(t, v.LowSoc)
}

func TestEngineInternalFailure(t *testing.T) {
	e := NewEngine(DefaultThresholds(), zap.NewNop())
	v, edge := e.Evaluate(Inputs{MinCellMilliVolts: 3300, MaxCellMilliVolts: 3300, SocPct: 50, InternalErrors: 1})
	assert.True(t, v.InternalFailure)
	assert.Equal(t, EdgeRising, edge)
}
