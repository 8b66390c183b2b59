package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorPackVoltageAllCellsComplete(t *testing.T) {
	cfg, err := NewPackConfig(8, 2, 130, 58)
	require.NoError(t, err)
	s := NewState(cfg)

	for m := 0; m < cfg.ModulesInSeries; m++ {
		s.Cells[m] = []uint16{3300, 3300, 3300, 3300}
		s.Modules[m].VoltageMilliVolts = 13200
	}

	agg := NewAggregator().Run(s)
	assert.Equal(t, 13.2*float64(cfg.ModulesInSeries), agg.PackVoltageV)
}

func TestAggregatorPackVoltageRetainsLastGoodOnIncomplete(t *testing.T) {
	cfg, err := NewPackConfig(8, 2, 130, 58)
	require.NoError(t, err)
	s := NewState(cfg)
	s.Pack.PackVoltageV = 52.8

	agg := NewAggregator().Run(s)
	assert.Equal(t, 52.8, agg.PackVoltageV)
}

func TestAggregatorMinMaxCellVoltage(t *testing.T) {
	cfg, err := NewPackConfig(8, 2, 130, 58)
	require.NoError(t, err)
	s := NewState(cfg)

	for m := range s.Cells {
		s.Cells[m] = []uint16{3300, 3300, 3300, 3300}
	}
	s.Cells[2][1] = 3650

	agg := NewAggregator().Run(s)
	assert.EqualValues(t, 3300, agg.MinCellMilliVolts)
	assert.EqualValues(t, 3650, agg.MaxCellMilliVolts)
	assert.Equal(t, "M3C2", agg.MaxCellLocation.String())
	assert.Equal(t, "M1C1", agg.MinCellLocation.String())
}

func TestAggregatorMinMaxCellVoltageNoneReported(t *testing.T) {
	cfg, err := NewPackConfig(8, 2, 130, 58)
	require.NoError(t, err)
	s := NewState(cfg)

	agg := NewAggregator().Run(s)
	assert.EqualValues(t, 0, agg.MinCellMilliVolts)
	assert.Equal(t, "M1C1", agg.MinCellLocation.String())
}

func TestAggregatorFallsBackToPackLevelTemperature(t *testing.T) {
	cfg, err := NewPackConfig(8, 2, 130, 58)
	require.NoError(t, err)
	s := NewState(cfg)
	s.Pack.MinCellTempC = 10
	s.Pack.MaxCellTempC = 35

	agg := NewAggregator().Run(s)
	assert.Equal(t, 10.0, agg.MinCellTempC)
	assert.Equal(t, 35.0, agg.MaxCellTempC)
	assert.Equal(t, "M1C1", agg.MinTempLocation.String())
}

func TestAggregatorStringVoltages(t *testing.T) {
	cfg, err := NewPackConfig(8, 2, 130, 58)
	require.NoError(t, err)
	s := NewState(cfg)
	for m := range s.Modules {
		s.Modules[m].VoltageMilliVolts = 13200
	}

	agg := NewAggregator().Run(s)
	require.Len(t, agg.StringVoltageV, 2)
	assert.Equal(t, 13.2*float64(cfg.ModulesInSeries), agg.StringVoltageV[0])
}
