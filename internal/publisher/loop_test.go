package publisher

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ubmsbridge/internal/alarm"
	"ubmsbridge/internal/battery"
	"ubmsbridge/internal/busadapter"
	"ubmsbridge/internal/canbus"
	"ubmsbridge/internal/relay"
)

func newTestLoop(t *testing.T) (*Loop, *battery.State, *busadapter.Memory) {
	t.Helper()
	cfg, err := battery.NewPackConfig(8, 2, 130, 58)
	require.NoError(t, err)

	state := battery.NewState(cfg)
	aggregator := battery.NewAggregator()
	engine := alarm.NewEngine(alarm.DefaultThresholds(), zap.NewNop())
	bus := busadapter.NewMemory()

	loop := New(state, aggregator, engine, bus, relay.Noop{}, 130, "can0", 0, zap.NewNop())
	require.NoError(t, loop.Start())

	return loop, state, bus
}

func cellFrame(id uint32, mv ...uint16) canbus.Frame {
	var data [8]byte
	for i, v := range mv {
		binary.BigEndian.PutUint16(data[2+i*2:], v)
	}
	return canbus.Frame{ID: id, DLC: uint8(2 + len(mv)*2), Data: data, Timestamp: time.Now()}
}

func feedAllCellsEqual(state *battery.State, mv uint16) {
	decoder := battery.NewDecoder(state, zap.NewNop())
	for m := 0; m < state.Config.NumberOfModules; m++ {
		even := uint32(0x350 + 2*m)
		odd := uint32(0x351 + 2*m)
		decoder.Decode(cellFrame(even, mv, mv, mv))
		decoder.Decode(cellFrame(odd, mv))
	}
}

func TestLoopScenarioAllCellsEqualPublishesPackVoltage(t *testing.T) {
	loop, state, bus := newTestLoop(t)
	feedAllCellsEqual(state, 3300)

	loop.Tick(time.Now())

	assert.Equal(t, 3.300, bus.Value(busadapter.PathSystemMinCellVoltage))
	assert.Equal(t, 3.300, bus.Value(busadapter.PathSystemMaxCellVoltage))
	assert.Equal(t, 0.0, bus.Value(busadapter.PathVoltagesDiff))
	assert.InDelta(t, 105.6, bus.Value(busadapter.PathVoltagesSum).(float64), 0.001)
	assert.InDelta(t, 52.8, bus.Value(busadapter.PathDcVoltage).(float64), 0.001)
	assert.Equal(t, "M1C1", bus.Value(busadapter.PathSystemMinVoltageCellId))
}

func TestLoopScenarioHighVoltageAlarmPublishesMaxCellId(t *testing.T) {
	loop, state, bus := newTestLoop(t)
	feedAllCellsEqual(state, 3300)
	loop.Tick(time.Now())

	// Module 3 (1-based), cell 2 rises to 3650 mV.
	decoder := battery.NewDecoder(state, zap.NewNop())
	decoder.Decode(cellFrame(0x350+2*2, 3300, 3650, 3300))
	decoder.Decode(cellFrame(0x351+2*2, 3300))

	loop.Tick(time.Now())

	assert.Equal(t, 1, bus.Value(busadapter.PathAlarmsHighVoltage))
	assert.Equal(t, "M3C2", bus.Value(busadapter.PathSystemMaxVoltageCellId))
}

func TestLoopConnectedReflectsLiveness(t *testing.T) {
	loop, state, bus := newTestLoop(t)
	loop.Tick(time.Now())
	assert.Equal(t, 0, bus.Value(busadapter.PathConnected))

	state.Liveness.LastFrameTimestamp = time.Now()
	loop.Tick(time.Now())
	assert.Equal(t, 1, bus.Value(busadapter.PathConnected))
}

func TestLoopRegistersAllCellPaths(t *testing.T) {
	_, state, bus := newTestLoop(t)
	lastIdx := state.Config.NumberOfModules * state.Config.CellsPerModule
	assert.Equal(t, 0.0, bus.Value(busadapter.CellPath(lastIdx)))
}

func TestLoopTimeToGoZeroWhenIdle(t *testing.T) {
	loop, _, bus := newTestLoop(t)
	loop.Tick(time.Now())
	assert.Equal(t, 0, bus.Value(busadapter.PathTimeToGo))
}
