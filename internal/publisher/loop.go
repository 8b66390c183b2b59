// Package publisher implements the Publisher Loop: the 1 Hz tick that
// snapshots Battery State, runs the Pack Aggregator and Alarm Engine, writes
// the published path set to the Bus Adapter, drives the Relay Driver
// on alarm edges, and folds samples into the monotonic History accumulators.
package publisher

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"ubmsbridge/internal/alarm"
	"ubmsbridge/internal/battery"
	"ubmsbridge/internal/busadapter"
	"ubmsbridge/internal/relay"
)

// DefaultCommsTimeout is the default liveness window.
const DefaultCommsTimeout = 5 * time.Second

const (
	productId      = 0xB004
	productName    = "Valence U-BMS"
	manufacturer   = "Valence"
	processName    = "ubmsbridge"
	processVersion = "1.0"
)

// Snapshot is the last-published view, kept for the diagnostics surface.
type Snapshot struct {
	Pack               battery.PackState
	Aggregate          battery.Aggregate
	Alarms             alarm.Vector
	Connected          bool
	TimeToGo           int
	LastFrameTimestamp time.Time
}

// Loop owns one publish tick's worth of work.
type Loop struct {
	state      *battery.State
	aggregator *battery.Aggregator
	engine     *alarm.Engine
	bus        busadapter.Bus
	relayDrv   relay.Driver

	capacityAh   float64
	iface        string
	deviceInst   int
	commsTimeout time.Duration

	history History

	mu   sync.RWMutex
	last Snapshot

	log *zap.Logger
}

// New returns a ready-to-use Loop; call Start once before the first Tick.
func New(
	state *battery.State,
	aggregator *battery.Aggregator,
	engine *alarm.Engine,
	bus busadapter.Bus,
	relayDrv relay.Driver,
	capacityAh float64,
	iface string,
	deviceInstance int,
	logger *zap.Logger,
) *Loop {
	return &Loop{
		state:        state,
		aggregator:   aggregator,
		engine:       engine,
		bus:          bus,
		relayDrv:     relayDrv,
		capacityAh:   capacityAh,
		iface:        iface,
		deviceInst:   deviceInstance,
		commsTimeout: DefaultCommsTimeout,
		log:          logger.With(zap.String("component", "publisher")),
	}
}

// Start registers the full published path set with its initial values. Must run
// once, before the first Tick.
func (l *Loop) Start() error {
	cfg := l.state.Config
	regs := []struct {
		path    string
		initial interface{}
	}{
		{busadapter.PathMgmtProcessName, processName},
		{busadapter.PathMgmtProcessVersion, processVersion},
		{busadapter.PathMgmtConnection, l.iface},
		{busadapter.PathDeviceInstance, l.deviceInst},
		{busadapter.PathProductId, productId},
		{busadapter.PathProductName, productName},
		{busadapter.PathManufacturer, manufacturer},
		{busadapter.PathFirmwareVersion, 0},
		{busadapter.PathHardwareVersion, 0},
		{busadapter.PathSerial, ""},
		{busadapter.PathConnected, 0},

		{busadapter.PathDcVoltage, 0.0},
		{busadapter.PathDcCurrent, 0.0},
		{busadapter.PathDcPower, 0.0},
		{busadapter.PathDcTemperature, 0.0},
		{busadapter.PathSoc, 0},
		{busadapter.PathSoh, 100},
		{busadapter.PathCapacity, l.capacityAh},
		{busadapter.PathInstalledCap, l.capacityAh},
		{busadapter.PathState, 0},
		{busadapter.PathMode, int(battery.ModeStandby)},
		{busadapter.PathTimeToGo, 0},

		{busadapter.PathInfoMaxChargeCurrent, 0.0},
		{busadapter.PathInfoMaxDischargeCurrent, 0.0},
		{busadapter.PathInfoMaxChargeVoltage, cfg.MaxChargeVoltage},
		{busadapter.PathInfoBatteryLowVoltage, 0.0},

		{busadapter.PathSystemNrOfBatteries, cfg.NumberOfStrings},
		{busadapter.PathSystemNrOfModulesOnline, 0},
		{busadapter.PathSystemNrOfModulesOffline, 0},
		{busadapter.PathSystemNrOfModulesBlockingCharge, 0},
		{busadapter.PathSystemNrOfModulesBlockingDischarge, 0},
		{busadapter.PathSystemNrOfBatteriesBalancing, 0},
		{busadapter.PathSystemBatteriesSeries, cfg.ModulesInSeries},
		{busadapter.PathSystemBatteriesParallel, cfg.NumberOfStrings},
		{busadapter.PathSystemNrOfCellsPerBattery, cfg.CellsPerModule},
		{busadapter.PathSystemMinCellVoltage, 0.0},
		{busadapter.PathSystemMaxCellVoltage, 0.0},
		{busadapter.PathSystemMinVoltageCellId, "M1C1"},
		{busadapter.PathSystemMaxVoltageCellId, "M1C1"},
		{busadapter.PathSystemMinCellTemperature, 0.0},
		{busadapter.PathSystemMaxCellTemperature, 0.0},
		{busadapter.PathSystemMinTemperatureCellId, "M1C1"},
		{busadapter.PathSystemMaxTemperatureCellId, "M1C1"},
		{busadapter.PathSystemMaxPcbTemperature, 0.0},

		{busadapter.PathAlarmsCellImbalance, 0},
		{busadapter.PathAlarmsLowVoltage, 0},
		{busadapter.PathAlarmsHighVoltage, 0},
		{busadapter.PathAlarmsLowSoc, 0},
		{busadapter.PathAlarmsHighDischargeCurrent, 0},
		{busadapter.PathAlarmsHighChargeCurrent, 0},
		{busadapter.PathAlarmsLowTemperature, 0},
		{busadapter.PathAlarmsHighTemperature, 0},
		{busadapter.PathAlarmsInternalFailure, 0},

		{busadapter.PathVoltagesSum, 0.0},
		{busadapter.PathVoltagesDiff, 0.0},

		{busadapter.PathHistoryMinCellVoltage, 0.0},
		{busadapter.PathHistoryMaxCellVoltage, 0.0},
		{busadapter.PathHistoryMinCellTemperature, 0.0},
		{busadapter.PathHistoryMaxCellTemperature, 0.0},
		{busadapter.PathHistoryMinSoc, 0},
		{busadapter.PathHistoryMaxSoc, 0},
		{busadapter.PathHistoryTotalAhDrawn, 0.0},
		{busadapter.PathHistoryChargeCycles, 0},
		{busadapter.PathHistoryTimeSinceLastFullCharge, 0},
	}

	for _, r := range regs {
		if err := l.bus.Register(r.path, r.initial); err != nil {
			return err
		}
	}

	for m := 0; m < cfg.NumberOfModules; m++ {
		for c := 0; c < cfg.CellsPerModule; c++ {
			idx := m*cfg.CellsPerModule + c + 1
			if err := l.bus.Register(busadapter.CellPath(idx), 0.0); err != nil {
				return err
			}
		}
	}

	return nil
}

// Tick runs one publish cycle at wall-clock time now.
func (l *Loop) Tick(now time.Time) {
	agg := l.aggregator.Run(l.state)
	pack := l.state.Pack
	connected := l.state.Liveness.Connected(now, l.commsTimeout)

	vector, edge := l.engine.Evaluate(alarm.Inputs{
		MinCellMilliVolts: agg.MinCellMilliVolts,
		MaxCellMilliVolts: agg.MaxCellMilliVolts,
		MinCellTempC:      agg.MinCellTempC,
		MaxCellTempC:      agg.MaxCellTempC,
		SocPct:            pack.Soc,
		CurrentA:          pack.PackCurrentA,
		InternalErrors:    pack.InternalErrors,
	})

	if edge != alarm.EdgeNone {
		if err := l.relayDrv.Set(edge == alarm.EdgeRising); err != nil {
			l.log.Error("relay set failed", zap.Error(err))
		}
	}

	l.history.Observe(agg.MinCellMilliVolts, agg.MaxCellMilliVolts, agg.MinCellTempC, agg.MaxCellTempC, pack.Soc)
	timeToGo := TimeToGoSeconds(l.capacityAh, pack.Soc, pack.PackCurrentA)

	l.writeAll(pack, agg, vector, connected, timeToGo)

	l.mu.Lock()
	l.last = Snapshot{
		Pack:               pack,
		Aggregate:          agg,
		Alarms:             vector,
		Connected:          connected,
		TimeToGo:           timeToGo,
		LastFrameTimestamp: l.state.Liveness.LastFrameTimestamp,
	}
	l.mu.Unlock()

	if stale := l.state.Liveness.StaleModules(l.state.Config, now); len(stale) > 0 {
		l.log.Warn("stale modules", zap.Ints("modules", stale))
	}
	if !connected {
		l.log.Warn("liveness lost", zap.Time("lastFrame", l.state.Liveness.LastFrameTimestamp))
	}
}

func (l *Loop) writeAll(pack battery.PackState, agg battery.Aggregate, v alarm.Vector, connected bool, timeToGo int) {
	b := l.bus
	connectedInt := 0
	if connected {
		connectedInt = 1
	}

	writes := []struct {
		path  string
		value interface{}
	}{
		{busadapter.PathFirmwareVersion, pack.FirmwareVersion},
		{busadapter.PathHardwareVersion, pack.HardwareRev},
		{busadapter.PathConnected, connectedInt},

		{busadapter.PathDcVoltage, agg.PackVoltageV},
		{busadapter.PathDcCurrent, pack.PackCurrentA},
		{busadapter.PathDcPower, agg.PackVoltageV * pack.PackCurrentA},
		{busadapter.PathDcTemperature, pack.MaxCellTempC},
		{busadapter.PathSoc, pack.Soc},
		{busadapter.PathState, pack.BmsState},
		{busadapter.PathMode, int(pack.Mode)},
		{busadapter.PathTimeToGo, timeToGo},

		{busadapter.PathInfoMaxChargeCurrent, pack.MaxChargeCurrentA},
		{busadapter.PathInfoMaxDischargeCurrent, pack.MaxDischargeCurrentA},

		{busadapter.PathSystemNrOfModulesOnline, int(pack.NumberOfModulesCommunicating)},
		{busadapter.PathSystemNrOfBatteriesBalancing, int(pack.NumberOfModulesBalancing)},
		{busadapter.PathSystemMinCellVoltage, float64(agg.MinCellMilliVolts) / 1000.0},
		{busadapter.PathSystemMaxCellVoltage, float64(agg.MaxCellMilliVolts) / 1000.0},
		{busadapter.PathSystemMinVoltageCellId, agg.MinCellLocation.String()},
		{busadapter.PathSystemMaxVoltageCellId, agg.MaxCellLocation.String()},
		{busadapter.PathSystemMinCellTemperature, agg.MinCellTempC},
		{busadapter.PathSystemMaxCellTemperature, agg.MaxCellTempC},
		{busadapter.PathSystemMinTemperatureCellId, agg.MinTempLocation.String()},
		{busadapter.PathSystemMaxTemperatureCellId, agg.MaxTempLocation.String()},
		{busadapter.PathSystemMaxPcbTemperature, pack.MaxPcbTempC},

		{busadapter.PathAlarmsCellImbalance, boolToInt(v.CellImbalance)},
		{busadapter.PathAlarmsLowVoltage, boolToInt(v.LowCellVoltage)},
		{busadapter.PathAlarmsHighVoltage, boolToInt(v.HighCellVoltage)},
		{busadapter.PathAlarmsLowSoc, boolToInt(v.LowSoc)},
		{busadapter.PathAlarmsHighDischargeCurrent, boolToInt(v.HighDischargeCurrent)},
		{busadapter.PathAlarmsHighChargeCurrent, boolToInt(v.HighChargeCurrent)},
		{busadapter.PathAlarmsLowTemperature, boolToInt(v.CellTemperature)},
		{busadapter.PathAlarmsHighTemperature, boolToInt(v.CellTemperature)},
		{busadapter.PathAlarmsInternalFailure, boolToInt(v.InternalFailure)},

		{busadapter.PathVoltagesSum, sumStringVoltages(agg.StringVoltageV)},
		{busadapter.PathVoltagesDiff, float64(agg.MaxCellMilliVolts-agg.MinCellMilliVolts) / 1000.0},

		{busadapter.PathHistoryMinCellVoltage, float64(l.history.MinCellMilliVolts) / 1000.0},
		{busadapter.PathHistoryMaxCellVoltage, float64(l.history.MaxCellMilliVolts) / 1000.0},
		{busadapter.PathHistoryMinCellTemperature, l.history.MinCellTempC},
		{busadapter.PathHistoryMaxCellTemperature, l.history.MaxCellTempC},
		{busadapter.PathHistoryMinSoc, l.history.MinSoc},
		{busadapter.PathHistoryMaxSoc, l.history.MaxSoc},
	}

	for _, w := range writes {
		if err := b.Write(w.path, w.value); err != nil {
			l.log.Error("bus write failed", zap.String("path", w.path), zap.Error(err))
		}
	}

	cfg := l.state.Config
	for m := 0; m < cfg.NumberOfModules; m++ {
		for c := 0; c < cfg.CellsPerModule; c++ {
			idx := m*cfg.CellsPerModule + c + 1
			mv := l.state.Cells[m][c]
			if err := b.Write(busadapter.CellPath(idx), float64(mv)/1000.0); err != nil {
				l.log.Error("bus write failed", zap.String("path", busadapter.CellPath(idx)), zap.Error(err))
			}
		}
	}
}

// Last returns the most recently published snapshot, for the diagnostics
// surface. Safe to call from any goroutine.
func (l *Loop) Last() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sumStringVoltages totals per-string module-voltage sums into the pack-wide
// /Voltages/Sum figure (all cells across all strings, distinct from the
// series-only /Dc/0/Voltage).
func sumStringVoltages(strings []float64) float64 {
	var total float64
	for _, s := range strings {
		total += s
	}
	return total
}
