// Package battery holds the in-memory state model for a Valence U-BMS pack:
// configuration, per-cell/per-module state, derived pack quantities, and the
// liveness/handshake bookkeeping the decoder maintains as frames arrive.
package battery

import (
	"fmt"
	"time"
)

// PackConfig is immutable after construction.
type PackConfig struct {
	NumberOfModules  int
	NumberOfStrings  int
	CellsPerModule   int
	ModulesInSeries  int
	CapacityAh       float64
	MaxChargeVoltage float64

	// hasPerModuleTemperature is a capability flag discovered at runtime
	// (never user-configured) and latched once true: the BMS either emits
	// 0x76A.. module temperature frames or it doesn't. There is no separate
	// per-cell temperature flag.
	hasPerModuleTemperature bool
}

// NewPackConfig validates N % S == 0, N >= S >= 1, and fixes C == 4.
func NewPackConfig(numberOfModules, numberOfStrings int, capacityAh, maxChargeVoltage float64) (PackConfig, error) {
	if numberOfStrings < 1 {
		return PackConfig{}, fmt.Errorf("battery: numberOfStrings must be >= 1, got %d", numberOfStrings)
	}
	if numberOfModules < numberOfStrings {
		return PackConfig{}, fmt.Errorf("battery: numberOfModules (%d) must be >= numberOfStrings (%d)", numberOfModules, numberOfStrings)
	}
	if numberOfModules%numberOfStrings != 0 {
		return PackConfig{}, fmt.Errorf("battery: numberOfModules (%d) not evenly divisible by numberOfStrings (%d)", numberOfModules, numberOfStrings)
	}
	if capacityAh <= 0 {
		return PackConfig{}, fmt.Errorf("battery: capacityAh must be > 0, got %f", capacityAh)
	}
	if maxChargeVoltage <= 0 {
		return PackConfig{}, fmt.Errorf("battery: maxChargeVoltage must be > 0, got %f", maxChargeVoltage)
	}
	return PackConfig{
		NumberOfModules:  numberOfModules,
		NumberOfStrings:  numberOfStrings,
		CellsPerModule:   4,
		ModulesInSeries:  numberOfModules / numberOfStrings,
		CapacityAh:       capacityAh,
		MaxChargeVoltage: maxChargeVoltage,
	}, nil
}

// HasPerModuleTemperature reports whether any 0x76A.. frame has ever landed.
func (c PackConfig) HasPerModuleTemperature() bool { return c.hasPerModuleTemperature }

// Mode mirrors the BMS operational mode byte.
type Mode uint8

const (
	ModeStandby Mode = 0
	ModeCharge  Mode = 1
	ModeDrive   Mode = 2
)

// CellVoltages is a fixed-size [module][cell] grid in millivolts. A zero
// entry means "not yet reported" and must be excluded from reductions.
type CellVoltages [][]uint16

func newCellVoltages(modules, cellsPerModule int) CellVoltages {
	grid := make(CellVoltages, modules)
	for m := range grid {
		grid[m] = make([]uint16, cellsPerModule)
	}
	return grid
}

// ModuleState holds the per-module fields the decoder populates.
type ModuleState struct {
	VoltageMilliVolts uint16
	Soc               uint8
	TemperatureC       float32
	Current           int16
	LastUpdate        time.Time
}

// PackState holds the fields the Decoder writes directly from pack-level
// frames (0xC0/0xC1/0xC2/0xC4/0x180), plus PackVoltageV, which the
// Aggregator also refreshes on every publish tick. The min/max cell figures
// and per-string sums are returned in Aggregate, not stored here.
type PackState struct {
	Soc      uint8
	Mode     Mode
	BmsState uint8

	FirmwareVersion uint8
	BmsType         uint8
	HardwareRev     uint8

	PackCurrentA float64

	VoltageAndCellTAlarms uint8
	InternalErrors        uint8
	CurrentAndPcbTAlarms  uint8

	NumberOfModulesCommunicating uint8
	NumberOfModulesBalancing     uint8
	ShutdownReason               uint8
	ChargeComplete                bool

	MaxCellTempC float64
	MinCellTempC float64
	MaxPcbTempC  float64

	// MaxCellVoltageV/MinCellVoltageV as reported directly by 0xC4 (BMS's
	// own pack-level extremes). The Aggregator does not read them: its
	// min/max cell figures come only from the per-cell grid.
	MaxCellVoltageV float64
	MinCellVoltageV float64

	MaxChargeCurrentA    float64
	MaxDischargeCurrentA float64

	// PackVoltageV is the last good aggregated pack voltage; retained when
	// a tick's module set is incomplete (see Aggregator.Run).
	PackVoltageV float64
}

// Location names a cell or module position, e.g. "M3C2".
type Location struct {
	ModuleIndex int // 0-based
	CellIndex   int // 0-based; -1 when the location names a whole module
}

// String renders the normative one-based "M{m}C{c}" form.
func (l Location) String() string {
	if l.CellIndex < 0 {
		return fmt.Sprintf("M%dC1", l.ModuleIndex+1)
	}
	return fmt.Sprintf("M%dC%d", l.ModuleIndex+1, l.CellIndex+1)
}

// Numeric renders the lossy m*100+c legacy encoding (documented in
// ambiguous once c >= 10; kept for older bus consumers).
func (l Location) Numeric() int {
	c := l.CellIndex
	if c < 0 {
		c = 0
	}
	return l.ModuleIndex*100 + c
}

// Handshake is a 3-bit accumulator: bit 0x01 = saw 0xC1, 0x02 = saw 0xC0,
// 0x04 = saw 0x180. Connected once all three bits are set.
type Handshake struct {
	bits uint8
}

const (
	handshakeBitC1  = 0x01
	handshakeBitC0  = 0x02
	handshakeBit180 = 0x04
	handshakeAll    = handshakeBitC1 | handshakeBitC0 | handshakeBit180
)

func (h *Handshake) markC0()  { h.bits |= handshakeBitC0 }
func (h *Handshake) markC1()  { h.bits |= handshakeBitC1 }
func (h *Handshake) mark180() { h.bits |= handshakeBit180 }

// Complete reports whether all three expected ids have been observed.
func (h *Handshake) Complete() bool { return h.bits == handshakeAll }

// Liveness tracks the pack-level and per-module freshness of incoming frames.
type Liveness struct {
	LastFrameTimestamp time.Time
	lastModuleUpdate   []time.Time
}

func newLiveness(modules int) Liveness {
	return Liveness{lastModuleUpdate: make([]time.Time, modules)}
}

// ExpectedModuleInterval is 0.6s * ceil(N/3), the per-module SOC/current/
// temperature fan-out period implied by the 7/3/3-modules-per-frame tables.
func (c PackConfig) ExpectedModuleInterval() time.Duration {
	groups := (c.NumberOfModules + 2) / 3
	return time.Duration(float64(groups) * 0.6 * float64(time.Second))
}

// StaleModules returns the 0-based indices of modules whose last update is
// older than 2x the expected interval.
func (l *Liveness) StaleModules(cfg PackConfig, now time.Time) []int {
	threshold := 2 * cfg.ExpectedModuleInterval()
	var stale []int
	for m, t := range l.lastModuleUpdate {
		if t.IsZero() || now.Sub(t) > threshold {
			stale = append(stale, m)
		}
	}
	return stale
}

// Connected reports liveness against the given comms timeout (default 5s).
func (l *Liveness) Connected(now time.Time, commsTimeout time.Duration) bool {
	if l.LastFrameTimestamp.IsZero() {
		return false
	}
	return now.Sub(l.LastFrameTimestamp) < commsTimeout
}

// State is the full in-memory Battery State: config, per-cell grid,
// per-module records, pack-level fields, and the liveness/handshake
// bookkeeping. It is mutated only by the Decoder and read by the
// Aggregator/Publisher Loop once per tick. A single goroutine owns State at
// any given time, so no lock is needed.
type State struct {
	Config PackConfig

	Cells   CellVoltages
	Modules []ModuleState
	Pack    PackState

	Handshake Handshake
	Liveness  Liveness
}

// NewState allocates a zeroed Battery State sized from cfg.
func NewState(cfg PackConfig) *State {
	return &State{
		Config:  cfg,
		Cells:   newCellVoltages(cfg.NumberOfModules, cfg.CellsPerModule),
		Modules: make([]ModuleState, cfg.NumberOfModules),
		Liveness: newLiveness(cfg.NumberOfModules),
	}
}
