// Package alarm implements the Alarm Engine: a fixed set of boolean alarm
// outputs derived from configurable thresholds and BMS-reported flags, plus
// the single any-alarm relay edge. Adapted from the donor's alarm manager
// (internal/alarm/manager.go) which tracked active-alarm state across a
// worker queue; here the state is a single previous-vector comparison run
// once per publish tick instead of a queued background worker, since the
// whole daemon is single-threaded per tick.
package alarm

import "github.com/spf13/pflag"

// Thresholds holds the configurable alarm limits.
type Thresholds struct {
	MinCellMilliVolts       uint16  `mapstructure:"min-cell-millivolts"`
	MaxCellMilliVolts       uint16  `mapstructure:"max-cell-millivolts"`
	CellImbalanceMilliVolts uint16  `mapstructure:"cell-imbalance-millivolts"`
	MaxCellTempC            float64 `mapstructure:"max-cell-temp-c"`
	MinCellTempC            float64 `mapstructure:"min-cell-temp-c"`
	MaxChargeCurrentA       float64 `mapstructure:"max-charge-current-a"`
	MaxDischargeCurrentA    float64 `mapstructure:"max-discharge-current-a"`
	MinSocPct               uint8   `mapstructure:"min-soc-pct"`
}

// DefaultThresholds returns the factory alarm limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinCellMilliVolts:       2700,
		MaxCellMilliVolts:       3600,
		CellImbalanceMilliVolts: 50,
		MaxCellTempC:            55,
		MinCellTempC:            0,
		MaxChargeCurrentA:       100,
		MaxDischargeCurrentA:    100,
		MinSocPct:               5,
	}
}

// BindThresholdFlags registers one CLI override per threshold on fs.
func BindThresholdFlags(fs *pflag.FlagSet) {
	d := DefaultThresholds()
	fs.Uint16("min-cell-millivolts", d.MinCellMilliVolts, "low cell voltage alarm threshold, mV")
	fs.Uint16("max-cell-millivolts", d.MaxCellMilliVolts, "high cell voltage alarm threshold, mV")
	fs.Uint16("cell-imbalance-millivolts", d.CellImbalanceMilliVolts, "cell imbalance alarm threshold, mV")
	fs.Float64("max-cell-temp-c", d.MaxCellTempC, "high cell temperature alarm threshold, C")
	fs.Float64("min-cell-temp-c", d.MinCellTempC, "low cell temperature alarm threshold, C")
	fs.Float64("max-charge-current-a", d.MaxChargeCurrentA, "high charge current alarm threshold, A")
	fs.Float64("max-discharge-current-a", d.MaxDischargeCurrentA, "high discharge current alarm threshold, A")
	fs.Uint8("min-soc-pct", d.MinSocPct, "low SoC alarm threshold, %")
}
