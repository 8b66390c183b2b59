package publisher

// History holds the monotonic lifetime accumulators: each is seeded from the
// first non-zero sample it sees and only ever widens thereafter (minimums
// only fall, maximums only rise). A zero
// sample is treated as "not yet reported" and never participates, matching
// the Battery State's own zero-means-unreported convention.
type History struct {
	MinCellMilliVolts uint16
	MaxCellMilliVolts uint16
	haveCellVoltage   bool

	MinCellTempC  float64
	MaxCellTempC  float64
	haveCellTemp  bool

	MinSoc  uint8
	MaxSoc  uint8
	haveSoc bool
}

// Observe folds one tick's aggregated sample into the accumulators.
func (h *History) Observe(minCellMv, maxCellMv uint16, minTempC, maxTempC float64, soc uint8) {
	if maxCellMv != 0 {
		if !h.haveCellVoltage {
			h.MinCellMilliVolts, h.MaxCellMilliVolts = minCellMv, maxCellMv
			h.haveCellVoltage = true
		} else {
			if minCellMv != 0 && minCellMv < h.MinCellMilliVolts {
				h.MinCellMilliVolts = minCellMv
			}
			if maxCellMv > h.MaxCellMilliVolts {
				h.MaxCellMilliVolts = maxCellMv
			}
		}
	}

	if maxTempC != 0 {
		if !h.haveCellTemp {
			h.MinCellTempC, h.MaxCellTempC = minTempC, maxTempC
			h.haveCellTemp = true
		} else {
			if minTempC < h.MinCellTempC {
				h.MinCellTempC = minTempC
			}
			if maxTempC > h.MaxCellTempC {
				h.MaxCellTempC = maxTempC
			}
		}
	}

	if soc != 0 {
		if !h.haveSoc {
			h.MinSoc, h.MaxSoc = soc, soc
			h.haveSoc = true
		} else {
			if soc < h.MinSoc {
				h.MinSoc = soc
			}
			if soc > h.MaxSoc {
				h.MaxSoc = soc
			}
		}
	}
}
