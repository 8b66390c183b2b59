package battery

// Aggregate is the Pack Aggregator's output: the pack-wide derived
// quantities computed fresh from the Battery State snapshot on every
// publish tick.
type Aggregate struct {
	PackVoltageV float64

	MinCellMilliVolts uint16
	MaxCellMilliVolts uint16
	MinCellLocation   Location
	MaxCellLocation   Location

	MinCellTempC    float64
	MaxCellTempC    float64
	MinTempLocation Location
	MaxTempLocation Location

	StringVoltageV []float64
}

// Aggregator derives pack-level quantities from a Battery State snapshot.
type Aggregator struct{}

// NewAggregator returns a ready-to-use Aggregator. It holds no state of its
// own: every run is a pure function of the Battery State it is given.
func NewAggregator() *Aggregator { return &Aggregator{} }

// Run computes the Aggregate for the current state, and updates
// state.Pack.PackVoltageV in place: the last good value is retained when any
// in-series module has incomplete cells.
func (a *Aggregator) Run(s *State) Aggregate {
	out := Aggregate{}

	out.PackVoltageV = a.packVoltage(s)
	s.Pack.PackVoltageV = out.PackVoltageV

	out.MinCellMilliVolts, out.MinCellLocation, out.MaxCellMilliVolts, out.MaxCellLocation = a.minMaxCell(s)
	out.MinCellTempC, out.MinTempLocation, out.MaxCellTempC, out.MaxTempLocation = a.minMaxTemp(s)
	out.StringVoltageV = a.stringVoltages(s)

	return out
}

func (a *Aggregator) packVoltage(s *State) float64 {
	var sum uint32
	for m := 0; m < s.Config.ModulesInSeries; m++ {
		cells := s.Cells[m]
		if cells[0] == 0 || cells[1] == 0 || cells[2] == 0 || cells[3] == 0 {
			// Incomplete: retain the last good published value.
			return s.Pack.PackVoltageV
		}
		sum += uint32(cells[0]) + uint32(cells[1]) + uint32(cells[2]) + uint32(cells[3])
	}
	return float64(sum) / 1000.0
}

// minMaxCell scans all [m][c] non-zero entries, tie-breaking by smallest
// (m, c) lexicographically. When no non-zero cell exists, returns (0,
// "M1C1") for both extremes.
func (a *Aggregator) minMaxCell(s *State) (minMv uint16, minLoc Location, maxMv uint16, maxLoc Location) {
	minLoc = Location{0, 0}
	maxLoc = Location{0, 0}
	found := false

	for m, cells := range s.Cells {
		for c, v := range cells {
			if v == 0 {
				continue
			}
			if !found || v < minMv {
				minMv = v
				minLoc = Location{m, c}
			}
			if !found || v > maxMv {
				maxMv = v
				maxLoc = Location{m, c}
			}
			found = true
		}
	}
	return minMv, minLoc, maxMv, maxLoc
}

// minMaxTemp prefers a per-module scan when the BMS has ever emitted 0x76A..
// frames (the closest available granularity to "per-cell" this protocol
// defines), otherwise falls back to the BMS-reported
// pack-level extremes at location "M1C1".
func (a *Aggregator) minMaxTemp(s *State) (minC float64, minLoc Location, maxC float64, maxLoc Location) {
	if !s.Config.HasPerModuleTemperature() {
		return s.Pack.MinCellTempC, Location{0, -1}, s.Pack.MaxCellTempC, Location{0, -1}
	}

	found := false
	for m, mod := range s.Modules {
		if mod.LastUpdate.IsZero() {
			continue
		}
		t := float64(mod.TemperatureC)
		if !found || t < minC {
			minC = t
			minLoc = Location{m, -1}
		}
		if !found || t > maxC {
			maxC = t
			maxLoc = Location{m, -1}
		}
		found = true
	}
	if !found {
		return s.Pack.MinCellTempC, Location{0, -1}, s.Pack.MaxCellTempC, Location{0, -1}
	}
	return minC, minLoc, maxC, maxLoc
}

func (a *Aggregator) stringVoltages(s *State) []float64 {
	sums := make([]float64, s.Config.NumberOfStrings)
	for str := 0; str < s.Config.NumberOfStrings; str++ {
		start := str * s.Config.ModulesInSeries
		end := start + s.Config.ModulesInSeries
		var mv uint32
		for m := start; m < end && m < len(s.Modules); m++ {
			mv += uint32(s.Modules[m].VoltageMilliVolts)
		}
		sums[str] = float64(mv) / 1000.0
	}
	return sums
}
