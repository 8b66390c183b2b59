package battery

import (
	"time"

	"go.uber.org/zap"

	"ubmsbridge/internal/canbus"
	"ubmsbridge/pkg/utils"
)

// Arbitration id ranges/bases from the frame identifier table.
const (
	idStatus          = 0x0C0
	idCurrentVoltage  = 0x0C1
	idChargeParams    = 0x0C2
	idPackTempExtreme = 0x0C4
	idFirmwareType    = 0x180
	idCellVoltageBase = 0x350
	idCellVoltageTop  = 0x36F
	idModuleSocBase   = 0x06A
	idModuleCurBase   = 0x46A
	idModuleTempBase  = 0x76A
)

// opState maps the 2-bit mode field to the BMS-reported coded state, per
// the earlier revision's opState = {0: 14, 1: 9, 2: 9} table; mode 3 has no
// defined state and is left at the zero value ("unknown").
var opState = map[uint8]uint8{0: 14, 1: 9, 2: 9}

// Decoder applies CAN frames to a Battery State. It performs no I/O; its
// only effect is the field mutations on State. Decode errors are logged and
// never mutate state for the offending frame.
type Decoder struct {
	state *State
	log   *zap.Logger

	// rawModeByte is the unmasked data[1] from the last 0xC0 frame; 0xC2's
	// maxChargeCurrentA branch needs bits the masked Mode field discards.
	rawModeByte uint8

	// rejected is set by reject while the current frame is being decoded, so
	// Decode can skip the liveness update for a frame that was refused.
	rejected bool
}

// NewDecoder returns a Decoder bound to state.
func NewDecoder(state *State, logger *zap.Logger) *Decoder {
	return &Decoder{state: state, log: logger.With(zap.String("component", "decoder"))}
}

// Decode classifies frame.ID and applies its effect. Unknown ids are
// silently ignored.
func (d *Decoder) Decode(frame canbus.Frame) {
	data := frame.Data[:frame.DLC]
	s := d.state
	d.rejected = false

	switch {
	case frame.ID == idStatus:
		d.decodeStatus(data)
	case frame.ID == idCurrentVoltage:
		d.decodeCurrentVoltage(data)
	case frame.ID == idChargeParams:
		d.decodeChargeParams(data)
	case frame.ID == idPackTempExtreme:
		d.decodePackTempExtreme(data)
	case frame.ID == idFirmwareType:
		d.decodeFirmwareType(data)
	case frame.ID >= idCellVoltageBase && frame.ID <= idCellVoltageTop:
		d.decodeCellVoltage(frame.ID, data, frame.Timestamp)
	case frame.ID >= idModuleSocBase && frame.ID < idModuleSocBase+uint32(moduleFrameGroups(s.Config.NumberOfModules, 7)):
		d.decodeModuleSoc(frame.ID, data, frame.Timestamp)
	case frame.ID >= idModuleCurBase && frame.ID < idModuleCurBase+uint32(moduleFrameGroups(s.Config.NumberOfModules, 3)):
		d.decodeModuleCurrent(frame.ID, data, frame.Timestamp)
	case frame.ID >= idModuleTempBase && frame.ID < idModuleTempBase+uint32(moduleFrameGroups(s.Config.NumberOfModules, 3)):
		d.decodeModuleTemperature(frame.ID, data, frame.Timestamp)
	default:
		return
	}

	if d.rejected {
		return
	}
	s.Liveness.LastFrameTimestamp = frame.Timestamp
}

func moduleFrameGroups(modules, perFrame int) int {
	return (modules + perFrame - 1) / perFrame
}

func (d *Decoder) reject(id uint32, reason string, dlc int) {
	d.rejected = true
	d.log.Warn("decode error", zap.Uint32("id", id), zap.String("reason", reason), zap.Int("dlc", dlc))
}

func (d *Decoder) decodeStatus(data []byte) {
	if len(data) < 8 {
		d.reject(idStatus, "short frame", len(data))
		return
	}
	s := &d.state.Pack
	d.rawModeByte = data[1]

	s.Soc = data[0]
	s.Mode = Mode(data[1] & 0x03)
	s.BmsState = opState[uint8(s.Mode)]
	s.VoltageAndCellTAlarms = data[2]
	s.InternalErrors = data[3]
	s.CurrentAndPcbTAlarms = data[4]
	s.NumberOfModulesCommunicating = data[5]
	s.NumberOfModulesBalancing = data[6]
	s.ShutdownReason = data[7]

	d.state.Handshake.markC0()
	// data[2] bit0 clear and data[3] bit1 clear: the reported module count is
	// logged at debug level only. It is not adopted: the cell grid, the
	// module range checks and liveness all keep the module count from
	// PackConfig, and nothing is resized on overrun.
	if data[2]&1 == 0 && data[3]&2 == 0 {
		d.log.Debug("adopting reported module count", zap.Uint8("modules", data[5]))
	}
}

func (d *Decoder) decodeCurrentVoltage(data []byte) {
	if len(data) < 2 {
		d.reject(idCurrentVoltage, "short frame", len(data))
		return
	}
	s := &d.state.Pack
	s.PackCurrentA = float64(int8(data[1]))
	d.state.Handshake.markC1()

	if len(data) >= 8 && s.Mode == ModeDrive {
		s.MaxDischargeCurrentA = float64(utils.FromBytesWithEndianness[int16](data[3:5], true, true) / 10)
		pair := []byte{data[5], data[7]}
		s.MaxChargeCurrentA = float64(utils.FromBytesWithEndianness[int16](pair, true, true) / 10)
	}
}

func (d *Decoder) decodeChargeParams(data []byte) {
	if len(data) < 4 {
		d.reject(idChargeParams, "short frame", len(data))
		return
	}
	s := &d.state.Pack
	if s.Mode != ModeCharge {
		return
	}
	s.ChargeComplete = (data[3]>>2)&1 == 1

	if d.rawModeByte&0x18 == 0x18 {
		s.MaxChargeCurrentA = float64(data[0])
	} else {
		s.MaxChargeCurrentA = d.state.Config.CapacityAh * 0.1
	}
}

func (d *Decoder) decodePackTempExtreme(data []byte) {
	if len(data) < 8 {
		d.reject(idPackTempExtreme, "short frame", len(data))
		return
	}
	s := &d.state.Pack
	s.MaxCellTempC = float64(data[0]) - 40
	s.MinCellTempC = float64(data[1]) - 40
	s.MaxPcbTempC = float64(data[3]) - 40
	s.MaxCellVoltageV = float64(utils.FromBytesWithEndianness[int16](data[4:6], true, true)) * 0.001
	s.MinCellVoltageV = float64(utils.FromBytesWithEndianness[int16](data[6:8], true, true)) * 0.001
}

func (d *Decoder) decodeFirmwareType(data []byte) {
	if len(data) < 5 {
		d.reject(idFirmwareType, "short frame", len(data))
		return
	}
	s := &d.state.Pack
	s.FirmwareVersion = data[0]
	s.BmsType = data[3]
	s.HardwareRev = data[4]
	d.state.Handshake.mark180()
}

func (d *Decoder) decodeCellVoltage(id uint32, data []byte, ts time.Time) {
	even := id%2 == 0
	var m int
	if even {
		m = int((id - idCellVoltageBase) >> 1)
	} else {
		m = int((id - (idCellVoltageBase + 1)) >> 1)
	}
	if m < 0 || m >= d.state.Config.NumberOfModules {
		d.reject(id, "module index out of range", len(data))
		return
	}

	cells := d.state.Cells[m]

	if even {
		if len(data) < 8 {
			d.reject(id, "short frame", len(data))
			return
		}
		c1 := utils.FromBytes[uint16](data[2:4])
		c2 := utils.FromBytes[uint16](data[4:6])
		c3 := utils.FromBytes[uint16](data[6:8])
		vals := []uint16{c1, c2, c3}
		for _, v := range vals {
			if v != 0 && (v < 500 || v > 5000) {
				d.reject(id, "cell value out of range", len(data))
				return
			}
		}
		copy(cells[:3], vals)
	} else {
		if len(data) < 4 {
			d.reject(id, "short frame", len(data))
			return
		}
		c4 := utils.FromBytes[uint16](data[2:4])
		if c4 != 0 && (c4 < 500 || c4 > 5000) {
			d.reject(id, "cell value out of range", len(data))
			return
		}
		cells[3] = c4
	}

	if cells[0] != 0 && cells[1] != 0 && cells[2] != 0 && cells[3] != 0 {
		sum := cells[0] + cells[1] + cells[2] + cells[3]
		d.state.Modules[m].VoltageMilliVolts = sum
	}
	d.state.Modules[m].LastUpdate = ts
	d.state.Liveness.lastModuleUpdate[m] = ts

	if !even && m == d.state.Config.ModulesInSeries-1 {
		d.recomputePackVoltage()
	}
}

// recomputePackVoltage implements the Pack Aggregator's pack-voltage rule
// inline at the point the protocol recomputes it (on the last-in-series odd
// cell frame); Aggregator.Run repeats this same rule each publish tick so
// the published figure always reflects the freshest decode.
func (d *Decoder) recomputePackVoltage() {
	s := d.state
	var sum uint32
	complete := true
	for m := 0; m < s.Config.ModulesInSeries; m++ {
		cells := s.Cells[m]
		if cells[0] == 0 || cells[1] == 0 || cells[2] == 0 || cells[3] == 0 {
			complete = false
			break
		}
		sum += uint32(cells[0]) + uint32(cells[1]) + uint32(cells[2]) + uint32(cells[3])
	}
	if complete {
		s.Pack.PackVoltageV = float64(sum) / 1000.0
	}
}

func (d *Decoder) decodeModuleSoc(id uint32, data []byte, ts time.Time) {
	if len(data) < 2 {
		d.reject(id, "short frame", len(data))
		return
	}
	iStart := int(id-idModuleSocBase) * 7
	raw := data[1:]
	for idx, b := range raw {
		m := iStart + idx
		if m < 0 || m >= len(d.state.Modules) {
			continue
		}
		d.state.Modules[m].Soc = uint8((uint16(b) * 100) >> 8)
		d.state.Modules[m].LastUpdate = ts
		d.state.Liveness.lastModuleUpdate[m] = ts
	}
}

func (d *Decoder) decodeModuleCurrent(id uint32, data []byte, ts time.Time) {
	if len(data) < 4 {
		d.reject(id, "short frame", len(data))
		return
	}
	iStart := int(id-idModuleCurBase) * 3
	n := (len(data) - 2) / 2
	for i := 0; i < n && i < 3; i++ {
		m := iStart + i
		if m < 0 || m >= len(d.state.Modules) {
			continue
		}
		off := 2 + i*2
		d.state.Modules[m].Current = utils.FromBytes[int16](data[off : off+2])
		d.state.Modules[m].LastUpdate = ts
		d.state.Liveness.lastModuleUpdate[m] = ts
	}
}

func (d *Decoder) decodeModuleTemperature(id uint32, data []byte, ts time.Time) {
	if len(data) < 4 {
		d.reject(id, "short frame", len(data))
		return
	}
	iStart := int(id-idModuleTempBase) * 3
	n := (len(data) - 2) / 2
	for i := 0; i < n && i < 3; i++ {
		m := iStart + i
		if m < 0 || m >= len(d.state.Modules) {
			continue
		}
		off := 2 + i*2
		raw := utils.FromBytes[int16](data[off : off+2])
		d.state.Modules[m].TemperatureC = float32(raw) * 0.01
		d.state.Modules[m].LastUpdate = ts
		d.state.Liveness.lastModuleUpdate[m] = ts
	}
	d.state.Config.hasPerModuleTemperature = true
}
