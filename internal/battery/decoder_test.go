package battery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ubmsbridge/internal/canbus"
)

func testPackConfig(t *testing.T) PackConfig {
	t.Helper()
	cfg, err := NewPackConfig(8, 2, 130, 58)
	require.NoError(t, err)
	return cfg
}

func TestDecodeStatusFrame(t *testing.T) {
	s := NewState(testPackConfig(t))
	d := NewDecoder(s, zap.NewNop())

	d.Decode(canbus.Frame{
		ID:        idStatus,
		DLC:       8,
		Data:      [8]byte{50, 2, 0, 0, 0, 8, 0, 0},
		Timestamp: time.Now(),
	})

	assert.EqualValues(t, 50, s.Pack.Soc)
	assert.Equal(t, ModeDrive, s.Pack.Mode)
	assert.EqualValues(t, 9, s.Pack.BmsState)
	assert.EqualValues(t, 8, s.Pack.NumberOfModulesCommunicating)
	assert.True(t, s.Handshake.bits&handshakeBitC0 != 0)
}

func TestDecodeCurrentVoltageFrame(t *testing.T) {
	s := NewState(testPackConfig(t))
	d := NewDecoder(s, zap.NewNop())

	d.Decode(canbus.Frame{
		ID:        idCurrentVoltage,
		DLC:       8,
		Data:      [8]byte{26, 0xF5, 0, 0, 0, 0, 0, 0},
		Timestamp: time.Now(),
	})

	assert.Equal(t, -11.0, s.Pack.PackCurrentA)
}

func TestDecodeCellVoltageEvenOddRecomputesModuleVoltage(t *testing.T) {
	s := NewState(testPackConfig(t))
	d := NewDecoder(s, zap.NewNop())

	even := canbus.Frame{ID: idCellVoltageBase, DLC: 8, Timestamp: time.Now()}
	even.Data[2], even.Data[3] = 0x0C, 0xE4 // 3300 big-endian
	even.Data[4], even.Data[5] = 0x0C, 0xE4
	even.Data[6], even.Data[7] = 0x0C, 0xE4
	d.Decode(even)

	odd := canbus.Frame{ID: idCellVoltageBase + 1, DLC: 4, Timestamp: time.Now()}
	odd.Data[2], odd.Data[3] = 0x0C, 0xE4
	d.Decode(odd)

	assert.EqualValues(t, 3300, s.Cells[0][0])
	assert.EqualValues(t, 3300, s.Cells[0][3])
	assert.EqualValues(t, 13200, s.Modules[0].VoltageMilliVolts)
}

func TestDecodeCellVoltageRejectsOutOfRange(t *testing.T) {
	s := NewState(testPackConfig(t))
	d := NewDecoder(s, zap.NewNop())

	f := canbus.Frame{ID: idCellVoltageBase, DLC: 8, Timestamp: time.Now()}
	f.Data[2], f.Data[3] = 0x27, 0x10 // 10000 mV, out of 500..5000 range
	d.Decode(f)

	assert.EqualValues(t, 0, s.Cells[0][0])
}

func TestDecodeModuleSocFanOut(t *testing.T) {
	cfg, err := NewPackConfig(16, 4, 130, 58)
	require.NoError(t, err)
	s := NewState(cfg)
	d := NewDecoder(s, zap.NewNop())

	f := canbus.Frame{ID: idModuleSocBase, DLC: 8, Timestamp: time.Now()}
	for i := range f.Data[1:] {
		f.Data[1+i] = byte(128) // (128*100)>>8 == 50
	}
	d.Decode(f)

	for m := 0; m < 7; m++ {
		assert.EqualValues(t, 50, s.Modules[m].Soc)
	}
}

func TestDecodeShortFrameRejectedWithoutMutation(t *testing.T) {
	s := NewState(testPackConfig(t))
	d := NewDecoder(s, zap.NewNop())

	d.Decode(canbus.Frame{ID: idStatus, DLC: 3, Data: [8]byte{1, 2, 3}, Timestamp: time.Now()})

	assert.EqualValues(t, 0, s.Pack.Soc)
}

func TestDecodeIsIdempotent(t *testing.T) {
	s := NewState(testPackConfig(t))
	d := NewDecoder(s, zap.NewNop())

	f := canbus.Frame{ID: idStatus, DLC: 8, Data: [8]byte{50, 2, 0, 0, 0, 8, 0, 0}, Timestamp: time.Now()}
	d.Decode(f)
	first := s.Pack
	d.Decode(f)

	assert.Equal(t, first, s.Pack)
}
