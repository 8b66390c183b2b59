package modetx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ubmsbridge/internal/battery"
	"ubmsbridge/internal/canbus"
)

func TestTransmitterRefusesDirectChargeDriveTransition(t *testing.T) {
	link := canbus.NewFake(1)
	tx := New(link, zap.NewNop())

	require.NoError(t, tx.SetMode(battery.ModeCharge))
	err := tx.SetMode(battery.ModeDrive)
	assert.Error(t, err)
	assert.Equal(t, battery.ModeCharge, tx.Mode())
}

func TestTransmitterAllowsTransitionViaStandby(t *testing.T) {
	link := canbus.NewFake(1)
	tx := New(link, zap.NewNop())

	require.NoError(t, tx.SetMode(battery.ModeDrive))
	require.NoError(t, tx.SetMode(battery.ModeStandby))
	require.NoError(t, tx.SetMode(battery.ModeCharge))
	assert.Equal(t, battery.ModeCharge, tx.Mode())
}

func TestTransmitterRejectsInvalidMode(t *testing.T) {
	link := canbus.NewFake(1)
	tx := New(link, zap.NewNop())
	assert.Error(t, tx.SetMode(battery.Mode(7)))
}

func TestTransmitterSendsCyclicFrame(t *testing.T) {
	link := canbus.NewFake(1)
	tx := New(link, zap.NewNop())
	require.NoError(t, tx.SetMode(battery.ModeDrive))

	tx.sendOnce()
	require.Len(t, link.Sent, 1)
	assert.Equal(t, uint32(FrameID), link.Sent[0].ID)
	assert.Equal(t, uint8(battery.ModeDrive), link.Sent[0].Data[1])

	tx.Start()
	time.Sleep(50 * time.Millisecond)
	tx.Stop()
}
