// Package modetx implements the Mode Transmitter: an outgoing 1 Hz
// CAN frame on id 0x440 that keeps the BMS in the requested operational
// mode, with transitions between Charge and Drive only permitted via
// Standby.
package modetx

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ubmsbridge/internal/battery"
	"ubmsbridge/internal/canbus"
)

// FrameID is the outgoing mode-set arbitration id.
const FrameID = 0x440

// Period is the cyclic send rate.
const Period = 1 * time.Second

// Transmitter holds the currently requested mode and cyclically sends it.
// A single goroutine owns the send ticker, so no lock is needed there, but
// SetMode can be called concurrently (e.g. from a bus write handler) so the
// mode field itself is guarded.
type Transmitter struct {
	link canbus.Link
	log  *zap.Logger

	mu   sync.Mutex
	mode battery.Mode

	stop chan struct{}
	done chan struct{}
}

// New returns a Transmitter that will send Standby until SetMode is called.
func New(link canbus.Link, logger *zap.Logger) *Transmitter {
	return &Transmitter{
		link: link,
		log:  logger.With(zap.String("component", "mode_transmitter")),
		mode: battery.ModeStandby,
	}
}

// SetMode validates and applies a mode transition. Direct Charge<->Drive
// transitions are refused; all other transitions (including through
// Standby) succeed.
func (t *Transmitter) SetMode(m battery.Mode) error {
	if m != battery.ModeStandby && m != battery.ModeCharge && m != battery.ModeDrive {
		return fmt.Errorf("modetx: invalid mode %d", m)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if (t.mode == battery.ModeCharge && m == battery.ModeDrive) ||
		(t.mode == battery.ModeDrive && m == battery.ModeCharge) {
		return fmt.Errorf("modetx: direct transition %d->%d refused, route through Standby", t.mode, m)
	}

	t.mode = m
	t.log.Info("mode set", zap.Uint8("mode", uint8(m)))
	return nil
}

// Mode returns the currently requested mode.
func (t *Transmitter) Mode() battery.Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Start begins the 1 Hz cyclic send on its own goroutine. Stop halts it.
func (t *Transmitter) Start() {
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.run()
}

func (t *Transmitter) run() {
	defer close(t.done)
	ticker := time.NewTicker(Period)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.sendOnce()
		}
	}
}

func (t *Transmitter) sendOnce() {
	mode := t.Mode()
	frame := canbus.Frame{
		ID:   FrameID,
		DLC:  4,
		Data: [8]byte{0, uint8(mode), 0, 0},
	}
	if err := t.link.Send(frame); err != nil {
		t.log.Error("mode frame send failed", zap.Error(err))
	}
}

// Stop halts the cyclic send task and waits for it to exit.
func (t *Transmitter) Stop() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
}

