package battery

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"ubmsbridge/internal/canbus"
)

// HandshakeTimeout is the default per-id wait before the handshake gives up
// and lets the daemon continue in degraded mode.
const HandshakeTimeout = 10 * time.Second

// RunHandshake consumes frames from link, decoding each through decoder,
// until Battery State's Handshake is complete or HandshakeTimeout passes
// without a further expected id being seen; the wait restarts each time a
// new id is observed. It is advisory: a timeout is logged, never an error, and
// decoding continues identically afterwards; Connected simply stays false
// until fresh frames arrive.
func RunHandshake(ctx context.Context, link canbus.Link, decoder *Decoder, state *State, logger *zap.Logger) {
	log := logger.With(zap.String("component", "handshake"))
	deadline := time.NewTimer(HandshakeTimeout)
	defer deadline.Stop()

	for {
		if state.Handshake.Complete() {
			log.Info("handshake complete")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			log.Warn("handshake timed out, continuing in degraded mode", zap.Uint8("bits", state.Handshake.bits))
			return
		case frame, ok := <-link.Frames():
			if !ok {
				return
			}
			before := state.Handshake.bits
			decoder.Decode(frame)
			if state.Handshake.bits != before {
				deadline.Reset(HandshakeTimeout)
			}
			if frame.ID == idCurrentVoltage && frame.DLC > 0 {
				verifyRawPackVoltage(frame.Data[0], state.Config.MaxChargeVoltage, log)
			}
		}
	}
}

// verifyRawPackVoltage checks 0xC1's raw pack-voltage byte against 15% of
// the expected maxChargeVoltage; out-of-range logs an error but never
// blocks the handshake.
func verifyRawPackVoltage(raw byte, maxChargeVoltage float64, log *zap.Logger) {
	expected := 2 * maxChargeVoltage / 2
	tolerance := expected * 0.15
	observed := float64(raw)
	if math.Abs(observed-expected) > tolerance {
		log.Error("0xC1 raw pack voltage outside expected tolerance",
			zap.Float64("observed", observed), zap.Float64("expected", expected))
	}
}
