package battery

import (
	"context"

	"go.uber.org/zap"

	"ubmsbridge/internal/canbus"
)

// RunReceiveLoop runs the handshake once, then continuously decodes frames
// from link until ctx is cancelled. This is the Decoder's half of the
// single-producer/single-consumer hand-off needed when the frame source
// delivers frames on its own goroutine.
func RunReceiveLoop(ctx context.Context, link canbus.Link, decoder *Decoder, state *State, logger *zap.Logger) {
	log := logger.With(zap.String("component", "receiver"))
	RunHandshake(ctx, link, decoder, state, logger)

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-link.Frames():
			if !ok {
				log.Warn("frame source closed")
				return
			}
			decoder.Decode(frame)
		}
	}
}
