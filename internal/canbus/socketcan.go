package canbus

import (
	"fmt"
	"time"

	"github.com/brutella/can"
)

// SocketCAN is the production Link, backed by github.com/brutella/can.
// Receive dispatch happens on the library's own reader goroutine (see
// can.Bus.ConnectAndPublish), so frames are handed off through a bounded
// channel rather than touched directly from that goroutine, giving the SPSC
// hand-off the cooperative concurrency model requires.
type SocketCAN struct {
	bus    *can.Bus
	frames chan Frame
	done   chan struct{}
}

// NewSocketCAN opens interfaceName (e.g. "can0") and starts receiving.
// Bring-up of the bitrate/link-up is an external concern (ip link set up);
// this only opens the already-up SocketCAN interface.
func NewSocketCAN(interfaceName string) (*SocketCAN, error) {
	bus, err := can.NewBusForInterfaceWithName(interfaceName)
	if err != nil {
		return nil, fmt.Errorf("canbus: open %s: %w", interfaceName, err)
	}

	s := &SocketCAN{
		bus:    bus,
		frames: make(chan Frame, 256),
		done:   make(chan struct{}),
	}

	bus.SubscribeFunc(s.onFrame)

	go func() {
		// ConnectAndPublish blocks until Disconnect is called or the socket
		// errors out; errors here are transient CAN I/O
		// and are not surfaced as fatal.
		_ = bus.ConnectAndPublish()
	}()

	return s, nil
}

func (s *SocketCAN) onFrame(frm can.Frame) {
	f := Frame{
		ID:        frm.ID,
		DLC:       frm.Length,
		Timestamp: time.Now(),
	}
	copy(f.Data[:], frm.Data[:])
	select {
	case s.frames <- f:
	default:
		// Channel full: drop and let the next tick's liveness check surface
		// the gap rather than blocking the library's reader goroutine.
	}
}

// Frames implements Link.
func (s *SocketCAN) Frames() <-chan Frame { return s.frames }

// Send implements Link. can.Bus.Publish writes to the socket directly; on a
// healthy link this returns in well under a millisecond.
func (s *SocketCAN) Send(f Frame) error {
	frm := can.Frame{
		ID:     f.ID,
		Length: f.DLC,
	}
	copy(frm.Data[:], f.Data[:])
	return s.bus.Publish(frm)
}

// Close implements Link.
func (s *SocketCAN) Close() error {
	close(s.done)
	return s.bus.Disconnect()
}
