// Package ticker provides Coalescing, a time.Ticker wrapper that guarantees
// a tick callback never runs concurrently with itself and that a tick
// running long never queues a backlog of pending ticks. The next tick fires
// immediately after the slow one finishes, then resumes its normal period.
// This is plain standard-library wrapping: no example in the donor pack
// offers a scheduler with this coalescing guarantee, so it is built here
// rather than adapted from a third-party library.
package ticker

import "time"

// Coalescing drives fn at period, never overlapping and never piling up
// missed ticks.
type Coalescing struct {
	period time.Duration
	stop   chan struct{}
	done   chan struct{}
}

// NewCoalescing returns a Coalescing ticker; call Start to begin running fn.
func NewCoalescing(period time.Duration) *Coalescing {
	return &Coalescing{
		period: period,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start runs fn once per period on its own goroutine until Stop is called.
// If a call to fn outlasts period, the next tick fires as soon as fn
// returns rather than queuing additional calls.
func (c *Coalescing) Start(fn func(now time.Time)) {
	go func() {
		defer close(c.done)
		t := time.NewTicker(c.period)
		defer t.Stop()
		for {
			select {
			case <-c.stop:
				return
			case now := <-t.C:
				fn(now)
			}
		}
	}()
}

// Stop halts the ticker and waits for any in-flight tick to finish.
func (c *Coalescing) Stop() {
	close(c.stop)
	<-c.done
}
