package relay

// Noop is used when --gpio-relay-pin is unset: alarm edges are tracked but
// no physical line is driven.
type Noop struct{}

// Set implements Driver.
func (Noop) Set(on bool) error { return nil }

// Close implements Driver.
func (Noop) Close() error { return nil }
