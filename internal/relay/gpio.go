package relay

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIO drives a single output line by name (e.g. "GPIO17").
type GPIO struct {
	pin gpio.PinIO
}

// NewGPIO initializes the periph.io host drivers and opens pinName as an
// output, low by default.
func NewGPIO(pinName string) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("relay: host init: %w", err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("relay: no such GPIO pin %q", pinName)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("relay: set %q low: %w", pinName, err)
	}
	return &GPIO{pin: pin}, nil
}

// Set implements Driver.
func (g *GPIO) Set(on bool) error {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	return g.pin.Out(level)
}

// Close implements Driver, leaving the line de-energized.
func (g *GPIO) Close() error {
	return g.pin.Out(gpio.Low)
}
