// Package relay implements the optional Relay Driver seam: a single output
// line toggled on alarm edges. Production implementation wraps
// periph.io/x/conn/v3/gpio over a Linux SBC GPIO line (grounded on the
// periph.io host.Init()/registry pattern used for I2C in
// frostdev-ops-pma-backend-go's internal/adapters/ups/i2c_client.go, adapted
// here from an i2creg bus lookup to a gpioreg pin lookup); a Noop
// implementation is used when no pin is configured.
package relay

// Driver is a single boolean output line.
type Driver interface {
	Set(on bool) error
	Close() error
}
