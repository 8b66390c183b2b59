// Package busadapter implements the Bus Adapter seam: registering the
// path set once at startup and accepting typed writes from the Publisher
// Loop, plus the one writable path (/Mode) the bus side can set. Production
// implementation is github.com/godbus/dbus/v5 following the
// com.victronenergy.BusItem object shape used by the original driver
// (grounded on the other_examples D-Bus emergency/battery-status drivers);
// a Memory implementation backs tests.
package busadapter

// Bus is the inter-process bus seam. Register declares a path with its
// initial value (called once per path at startup); Write updates a path's
// current value and triggers the bus's own change-notification mechanism.
type Bus interface {
	Register(path string, initial interface{}) error
	Write(path string, value interface{}) error
	// OnWrite installs fn as the handler for bus-originated writes to path
	// (the daemon installs one only for /Mode, so /State is not writable
	// from the bus); fn returning an error
	// rejects the write and leaves the published value unchanged.
	OnWrite(path string, fn func(value interface{}) error)
	Close() error
}
