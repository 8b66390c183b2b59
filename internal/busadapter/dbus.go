package busadapter

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

// DBus is the production Bus, backed by github.com/godbus/dbus/v5. Each
// registered path becomes its own exported object implementing
// com.victronenergy.BusItem, matching the shape the original dbus_ubms.py
// driver used (BatteryValue(dbus.service.Object) per path).
type DBus struct {
	conn *dbus.Conn

	mu    sync.Mutex
	items map[string]*item
}

// NewDBus connects to the system bus and claims serviceName. A name
// collision (another instance already running) is a bus registration error
// and is returned rather than retried.
func NewDBus(serviceName string) (*DBus, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("busadapter: connect to system bus: %w", err)
	}

	reply, err := conn.RequestName(serviceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("busadapter: request name %s: %w", serviceName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("busadapter: name %s already taken", serviceName)
	}

	return &DBus{conn: conn, items: make(map[string]*item)}, nil
}

// Register implements Bus.
func (b *DBus) Register(path string, initial interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	it := &item{value: initial}
	objPath := dbus.ObjectPath(path)
	if !objPath.IsValid() {
		return fmt.Errorf("busadapter: invalid object path %q", path)
	}
	if err := b.conn.Export(it, objPath, busItemInterface); err != nil {
		return fmt.Errorf("busadapter: export %s: %w", path, err)
	}
	b.items[path] = it
	return nil
}

// Write implements Bus: it updates the item's value and emits a change
// notification signal, mirroring the original driver's GLib timeout_add
// publish step.
func (b *DBus) Write(path string, value interface{}) error {
	b.mu.Lock()
	it, ok := b.items[path]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("busadapter: write to unregistered path %s", path)
	}
	it.set(value)
	return b.conn.Emit(dbus.ObjectPath(path), busItemInterface+".PropertiesChanged", value)
}

// OnWrite implements Bus.
func (b *DBus) OnWrite(path string, fn func(value interface{}) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if it, ok := b.items[path]; ok {
		it.onWrite = fn
	}
}

// Close implements Bus.
func (b *DBus) Close() error {
	return b.conn.Close()
}
