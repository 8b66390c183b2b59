package busadapter

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

// busItemInterface is the D-Bus interface name the original Victron-style
// drivers export per path.
const busItemInterface = "com.victronenergy.BusItem"

// item is one exported D-Bus object backing a single published path. Its
// exported methods (GetValue/GetText/SetValue) follow the BusItem shape;
// godbus dispatches incoming method calls to them by reflection once the
// item is handed to (*dbus.Conn).Export.
type item struct {
	mu      sync.Mutex
	value   interface{}
	onWrite func(interface{}) error
}

// GetValue implements com.victronenergy.BusItem.GetValue.
func (i *item) GetValue() (dbus.Variant, *dbus.Error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return dbus.MakeVariant(i.value), nil
}

// GetText implements com.victronenergy.BusItem.GetText.
func (i *item) GetText() (string, *dbus.Error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return fmt.Sprintf("%v", i.value), nil
}

// SetValue implements com.victronenergy.BusItem.SetValue for the daemon's
// one writable path (/Mode).
func (i *item) SetValue(v dbus.Variant) (int32, *dbus.Error) {
	i.mu.Lock()
	onWrite := i.onWrite
	i.mu.Unlock()

	if onWrite == nil {
		return 1, dbus.NewError("com.victronenergy.BusItem.ReadOnly", []interface{}{"path is not writable"})
	}
	if err := onWrite(v.Value()); err != nil {
		return 1, dbus.NewError("com.victronenergy.BusItem.Rejected", []interface{}{err.Error()})
	}
	i.mu.Lock()
	i.value = v.Value()
	i.mu.Unlock()
	return 0, nil
}

func (i *item) set(v interface{}) {
	i.mu.Lock()
	i.value = v
	i.mu.Unlock()
}
