package modetx

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"ubmsbridge/internal/battery"
	"ubmsbridge/internal/busadapter"
)

// Module provides the Mode Transmitter and wires the bus's writable /Mode
// path to it.
var Module = fx.Module("modetx",
	fx.Provide(New),
	fx.Invoke(RegisterLifecycle),
)

// RegisterLifecycle starts the cyclic send on OnStart, stops it on OnStop,
// and installs the /Mode write handler.
func RegisterLifecycle(lc fx.Lifecycle, tx *Transmitter, bus busadapter.Bus) {
	bus.OnWrite(busadapter.PathMode, func(value interface{}) error {
		mode, err := toMode(value)
		if err != nil {
			return err
		}
		return tx.SetMode(mode)
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			tx.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			tx.Stop()
			return nil
		},
	})
}

func toMode(value interface{}) (battery.Mode, error) {
	switch v := value.(type) {
	case int:
		return battery.Mode(v), nil
	case int32:
		return battery.Mode(v), nil
	case int64:
		return battery.Mode(v), nil
	case uint8:
		return battery.Mode(v), nil
	default:
		return 0, fmt.Errorf("modetx: unsupported /Mode value type %T", value)
	}
}
