package busadapter

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"ubmsbridge/internal/config"
)

// Module provides the Bus Adapter to the Fx application.
var Module = fx.Module("busadapter",
	fx.Provide(ProvideBus),
	fx.Invoke(RegisterLifecycle),
)

// ProvideBus connects to the system bus and claims the service name for
// cfg's interface/device instance.
func ProvideBus(cfg *config.Config, logger *zap.Logger) (Bus, error) {
	name := ServiceName(cfg.Interface, cfg.DeviceInstance)
	logger.With(zap.String("component", "busadapter")).Info("claiming bus name", zap.String("name", name))
	return NewDBus(name)
}

// RegisterLifecycle closes the Bus connection on shutdown.
func RegisterLifecycle(lc fx.Lifecycle, bus Bus) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return bus.Close()
		},
	})
}
