package relay

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"ubmsbridge/internal/config"
)

// Module provides the Relay Driver to the Fx application.
var Module = fx.Module("relay",
	fx.Provide(ProvideDriver),
	fx.Invoke(RegisterLifecycle),
)

// ProvideDriver returns a GPIO driver when cfg.GPIORelayPin is set, or Noop
// otherwise.
func ProvideDriver(cfg *config.Config, logger *zap.Logger) (Driver, error) {
	log := logger.With(zap.String("component", "relay"))
	if cfg.GPIORelayPin == "" {
		log.Info("no relay pin configured, alarm relay disabled")
		return Noop{}, nil
	}
	log.Info("opening relay GPIO pin", zap.String("pin", cfg.GPIORelayPin))
	return NewGPIO(cfg.GPIORelayPin)
}

// RegisterLifecycle de-energizes and closes the relay on shutdown.
func RegisterLifecycle(lc fx.Lifecycle, driver Driver) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return driver.Close()
		},
	})
}
