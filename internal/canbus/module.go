package canbus

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"ubmsbridge/internal/config"
)

// Module provides the Frame Source to the Fx application, mirroring the
// donor's fx.Module("bms", fx.Provide(...), fx.Invoke(...)) shape.
var Module = fx.Module("canbus",
	fx.Provide(ProvideLink),
	fx.Invoke(RegisterLifecycle),
)

// ProvideLink opens the SocketCAN interface named in Config.
func ProvideLink(cfg *config.Config, logger *zap.Logger) (Link, error) {
	log := logger.With(zap.String("component", "canbus"))
	log.Info("opening CAN interface", zap.String("interface", cfg.Interface))
	return NewSocketCAN(cfg.Interface)
}

// RegisterLifecycle stops the Link on shutdown.
func RegisterLifecycle(lc fx.Lifecycle, link Link, logger *zap.Logger) {
	log := logger.With(zap.String("component", "canbus"))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing CAN interface")
			return link.Close()
		},
	})
}
