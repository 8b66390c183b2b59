package publisher

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"ubmsbridge/internal/alarm"
	"ubmsbridge/internal/battery"
	"ubmsbridge/internal/busadapter"
	"ubmsbridge/internal/config"
	"ubmsbridge/internal/relay"
	"ubmsbridge/pkg/ticker"
)

// TickPeriod is the Publisher Loop's fixed cadence.
const TickPeriod = 1 * time.Second

// Module provides the Publisher Loop and starts its 1 Hz tick.
var Module = fx.Module("publisher",
	fx.Provide(ProvideLoop),
	fx.Invoke(RegisterLifecycle),
)

// ProvideLoop wires the Pack Aggregator, Alarm Engine, Bus Adapter, and
// Relay Driver into one Loop.
func ProvideLoop(
	state *battery.State,
	aggregator *battery.Aggregator,
	engine *alarm.Engine,
	bus busadapter.Bus,
	relayDrv relay.Driver,
	cfg *config.Config,
	logger *zap.Logger,
) *Loop {
	return New(state, aggregator, engine, bus, relayDrv, cfg.CapacityAh, cfg.Interface, cfg.DeviceInstance, logger)
}

// RegisterLifecycle registers the bus path set on OnStart and drives the
// coalescing 1 Hz tick for the lifetime of the application.
func RegisterLifecycle(lc fx.Lifecycle, loop *Loop, logger *zap.Logger) {
	log := logger.With(zap.String("component", "publisher"))
	tick := ticker.NewCoalescing(TickPeriod)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := loop.Start(); err != nil {
				return err
			}
			tick.Start(loop.Tick)
			log.Info("publisher loop started", zap.Duration("period", TickPeriod))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			tick.Stop()
			return nil
		},
	})
}
