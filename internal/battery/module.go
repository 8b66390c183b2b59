package battery

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"ubmsbridge/internal/canbus"
	"ubmsbridge/internal/config"
)

// Module provides the Battery State, Decoder, and Aggregator to the Fx
// application, and runs the frame receive loop for the lifetime of the
// process.
var Module = fx.Module("battery",
	fx.Provide(ProvidePackConfig),
	fx.Provide(ProvideState),
	fx.Provide(ProvideDecoder),
	fx.Provide(NewAggregator),
	fx.Invoke(RegisterLifecycle),
)

// ProvidePackConfig validates the CLI-resolved Config into a PackConfig.
func ProvidePackConfig(cfg *config.Config) (PackConfig, error) {
	return NewPackConfig(cfg.NumberOfModules, cfg.NumberOfStrings, cfg.CapacityAh, cfg.MaxChargeVoltage)
}

// ProvideState allocates the Battery State.
func ProvideState(packCfg PackConfig) *State {
	return NewState(packCfg)
}

// ProvideDecoder binds a Decoder to the shared Battery State.
func ProvideDecoder(state *State, logger *zap.Logger) *Decoder {
	return NewDecoder(state, logger)
}

// RegisterLifecycle starts the handshake + frame receive loop on OnStart and
// cancels it on OnStop.
func RegisterLifecycle(lc fx.Lifecycle, link canbus.Link, decoder *Decoder, state *State, logger *zap.Logger) {
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			go RunReceiveLoop(ctx, link, decoder, state, logger)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			return nil
		},
	})
}
