package alarm

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the Alarm Engine to the Fx application.
var Module = fx.Module("alarm",
	fx.Provide(ProvideEngine),
)

// ProvideEngine constructs the Alarm Engine from the resolved thresholds
// (supplied by the config module).
func ProvideEngine(thresholds Thresholds, logger *zap.Logger) *Engine {
	return NewEngine(thresholds, logger)
}
