package config

import (
	"os"

	"go.uber.org/fx"

	"ubmsbridge/internal/alarm"
)

// Module provides configuration to the Fx application
var Module = fx.Module("config",
	fx.Provide(ProvideConfig),
	fx.Provide(ProvideThresholds),
)

// ProvideThresholds exposes the resolved alarm thresholds on their own, so
// the alarm package does not import config.
func ProvideThresholds(cfg *Config) alarm.Thresholds {
	return cfg.Thresholds
}

// ProvideConfig loads and provides the application configuration from the
// process's command-line arguments.
func ProvideConfig() (*Config, error) {
	return Load(os.Args[1:])
}
