package main

import (
	"go.uber.org/fx"

	"ubmsbridge/internal/alarm"
	"ubmsbridge/internal/battery"
	"ubmsbridge/internal/busadapter"
	"ubmsbridge/internal/canbus"
	"ubmsbridge/internal/config"
	"ubmsbridge/internal/diagnostics"
	"ubmsbridge/internal/logger"
	"ubmsbridge/internal/modetx"
	"ubmsbridge/internal/publisher"
	"ubmsbridge/internal/relay"
)

func main() {
	app := fx.New(
		// Configuration
		config.Module,

		// Logging
		logger.Module,
		logger.FxLogger,

		// Frame Source
		canbus.Module,

		// Battery State + Decoder + Pack Aggregator
		battery.Module,

		// Alarm Engine
		alarm.Module,

		// Bus Adapter
		busadapter.Module,

		// Relay Driver
		relay.Module,

		// Mode Transmitter
		modetx.Module,

		// Publisher Loop
		publisher.Module,

		// Diagnostics (optional)
		diagnostics.Module,
	)

	app.Run()
}
