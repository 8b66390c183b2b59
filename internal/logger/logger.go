package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap.Logger: a human-readable console encoder at debug
// level when debug is set, otherwise a sampled JSON encoder at info level
// suited to a long-running daemon.
func NewLogger(debug bool) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if debug {
		consoleConfig := zap.NewDevelopmentEncoderConfig()
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.AddSync(os.Stdout), zapcore.DebugLevel)
		return zap.New(core), nil
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(os.Stdout), zapcore.InfoLevel)
	samplingCore := zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	return zap.New(samplingCore, zap.ErrorOutput(zapcore.AddSync(os.Stderr))), nil
}
