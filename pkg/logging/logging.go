// Package logging provides structured logging configuration using zap with
// logfmt encoding. Output goes to stdout for container-friendly logging.
package logging

import (
	"os"
	"strings"

	zaplogfmt "github.com/allir/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration options.
type Config struct {
	// Level specifies the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`
}

// New initializes a zap logger configured to emit logfmt output to stdout at
// the configured level.
func New(cfg Config) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderConfig.ConsoleSeparator = " "

	core := zapcore.NewCore(
		zaplogfmt.NewEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
	)

	return zap.New(core), nil
}

// Component returns a child logger tagged with a component field. All
// long-running parts of the service identify themselves this way.
func Component(logger *zap.Logger, name string) *zap.Logger {
	return logger.With(zap.String("component", name))
}

// parseLevel converts a string level name to a zapcore.Level constant.
// It defaults to info level for empty or unrecognized values.
func parseLevel(v string) zapcore.Level {
	switch strings.ToLower(v) {
	case "debug":
		return zap.DebugLevel
	case "info", "":
		return zap.InfoLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
