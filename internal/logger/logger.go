// Package logger provides the application logger and a bounded ring
// buffer of recent log entries exposed through the diagnostics API.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global application logger. It starts as a no-op logger so
// packages can log safely before Initialize runs (eg. in tests).
var Log = zap.NewNop()

// Ring keeps the most recent log lines for the diagnostics endpoint and
// the debug panel on the view page.
var Ring = NewRingBuffer(256)

// Initialize configures the global logger at the given level. Every
// entry is also mirrored into the ring buffer.
func Initialize(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	zl, err := cfg.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		enc := zapcore.NewJSONEncoder(cfg.EncoderConfig)
		ringCore := zapcore.NewCore(enc, zapcore.AddSync(Ring), lvl)
		return zapcore.NewTee(core, ringCore)
	}))
	if err != nil {
		return err
	}

	Log = zl
	return nil
}
