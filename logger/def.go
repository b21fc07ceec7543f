// Package logger owns the process-wide zap logger. It is initialized once in
// main and read through Log everywhere else; before Init every entry is
// discarded, so library code can log unconditionally.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log = zap.NewNop()
)

// Init builds and installs the service logger. Production mode emits JSON
// for the fleet log collector; debug switches to a console encoder at debug
// level for bench sessions next to the kart.
func Init(debug bool) error {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	zap.ReplaceGlobals(l)
	_ = log.Sync()
	log = l
	return nil
}

// Log returns the current logger.
func Log() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Sync flushes buffered entries; called once on shutdown.
func Sync() { _ = Log().Sync() }
