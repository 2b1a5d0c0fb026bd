// Package logger owns the process-wide zap logger used across the engine.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Init builds and installs the global logger. Debug switches to the
// development encoder with debug-level output.
func Init(debug bool) (*zap.Logger, error) {
	var (
		built *zap.Logger
		err   error
	)
	if debug {
		built, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		built, err = cfg.Build()
	}
	if err != nil {
		return nil, err
	}
	Replace(built)
	return built, nil
}

// Replace installs a prepared logger, usually from tests or embedding hosts.
func Replace(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	base = l
	mu.Unlock()
}

// L returns the current global logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Named returns the global logger scoped to a component name.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes buffered log entries.
func Sync() error {
	return L().Sync()
}
