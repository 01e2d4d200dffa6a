// Package logging holds the process-wide zap logger.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init configures the process logger. Idempotent: only the first call has effect.
func Init(debug bool) {
	once.Do(func() {
		instance = build(debug)
	})
}

// L returns the process logger, initializing a default one if Init was never called.
func L() *zap.Logger {
	if instance == nil {
		Init(false)
	}

	return instance
}

// Named returns a component-scoped logger.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes buffered entries (deferred in main).
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}

	return nil
}

func build(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zap.Must(cfg.Build())
}
