package logger

import (
	"go.uber.org/zap"
)

// Log is the shared application logger. Call Init before use.
var Log *zap.Logger

// Init sets up the global logger. Safe to call more than once.
func Init() {
	if Log != nil {
		return
	}
	config := zap.NewDevelopmentConfig()
	config.DisableStacktrace = true
	logger, err := config.Build()
	if err != nil {
		// Fall back to a no-op logger rather than crashing the host
		Log = zap.NewNop()
		return
	}
	Log = logger
}
