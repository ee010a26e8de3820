package util

import (
	"time"

	"go.uber.org/zap"
)

// Trace logs the time elapsed between the call and the returned func.
//
//	defer util.Trace(logger, "remove")()
func Trace(logger *zap.Logger, name string) func() {
	start := time.Now()
	return func() {
		logger.Debug("trace", zap.String("name", name), zap.Duration("elapsed", time.Since(start)))
	}
}
