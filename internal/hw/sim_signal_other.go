//go:build !tinygo && !unix

package hw

import (
	"log/slog"
	"time"
)

func watchPressSignal(_ *SimButton, _ time.Duration, logger *slog.Logger) (stop func()) {
	logger.Warn("simulated presses need SIGUSR1, which this platform lacks")
	return func() {}
}
