//go:build !tinygo && unix

package hw

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// watchPressSignal presses btn for d each time the process receives SIGUSR1.
func watchPressSignal(btn *SimButton, d time.Duration, logger *slog.Logger) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ch:
				logger.Debug("simulated press", "duration", d)
				btn.Press(d)
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
