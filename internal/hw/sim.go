//go:build !tinygo

package hw

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cloudpico-node/internal/config"
)

func openSim(cfg config.Config, logger *slog.Logger) *Board {
	btn := NewSimButton(time.Now)
	b := &Board{
		Climate: &simClimate{},
		Light:   &simLight{},
		Button:  btn,
	}
	stop := watchPressSignal(btn, cfg.SimPressDuration, logger)
	b.onClose(func() error {
		stop()
		return nil
	})
	logger.Info("hardware ready", "backend", config.HardwareSim, "press_duration", cfg.SimPressDuration)
	return b
}

// simClimate drifts slowly through a fixed pattern so consecutive cycles are
// distinguishable in the collector.
type simClimate struct {
	mu sync.Mutex
	n  int
}

func (s *simClimate) Temperature(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return 21.5 + float64(s.n%10)/10, nil
}

func (s *simClimate) Humidity(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return 48 + float64(s.n%5), nil
}

type simLight struct {
	mu sync.Mutex
	n  int
}

func (s *simLight) Level(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return 600 + (s.n*37)%200, nil
}

// SimButton reads as pressed until the deadline set by the last Press.
type SimButton struct {
	mu    sync.Mutex
	until time.Time
	now   func() time.Time
}

func NewSimButton(now func() time.Time) *SimButton {
	if now == nil {
		now = time.Now
	}
	return &SimButton{now: now}
}

// Press holds the button down for d.
func (b *SimButton) Press(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.until = b.now().Add(d)
}

func (b *SimButton) Pressed() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now().Before(b.until), nil
}
