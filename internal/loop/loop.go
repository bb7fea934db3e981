// Package loop runs the button state machine. It imports nothing beyond the
// standard library so the same loop drives both the host node and the TinyGo
// firmware.
package loop

import (
	"context"
	"log/slog"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateTriggered
	StateWaitRelease
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTriggered:
		return "triggered"
	case StateWaitRelease:
		return "wait_release"
	default:
		return "unknown"
	}
}

// Button reports whether the push button is currently held down.
type Button interface {
	Pressed() (bool, error)
}

// Cycle is the work done once per press, after the debounce delay.
type Cycle func(ctx context.Context)

type Config struct {
	PollInterval        time.Duration
	Debounce            time.Duration
	ReleasePollInterval time.Duration

	OnPress func() // optional
}

// Loop polls the button and runs one cycle per press.
type Loop struct {
	button Button
	cycle  Cycle
	cfg    Config
	logger *slog.Logger

	state       State
	buttonFault bool

	sleep func(ctx context.Context, d time.Duration) error
}

func New(button Button, cycle Cycle, cfg Config, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		button: button,
		cycle:  cycle,
		cfg:    cfg,
		logger: logger,
		state:  StateIdle,
		sleep:  sleepCtx,
	}
}

func (l *Loop) State() State { return l.state }

// Run blocks until ctx is done and returns its error.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("waiting for button", "poll_interval", l.cfg.PollInterval)
	for {
		if err := l.step(ctx); err != nil {
			return err
		}
	}
}

func (l *Loop) step(ctx context.Context) error {
	switch l.state {
	case StateIdle:
		if !l.pressed(ctx) {
			return l.sleep(ctx, l.cfg.PollInterval)
		}
		if l.cfg.OnPress != nil {
			l.cfg.OnPress()
		}
		l.logger.InfoContext(ctx, "button pressed")
		l.state = StateTriggered
		return l.sleep(ctx, l.cfg.Debounce)

	case StateTriggered:
		l.cycle(ctx)
		l.state = StateWaitRelease
		return ctx.Err()

	case StateWaitRelease:
		if l.pressed(ctx) {
			return l.sleep(ctx, l.cfg.ReleasePollInterval)
		}
		l.logger.DebugContext(ctx, "button released")
		l.state = StateIdle
		return l.sleep(ctx, l.cfg.PollInterval)
	}
	return nil
}

// pressed treats a failing button read as released and logs only the first
// failure of a run of them.
func (l *Loop) pressed(ctx context.Context) bool {
	p, err := l.button.Pressed()
	if err != nil {
		if !l.buttonFault {
			l.logger.WarnContext(ctx, "button read failed", "error", err)
			l.buttonFault = true
		}
		return false
	}
	if l.buttonFault {
		l.logger.InfoContext(ctx, "button read recovered")
		l.buttonFault = false
	}
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
