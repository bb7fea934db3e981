package loop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedButton replays samples in order and reads released afterwards.
type scriptedButton struct {
	samples []bool
	err     error
	reads   int
}

func (b *scriptedButton) Pressed() (bool, error) {
	b.reads++
	if b.err != nil {
		return false, b.err
	}
	if len(b.samples) == 0 {
		return false, nil
	}
	p := b.samples[0]
	b.samples = b.samples[1:]
	return p, nil
}

type countingCycle struct {
	mu sync.Mutex
	n  int
}

func (c *countingCycle) run(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

type countHandler struct {
	mu   sync.Mutex
	msgs []string
}

func (h *countHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *countHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, r.Message)
	return nil
}

func (h *countHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *countHandler) WithGroup(string) slog.Handler { return h }

func (h *countHandler) count(msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.msgs {
		if m == msg {
			n++
		}
	}
	return n
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var testConfig = Config{
	PollInterval:        400 * time.Millisecond,
	Debounce:            200 * time.Millisecond,
	ReleasePollInterval: 10 * time.Millisecond,
}

// runLoop runs the loop for a fixed number of sleeps and returns the sleep
// durations it asked for.
func runLoop(t *testing.T, l *Loop, sleeps int) []time.Duration {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []time.Duration
	l.sleep = func(ctx context.Context, d time.Duration) error {
		got = append(got, d)
		if len(got) >= sleeps {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	err := l.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	return got
}

func TestLoop_SinglePress(t *testing.T) {
	btn := &scriptedButton{samples: []bool{false, true, true, true, false}}
	cyc := &countingCycle{}
	presses := 0
	cfg := testConfig
	cfg.OnPress = func() { presses++ }
	l := New(btn, cyc.run, cfg, discard())

	sleeps := runLoop(t, l, 10)

	assert.Equal(t, 1, cyc.n)
	assert.Equal(t, 1, presses)
	assert.Equal(t, []time.Duration{
		400 * time.Millisecond, // idle
		200 * time.Millisecond, // debounce
		10 * time.Millisecond,  // held
		10 * time.Millisecond,  // held
		400 * time.Millisecond, // released
	}, sleeps[:5])
	assert.Equal(t, StateIdle, l.State())
}

func TestLoop_ShortPressTransmitsOnce(t *testing.T) {
	// Pressed for a single sample, released before the debounce delay ends.
	btn := &scriptedButton{samples: []bool{true}}
	cyc := &countingCycle{}
	l := New(btn, cyc.run, testConfig, discard())

	runLoop(t, l, 20)
	assert.Equal(t, 1, cyc.n)
}

func TestLoop_HeldButtonTransmitsOnce(t *testing.T) {
	samples := make([]bool, 50)
	for i := range samples {
		samples[i] = true
	}
	btn := &scriptedButton{samples: samples}
	cyc := &countingCycle{}
	l := New(btn, cyc.run, testConfig, discard())

	runLoop(t, l, 40)
	assert.Equal(t, 1, cyc.n)
	assert.Equal(t, StateWaitRelease, l.State())
}

func TestLoop_RepeatedPresses(t *testing.T) {
	btn := &scriptedButton{samples: []bool{true, false, false, true, false, true, true, false}}
	cyc := &countingCycle{}
	l := New(btn, cyc.run, testConfig, discard())

	runLoop(t, l, 30)
	assert.Equal(t, 3, cyc.n)
}

func TestLoop_ButtonErrorReadsAsReleased(t *testing.T) {
	btn := &scriptedButton{err: errors.New("gpio: permission denied")}
	cyc := &countingCycle{}
	h := &countHandler{}
	l := New(btn, cyc.run, testConfig, slog.New(h))

	runLoop(t, l, 5)

	assert.Zero(t, cyc.n)
	assert.Equal(t, 1, h.count("button read failed"), "a run of failures is logged once")
	assert.Equal(t, 5, btn.reads)
}

func TestSleepCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
	require.NoError(t, sleepCtx(context.Background(), time.Millisecond))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "triggered", StateTriggered.String())
	assert.Equal(t, "wait_release", StateWaitRelease.String())
}
