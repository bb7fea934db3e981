// Package netlink brings the node's network link up before the main loop
// starts and reports the resulting connection details.
package netlink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrJoinFailed = errors.New("network join failed")

var errNotConnected = errors.New("link not connected yet")

type Credentials struct {
	SSID     string
	Password string
}

// Details describes an established link. Zero fields were not reported by the
// backend.
type Details struct {
	SSID           string
	IP             string
	Channel        int
	SignalStrength int // percent
	DNS            string
	Gateway        string
}

// Link is one network backend.
type Link interface {
	// Associate starts joining the network and returns without waiting for
	// the outcome.
	Associate(ctx context.Context, creds Credentials) error
	Connected(ctx context.Context) (bool, error)
	Details(ctx context.Context) (Details, error)
}

type JoinPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p JoinPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0
	var bo backoff.BackOff = b
	if p.MaxAttempts > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(bo, ctx)
}

// Join associates once and then polls the link until it reports connected or
// the policy gives up. The error wraps ErrJoinFailed.
func Join(ctx context.Context, link Link, creds Credentials, policy JoinPolicy, logger *slog.Logger) (Details, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to wifi", "ssid", creds.SSID)

	if err := link.Associate(ctx, creds); err != nil {
		return Details{}, fmt.Errorf("%w: associate: %w", ErrJoinFailed, err)
	}

	attempt := 0
	poll := func() error {
		attempt++
		ok, err := link.Connected(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errNotConnected
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		logger.Debug("waiting for wifi", "attempt", attempt, "next_poll", next, "reason", err)
	}

	if err := backoff.RetryNotify(poll, policy.backOff(ctx), notify); err != nil {
		return Details{}, fmt.Errorf("%w after %d attempts: %w", ErrJoinFailed, attempt, err)
	}

	d, err := link.Details(ctx)
	if err != nil {
		logger.Warn("connected but details unavailable", "error", err)
		d = Details{SSID: creds.SSID}
	}
	if d.SSID == "" {
		d.SSID = creds.SSID
	}
	logger.Info("connected",
		"ssid", d.SSID,
		"ip", d.IP,
		"channel", d.Channel,
		"signal_strength_pct", d.SignalStrength,
		"dns", d.DNS,
		"gateway", d.Gateway,
	)
	return d, nil
}

// ChannelFromFrequency maps a WiFi centre frequency in MHz to its channel
// number, or 0 when the frequency is outside the 2.4 and 5 GHz bands.
func ChannelFromFrequency(mhz int) int {
	switch {
	case mhz == 2484:
		return 14
	case mhz >= 2412 && mhz < 2484:
		return (mhz - 2407) / 5
	case mhz >= 5000 && mhz <= 5900:
		return (mhz - 5000) / 5
	default:
		return 0
	}
}
