// Package hw opens the node's sensors and push button on the selected
// hardware backend.
package hw

import (
	"errors"

	"cloudpico-node/internal/sensor"
)

// Button reports whether the push button is currently held down.
type Button interface {
	Pressed() (bool, error)
}

type Board struct {
	Climate sensor.Climate
	Light   sensor.Light
	Button  Button

	closers []func() error
}

// Close releases devices in reverse order of acquisition.
func (b *Board) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

func (b *Board) onClose(fn func() error) {
	b.closers = append(b.closers, fn)
}
