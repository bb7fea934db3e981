//go:build tinygo

// Command firmware runs the button loop on a Pico board. The board has no
// network stack, so each press logs the reading on the USB serial console.
package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"cloudpico-node/internal/config"
	"cloudpico-node/internal/hw"
	"cloudpico-node/internal/loop"
	"cloudpico-node/internal/sensor"
)

func main() {
	// USB serial needs a moment to enumerate before the first line.
	time.Sleep(2 * time.Second)

	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With("app", "firmware")

	board, err := hw.Open(config.Config{}, logger)
	if err != nil {
		logger.Error("hardware init failed", "error", err)
		for {
			time.Sleep(time.Second)
		}
	}

	reader := sensor.NewReader(board.Climate, board.Light, logger)
	l := loop.New(board.Button, reader.Report, loop.Config{
		PollInterval:        400 * time.Millisecond,
		Debounce:            200 * time.Millisecond,
		ReleasePollInterval: 10 * time.Millisecond,
	}, logger)
	_ = l.Run(context.Background())
}
