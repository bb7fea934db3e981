//go:build !tinygo

package hw

import (
	"fmt"
	"log/slog"

	"cloudpico-node/internal/config"
)

func Open(cfg config.Config, logger *slog.Logger) (*Board, error) {
	switch cfg.Hardware {
	case config.HardwareSim:
		return openSim(cfg, logger), nil
	case config.HardwarePeriph:
		return openPeriph(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported hardware backend %q", cfg.Hardware)
	}
}
