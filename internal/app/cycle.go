package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"cloudpico-node/internal/logging"
)

type cycleIDKey struct{}

// Press runs one cycle under a fresh cycle id, which tags every log line of
// the cycle and its mirrored telemetry.
func (p *Pipeline) Press(ctx context.Context) {
	id := uuid.NewString()
	ctx = context.WithValue(ctx, cycleIDKey{}, id)
	ctx = logging.WithAttrs(ctx, slog.String("cycle_id", id))

	c := p.RunCycle(ctx)
	if c.Transmitted {
		p.Logger.InfoContext(ctx, "cycle complete", "response_code", c.Result.StatusCode, "time_received", c.Timestamp)
	}
}
