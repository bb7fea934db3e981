package app

import (
	"context"
	"log/slog"
	"time"

	"cloudpico-node/internal/metrics"
	"cloudpico-node/internal/sensor"
	"cloudpico-node/internal/transmit"
	"cloudpico-node/internal/types"
)

type SensorReader interface {
	ReadAll(ctx context.Context) (sensor.Reading, error)
}

type TimeSource interface {
	CurrentTime(ctx context.Context, zone string) string
}

type Uploader interface {
	Transmit(ctx context.Context, r sensor.Reading, ts string) transmit.Result
}

type TelemetryPublisher interface {
	PublishTelemetry(t types.Telemetry) error
}

// Pipeline is one sampling cycle: read, validate, timestamp, upload.
type Pipeline struct {
	Sensors   SensorReader
	Clock     TimeSource
	Uploader  Uploader
	Telemetry TelemetryPublisher // optional
	Zone      string
	Logger    *slog.Logger
}

// Cycle is what one press produced.
type Cycle struct {
	Reading     sensor.Reading
	Timestamp   string
	Transmitted bool
	Result      transmit.Result
	Err         error // sensor failure that aborted the cycle
}

// RunCycle samples once and, if every sensor read succeeded, fetches the time
// and transmits. A sensor failure skips both.
func (p *Pipeline) RunCycle(ctx context.Context) Cycle {
	var c Cycle
	c.Reading, c.Err = p.Sensors.ReadAll(ctx)
	if c.Err != nil {
		failed := sensor.FailedSensors(c.Err)
		for _, s := range failed {
			metrics.SensorReadFailure(s)
		}
		p.Logger.ErrorContext(ctx, "failed to read sensor data", "sensors", failed)
		return c
	}
	metrics.ObserveReading(c.Reading.Temperature, c.Reading.Humidity, c.Reading.LightLevel)

	c.Timestamp = p.Clock.CurrentTime(ctx, p.Zone)
	if c.Timestamp == "" {
		metrics.TimeFetchFailures.Inc()
	}

	c.Result = p.Uploader.Transmit(ctx, c.Reading, c.Timestamp)
	c.Transmitted = true
	metrics.ObserveTransmission(c.Result.OK(), c.Result.Duration)

	p.mirror(ctx, c)
	return c
}

func (p *Pipeline) mirror(ctx context.Context, c Cycle) {
	if p.Telemetry == nil {
		return
	}
	temp, hum, light := c.Reading.Temperature, c.Reading.Humidity, c.Reading.LightLevel
	t := types.Telemetry{
		Timestamp:    time.Now(),
		Temperature:  &temp,
		Humidity:     &hum,
		LightLevel:   &light,
		TimeReceived: c.Timestamp,
		ResponseCode: c.Result.StatusCode,
	}
	if id, ok := ctx.Value(cycleIDKey{}).(string); ok {
		t.CycleID = id
	}
	if err := p.Telemetry.PublishTelemetry(t); err != nil {
		p.Logger.WarnContext(ctx, "telemetry not mirrored", "error", err)
	}
}
