// Package sensor reads the climate and light sensors one transaction at a time
// and reports each outcome on the diagnostic log.
package sensor

import (
	"context"
	"errors"
	"log/slog"
	"math"
)

// ErrInvalidReading is returned when a driver fails or reports a value that is
// not a number. It replaces the -1 sentinel, so a genuine -1 is a valid value.
var ErrInvalidReading = errors.New("invalid sensor reading")

var errNaN = errors.New("driver returned NaN")

// ReadError identifies which sensor failed. It matches ErrInvalidReading and
// the underlying driver error with errors.Is.
type ReadError struct {
	Sensor string
	Err    error
}

func (e *ReadError) Error() string {
	return e.Sensor + ": " + ErrInvalidReading.Error() + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() []error { return []error{ErrInvalidReading, e.Err} }

// Climate is a combined temperature/humidity sensor. Each call is one
// blocking hardware transaction.
type Climate interface {
	Temperature(ctx context.Context) (float64, error)
	Humidity(ctx context.Context) (float64, error)
}

// Light is an analog light sensor returning raw converter units.
type Light interface {
	Level(ctx context.Context) (int, error)
}

type Reading struct {
	Temperature float64 // °C
	Humidity    float64 // %
	LightLevel  int     // raw ADC units
}

type Reader struct {
	climate Climate
	light   Light
	logger  *slog.Logger
}

func NewReader(climate Climate, light Light, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{climate: climate, light: light, logger: logger}
}

func (r *Reader) ReadTemperature(ctx context.Context) (float64, error) {
	t, err := r.climate.Temperature(ctx)
	if err == nil && math.IsNaN(t) {
		err = errNaN
	}
	if err != nil {
		r.logger.WarnContext(ctx, "failed to read temperature", "error", err)
		return 0, &ReadError{Sensor: "temperature", Err: err}
	}
	r.logger.InfoContext(ctx, "temperature", "temperature_c", t)
	return t, nil
}

func (r *Reader) ReadHumidity(ctx context.Context) (float64, error) {
	h, err := r.climate.Humidity(ctx)
	if err == nil && math.IsNaN(h) {
		err = errNaN
	}
	if err != nil {
		r.logger.WarnContext(ctx, "failed to read humidity", "error", err)
		return 0, &ReadError{Sensor: "humidity", Err: err}
	}
	r.logger.InfoContext(ctx, "humidity", "humidity_pct", h)
	return h, nil
}

func (r *Reader) ReadLightLevel(ctx context.Context) (int, error) {
	l, err := r.light.Level(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to read light level", "error", err)
		return 0, &ReadError{Sensor: "light_level", Err: err}
	}
	r.logger.InfoContext(ctx, "light level", "light_level", l)
	return l, nil
}

// ReadAll takes all three readings in order. Every sensor is read even when an
// earlier one fails; the returned error joins each failure.
func (r *Reader) ReadAll(ctx context.Context) (Reading, error) {
	var (
		rd   Reading
		errs []error
		err  error
	)
	if rd.Temperature, err = r.ReadTemperature(ctx); err != nil {
		errs = append(errs, err)
	}
	if rd.Humidity, err = r.ReadHumidity(ctx); err != nil {
		errs = append(errs, err)
	}
	if rd.LightLevel, err = r.ReadLightLevel(ctx); err != nil {
		errs = append(errs, err)
	}
	return rd, errors.Join(errs...)
}

// Report reads every sensor and logs the combined reading or the sensors that
// failed. It is the whole cycle on boards without a network link.
func (r *Reader) Report(ctx context.Context) {
	rd, err := r.ReadAll(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to read sensor data", "sensors", FailedSensors(err))
		return
	}
	r.logger.InfoContext(ctx, "reading",
		"temperature_c", rd.Temperature,
		"humidity_pct", rd.Humidity,
		"light_level", rd.LightLevel,
	)
}

// FailedSensors names the sensors whose read failed in err as returned by ReadAll.
func FailedSensors(err error) []string {
	if err == nil {
		return nil
	}
	if re, ok := err.(*ReadError); ok {
		return []string{re.Sensor}
	}
	errs := []error{err}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs = j.Unwrap()
	}
	var out []string
	for _, e := range errs {
		var re *ReadError
		if errors.As(e, &re) {
			out = append(out, re.Sensor)
		}
	}
	return out
}
