// Package metrics holds the node's counters and pushes them to a
// Prometheus-compatible import endpoint.
package metrics

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

var (
	ButtonPresses     = metrics.NewCounter("node_button_presses_total")                          //nolint:gochecknoglobals
	TimeFetchFailures = metrics.NewCounter("node_time_fetch_failures_total")                     //nolint:gochecknoglobals
	TransmitDuration  = metrics.NewHistogram("node_transmit_duration_seconds")                   //nolint:gochecknoglobals
	transmitOK        = metrics.NewCounter(`node_transmissions_total{outcome="response"}`)       //nolint:gochecknoglobals
	transmitFailed    = metrics.NewCounter(`node_transmissions_total{outcome="transport_error"}`) //nolint:gochecknoglobals

	temperature = metrics.NewHistogram("node_temperature_celsius") //nolint:gochecknoglobals
	humidity    = metrics.NewHistogram("node_humidity_percent")    //nolint:gochecknoglobals
	lightLevel  = metrics.NewHistogram("node_light_level")         //nolint:gochecknoglobals
)

// SensorReadFailure counts one failed read of the named sensor.
func SensorReadFailure(sensor string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`node_sensor_read_failures_total{sensor=%q}`, sensor)).Inc()
}

// ObserveReading records a validated reading.
func ObserveReading(tempC, humidityPct float64, light int) {
	temperature.Update(tempC)
	humidity.Update(humidityPct)
	lightLevel.Update(float64(light))
}

// ObserveTransmission records one upload attempt.
func ObserveTransmission(ok bool, d time.Duration) {
	if ok {
		transmitOK.Inc()
	} else {
		transmitFailed.Inc()
	}
	TransmitDuration.Update(d.Seconds())
}

// StartPush pushes every metric to url each interval until ctx is done.
func StartPush(ctx context.Context, url string, interval time.Duration, node string) error {
	writeMetrics := func(w io.Writer) {
		metrics.WritePrometheus(w, true)
	}
	opts := &metrics.PushOptions{
		ExtraLabels: `service_name="cloudpico-node", node="` + node + `"`,
	}
	return metrics.InitPushExtWithOptions(ctx, url, interval, writeMetrics, opts)
}
