//go:build tinygo

package hw

import (
	"context"
	"log/slog"
	"machine"

	"tinygo.org/x/drivers/dht"

	"cloudpico-node/internal/config"
)

// Open wires the Pico board: DHT11 on GP2, light sensor on ADC0 and the
// button on GP15 to ground. Hardware selection in cfg is ignored here.
func Open(_ config.Config, logger *slog.Logger) (*Board, error) {
	machine.InitADC()
	light := machine.ADC{Pin: machine.ADC0}
	light.Configure(machine.ADCConfig{})

	btn := machine.GP15
	btn.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	logger.Info("hardware ready", "backend", "tinygo")
	return &Board{
		Climate: &dhtClimate{dev: dht.New(machine.GP2, dht.DHT11)},
		Light:   &adcLight{adc: light},
		Button:  pinButton(btn),
	}, nil
}

type dhtClimate struct {
	dev dht.Device
}

func (c *dhtClimate) Temperature(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t, err := c.dev.TemperatureFloat(dht.C)
	return float64(t), err
}

func (c *dhtClimate) Humidity(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	h, err := c.dev.HumidityFloat()
	return float64(h), err
}

type adcLight struct {
	adc machine.ADC
}

// Level scales the 16-bit sample down to the 12-bit converter range.
func (l *adcLight) Level(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int(l.adc.Get() >> 4), nil
}

type pinButton machine.Pin

func (p pinButton) Pressed() (bool, error) {
	return !machine.Pin(p).Get(), nil
}
