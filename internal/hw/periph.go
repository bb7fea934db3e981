//go:build !tinygo

package hw

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"cloudpico-node/internal/config"
)

var adsChannels = [...]ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}

func openPeriph(cfg config.Config, logger *slog.Logger) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus) // "" is the default bus, usually /dev/i2c-1
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", cfg.I2CBus, err)
	}
	b := &Board{}
	b.onClose(bus.Close)

	env, err := bmxx80.NewI2C(bus, cfg.BME280Address, &bmxx80.DefaultOpts)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("bme280 at %#x: %w", cfg.BME280Address, err)
	}
	b.onClose(env.Halt)
	b.Climate = &bmeClimate{dev: env}

	adc, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: cfg.ADS1115Address})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("ads1115 at %#x: %w", cfg.ADS1115Address, err)
	}
	pin, err := adc.PinForChannel(adsChannels[cfg.LightChannel], 4096*physic.MilliVolt, 8*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("ads1115 channel %d: %w", cfg.LightChannel, err)
	}
	b.onClose(pin.Halt)
	b.onClose(adc.Halt)
	b.Light = &adsLight{pin: pin}

	btn := gpioreg.ByName(cfg.ButtonPin)
	if btn == nil {
		_ = b.Close()
		return nil, fmt.Errorf("button pin %q not found", cfg.ButtonPin)
	}
	if err := btn.In(gpio.PullUp, gpio.NoEdge); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("button pin %s: %w", cfg.ButtonPin, err)
	}
	b.Button = &gpioButton{pin: btn}

	logger.Info("hardware ready",
		"backend", config.HardwarePeriph,
		"bme280", fmt.Sprintf("%#x", cfg.BME280Address),
		"ads1115", fmt.Sprintf("%#x", cfg.ADS1115Address),
		"light_channel", cfg.LightChannel,
		"button_pin", btn.Name(),
	)
	return b, nil
}

type bmeClimate struct {
	dev *bmxx80.Dev
}

func (c *bmeClimate) sense(ctx context.Context) (physic.Env, error) {
	var env physic.Env
	if err := ctx.Err(); err != nil {
		return env, err
	}
	err := c.dev.Sense(&env)
	return env, err
}

func (c *bmeClimate) Temperature(ctx context.Context) (float64, error) {
	env, err := c.sense(ctx)
	if err != nil {
		return 0, fmt.Errorf("bme280 sense: %w", err)
	}
	return env.Temperature.Celsius(), nil
}

func (c *bmeClimate) Humidity(ctx context.Context) (float64, error) {
	env, err := c.sense(ctx)
	if err != nil {
		return 0, fmt.Errorf("bme280 sense: %w", err)
	}
	// env.Humidity is fixed point at 0.00001 %rH.
	return float64(env.Humidity) / float64(physic.PercentRH), nil
}

type adsLight struct {
	pin analog.PinADC
}

func (l *adsLight) Level(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s, err := l.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("ads1115 read: %w", err)
	}
	return int(s.Raw), nil
}

// gpioButton is wired active-low against the internal pull-up.
type gpioButton struct {
	pin gpio.PinIn
}

func (b *gpioButton) Pressed() (bool, error) {
	return b.pin.Read() == gpio.Low, nil
}
