package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"cloudpico-node/internal/config"
	"cloudpico-node/internal/console"
	"cloudpico-node/internal/httpx"
	"cloudpico-node/internal/hw"
	"cloudpico-node/internal/loop"
	"cloudpico-node/internal/metrics"
	"cloudpico-node/internal/mqtt"
	"cloudpico-node/internal/netlink"
	"cloudpico-node/internal/sensor"
	"cloudpico-node/internal/timeapi"
	"cloudpico-node/internal/transmit"
	"cloudpico-node/internal/types"
)

// Run joins the network, opens the hardware, asks for the time zone and then
// serves button presses until ctx is done. It returns early only on a failed
// join or hardware error.
func Run(ctx context.Context, cfg config.Config, cons *console.Console) error {
	logger := slog.Default()
	logger.Info("initializing node",
		"node_id", cfg.NodeID,
		"server_url", cfg.ServerURL,
		"hardware", cfg.Hardware,
		"wifi_backend", cfg.WiFiBackend,
	)
	if cfg.TLSInsecureSkipVerify {
		logger.Warn("TLS certificate validation is disabled for the time and upload requests")
	}

	link, closeLink, err := openLink(cfg)
	if err != nil {
		return fmt.Errorf("network: %w", err)
	}
	defer closeLink()

	details, err := netlink.Join(ctx, link,
		netlink.Credentials{SSID: cfg.WiFiSSID, Password: cfg.WiFiPassword},
		netlink.JoinPolicy{
			MaxAttempts:     cfg.WiFiJoinAttempts,
			InitialInterval: cfg.WiFiJoinInterval,
			MaxInterval:     cfg.WiFiJoinMaxInterval,
		},
		logger,
	)
	if err != nil {
		return err
	}

	board, err := hw.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("hardware: %w", err)
	}
	defer func() {
		if err := board.Close(); err != nil {
			logger.Warn("hardware close", "error", err)
		}
	}()

	zone := defaultZone(cfg.TimeZone)
	if cfg.PromptEnabled {
		zone = console.Prompt(ctx, cons, cons, zone, cfg.PromptTimeout, logger)
	} else {
		logger.Info("time zone", "zone", zone.ID)
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.MetricsPushURL != "" {
		if err := metrics.StartPush(ctx, cfg.MetricsPushURL, cfg.MetricsPushInterval, cfg.NodeID); err != nil {
			logger.Warn("metrics push disabled", "error", err)
		}
	}

	httpClient := httpx.NewClient(cfg.HTTPTimeout, cfg.TLSInsecureSkipVerify)
	pipeline := &Pipeline{
		Sensors:  sensor.NewReader(board.Climate, board.Light, logger),
		Clock:    timeapi.New(httpClient, cfg.TimeAPIURL, cfg.TimeFallback, logger),
		Uploader: transmit.New(httpClient, cfg.ServerURL, cfg.NodeID, logger),
		Zone:     zone.ID,
		Logger:   logger,
	}

	if cfg.MQTTBroker != "" {
		mc := mqtt.NewClient(mqtt.Options{
			Broker:   cfg.MQTTBroker,
			Port:     cfg.MQTTPort,
			ClientID: cfg.MQTTClientID,
			NodeID:   cfg.NodeID,
		}, logger)
		defer mc.Disconnect()
		pipeline.Telemetry = mc

		g.Go(func() error {
			if err := mc.Connect(ctx); err != nil {
				logger.Warn("mqtt unavailable, telemetry mirror off", "error", err)
				return nil
			}
			health := types.StationHealth{
				Healthy:        true,
				IP:             details.IP,
				SignalStrength: details.SignalStrength,
			}
			if err := mc.PublishHealth(health); err != nil {
				logger.Warn("health not published", "error", err)
			}
			return nil
		})
	}

	l := loop.New(board.Button, pipeline.Press, loop.Config{
		PollInterval:        cfg.PollInterval,
		Debounce:            cfg.Debounce,
		ReleasePollInterval: cfg.ReleasePollInterval,
		OnPress:             metrics.ButtonPresses.Inc,
	}, logger)
	g.Go(func() error { return l.Run(ctx) })

	err = g.Wait()
	logger.Info("node shutting down")
	return err
}

func openLink(cfg config.Config) (netlink.Link, func(), error) {
	switch cfg.WiFiBackend {
	case config.WiFiBackendNone:
		return netlink.Static{}, func() {}, nil
	case config.WiFiBackendNetworkManager:
		nm, err := netlink.DialNetworkManager(cfg.WiFiInterface)
		if err != nil {
			return nil, nil, err
		}
		return nm, func() { _ = nm.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported wifi backend %q", cfg.WiFiBackend)
	}
}

// defaultZone returns the menu entry for id, or a label-less zone when id is a
// valid IANA name outside the menu.
func defaultZone(id string) console.Zone {
	if id == "" {
		return console.DefaultZone
	}
	if z, ok := console.Lookup(id); ok {
		return z
	}
	return console.Zone{ID: id, Label: id}
}
