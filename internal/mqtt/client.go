// Package mqtt mirrors each button cycle and the node's link health to an
// MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"cloudpico-node/internal/types"
)

const publishTimeout = 5 * time.Second

var (
	ErrNotConnected = errors.New("mqtt client not connected")
	errStopped      = errors.New("client stopped")
)

type Options struct {
	Broker   string
	Port     int
	ClientID string
	NodeID   string
}

type Client struct {
	client mqtt.Client
	nodeID string
	logger *slog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func TelemetryTopic(nodeID string) string { return "stations/" + nodeID + "/telemetry" }

func HealthTopic(nodeID string) string { return "stations/" + nodeID + "/health" }

func NewClient(o Options, logger *slog.Logger) *Client {
	c := &Client{
		nodeID: o.NodeID,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", o.Broker, o.Port))
	opts.SetClientID(o.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// The broker flips the retained health document if the node drops off.
	if will, err := willPayload(o.NodeID); err == nil {
		opts.SetWill(HealthTopic(o.NodeID), will, 1, true)
	}

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", o.Broker, "port", o.Port)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect waits for the first connection to the broker. It gives up when ctx
// is done or Disconnect is called.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return errStopped
	default:
	}
	if c.IsConnected() {
		return nil
	}

	token := c.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return errStopped
		default:
		}
	}
}

// PublishTelemetry sends one cycle's outcome with QoS 1.
func (c *Client) PublishTelemetry(t types.Telemetry) error {
	t.StationID = c.nodeID
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	return c.publish(TelemetryTopic(c.nodeID), false, t)
}

// PublishHealth sends the retained link status document.
func (c *Client) PublishHealth(h types.StationHealth) error {
	h.StationID = c.nodeID
	if h.LastSeen == nil {
		now := time.Now()
		h.LastSeen = &now
	}
	return c.publish(HealthTopic(c.nodeID), true, h)
}

// willPayload is the offline health document the broker publishes for us.
func willPayload(nodeID string) (string, error) {
	b, err := json.Marshal(types.StationHealth{StationID: nodeID})
	return string(b), err
}

func (c *Client) publish(topic string, retained bool, v any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}

	token := c.client.Publish(topic, 1, retained, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	c.logger.Debug("published", "topic", topic, "retained", retained)
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect is idempotent. Connect fails after it.
func (c *Client) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.client != nil {
		c.client.Disconnect(250)
	}
	c.setConnected(false)
	c.logger.Info("mqtt disconnected")
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
