package mqtt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudpico-node/internal/types"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements the parts of mqtt.Client the node uses.
type fakeClient struct {
	mqtt.Client
	connected  bool
	publishErr error
	sent       []published
}

func (f *fakeClient) IsConnected() bool { return f.connected }

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.sent = append(f.sent, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return doneToken{err: f.publishErr}
}

func (f *fakeClient) Disconnect(uint) { f.connected = false }

func newTestClient(f *fakeClient) *Client {
	return &Client{
		client:    f,
		nodeID:    "node_6",
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		connected: f.connected,
		stopCh:    make(chan struct{}),
	}
}

func TestPublishTelemetry(t *testing.T) {
	f := &fakeClient{connected: true}
	c := newTestClient(f)

	temp := 23.5
	err := c.PublishTelemetry(types.Telemetry{Temperature: &temp, TimeReceived: "2024-10-15 14:03:27", ResponseCode: 200})
	require.NoError(t, err)

	require.Len(t, f.sent, 1)
	assert.Equal(t, "stations/node_6/telemetry", f.sent[0].topic)
	assert.Equal(t, byte(1), f.sent[0].qos)
	assert.False(t, f.sent[0].retained)

	var got types.Telemetry
	require.NoError(t, json.Unmarshal(f.sent[0].payload, &got))
	assert.Equal(t, "node_6", got.StationID)
	assert.Equal(t, 200, got.ResponseCode)
	assert.False(t, got.Timestamp.IsZero())
}

func TestPublishHealth_Retained(t *testing.T) {
	f := &fakeClient{connected: true}
	c := newTestClient(f)

	require.NoError(t, c.PublishHealth(types.StationHealth{Healthy: true, IP: "10.0.0.7"}))
	require.Len(t, f.sent, 1)
	assert.Equal(t, "stations/node_6/health", f.sent[0].topic)
	assert.True(t, f.sent[0].retained)
}

func TestPublishHealth_StampsLastSeen(t *testing.T) {
	f := &fakeClient{connected: true}
	c := newTestClient(f)

	require.NoError(t, c.PublishHealth(types.StationHealth{Healthy: true}))
	var got types.StationHealth
	require.NoError(t, json.Unmarshal(f.sent[0].payload, &got))
	require.NotNil(t, got.LastSeen)
	assert.False(t, got.LastSeen.IsZero())
}

func TestWillPayload_OmitsLastSeen(t *testing.T) {
	will, err := willPayload("node_6")
	require.NoError(t, err)
	assert.JSONEq(t, `{"station_id":"node_6","healthy":false}`, will)
}

func TestPublish_Errors(t *testing.T) {
	c := newTestClient(&fakeClient{connected: false})
	require.ErrorIs(t, c.PublishTelemetry(types.Telemetry{}), ErrNotConnected)

	brokerErr := errors.New("not authorized")
	c = newTestClient(&fakeClient{connected: true, publishErr: brokerErr})
	require.ErrorIs(t, c.PublishTelemetry(types.Telemetry{}), brokerErr)
}

func TestDisconnect_Idempotent(t *testing.T) {
	c := newTestClient(&fakeClient{connected: true})
	c.Disconnect()
	c.Disconnect()
	assert.False(t, c.IsConnected())
	require.ErrorIs(t, c.Connect(t.Context()), errStopped)
}
