package transmit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudpico-node/internal/sensor"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestEncodeTimestamp(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024-10-15 14:03:27", "2024-10-15%2014%3A03%3A27"},
		{"", ""},
		{"a+b/c", "a+b/c"},
	}
	for _, tt := range tests {
		if got := EncodeTimestamp(tt.in); got != tt.want {
			t.Errorf("EncodeTimestamp(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildURL(t *testing.T) {
	got := BuildURL(DefaultURL, "node_6", sensor.Reading{Temperature: 23.5, Humidity: 55, LightLevel: 512}, "2024-10-15 14:03:27")
	assert.Equal(t,
		"https://rckh.xyz/dbinsert.php?node=node_6&temperature=23.50&humidity=55.00&light_level=512&time_received=2024-10-15%2014%3A03%3A27",
		got)

	got = BuildURL("http://collector/dbinsert.php?key=x", "node_6", sensor.Reading{Temperature: -1, Humidity: 40.456, LightLevel: 0}, "")
	assert.Equal(t,
		"http://collector/dbinsert.php?key=x&node=node_6&temperature=-1.00&humidity=40.46&light_level=0&time_received=",
		got)
}

func TestTransmit_AnyResponseIsSuccess(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusInternalServerError} {
		var calls atomic.Int32
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			gotQuery = r.URL.RawQuery
			w.WriteHeader(status)
			_, _ = io.WriteString(w, "New record created successfully")
		}))

		tr := New(srv.Client(), srv.URL+"/dbinsert.php", "node_6", discard())
		res := tr.Transmit(context.Background(), sensor.Reading{Temperature: 23.5, Humidity: 55, LightLevel: 512}, "2024-10-15 14:03:27")
		srv.Close()

		require.NoError(t, res.Err)
		assert.True(t, res.OK())
		assert.Equal(t, status, res.StatusCode)
		assert.Equal(t, "New record created successfully", res.Body)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, "node=node_6&temperature=23.50&humidity=55.00&light_level=512&time_received=2024-10-15%2014%3A03%3A27", gotQuery)
	}
}

func TestTransmit_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	tr := New(&http.Client{}, addr, "node_6", discard())
	res := tr.Transmit(context.Background(), sensor.Reading{}, "")

	require.Error(t, res.Err)
	assert.False(t, res.OK())
	assert.Equal(t, StatusTransportFailure, res.StatusCode)
}
