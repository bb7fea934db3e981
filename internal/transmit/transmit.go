// Package transmit uploads one reading to the collection endpoint as a single
// HTTPS GET with the values in the query string.
package transmit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloudpico-node/internal/httpx"
	"cloudpico-node/internal/sensor"
)

const DefaultURL = "https://rckh.xyz/dbinsert.php"

// StatusTransportFailure is the status code recorded when no HTTP response was
// received at all.
const StatusTransportFailure = -1

type Result struct {
	URL        string
	StatusCode int
	Body       string
	Duration   time.Duration
	Err        error
}

// OK reports whether the server answered, whatever the status code.
func (r Result) OK() bool { return r.StatusCode > 0 }

type Transmitter struct {
	http    *http.Client
	baseURL string
	node    string
	logger  *slog.Logger
}

func New(httpClient *http.Client, baseURL, node string, logger *slog.Logger) *Transmitter {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transmitter{http: httpClient, baseURL: baseURL, node: node, logger: logger}
}

// EncodeTimestamp escapes spaces and colons and leaves every other byte as is.
func EncodeTimestamp(ts string) string {
	return strings.NewReplacer(" ", "%20", ":", "%3A").Replace(ts)
}

// BuildURL renders the upload URL. Floats carry two decimals.
func BuildURL(base, node string, r sensor.Reading, ts string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString(sep)
	b.WriteString("node=" + url.QueryEscape(node))
	b.WriteString("&temperature=" + strconv.FormatFloat(r.Temperature, 'f', 2, 64))
	b.WriteString("&humidity=" + strconv.FormatFloat(r.Humidity, 'f', 2, 64))
	b.WriteString("&light_level=" + strconv.Itoa(r.LightLevel))
	b.WriteString("&time_received=" + EncodeTimestamp(ts))
	return b.String()
}

// Transmit sends r once. The outcome is logged and returned; it is never
// retried.
func (t *Transmitter) Transmit(ctx context.Context, r sensor.Reading, ts string) Result {
	start := time.Now()
	res := t.send(ctx, BuildURL(t.baseURL, t.node, r, ts))
	res.Duration = time.Since(start)
	return res
}

func (t *Transmitter) send(ctx context.Context, u string) Result {
	res := Result{URL: u, StatusCode: StatusTransportFailure}
	t.logger.InfoContext(ctx, "sending data", "url", res.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		res.Err = fmt.Errorf("build request: %w", err)
		t.logger.WarnContext(ctx, "failed to send data", "error", res.Err)
		return res
	}

	resp, err := t.http.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("request: %w", err)
		t.logger.WarnContext(ctx, "failed to send data", "response_code", res.StatusCode, "error", res.Err)
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	t.logger.InfoContext(ctx, "response received", "response_code", res.StatusCode)

	body, err := httpx.ReadBody(resp.Body)
	if err != nil {
		t.logger.WarnContext(ctx, "failed to read server response", "error", err)
	}
	res.Body = string(body)
	t.logger.InfoContext(ctx, "server response", "body", res.Body)
	return res
}
