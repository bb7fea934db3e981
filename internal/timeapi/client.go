// Package timeapi fetches the current wall-clock time for a time zone from a
// timeapi.io compatible service.
package timeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // local fallback on hosts without a zoneinfo database

	"cloudpico-node/internal/config"
	"cloudpico-node/internal/httpx"
)

const DefaultURL = "https://timeapi.io/api/Time/current/zone"

// Layout is the timestamp format sent to the collector.
const Layout = "2006-01-02 15:04:05"

var errNoDateTime = errors.New("response has no dateTime")

type Client struct {
	http     *http.Client
	baseURL  string
	fallback string
	now      func() time.Time
	logger   *slog.Logger
}

// New returns a client for baseURL. fallback is config.TimeFallbackNone or
// config.TimeFallbackLocal.
func New(httpClient *http.Client, baseURL, fallback string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:     httpClient,
		baseURL:  baseURL,
		fallback: fallback,
		now:      time.Now,
		logger:   logger,
	}
}

type currentTime struct {
	DateTime string `json:"dateTime"`
}

// CurrentTime returns the time in zone as "YYYY-MM-DD HH:MM:SS", or "" when
// the service cannot be reached or answers with something unusable. It never
// returns an error; an empty timestamp is still uploaded.
func (c *Client) CurrentTime(ctx context.Context, zone string) string {
	raw, err := c.fetch(ctx, zone)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to retrieve time", "zone", zone, "error", err)
		return c.fallbackTime(ctx, zone)
	}
	ts := Normalize(raw)
	c.logger.InfoContext(ctx, "current time", "time", ts, "zone", zone)
	return ts
}

func (c *Client) fetch(ctx context.Context, zone string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse time api url: %w", err)
	}
	q := u.Query()
	q.Set("timeZone", zone)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	// Any status is accepted; a body without dateTime is rejected below.
	body, err := httpx.ReadBody(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	var ct currentTime
	if err := json.Unmarshal(body, &ct); err != nil {
		return "", fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	if ct.DateTime == "" {
		return "", fmt.Errorf("status %d: %w", resp.StatusCode, errNoDateTime)
	}
	return ct.DateTime, nil
}

func (c *Client) fallbackTime(ctx context.Context, zone string) string {
	if c.fallback != config.TimeFallbackLocal {
		return ""
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		c.logger.WarnContext(ctx, "unknown time zone for local fallback", "zone", zone, "error", err)
		return ""
	}
	ts := c.now().In(loc).Format(Layout)
	c.logger.InfoContext(ctx, "using local clock", "time", ts, "zone", zone)
	return ts
}

// Normalize turns an ISO-8601 local date-time such as
// "2024-10-15T14:03:27.1234567" into "2024-10-15 14:03:27". Input without a
// fractional part keeps everything after the T.
func Normalize(dateTime string) string {
	s := strings.ReplaceAll(dateTime, "T", " ")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return s
}
