package httpapi

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloudpico-node/internal/collector/repository"
)

const timeReceivedLayout = "2006-01-02 15:04:05"

func (h *Handler) handleInsert(w http.ResponseWriter, r *http.Request) {
	rd, err := parseUpload(r.URL.Query())
	if err != nil {
		writeText(w, http.StatusBadRequest, "Error: "+err.Error())
		return
	}
	rd.RemoteAddr = remoteHost(r.RemoteAddr)

	stored, err := h.repo.InsertReading(r.Context(), rd)
	if err != nil {
		h.logger.Error("insert reading failed", "node", rd.Node, "error", err)
		writeText(w, http.StatusInternalServerError, "Error: could not store reading")
		return
	}
	h.logger.Info("reading stored",
		"id", stored.ID,
		"node", stored.Node,
		"temperature_c", stored.TemperatureC,
		"humidity_pct", stored.HumidityPct,
		"light_level", stored.LightLevel,
		"time_received", stored.TimeReceived,
	)
	writeText(w, http.StatusOK, "New record created successfully")
}

// parseUpload validates the query string a node sends. time_received may be
// empty when the node could not fetch the time.
func parseUpload(q url.Values) (repository.Reading, error) {
	var (
		rd  repository.Reading
		err error
	)
	rd.Node = strings.TrimSpace(q.Get("node"))
	if rd.Node == "" {
		return rd, errors.New("missing node")
	}
	if rd.TemperatureC, err = parseFloatParam(q, "temperature"); err != nil {
		return rd, err
	}
	if rd.HumidityPct, err = parseFloatParam(q, "humidity"); err != nil {
		return rd, err
	}
	s := q.Get("light_level")
	if rd.LightLevel, err = strconv.Atoi(s); err != nil {
		return rd, fmt.Errorf("invalid light_level %q", s)
	}
	rd.TimeReceived = q.Get("time_received")
	if rd.TimeReceived != "" {
		if _, err := time.Parse(timeReceivedLayout, rd.TimeReceived); err != nil {
			return rd, fmt.Errorf("invalid time_received %q (expected YYYY-MM-DD HH:MM:SS)", rd.TimeReceived)
		}
	}
	return rd, nil
}

func parseFloatParam(q url.Values, key string) (float64, error) {
	s := q.Get(key)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return v, nil
}

func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
