package types

import "time"

// Telemetry mirrors one completed button cycle from a node
type Telemetry struct {
	StationID    string    `json:"station_id"`
	CycleID      string    `json:"cycle_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Temperature  *float64  `json:"temperature_c,omitempty"`
	Humidity     *float64  `json:"humidity_pct,omitempty"`
	LightLevel   *int      `json:"light_level,omitempty"`
	TimeReceived string    `json:"time_received"`
	ResponseCode int       `json:"response_code"`
}

// StationHealth is the retained link status published after a network join.
// The broker's last-will copy has no LastSeen and Healthy false.
type StationHealth struct {
	StationID      string     `json:"station_id"`
	LastSeen       *time.Time `json:"last_seen,omitempty"`
	Healthy        bool       `json:"healthy"`
	IP             string     `json:"ip,omitempty"`
	SignalStrength int        `json:"signal_strength,omitempty"`
}
