package config

import (
	"log/slog"
	"testing"
	"time"
)

var nodeEnvKeys = []string{
	"APP_ENV", "LOG_LEVEL", "NODE_ID", "SERVER_URL", "TIME_API_URL", "TIME_ZONE", "TIME_FALLBACK",
	"TLS_INSECURE_SKIP_VERIFY", "HTTP_TIMEOUT", "WIFI_BACKEND", "WIFI_INTERFACE", "WIFI_SSID",
	"WIFI_PASSWORD", "WIFI_JOIN_ATTEMPTS", "WIFI_JOIN_INTERVAL", "WIFI_JOIN_MAX_INTERVAL", "HARDWARE",
	"I2C_BUS", "BME280_ADDRESS", "ADS1115_ADDRESS", "LIGHT_CHANNEL", "BUTTON_PIN", "DEBOUNCE",
	"POLL_INTERVAL", "RELEASE_POLL_INTERVAL", "SIM_PRESS_DURATION", "CONSOLE_PORT", "CONSOLE_BAUD",
	"PROMPT_ENABLED", "PROMPT_TIMEOUT", "MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID",
	"METRICS_PUSH_URL", "METRICS_PUSH_INTERVAL",
}

// clearNodeEnv blanks every variable LoadFromEnv reads and then applies set.
func clearNodeEnv(t *testing.T, set map[string]string) {
	t.Helper()
	for _, k := range nodeEnvKeys {
		t.Setenv(k, "")
	}
	for k, v := range set {
		t.Setenv(k, v)
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearNodeEnv(t, map[string]string{"WIFI_SSID": "Loading..."})

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	if got.AppEnv != "dev" {
		t.Errorf("AppEnv = %q, want %q", got.AppEnv, "dev")
	}
	if got.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelInfo)
	}
	if got.NodeID != "node_6" {
		t.Errorf("NodeID = %q, want %q", got.NodeID, "node_6")
	}
	if got.ServerURL != "https://rckh.xyz/dbinsert.php" {
		t.Errorf("ServerURL = %q", got.ServerURL)
	}
	if got.TimeAPIURL != "https://timeapi.io/api/Time/current/zone" {
		t.Errorf("TimeAPIURL = %q", got.TimeAPIURL)
	}
	if got.TimeZone != "America/Los_Angeles" {
		t.Errorf("TimeZone = %q, want %q", got.TimeZone, "America/Los_Angeles")
	}
	if got.TLSInsecureSkipVerify {
		t.Errorf("TLSInsecureSkipVerify = true, want false")
	}
	if got.Debounce != 200*time.Millisecond {
		t.Errorf("Debounce = %v, want 200ms", got.Debounce)
	}
	if got.PollInterval != 400*time.Millisecond {
		t.Errorf("PollInterval = %v, want 400ms", got.PollInterval)
	}
	if got.BME280Address != 0x76 {
		t.Errorf("BME280Address = %#x, want 0x76", got.BME280Address)
	}
	if got.ADS1115Address != 0x48 {
		t.Errorf("ADS1115Address = %#x, want 0x48", got.ADS1115Address)
	}
	if got.ConsoleBaud != 9600 {
		t.Errorf("ConsoleBaud = %d, want 9600", got.ConsoleBaud)
	}
	if !got.PromptEnabled {
		t.Errorf("PromptEnabled = false, want true")
	}
	if got.MQTTBroker != "" {
		t.Errorf("MQTTBroker = %q, want empty", got.MQTTBroker)
	}
	if got.MQTTClientID != "cloudpico-node-node_6" {
		t.Errorf("MQTTClientID = %q", got.MQTTClientID)
	}
}

func TestLoadFromEnv_AppEnv_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
	}{
		{name: "staging", appEnv: "staging"},
		{name: "uppercase invalid", appEnv: "DEV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearNodeEnv(t, map[string]string{"APP_ENV": tt.appEnv, "WIFI_SSID": "x"})

			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil")
			}
		})
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "ssid required for networkmanager", env: map[string]string{}},
		{name: "unknown wifi backend", env: map[string]string{"WIFI_BACKEND": "iwd", "WIFI_SSID": "x"}},
		{name: "unknown hardware", env: map[string]string{"HARDWARE": "gpiozero", "WIFI_SSID": "x"}},
		{name: "unknown time fallback", env: map[string]string{"TIME_FALLBACK": "ntp", "WIFI_SSID": "x"}},
		{name: "bad bool", env: map[string]string{"TLS_INSECURE_SKIP_VERIFY": "maybe", "WIFI_SSID": "x"}},
		{name: "zero debounce", env: map[string]string{"DEBOUNCE": "0s", "WIFI_SSID": "x"}},
		{name: "bad duration", env: map[string]string{"POLL_INTERVAL": "fast", "WIFI_SSID": "x"}},
		{name: "zero join attempts", env: map[string]string{"WIFI_JOIN_ATTEMPTS": "0", "WIFI_SSID": "x"}},
		{name: "max interval below initial", env: map[string]string{"WIFI_JOIN_INTERVAL": "5s", "WIFI_JOIN_MAX_INTERVAL": "1s", "WIFI_SSID": "x"}},
		{name: "light channel out of range", env: map[string]string{"LIGHT_CHANNEL": "4", "WIFI_SSID": "x"}},
		{name: "bad i2c address", env: map[string]string{"BME280_ADDRESS": "0xZZ", "WIFI_SSID": "x"}},
		{name: "negative prompt timeout", env: map[string]string{"PROMPT_TIMEOUT": "-1s", "WIFI_SSID": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearNodeEnv(t, tt.env)

			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() error = nil, want non-nil")
			}
		})
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearNodeEnv(t, map[string]string{
		"WIFI_BACKEND":             "none",
		"HARDWARE":                 "sim",
		"NODE_ID":                  "  node_7 ",
		"TIME_ZONE":                "America/Chicago",
		"TIME_FALLBACK":            "local",
		"TLS_INSECURE_SKIP_VERIFY": "true",
		"BME280_ADDRESS":           "0x77",
		"LIGHT_CHANNEL":            "2",
		"PROMPT_ENABLED":           "false",
		"PROMPT_TIMEOUT":           "30s",
		"WIFI_PASSWORD":            " spaced ",
	})

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}
	if got.NodeID != "node_7" {
		t.Errorf("NodeID = %q, want %q", got.NodeID, "node_7")
	}
	if got.WiFiBackend != WiFiBackendNone {
		t.Errorf("WiFiBackend = %q, want %q", got.WiFiBackend, WiFiBackendNone)
	}
	if got.Hardware != HardwareSim {
		t.Errorf("Hardware = %q, want %q", got.Hardware, HardwareSim)
	}
	if got.TimeFallback != TimeFallbackLocal {
		t.Errorf("TimeFallback = %q, want %q", got.TimeFallback, TimeFallbackLocal)
	}
	if !got.TLSInsecureSkipVerify {
		t.Errorf("TLSInsecureSkipVerify = false, want true")
	}
	if got.BME280Address != 0x77 {
		t.Errorf("BME280Address = %#x, want 0x77", got.BME280Address)
	}
	if got.LightChannel != 2 {
		t.Errorf("LightChannel = %d, want 2", got.LightChannel)
	}
	if got.PromptEnabled {
		t.Errorf("PromptEnabled = true, want false")
	}
	if got.PromptTimeout != 30*time.Second {
		t.Errorf("PromptTimeout = %v, want 30s", got.PromptTimeout)
	}
	if got.WiFiPassword != " spaced " {
		t.Errorf("WiFiPassword = %q, want untrimmed", got.WiFiPassword)
	}
}

func TestLoadCollectorFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("APP_ENV", "")
		t.Setenv("LOG_LEVEL", "")
		t.Setenv("HTTP_ADDR", "")
		t.Setenv("SQLITE_PATH", "")
		t.Setenv("SQLITE_DSN", "")

		got, err := LoadCollectorFromEnv()
		if err != nil {
			t.Fatalf("LoadCollectorFromEnv() error = %v, want nil", err)
		}
		if got.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, ":8080")
		}
		if got.SQLitePath != "data/collector.db" {
			t.Errorf("SQLitePath = %q, want %q", got.SQLitePath, "data/collector.db")
		}
	})

	t.Run("trims whitespace", func(t *testing.T) {
		t.Setenv("APP_ENV", "prod")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("HTTP_ADDR", "  127.0.0.1:8081  ")
		t.Setenv("SQLITE_PATH", "")
		t.Setenv("SQLITE_DSN", "")

		got, err := LoadCollectorFromEnv()
		if err != nil {
			t.Fatalf("LoadCollectorFromEnv() error = %v, want nil", err)
		}
		if got.HTTPAddr != "127.0.0.1:8081" {
			t.Errorf("HTTPAddr = %q, want %q", got.HTTPAddr, "127.0.0.1:8081")
		}
		if got.LogLevel != slog.LevelDebug {
			t.Errorf("LogLevel = %v, want %v", got.LogLevel, slog.LevelDebug)
		}
	})
}

func TestParseLogLevel_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want slog.Level
	}{
		{name: "debug", in: "debug", want: slog.LevelDebug},
		{name: "info", in: "info", want: slog.LevelInfo},
		{name: "warning", in: "warning", want: slog.LevelWarn},
		{name: "error", in: "error", want: slog.LevelError},
		{name: "case insensitive", in: "DeBuG", want: slog.LevelDebug},
		{name: "trims whitespace", in: "  warn \n", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if err != nil {
				t.Fatalf("parseLogLevel(%q) error = %v, want nil", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel_Invalid(t *testing.T) {
	for _, in := range []string{"", "nope", "warns", "1"} {
		got, err := parseLogLevel(in)
		if err == nil {
			t.Fatalf("parseLogLevel(%q) error = nil, want non-nil", in)
		}
		if got != slog.LevelInfo {
			t.Errorf("parseLogLevel(%q) = %v, want %v on error", in, got, slog.LevelInfo)
		}
	}
}
