package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	HardwarePeriph = "periph"
	HardwareSim    = "sim"

	WiFiBackendNetworkManager = "networkmanager"
	WiFiBackendNone           = "none"

	TimeFallbackNone  = "none"
	TimeFallbackLocal = "local"
)

// Base holds the settings every binary in this module shares.
type Base struct {
	AppEnv   string
	LogLevel slog.Level
}

type Config struct {
	Base

	NodeID       string
	ServerURL    string
	TimeAPIURL   string
	TimeZone     string
	TimeFallback string

	// TLSInsecureSkipVerify disables certificate validation for both outbound requests.
	TLSInsecureSkipVerify bool
	HTTPTimeout           time.Duration

	WiFiBackend         string
	WiFiInterface       string
	WiFiSSID            string
	WiFiPassword        string
	WiFiJoinAttempts    int
	WiFiJoinInterval    time.Duration
	WiFiJoinMaxInterval time.Duration

	Hardware            string
	I2CBus              string
	BME280Address       uint16
	ADS1115Address      uint16
	LightChannel        int
	ButtonPin           string
	Debounce            time.Duration
	PollInterval        time.Duration
	ReleasePollInterval time.Duration
	SimPressDuration    time.Duration

	ConsolePort   string
	ConsoleBaud   int
	PromptEnabled bool
	PromptTimeout time.Duration

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string

	MetricsPushURL      string
	MetricsPushInterval time.Duration
}

func LoadFromEnv() (Config, error) {
	base, err := loadBase()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{Base: base}

	cfg.NodeID = envString("NODE_ID", "node_6")
	cfg.ServerURL = envString("SERVER_URL", "https://rckh.xyz/dbinsert.php")
	cfg.TimeAPIURL = envString("TIME_API_URL", "https://timeapi.io/api/Time/current/zone")
	cfg.TimeZone = envString("TIME_ZONE", "America/Los_Angeles")

	cfg.TimeFallback = envString("TIME_FALLBACK", TimeFallbackNone)
	switch cfg.TimeFallback {
	case TimeFallbackNone, TimeFallbackLocal:
	default:
		return Config{}, fmt.Errorf("invalid TIME_FALLBACK %q (allowed: none, local)", cfg.TimeFallback)
	}

	if cfg.TLSInsecureSkipVerify, err = envBool("TLS_INSECURE_SKIP_VERIFY", false); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = envPositiveDuration("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}

	cfg.WiFiBackend = envString("WIFI_BACKEND", WiFiBackendNetworkManager)
	switch cfg.WiFiBackend {
	case WiFiBackendNetworkManager, WiFiBackendNone:
	default:
		return Config{}, fmt.Errorf("invalid WIFI_BACKEND %q (allowed: networkmanager, none)", cfg.WiFiBackend)
	}
	cfg.WiFiInterface = envString("WIFI_INTERFACE", "wlan0")
	cfg.WiFiSSID = strings.TrimSpace(os.Getenv("WIFI_SSID"))
	// Passphrases may legitimately carry surrounding spaces.
	cfg.WiFiPassword = os.Getenv("WIFI_PASSWORD")
	if cfg.WiFiBackend == WiFiBackendNetworkManager && cfg.WiFiSSID == "" {
		return Config{}, fmt.Errorf("WIFI_SSID is required when WIFI_BACKEND=%s", WiFiBackendNetworkManager)
	}
	if cfg.WiFiJoinAttempts, err = envInt("WIFI_JOIN_ATTEMPTS", 30); err != nil {
		return Config{}, err
	}
	if cfg.WiFiJoinAttempts <= 0 {
		return Config{}, fmt.Errorf("WIFI_JOIN_ATTEMPTS must be positive, got %d", cfg.WiFiJoinAttempts)
	}
	if cfg.WiFiJoinInterval, err = envPositiveDuration("WIFI_JOIN_INTERVAL", time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WiFiJoinMaxInterval, err = envPositiveDuration("WIFI_JOIN_MAX_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WiFiJoinMaxInterval < cfg.WiFiJoinInterval {
		return Config{}, fmt.Errorf("WIFI_JOIN_MAX_INTERVAL (%v) must be >= WIFI_JOIN_INTERVAL (%v)", cfg.WiFiJoinMaxInterval, cfg.WiFiJoinInterval)
	}

	cfg.Hardware = envString("HARDWARE", HardwarePeriph)
	switch cfg.Hardware {
	case HardwarePeriph, HardwareSim:
	default:
		return Config{}, fmt.Errorf("invalid HARDWARE %q (allowed: periph, sim)", cfg.Hardware)
	}
	cfg.I2CBus = strings.TrimSpace(os.Getenv("I2C_BUS")) // empty selects the default bus
	if cfg.BME280Address, err = envAddress("BME280_ADDRESS", "0x76"); err != nil {
		return Config{}, err
	}
	if cfg.ADS1115Address, err = envAddress("ADS1115_ADDRESS", "0x48"); err != nil {
		return Config{}, err
	}
	if cfg.LightChannel, err = envInt("LIGHT_CHANNEL", 0); err != nil {
		return Config{}, err
	}
	if cfg.LightChannel < 0 || cfg.LightChannel > 3 {
		return Config{}, fmt.Errorf("LIGHT_CHANNEL must be between 0 and 3, got %d", cfg.LightChannel)
	}
	cfg.ButtonPin = envString("BUTTON_PIN", "GPIO17")
	if cfg.Debounce, err = envPositiveDuration("DEBOUNCE", 200*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = envPositiveDuration("POLL_INTERVAL", 400*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.ReleasePollInterval, err = envPositiveDuration("RELEASE_POLL_INTERVAL", 10*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.SimPressDuration, err = envPositiveDuration("SIM_PRESS_DURATION", 300*time.Millisecond); err != nil {
		return Config{}, err
	}

	cfg.ConsolePort = strings.TrimSpace(os.Getenv("CONSOLE_PORT")) // empty means stdin/stdout
	if cfg.ConsoleBaud, err = envInt("CONSOLE_BAUD", 9600); err != nil {
		return Config{}, err
	}
	if cfg.ConsoleBaud <= 0 {
		return Config{}, fmt.Errorf("CONSOLE_BAUD must be positive, got %d", cfg.ConsoleBaud)
	}
	if cfg.PromptEnabled, err = envBool("PROMPT_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.PromptTimeout, err = envDuration("PROMPT_TIMEOUT", 0); err != nil {
		return Config{}, err
	}
	if cfg.PromptTimeout < 0 {
		return Config{}, fmt.Errorf("PROMPT_TIMEOUT must not be negative, got %v", cfg.PromptTimeout)
	}

	cfg.MQTTBroker = strings.TrimSpace(os.Getenv("MQTT_BROKER")) // empty disables the mirror
	if cfg.MQTTPort, err = envInt("MQTT_PORT", 1883); err != nil {
		return Config{}, err
	}
	cfg.MQTTClientID = envString("MQTT_CLIENT_ID", "cloudpico-node-"+cfg.NodeID)

	cfg.MetricsPushURL = strings.TrimSpace(os.Getenv("METRICS_PUSH_URL"))
	if cfg.MetricsPushInterval, err = envPositiveDuration("METRICS_PUSH_INTERVAL", 10*time.Second); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

type CollectorConfig struct {
	Base

	HTTPAddr   string
	SQLitePath string
	SQLiteDSN  string
}

func LoadCollectorFromEnv() (CollectorConfig, error) {
	base, err := loadBase()
	if err != nil {
		return CollectorConfig{}, err
	}

	return CollectorConfig{
		Base:       base,
		HTTPAddr:   envString("HTTP_ADDR", ":8080"),
		SQLitePath: envString("SQLITE_PATH", "data/collector.db"),
		SQLiteDSN:  strings.TrimSpace(os.Getenv("SQLITE_DSN")),
	}, nil
}

func loadBase() (Base, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Base{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Base{}, err
	}

	return Base{AppEnv: appEnv, LogLevel: level}, nil
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func envPositiveDuration(key string, def time.Duration) (time.Duration, error) {
	d, err := envDuration(key, def)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func envAddress(key, def string) (uint16, error) {
	s := envString(key, def)
	addr, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return uint16(addr), nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
