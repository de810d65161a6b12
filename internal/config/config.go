package config

import (
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"air-purifier-bridge/internal/logging"
)

const (
	defaultHTTPAddr           = ":80"
	defaultConfigPath         = "/app/config.json"
	defaultMQTTBroker         = "tcp://localhost:1883"
	defaultMQTTClientID       = "air-purifier-bridge"
	defaultMQTTTopicPrefix    = "airpurifier"
	defaultCommandTimeout     = 5 * time.Second
	defaultPollInterval       = 30 * time.Second
	defaultSetupRetryInterval = 30 * time.Second
)

// Config stores runtime settings loaded from environment variables.
type Config struct {
	HTTPAddr           string
	LocalIP            string
	ConfigPath         string
	MQTTBroker         string
	MQTTClientID       string
	MQTTUsername       string
	MQTTPassword       string
	MQTTTopicPrefix    string
	MQTTQoS            byte
	CommandTimeout     time.Duration
	PollInterval       time.Duration
	SetupRetryInterval time.Duration
	LogLevel           slog.Level
	LogFormat          string
	SSDPEnabled        bool
}

// Load builds Config from environment variables using stable defaults.
func Load() Config {
	return Config{
		HTTPAddr:           getenv("HTTP_ADDR", defaultHTTPAddr),
		LocalIP:            getenv("LOCAL_IP", ""),
		ConfigPath:         getenv("CONFIG_PATH", defaultConfigPath),
		MQTTBroker:         getenv("MQTT_BROKER", defaultMQTTBroker),
		MQTTClientID:       getenv("MQTT_CLIENT_ID", defaultMQTTClientID),
		MQTTUsername:       getenv("MQTT_USERNAME", ""),
		MQTTPassword:       getenv("MQTT_PASSWORD", ""),
		MQTTTopicPrefix:    getenv("MQTT_TOPIC_PREFIX", defaultMQTTTopicPrefix),
		MQTTQoS:            parseQoS(getenv("MQTT_QOS", "1")),
		CommandTimeout:     parseDuration("COMMAND_TIMEOUT", defaultCommandTimeout),
		PollInterval:       parseDuration("POLL_INTERVAL", defaultPollInterval),
		SetupRetryInterval: parseDuration("SETUP_RETRY_INTERVAL", defaultSetupRetryInterval),
		LogLevel:           logging.ParseLevel(getenv("LOG_LEVEL", "info")),
		LogFormat:          getenv("LOG_FORMAT", "json"),
		SSDPEnabled:        parseBool("SSDP_ENABLED", true),
	}
}

// HTTPPort returns the port HTTPAddr listens on, 80 when it cannot be parsed.
func (c Config) HTTPPort() int {
	_, port, err := net.SplitHostPort(c.HTTPAddr)
	if err != nil {
		return 80
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 {
		return 80
	}
	return n
}

func getenv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func parseQoS(raw string) byte {
	switch raw {
	case "0":
		return 0
	case "2":
		return 2
	default:
		return 1
	}
}
