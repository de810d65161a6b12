package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "MQTT_BROKER", "POLL_INTERVAL", "MQTT_QOS", "SSDP_ENABLED", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	assert.Equal(t, ":80", cfg.HTTPAddr)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, byte(1), cfg.MQTTQoS)
	assert.True(t, cfg.SSDPEnabled)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 80, cfg.HTTPPort())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", " :8080 ")
	t.Setenv("POLL_INTERVAL", "10s")
	t.Setenv("SETUP_RETRY_INTERVAL", "-1s")
	t.Setenv("MQTT_QOS", "2")
	t.Setenv("SSDP_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 8080, cfg.HTTPPort())
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.SetupRetryInterval)
	assert.Equal(t, byte(2), cfg.MQTTQoS)
	assert.False(t, cfg.SSDPEnabled)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}
