package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "Support", cfg.OperatorName)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "chat", cfg.SubjectBase)
	assert.Equal(t, 5*time.Second, cfg.ReplyTimeout)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.True(t, cfg.OpsEnabled)
	assert.Equal(t, ":9090", cfg.OpsAddr)
	assert.False(t, cfg.Headless)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPERATOR_NAME", "Alice")
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("REPLY_TIMEOUT", "2s")
	t.Setenv("OPS_ENABLED", "false")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("HEADLESS", "true")

	cfg := Load()

	assert.Equal(t, "Alice", cfg.OperatorName)
	assert.Equal(t, "nats://broker:4222", cfg.NATSURL)
	assert.Equal(t, 2*time.Second, cfg.ReplyTimeout)
	assert.False(t, cfg.OpsEnabled)
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.True(t, cfg.Headless)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("REPLY_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_REQUESTS", "many")
	t.Setenv("OPS_ENABLED", "yep")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.ReplyTimeout)
	assert.Equal(t, 60, cfg.RateLimitRequests)
	assert.True(t, cfg.OpsEnabled)
}
