package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RIDER_API_URL", "https://api.example.com/")

	cfg, err := Load("rider")
	require.NoError(t, err)

	assert.Equal(t, "rider", cfg.App.Name)
	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Polling.SearchDebounce)
	assert.Equal(t, 5*time.Second, cfg.Polling.BidInterval)
	assert.Equal(t, 20*time.Second, cfg.Polling.RideInterval)
	assert.Equal(t, 30, cfg.Polling.ConfirmAttempts)
	assert.Equal(t, time.Second, cfg.Polling.ConfirmInterval)
	assert.Equal(t, "embedded", cfg.Payments.Flow)
	assert.Equal(t, "websocket", cfg.Realtime.Transport)
	assert.Equal(t, "chat_message", cfg.Realtime.EventType)
	assert.False(t, cfg.API.RetryGets)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RIDE_POLL_INTERVAL", "3s")
	t.Setenv("PAYMENT_FLOW", "link")
	t.Setenv("PAYMENT_CURRENCY", "EUR")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("RIDER_API_RETRY_GETS", "true")

	cfg, err := Load("rider")
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Polling.RideInterval)
	assert.Equal(t, "link", cfg.Payments.Flow)
	assert.Equal(t, "eur", cfg.Payments.Currency)
	assert.Equal(t, 2, cfg.Cache.DB)
	assert.True(t, cfg.API.RetryGets)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("BID_POLL_INTERVAL", "soon")
	t.Setenv("REDIS_DB", "x")

	cfg, err := Load("rider")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Polling.BidInterval)
	assert.Equal(t, 0, cfg.Cache.DB)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown flow", func(c *Config) { c.Payments.Flow = "cash" }, "PAYMENT_FLOW"},
		{"unknown transport", func(c *Config) { c.Realtime.Transport = "sse" }, "REALTIME_TRANSPORT"},
		{"no attempts", func(c *Config) { c.Polling.ConfirmAttempts = 0 }, "PAYMENT_CONFIRM_ATTEMPTS"},
		{"no base url", func(c *Config) { c.API.BaseURL = "" }, "RIDER_API_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("rider")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRedisAddr(t *testing.T) {
	c := CacheConfig{RedisHost: "cache", RedisPort: "6380"}
	assert.Equal(t, "cache:6380", c.RedisAddr())
}

func TestLoad_LanguageAndLogLevel(t *testing.T) {
	t.Setenv("RIDER_LANGUAGE", "ru-RU")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("rider")
	require.NoError(t, err)

	assert.Equal(t, "ru", cfg.App.Language)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}
