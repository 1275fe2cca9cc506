package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STARTING_BALANCE", "")
	t.Setenv("TICK_INTERVAL_SECONDS", "")
	t.Setenv("TICK_CONCURRENCY", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, decimal.NewFromInt(1000).Equal(cfg.StartingBalance))
	assert.Equal(t, 60*time.Second, cfg.TickInterval)
	assert.Equal(t, 8, cfg.TickConcurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.NATSEnabled())
	assert.False(t, cfg.DiscordEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("STARTING_BALANCE", "250.5")
	t.Setenv("TICK_INTERVAL_SECONDS", "15")
	t.Setenv("TICK_CONCURRENCY", "2")
	t.Setenv("NATS_SERVERS", "nats://localhost:4222")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, "250.5", cfg.StartingBalance.String())
	assert.Equal(t, 15*time.Second, cfg.TickInterval)
	assert.Equal(t, 2, cfg.TickConcurrency)
	assert.True(t, cfg.NATSEnabled())
}

func TestLoad_RejectsBadNumbers(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative balance", "STARTING_BALANCE", "-5"},
		{"garbage balance", "STARTING_BALANCE", "lots"},
		{"zero interval", "TICK_INTERVAL_SECONDS", "0"},
		{"garbage concurrency", "TICK_CONCURRENCY", "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "test")
			t.Setenv(tt.key, tt.value)

			_, err := load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_RequiresDatabaseOutsideTests(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "")

	_, err := load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoad_DiscordNeedsChannel(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost")
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_CHANNEL_ID", "")

	_, err := load()
	assert.ErrorContains(t, err, "DISCORD_CHANNEL_ID")
}

func TestGet_UsesTestOverride(t *testing.T) {
	defer ResetConfig()

	custom := NewTestConfig()
	custom.HTTPAddr = ":9999"
	SetTestConfig(custom)

	assert.Same(t, custom, Get())
}

func TestGetDatabaseURL(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://user:pw@localhost:5432/", DatabaseName: "stakechat"}
	assert.Equal(t, "postgres://user:pw@localhost:5432/stakechat?sslmode=disable", cfg.GetDatabaseURL())
}
