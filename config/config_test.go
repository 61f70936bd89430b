package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Address)
	require.Equal(t, 50, cfg.DB.MaxOpenConns)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.True(t, cfg.Redis.Enabled)
	require.Equal(t, "order-events", cfg.Azure.QueueName)
	require.Equal(t, "orders", cfg.Elastic.Index)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ORDERS_SERVER_ADDRESS", "127.0.0.1:9999")
	t.Setenv("ORDERS_REDIS_ENABLED", "false")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9999", cfg.Server.Address)
	require.False(t, cfg.Redis.Enabled)
}

func TestFormatIndex(t *testing.T) {
	cfg := ElasticConfig{Prefix: "orders"}
	require.Equal(t, "orders-headers", FormatIndex(cfg, "headers"))
}
