package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VK_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "5.199", cfg.VK.APIVersion)
	assert.Equal(t, 15*time.Second, cfg.Engine.DeliveryTimeout)
	assert.Equal(t, 5, cfg.Engine.MaxConcurrentDeliveries)
	assert.Equal(t, "contest:finalize", cfg.Engine.FinalizeStream)
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoad_RequiresVKToken(t *testing.T) {
	t.Setenv("VK_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestConfig_GetDSN(t *testing.T) {
	t.Setenv("VK_TOKEN", "token")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "host=db port=5432 user=postgres password=secret dbname=contests sslmode=disable", cfg.GetDSN())
}

func TestConfig_LocationFallsBackToUTC(t *testing.T) {
	t.Setenv("VK_TOKEN", "token")
	t.Setenv("ENGINE_TIMEZONE", "Mars/Olympus")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.UTC, cfg.Location())
}
