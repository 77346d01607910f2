package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, name := range []string{
		"BRIDGE_HOST", "BRIDGE_TCP_PORT", "BRIDGE_UDP_PORT",
		"BRIDGE_TIMEOUT_SECONDS", "BRIDGE_RETRY_COUNT",
	} {
		t.Setenv(name, "")
	}
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "127.0.0.1:9001", cfg.TCPAddr())
	assert.Equal(t, "127.0.0.1:9002", cfg.UDPAddr())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("BRIDGE_HOST", "10.0.0.5")
	t.Setenv("BRIDGE_TCP_PORT", "9101")
	t.Setenv("BRIDGE_UDP_PORT", "9102")
	t.Setenv("BRIDGE_TIMEOUT_SECONDS", "2.5")
	t.Setenv("BRIDGE_RETRY_COUNT", "1")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:9101", cfg.TCPAddr())
	assert.Equal(t, "10.0.0.5:9102", cfg.UDPAddr())
	assert.Equal(t, 2500*time.Millisecond, cfg.ConnectTimeout)
	assert.Equal(t, 1, cfg.RetryCount)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"BRIDGE_TCP_PORT":        "not-a-port",
		"BRIDGE_UDP_PORT":        "80", // below the allowed range
		"BRIDGE_TIMEOUT_SECONDS": "-1",
		"BRIDGE_RETRY_COUNT":     "many",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}
