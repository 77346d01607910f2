// Package config holds bridge connection settings, read once at startup from
// the environment.
//
// Variables and defaults:
//
//	BRIDGE_HOST             host address        127.0.0.1
//	BRIDGE_TCP_PORT         reliable channel    9001
//	BRIDGE_UDP_PORT         low-latency channel 9002
//	BRIDGE_TIMEOUT_SECONDS  connect timeout     5
//	BRIDGE_RETRY_COUNT      connect retries     3
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults, matching the documented deployment.
const (
	DefaultHost           = "127.0.0.1"
	DefaultTCPPort        = 9001
	DefaultUDPPort        = 9002
	DefaultConnectTimeout = 5 * time.Second
	DefaultRetryCount     = 3

	// ResponseTimeout bounds the wait for a command response on both sides
	// of the bridge.
	ResponseTimeout = 30 * time.Second
)

// Config contains the bridge connection configuration shared by the client
// and the host-side daemon.
type Config struct {
	Host           string
	TCPPort        int
	UDPPort        int
	ConnectTimeout time.Duration
	RetryCount     int
}

// Default returns the built-in defaults, untouched by the environment.
func Default() Config {
	return Config{
		Host:           DefaultHost,
		TCPPort:        DefaultTCPPort,
		UDPPort:        DefaultUDPPort,
		ConnectTimeout: DefaultConnectTimeout,
		RetryCount:     DefaultRetryCount,
	}
}

// FromEnv returns the defaults overridden by any set environment variables.
// Malformed values are an error rather than a silent fallback.
func FromEnv() (Config, error) {
	cfg := Default()
	if host := os.Getenv("BRIDGE_HOST"); host != "" {
		cfg.Host = host
	}
	var err error
	if cfg.TCPPort, err = envPort("BRIDGE_TCP_PORT", cfg.TCPPort); err != nil {
		return cfg, err
	}
	if cfg.UDPPort, err = envPort("BRIDGE_UDP_PORT", cfg.UDPPort); err != nil {
		return cfg, err
	}
	if raw := os.Getenv("BRIDGE_TIMEOUT_SECONDS"); raw != "" {
		seconds, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil || seconds <= 0 {
			return cfg, fmt.Errorf("config: invalid BRIDGE_TIMEOUT_SECONDS %q", raw)
		}
		cfg.ConnectTimeout = time.Duration(seconds * float64(time.Second))
	}
	if raw := os.Getenv("BRIDGE_RETRY_COUNT"); raw != "" {
		count, parseErr := strconv.Atoi(raw)
		if parseErr != nil || count < 0 {
			return cfg, fmt.Errorf("config: invalid BRIDGE_RETRY_COUNT %q", raw)
		}
		cfg.RetryCount = count
	}
	return cfg, nil
}

// TCPAddr returns the reliable channel address in "host:port" form.
func (c Config) TCPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.TCPPort)
}

// UDPAddr returns the low-latency channel address in "host:port" form.
func (c Config) UDPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.UDPPort)
}

func envPort(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1024 || port > 65535 {
		return 0, fmt.Errorf("config: %s must be a port in [1024, 65535], got %q", name, raw)
	}
	return port, nil
}
