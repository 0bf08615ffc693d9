package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "HTTP_ADDR", "LOG_LEVEL", "API_KEYS", "TRACKING_HOST",
	"COLLECTOR_API_KEY", "COLLECTOR_SERVER_TOKEN", "COLLECTOR_TIMEOUT",
	"SESSION_BACKEND", "DB_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"SESSION_TTL", "CHECKOUT_WINDOW", "ABANDON_AFTER", "TRACK_COMMERCE",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "SERVER_SIDE_HOST", "AUTOCAPTURE",
	"COOKIELESS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DefaultTrackingHost, cfg.Collector.TrackingHost)
	assert.Equal(t, DefaultServerSideHost, cfg.Collector.ServerSideHost)
	assert.False(t, cfg.Tracking.Autocapture)
	assert.False(t, cfg.Tracking.CookieLess)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Tracking.CheckoutWindow)
	assert.Equal(t, time.Hour, cfg.Tracking.AbandonAfter)
	assert.True(t, cfg.Tracking.Commerce)
	assert.Equal(t, map[string]string{"relay-key-123": "site1"}, cfg.APIKeys)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEYS", "shopA:ka, shopB:kb")
	t.Setenv("COLLECTOR_API_KEY", "pk")
	t.Setenv("COLLECTOR_SERVER_TOKEN", "st")
	t.Setenv("CHECKOUT_WINDOW", "90s")
	t.Setenv("TRACK_COMMERCE", "false")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SERVER_SIDE_HOST", "https://s2s.example.com")
	t.Setenv("AUTOCAPTURE", "true")
	t.Setenv("COOKIELESS", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://s2s.example.com", cfg.Collector.ServerSideHost)
	assert.True(t, cfg.Tracking.Autocapture)
	assert.True(t, cfg.Tracking.CookieLess)

	assert.Equal(t, map[string]string{"ka": "shopA", "kb": "shopB"}, cfg.APIKeys)
	assert.Equal(t, "pk", cfg.Collector.APIKey)
	assert.Equal(t, "st", cfg.Collector.ServerToken)
	assert.Equal(t, 90*time.Second, cfg.Tracking.CheckoutWindow)
	assert.False(t, cfg.Tracking.Commerce)
	assert.Equal(t, 2, cfg.Session.RedisDB)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9090"
api_keys: "shop:file-key"
collector:
  tracking_host: "https://collector.internal"
  api_key: "${RELAY_TEST_KEY}"
  timeout: 3s
tracking:
  commerce: true
  checkout_window: 10m
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RELAY_TEST_KEY", "expanded")
	t.Setenv("HTTP_ADDR", ":7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTPAddr, "env wins over file")
	assert.Equal(t, "https://collector.internal", cfg.Collector.TrackingHost)
	assert.Equal(t, "expanded", cfg.Collector.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Collector.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Tracking.CheckoutWindow)
	assert.Equal(t, time.Hour, cfg.Tracking.AbandonAfter, "unset file values keep defaults")
	assert.Equal(t, map[string]string{"file-key": "shop"}, cfg.APIKeys)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad api keys":        {"API_KEYS": "no-colon"},
		"empty site":          {"API_KEYS": ":key"},
		"bad duration":        {"CHECKOUT_WINDOW": "soon"},
		"bad bool":            {"TRACK_COMMERCE": "maybe"},
		"postgres without db": {"SESSION_BACKEND": "postgres"},
		"redis without addr":  {"SESSION_BACKEND": "redis"},
		"unknown backend":     {"SESSION_BACKEND": "etcd"},
		"zero rate":           {"RATE_LIMIT_RPS": "0"},
		"missing file":        {"CONFIG_FILE": "/nonexistent/relay.yaml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
