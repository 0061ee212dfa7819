package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://dash.example.com
  token: secret
polling:
  intervals:
    stats: 2s
networks:
  - name: arbitrum
    chain_id: 42161
    rpc_url: https://arb1.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "arbdash", cfg.App.Name)
	assert.Equal(t, "https://dash.example.com", cfg.API.BaseURL)
	assert.Equal(t, "/api/proxy/api/v2/", cfg.API.Prefix)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Polling.Intervals["stats"])
	assert.Equal(t, 20, cfg.Polling.RefreshPerMinute)
	assert.Equal(t, 800*time.Millisecond, cfg.UI.AnimationDuration)
	assert.Equal(t, time.Second/60, cfg.UI.FrameInterval())
	require.Len(t, cfg.Networks, 1)
	assert.Equal(t, uint64(42161), cfg.Networks[0].ChainID)
	assert.Equal(t, 8081, cfg.Health.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ARBDASH_API_URL", "http://localhost:3000")
	t.Setenv("ARBDASH_LOG_LEVEL", "debug")
	t.Setenv("ETH_HTTP_URL", "https://mainnet.example.com")

	cfg, err := Load(writeConfig(t, "app:\n  environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	require.Len(t, cfg.Networks, 1)
	assert.Equal(t, "ethereum", cfg.Networks[0].Name)
	assert.Equal(t, uint64(1), cfg.Networks[0].ChainID)
}

func TestLoad_DemoNeedsNoBackend(t *testing.T) {
	cfg, err := Load(writeConfig(t, "api:\n  demo: true\n  demo_seed: 7\n"))
	require.NoError(t, err)
	assert.True(t, cfg.API.Demo)
	assert.Equal(t, int64(7), cfg.API.DemoSeed)
}

func TestLoad_MissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			App:     AppConfig{LogLevel: "info"},
			API:     APIConfig{BaseURL: "https://dash.example.com"},
			Polling: PollingConfig{HistoryPageSize: 20},
			UI:      UIConfig{FrameRate: 60},
			Health:  HealthConfig{Enabled: true, Port: 8081},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url is required"},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://x" }, "invalid api.base_url"},
		{"demo without url", func(c *Config) { c.API.BaseURL = ""; c.API.Demo = true }, ""},
		{"bad log level", func(c *Config) { c.App.LogLevel = "loud" }, "app.log_level"},
		{"negative interval", func(c *Config) { c.Polling.Intervals = map[string]time.Duration{"stats": -1} }, "polling.intervals.stats"},
		{"page size", func(c *Config) { c.Polling.HistoryPageSize = 0 }, "history_page_size"},
		{"frame rate", func(c *Config) { c.UI.FrameRate = 0 }, "ui.frame_rate"},
		{"network without url", func(c *Config) { c.Networks = []NetworkConfig{{Name: "base"}} }, "rpc_url is required"},
		{"duplicate network", func(c *Config) {
			c.Networks = []NetworkConfig{{Name: "base", RPCURL: "http://a"}, {Name: "Base", RPCURL: "http://b"}}
		}, "configured twice"},
		{"live needs ws url", func(c *Config) { c.Live = LiveConfig{Enabled: true, URL: "http://x"} }, "live.url"},
		{"trace provider", func(c *Config) { c.Telemetry = TelemetryConfig{Enabled: true, TraceProvider: "jaeger"} }, "trace_provider"},
		{"health port", func(c *Config) { c.Health.Port = 0 }, "health.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
