// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the dashboard reads.
const EnvPrefix = "ARBDASH"

// Config holds all application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	API         APIConfig         `mapstructure:"api"`
	Polling     PollingConfig     `mapstructure:"polling"`
	UI          UIConfig          `mapstructure:"ui"`
	Networks    []NetworkConfig   `mapstructure:"networks"`
	Ethereum    EthereumConfig    `mapstructure:"ethereum"`
	Live        LiveConfig        `mapstructure:"live"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Health      HealthConfig      `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"` // TUI mode only; empty discards logs
	CLIMode     bool   `mapstructure:"-"`        // set at runtime from --cli
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Prefix   string        `mapstructure:"prefix"`
	Token    string        `mapstructure:"token"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Demo     bool          `mapstructure:"demo"`
	DemoSeed int64         `mapstructure:"demo_seed"`
}

// PollingConfig holds per-resource refresh intervals.
type PollingConfig struct {
	// Intervals is keyed by resource name (stats, history, alerts, ...).
	Intervals        map[string]time.Duration `mapstructure:"intervals"`
	DefaultInterval  time.Duration            `mapstructure:"default_interval"`
	RefreshPerMinute int                      `mapstructure:"refresh_per_minute"`
	RefreshBurst     int                      `mapstructure:"refresh_burst"`
	HistoryPageSize  int                      `mapstructure:"history_page_size"`
	HistoryCacheSize int                      `mapstructure:"history_cache_size"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	AnimationDuration time.Duration `mapstructure:"animation_duration"`
	Animate           bool          `mapstructure:"animate"`
	FrameRate         int           `mapstructure:"frame_rate"`
	AltScreen         bool          `mapstructure:"alt_screen"`
}

// FrameInterval is the delay between animation frames.
func (c UIConfig) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.FrameRate)
}

// NetworkConfig is one chain probed directly over JSON-RPC.
type NetworkConfig struct {
	Name    string        `mapstructure:"name"`
	ChainID uint64        `mapstructure:"chain_id"`
	RPCURL  string        `mapstructure:"rpc_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// EthereumConfig is a shorthand for a single mainnet RPC endpoint, usually
// set from the environment. It is folded into Networks by Load.
type EthereumConfig struct {
	HTTPURL string `mapstructure:"http_url"`
	ChainID uint64 `mapstructure:"chain_id"`
}

// LiveConfig holds the push feed settings.
type LiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	URL       string `mapstructure:"url"`
	PerMinute int    `mapstructure:"per_minute"`
	Burst     int    `mapstructure:"burst"`
}

// PreferencesConfig locates the local preferences file.
type PreferencesConfig struct {
	Path string `mapstructure:"path"` // empty uses the user config dir
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	MetricsOTLP    bool   `mapstructure:"metrics_otlp"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.foldEthereum()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARBDASH_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARBDASH_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARBDASH_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.log_file", "ARBDASH_LOG_FILE")

	// API
	v.BindEnv("api.base_url", "ARBDASH_API_URL", "API_BASE_URL")
	v.BindEnv("api.token", "ARBDASH_API_TOKEN", "API_TOKEN")
	v.BindEnv("api.demo", "ARBDASH_DEMO")
	v.BindEnv("api.demo_seed", "ARBDASH_DEMO_SEED")

	// Ethereum
	v.BindEnv("ethereum.http_url", "ARBDASH_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "ARBDASH_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	// Live feed
	v.BindEnv("live.enabled", "ARBDASH_LIVE_ENABLED")
	v.BindEnv("live.url", "ARBDASH_LIVE_URL")

	// Preferences
	v.BindEnv("preferences.path", "ARBDASH_PREFERENCES_PATH")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARBDASH_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARBDASH_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARBDASH_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "ARBDASH_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")

	// Health
	v.BindEnv("health.port", "ARBDASH_HEALTH_PORT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "arbdash")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// API defaults
	v.SetDefault("api.prefix", "/api/proxy/api/v2/")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("api.demo", false)
	v.SetDefault("api.demo_seed", 42)

	// Polling defaults
	v.SetDefault("polling.intervals", map[string]string{
		"stats":             "5s",
		"history":           "15s",
		"alerts":            "5s",
		"alert_rules":       "30s",
		"wallets":           "15s",
		"system_settings":   "30s",
		"security_settings": "60s",
		"opportunities":     "3s",
		"networks":          "10s",
	})
	v.SetDefault("polling.default_interval", "10s")
	v.SetDefault("polling.refresh_per_minute", 20)
	v.SetDefault("polling.refresh_burst", 3)
	v.SetDefault("polling.history_page_size", 20)
	v.SetDefault("polling.history_cache_size", 16)

	// UI defaults
	v.SetDefault("ui.animation_duration", "800ms")
	v.SetDefault("ui.animate", true)
	v.SetDefault("ui.frame_rate", 60)
	v.SetDefault("ui.alt_screen", true)

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)

	// Live defaults
	v.SetDefault("live.enabled", false)
	v.SetDefault("live.per_minute", 60)
	v.SetDefault("live.burst", 2)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "arbdash")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)

	// Health defaults
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)
}

// foldEthereum adds the ethereum shorthand to Networks unless a network of
// that name is already configured.
func (c *Config) foldEthereum() {
	if c.Ethereum.HTTPURL == "" {
		return
	}
	for _, n := range c.Networks {
		if strings.EqualFold(n.Name, "ethereum") {
			return
		}
	}
	c.Networks = append(c.Networks, NetworkConfig{
		Name:    "ethereum",
		ChainID: c.Ethereum.ChainID,
		RPCURL:  c.Ethereum.HTTPURL,
	})
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validTraceProviders = map[string]bool{
	"zipkin": true, "otlp-grpc": true, "otlp-http": true, "console": true, "none": true,
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		return fmt.Errorf("app.log_level must be one of debug, info, warn, error: %q", c.App.LogLevel)
	}

	if !c.API.Demo {
		if c.API.BaseURL == "" {
			return fmt.Errorf("api.base_url is required unless api.demo is set")
		}
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid api.base_url: %s", c.API.BaseURL)
		}
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}

	for name, d := range c.Polling.Intervals {
		if d < 0 {
			return fmt.Errorf("polling.intervals.%s cannot be negative", name)
		}
	}
	if c.Polling.DefaultInterval < 0 {
		return fmt.Errorf("polling.default_interval cannot be negative")
	}
	if c.Polling.HistoryPageSize < 1 || c.Polling.HistoryPageSize > 100 {
		return fmt.Errorf("polling.history_page_size must be within 1..100")
	}

	if c.UI.FrameRate < 1 || c.UI.FrameRate > 240 {
		return fmt.Errorf("ui.frame_rate must be within 1..240")
	}
	if c.UI.AnimationDuration < 0 {
		return fmt.Errorf("ui.animation_duration cannot be negative")
	}

	seen := make(map[string]bool, len(c.Networks))
	for i, n := range c.Networks {
		if n.Name == "" {
			return fmt.Errorf("networks[%d].name is required", i)
		}
		key := strings.ToLower(n.Name)
		if seen[key] {
			return fmt.Errorf("network %q configured twice", n.Name)
		}
		seen[key] = true
		if n.RPCURL == "" {
			return fmt.Errorf("networks[%d].rpc_url is required", i)
		}
	}

	if c.Live.Enabled {
		u, err := url.Parse(c.Live.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return fmt.Errorf("live.url must be a ws:// or wss:// url: %q", c.Live.URL)
		}
	}

	if c.Telemetry.Enabled && !validTraceProviders[c.Telemetry.TraceProvider] {
		return fmt.Errorf("unknown telemetry.trace_provider: %s", c.Telemetry.TraceProvider)
	}

	if c.Health.Enabled && (c.Health.Port < 1 || c.Health.Port > 65535) {
		return fmt.Errorf("health.port out of range: %d", c.Health.Port)
	}

	return nil
}
