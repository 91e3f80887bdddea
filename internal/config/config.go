// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Health    HealthConfig    `mapstructure:"health"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// GatewayConfig holds settings for the remote market-data gateway.
type GatewayConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	RequestsPerMinute  int           `mapstructure:"requests_per_minute"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `mapstructure:"breaker_open_timeout"`
}

// SyncConfig holds the intervals driving the sync orchestrator loops.
type SyncConfig struct {
	HeartbeatInterval   time.Duration `mapstructure:"heartbeat_interval"`
	TrendPollInterval   time.Duration `mapstructure:"trend_poll_interval"`
	TrendRefreshCeiling time.Duration `mapstructure:"trend_refresh_ceiling"`
}

// HealthConfig holds health probe server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("PPK")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Config file not found is OK, env vars and defaults still apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "PPK_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "PPK_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "PPK_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("gateway.base_url", "PPK_GATEWAY_URL", "GATEWAY_URL")
	v.BindEnv("gateway.request_timeout", "PPK_GATEWAY_TIMEOUT")
	v.BindEnv("gateway.requests_per_minute", "PPK_GATEWAY_RPM")

	v.BindEnv("sync.heartbeat_interval", "PPK_HEARTBEAT_INTERVAL")
	v.BindEnv("sync.trend_poll_interval", "PPK_TREND_POLL_INTERVAL")
	v.BindEnv("sync.trend_refresh_ceiling", "PPK_TREND_REFRESH_CEILING")

	v.BindEnv("telemetry.enabled", "PPK_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "PPK_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "PPK_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "market-intel")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("gateway.base_url", "http://localhost:8000")
	v.SetDefault("gateway.request_timeout", "10s")
	v.SetDefault("gateway.requests_per_minute", 120)
	v.SetDefault("gateway.breaker_max_failures", 5)
	v.SetDefault("gateway.breaker_open_timeout", "30s")

	v.SetDefault("sync.heartbeat_interval", "5s")
	v.SetDefault("sync.trend_poll_interval", "3s")
	v.SetDefault("sync.trend_refresh_ceiling", "2m")

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8090)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "market-intel")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	if c.Gateway.RequestsPerMinute <= 0 {
		return fmt.Errorf("gateway.requests_per_minute must be positive")
	}
	if c.Sync.HeartbeatInterval <= 0 {
		return fmt.Errorf("sync.heartbeat_interval must be positive")
	}
	if c.Sync.TrendPollInterval <= 0 {
		return fmt.Errorf("sync.trend_poll_interval must be positive")
	}
	if c.Sync.TrendRefreshCeiling <= c.Sync.TrendPollInterval {
		return fmt.Errorf("sync.trend_refresh_ceiling must exceed sync.trend_poll_interval")
	}
	return nil
}
