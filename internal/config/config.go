// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Wallets   WalletsConfig   `mapstructure:"wallets"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// GatewayConfig holds the gateway sidecar connection settings.
type GatewayConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	CertsPath         string        `mapstructure:"certs_path"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// BaseURL returns the gateway base URL derived from host, port and SSL mode.
func (c *GatewayConfig) BaseURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// FeesConfig holds priority fee estimation defaults. Min and max fees are
// denominated in the chain's native token.
type FeesConfig struct {
	MinFee              float64       `mapstructure:"min_fee"`
	MaxFee              float64       `mapstructure:"max_fee"`
	DefaultComputeUnits uint64        `mapstructure:"default_compute_units"`
	GasEstimateInterval time.Duration `mapstructure:"gas_estimate_interval"`
}

// MinFeeDecimal returns the minimum fee as decimal.Decimal.
func (c *FeesConfig) MinFeeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinFee)
}

// MaxFeeDecimal returns the maximum fee as decimal.Decimal.
func (c *FeesConfig) MaxFeeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxFee)
}

// MonitorConfig holds liveness and confirmation polling settings.
type MonitorConfig struct {
	PingInterval       time.Duration `mapstructure:"ping_interval"`
	MaxBackoffInterval time.Duration `mapstructure:"max_backoff_interval"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	MaxPollTime        time.Duration `mapstructure:"max_poll_time"`
}

// WalletsConfig maps chain names to default wallet addresses.
type WalletsConfig struct {
	Default map[string]string `mapstructure:"default"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
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
	v.SetEnvPrefix("GW")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "GW_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "GW_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "GW_LOG_LEVEL", "LOG_LEVEL")

	// Gateway
	v.BindEnv("gateway.host", "GW_GATEWAY_HOST", "GATEWAY_HOST")
	v.BindEnv("gateway.port", "GW_GATEWAY_PORT", "GATEWAY_PORT")
	v.BindEnv("gateway.use_ssl", "GW_GATEWAY_USE_SSL", "GATEWAY_USE_SSL")
	v.BindEnv("gateway.certs_path", "GW_GATEWAY_CERTS_PATH", "GATEWAY_CERTS_PATH")

	// Fees
	v.BindEnv("fees.min_fee", "GW_FEES_MIN")
	v.BindEnv("fees.max_fee", "GW_FEES_MAX")
	v.BindEnv("fees.default_compute_units", "GW_FEES_COMPUTE_UNITS")

	// Monitor
	v.BindEnv("monitor.ping_interval", "GW_PING_INTERVAL")
	v.BindEnv("monitor.poll_interval", "GW_POLL_INTERVAL")
	v.BindEnv("monitor.max_poll_time", "GW_MAX_POLL_TIME")

	// Telemetry
	v.BindEnv("telemetry.enabled", "GW_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "GW_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "GW_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "gateway-core")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Gateway defaults
	v.SetDefault("gateway.host", "localhost")
	v.SetDefault("gateway.port", 15888)
	v.SetDefault("gateway.use_ssl", false)
	v.SetDefault("gateway.request_timeout", "10s")
	v.SetDefault("gateway.requests_per_minute", 0) // 0 disables the limiter
	v.SetDefault("gateway.cache_ttl", "10s")

	// Fees defaults
	v.SetDefault("fees.min_fee", 0.0001)
	v.SetDefault("fees.max_fee", 0.01)
	v.SetDefault("fees.default_compute_units", 200000)
	v.SetDefault("fees.gas_estimate_interval", "60s")

	// Monitor defaults
	v.SetDefault("monitor.ping_interval", "2s")
	v.SetDefault("monitor.max_backoff_interval", "60s")
	v.SetDefault("monitor.poll_interval", "2s")
	v.SetDefault("monitor.max_poll_time", "60s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "gateway-core")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Gateway.Host == "" {
		return fmt.Errorf("gateway.host is required")
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("invalid gateway.port: %d", c.Gateway.Port)
	}
	if c.Gateway.UseSSL && c.Gateway.CertsPath == "" {
		return fmt.Errorf("gateway.certs_path is required when gateway.use_ssl is true")
	}
	if c.Fees.MinFee < 0 || c.Fees.MaxFee <= 0 {
		return fmt.Errorf("fee bounds must be non-negative with max_fee > 0")
	}
	if c.Fees.MinFee > c.Fees.MaxFee {
		return fmt.Errorf("fees.min_fee %f exceeds fees.max_fee %f", c.Fees.MinFee, c.Fees.MaxFee)
	}
	if c.Monitor.PollInterval <= 0 || c.Monitor.MaxPollTime < c.Monitor.PollInterval {
		return fmt.Errorf("monitor poll settings invalid: interval %s, max %s", c.Monitor.PollInterval, c.Monitor.MaxPollTime)
	}
	for chain, addr := range c.Wallets.Default {
		if chain == "ethereum" && !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid wallets.default.%s address: %s", chain, addr)
		}
		if addr == "" {
			return fmt.Errorf("wallets.default.%s cannot be empty", chain)
		}
	}
	return nil
}
