package config

import (
	"time"
)

// Config represents the complete application configuration.
// Sources, lowest precedence first: defaults, config file
// ($XDG_CONFIG_HOME/nemy/config.yaml or --config), NEMY_* environment
// variables, command-line flags.
type Config struct {
	// APIKey is the RapidAPI subscription key. Never logged.
	APIKey string `mapstructure:"api_key"`

	// Region is one of NSW1, QLD1, SA1, TAS1, VIC1 or NEM.
	Region string `mapstructure:"region"`

	// BaseURL overrides the RapidAPI gateway, mainly for testing.
	BaseURL string `mapstructure:"base_url"`

	Quotas          QuotaConfig   `mapstructure:"quotas"`
	ScanInterval    time.Duration `mapstructure:"scan_interval"`
	MaxScanInterval time.Duration `mapstructure:"max_scan_interval"`

	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
}

// QuotaConfig mirrors the subscription tier's request allowance.
type QuotaConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	PerDay    int `mapstructure:"per_day"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED, ENTERPRISE
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated Prometheus exporter port.
	// Metrics are also available at the main HTTP port.
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
