// Package config provides centralized configuration management for Nemy.
// Values are layered by viper (defaults, config file, environment) and
// decoded into Config with mapstructure.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/core/client"
	"github.com/nemy/nemy/internal/core/coordinator"
	"github.com/nemy/nemy/internal/core/engine"
)

// DefaultConfigName is used when no app identity is available.
const DefaultConfigName = "nemy"

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("region", string(core.RegionNEM))
	v.SetDefault("base_url", client.DefaultBaseURL)

	v.SetDefault("quotas.per_minute", engine.DefaultPerMinute)
	v.SetDefault("quotas.per_day", engine.DefaultPerDay)
	v.SetDefault("scan_interval", coordinator.DefaultInterval.String())
	v.SetDefault("max_scan_interval", coordinator.DefaultMaxInterval.String())

	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Health check defaults
	v.SetDefault("health.enabled", true)
}

// BindEnv maps PREFIX_SECTION_KEY environment variables onto v.
// A trailing underscore on prefix is tolerated.
func BindEnv(v *viper.Viper, prefix string) {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), "_")
	if prefix == "" {
		prefix = strings.ToUpper(DefaultConfigName)
	}
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config, validates it and stores it as current.
// The API key is not required here; see RequireAPIKey.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// normalize canonicalizes the region and fills zero values with defaults.
func (c *Config) normalize() error {
	c.APIKey = strings.TrimSpace(c.APIKey)

	region, err := core.ParseRegion(c.Region)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.Region = string(region)

	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = client.DefaultBaseURL
	}
	if c.Quotas.PerMinute < 0 || c.Quotas.PerDay < 0 {
		return fmt.Errorf("invalid config: quotas must not be negative")
	}
	if c.Quotas.PerMinute == 0 {
		c.Quotas.PerMinute = engine.DefaultPerMinute
	}
	if c.Quotas.PerDay == 0 {
		c.Quotas.PerDay = engine.DefaultPerDay
	}

	if c.ScanInterval < 0 || c.MaxScanInterval < 0 {
		return fmt.Errorf("invalid config: scan intervals must not be negative")
	}
	if c.ScanInterval == 0 {
		c.ScanInterval = coordinator.DefaultInterval
	}
	if c.ScanInterval < time.Second {
		return fmt.Errorf("invalid config: scan_interval %s is below 1s", c.ScanInterval)
	}
	if c.MaxScanInterval == 0 {
		c.MaxScanInterval = coordinator.DefaultMaxInterval
	}
	if c.MaxScanInterval < c.ScanInterval {
		c.MaxScanInterval = c.ScanInterval
	}
	return nil
}

// RequireAPIKey reports a configuration error when no key is set.
func (c *Config) RequireAPIKey() error {
	if c == nil || c.APIKey == "" {
		return fmt.Errorf("api_key is required (set NEMY_API_KEY or api_key in the config file)")
	}
	return nil
}

// RegionValue returns the parsed region.
func (c *Config) RegionValue() core.Region {
	return core.Region(c.Region)
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath(configName string) string {
	if strings.TrimSpace(configName) == "" {
		configName = DefaultConfigName
	}
	configDir := gfconfig.GetAppConfigDir(configName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}
