package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemy/nemy/internal/core"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	BindEnv(v, "NEMY_TEST_")
	return v
}

func TestLoad(t *testing.T) {
	t.Run("LoadDefaults", func(t *testing.T) {
		cfg, err := Load(newViper(t))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "", cfg.APIKey)
		assert.Equal(t, "NEM", cfg.Region)
		assert.Equal(t, core.RegionNEM, cfg.RegionValue())
		assert.Equal(t, "https://nemy.p.rapidapi.com", cfg.BaseURL)

		assert.Equal(t, 30, cfg.Quotas.PerMinute)
		assert.Equal(t, 1000, cfg.Quotas.PerDay)
		assert.Equal(t, 300*time.Second, cfg.ScanInterval)
		assert.Equal(t, time.Hour, cfg.MaxScanInterval)

		// Verify server defaults
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "structured", cfg.Logging.Profile)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)
		assert.True(t, cfg.Health.Enabled)

		assert.Same(t, cfg, GetConfig())
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv("NEMY_TEST_API_KEY", "  from-env  ")
		t.Setenv("NEMY_TEST_REGION", "vic1")
		t.Setenv("NEMY_TEST_QUOTAS_PER_MINUTE", "10")
		t.Setenv("NEMY_TEST_SCAN_INTERVAL", "10m")
		t.Setenv("NEMY_TEST_SERVER_PORT", "9000")

		cfg, err := Load(newViper(t))
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.APIKey)
		assert.Equal(t, "VIC1", cfg.Region)
		assert.Equal(t, 10, cfg.Quotas.PerMinute)
		assert.Equal(t, 10*time.Minute, cfg.ScanInterval)
		assert.Equal(t, 9000, cfg.Server.Port)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := strings.Join([]string{
			"api_key: file-key",
			"region: SA1",
			"quotas:",
			"  per_day: 500",
			"max_scan_interval: 2h",
		}, "\n")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		v := newViper(t)
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "file-key", cfg.APIKey)
		assert.Equal(t, core.RegionSA, cfg.RegionValue())
		assert.Equal(t, 500, cfg.Quotas.PerDay)
		assert.Equal(t, 30, cfg.Quotas.PerMinute)
		assert.Equal(t, 2*time.Hour, cfg.MaxScanInterval)
	})
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]any{
		"region":            "WA1",
		"quotas.per_minute": -1,
		"scan_interval":     "500ms",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			v := newViper(t)
			v.Set(key, value)
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestLoadRaisesMaxIntervalToScanInterval(t *testing.T) {
	v := newViper(t)
	v.Set("scan_interval", "2h")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.MaxScanInterval)
}

func TestRequireAPIKey(t *testing.T) {
	assert.Error(t, (&Config{}).RequireAPIKey())
	assert.Error(t, (*Config)(nil).RequireAPIKey())
	assert.NoError(t, (&Config{APIKey: "k"}).RequireAPIKey())
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := DefaultConfigPath("")
	if path == "" {
		t.Skip("config dir not resolvable on this platform")
	}
	assert.Equal(t, filepath.Join(gfconfig.GetAppConfigDir(DefaultConfigName), "config.yaml"), path)
}
