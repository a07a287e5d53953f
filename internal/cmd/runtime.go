package cmd

import (
	"net/http"

	"github.com/spf13/viper"

	"github.com/nemy/nemy/internal/config"
	"github.com/nemy/nemy/internal/core/client"
)

// sharedHTTPClient is borrowed by every client built in this process.
var sharedHTTPClient = &http.Client{}

// newClient builds the rate-limited client described by cfg.
func newClient(cfg *config.Config) *client.Client {
	return client.New(cfg.APIKey, cfg.RegionValue(), sharedHTTPClient,
		client.WithQuotas(cfg.Quotas.PerMinute, cfg.Quotas.PerDay),
		client.WithBaseURL(cfg.BaseURL),
	)
}

// settingsSnapshot returns the layered settings shown (redacted) in diagnostics.
func settingsSnapshot() map[string]any {
	return viper.AllSettings()
}
