package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemy/nemy/internal/appid"
	"github.com/nemy/nemy/internal/config"
	"github.com/nemy/nemy/internal/core"
	"github.com/nemy/nemy/internal/core/client"
	"github.com/nemy/nemy/internal/core/coordinator"
	"github.com/nemy/nemy/internal/core/engine"
	"github.com/nemy/nemy/internal/core/onboarding"
	"github.com/nemy/nemy/internal/output"
)

const upstreamBody = `{
	"time_interval": "2025-01-01T12:05:00+10:00",
	"price_household": 21.35,
	"price_dispatch": 95.2,
	"price_percentile": 42,
	"price_category": "typical",
	"renewables": 55.1,
	"renewables_no_rooftop": 40,
	"renewables_percentile": 80,
	"renewables_category": "green"
}`

func upstream(t *testing.T, status int, body string) *client.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return client.New("test-key", core.RegionSA, server.Client(), client.WithBaseURL(server.URL))
}

func TestRunFetchRendersSummary(t *testing.T) {
	rendered, err := runFetch(context.Background(), upstream(t, http.StatusOK, upstreamBody), output.FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, rendered, "\"region\": \"SA1\"")
	assert.Contains(t, rendered, "\"price_household\": 21.35")
}

func TestRunFetchWrapsErrors(t *testing.T) {
	_, err := runFetch(context.Background(), upstream(t, http.StatusUnauthorized, `{}`), output.FormatTable)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch SA1 summary")
	assert.Equal(t, client.KindHTTP, client.KindOf(err))
	assert.Equal(t, foundry.ExitConfigInvalid, exitCodeFor(err))
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, foundry.ExitExternalServiceUnavailable, exitCodeFor(&client.RateLimitedError{Scope: engine.ScopeRemote}))
	assert.Equal(t, foundry.ExitExternalServiceUnavailable, exitCodeFor(&client.TimeoutError{}))
	assert.Equal(t, foundry.ExitExternalServiceUnavailable, exitCodeFor(&client.HTTPError{StatusCode: 503}))
	assert.Equal(t, foundry.ExitFailure, exitCodeFor(&client.ValidationError{Kind: client.ValidationMissingFields}))
}

func TestRunValidate(t *testing.T) {
	result, rendered, err := runValidate(context.Background(), upstream(t, http.StatusOK, upstreamBody), output.FormatMarkdown)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, "Nemy SA1", result.Title)
	assert.Contains(t, rendered, "| SA1 | valid | Nemy SA1 |")

	result, _, err = runValidate(context.Background(), upstream(t, http.StatusForbidden, `{}`), output.FormatJSON)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, onboarding.ReasonSubscriptionRequired, result.Reason)
	assert.Equal(t, foundry.ExitConfigInvalid, exitCodeForReason(result.Reason))
}

func TestExitCodeForReason(t *testing.T) {
	assert.Equal(t, foundry.ExitConfigInvalid, exitCodeForReason(onboarding.ReasonInvalidKey))
	assert.Equal(t, foundry.ExitExternalServiceUnavailable, exitCodeForReason(onboarding.ReasonRateLimited))
	assert.Equal(t, foundry.ExitExternalServiceUnavailable, exitCodeForReason(onboarding.ReasonUnreachable))
	assert.Equal(t, foundry.ExitFailure, exitCodeForReason(onboarding.ReasonInvalidResponse))
}

func TestRunDiagnosticsRedactsKey(t *testing.T) {
	coord := coordinator.New(upstream(t, http.StatusOK, upstreamBody), coordinator.Options{Region: core.RegionSA})
	settings := map[string]any{"api_key": "test-key", "region": "SA1"}

	rendered, err := runDiagnostics(context.Background(), coord, settings, output.FormatYAML)
	require.NoError(t, err)
	assert.NotContains(t, rendered, "test-key")
	assert.Contains(t, rendered, "status: valid")
	assert.Contains(t, rendered, "requests_per_minute: 30")
	assert.Contains(t, rendered, "current_minute_requests: 1")
}

func TestRunDiagnosticsAfterFailure(t *testing.T) {
	coord := coordinator.New(upstream(t, http.StatusInternalServerError, `{}`), coordinator.Options{Region: core.RegionSA})

	rendered, err := runDiagnostics(context.Background(), coord, nil, output.FormatTable)
	require.NoError(t, err)
	assert.Contains(t, rendered, "Status: no_data")
	assert.Contains(t, rendered, "Last update success: false")
}

func TestConfigureViperReadsExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nemy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: from-file\nregion: tas1\nquotas:\n  per_minute: 5\n"), 0o600))

	v := viper.New()
	configureViper(v, appid.Default(), path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, string(core.RegionTAS), cfg.Region)
	assert.Equal(t, 5, cfg.Quotas.PerMinute)
	assert.Equal(t, 1000, cfg.Quotas.PerDay)
}

func TestWriteOutputToFile(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addOutputFlags(cmd)
	path := filepath.Join(t.TempDir(), "nested", "out.txt")
	require.NoError(t, cmd.Flags().Set("out", path))
	require.NoError(t, cmd.Flags().Set("output", "yaml"))

	format, err := resolveOutputFormat(cmd)
	require.NoError(t, err)
	assert.Equal(t, output.FormatYAML, format)

	require.NoError(t, writeOutput(cmd, "region: NEM"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "region: NEM\n", string(data))
}

func TestFallbackIdentity(t *testing.T) {
	identity := appid.Default()
	assert.Equal(t, "nemy", identity.BinaryName)
	assert.Equal(t, "NEMY_", identity.EnvPrefix)
}
