package cmd

import (
	"context"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nemy/nemy/internal/core/client"
	"github.com/nemy/nemy/internal/core/onboarding"
	"github.com/nemy/nemy/internal/observability"
	"github.com/nemy/nemy/internal/output"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the current summary once",
	Long: `Fetch and validate the current price and renewables summary for the
configured region, then print it as sensor readings.

Examples:
  nemy fetch --region NSW1
  nemy fetch --region VIC1 --output json
  nemy fetch -o yaml --out summary.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			exitOnConfigError(err)
		}

		rendered, err := runFetch(cmd.Context(), newClient(cfg), format)
		if err != nil {
			ExitWithCode(observability.CLILogger, exitCodeFor(err), "Fetch failed", err)
		}
		return writeOutput(cmd, rendered)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addOutputFlags(fetchCmd)
}

// runFetch performs one fetch and renders it.
func runFetch(ctx context.Context, prober onboarding.Prober, format output.Format) (string, error) {
	region := prober.Region()
	record, err := prober.FetchSummary(ctx)
	if err != nil {
		observability.Logger().Debug("Summary fetch failed",
			zap.String("region", string(region)),
			zap.String("error_kind", string(client.KindOf(err))))
		return "", fmt.Errorf("fetch %s summary: %w", region, err)
	}
	return output.NewFormatter(format).FormatSummary(output.NewSummary(region, record))
}

// exitCodeFor maps a fetch failure to a process exit code.
func exitCodeFor(err error) foundry.ExitCode {
	switch client.KindOf(err) {
	case client.KindRateLimited, client.KindTimeout, client.KindTransport:
		return foundry.ExitExternalServiceUnavailable
	case client.KindHTTP:
		if status, ok := client.StatusCodeOf(err); ok && (status == 401 || status == 403) {
			return foundry.ExitConfigInvalid
		}
		return foundry.ExitExternalServiceUnavailable
	default:
		return foundry.ExitFailure
	}
}
