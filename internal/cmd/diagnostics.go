package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nemy/nemy/internal/config"
	"github.com/nemy/nemy/internal/core/coordinator"
	"github.com/nemy/nemy/internal/core/diagnostics"
	"github.com/nemy/nemy/internal/observability"
	"github.com/nemy/nemy/internal/output"
)

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Refresh once and print a redacted diagnostics snapshot",
	Long: `Diagnostics performs one refresh and reports configuration (with the
API key redacted), quota usage, timing, the last error and the validation
status of the fetched data. A failed refresh is reported, not fatal.`,
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

		coord := coordinator.New(newClient(cfg), coordinatorOptions(cfg))
		rendered, err := runDiagnostics(cmd.Context(), coord, settingsSnapshot(), format)
		if err != nil {
			return err
		}
		return writeOutput(cmd, rendered)
	},
}

func init() {
	rootCmd.AddCommand(diagnosticsCmd)
	addOutputFlags(diagnosticsCmd)
}

func coordinatorOptions(cfg *config.Config) coordinator.Options {
	return coordinator.Options{
		Region:      cfg.RegionValue(),
		Interval:    cfg.ScanInterval,
		MaxInterval: cfg.MaxScanInterval,
		Logger:      observability.Logger(),
	}
}

func runDiagnostics(ctx context.Context, coord *coordinator.Coordinator, settings map[string]any, format output.Format) (string, error) {
	if err := coord.Refresh(ctx); err != nil {
		observability.Logger().Info("Refresh failed; reporting last state", zap.Error(err))
	}
	snapshot := diagnostics.Collect(coord, settings, time.Now().UTC())
	return output.NewFormatter(format).FormatDiagnostics(&snapshot)
}
