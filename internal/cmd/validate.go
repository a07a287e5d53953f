package cmd

import (
	"context"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nemy/nemy/internal/core/onboarding"
	"github.com/nemy/nemy/internal/observability"
	"github.com/nemy/nemy/internal/output"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the API key and region with a single request",
	Long: `Validate performs exactly one summary request with the configured key
and region and reports whether the pair can be used.

Exit codes: 0 valid; config-invalid for a rejected key or missing
subscription; external-service-unavailable when rate limited or unreachable.`,
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

		result, rendered, err := runValidate(cmd.Context(), newClient(cfg), format)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, rendered); err != nil {
			return err
		}
		if !result.OK {
			ExitWithCode(observability.CLILogger, exitCodeForReason(result.Reason), "Validation failed", result.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addOutputFlags(validateCmd)
}

func runValidate(ctx context.Context, prober onboarding.Prober, format output.Format) (onboarding.Result, string, error) {
	result := onboarding.Validate(ctx, prober)
	observability.Logger().Debug("Validation finished",
		zap.String("region", string(result.Region)),
		zap.Bool("ok", result.OK),
		zap.String("reason", string(result.Reason)))

	rendered, err := output.NewFormatter(format).FormatValidation(&result)
	return result, rendered, err
}

func exitCodeForReason(reason onboarding.Reason) foundry.ExitCode {
	switch reason {
	case onboarding.ReasonInvalidKey, onboarding.ReasonSubscriptionRequired:
		return foundry.ExitConfigInvalid
	case onboarding.ReasonRateLimited, onboarding.ReasonUnreachable:
		return foundry.ExitExternalServiceUnavailable
	default:
		return foundry.ExitFailure
	}
}
