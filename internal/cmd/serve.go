package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nemy/nemy/internal/config"
	"github.com/nemy/nemy/internal/core/coordinator"
	errwrap "github.com/nemy/nemy/internal/errors"
	"github.com/nemy/nemy/internal/observability"
	"github.com/nemy/nemy/internal/server"
	"github.com/nemy/nemy/internal/server/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll the summary on a schedule and serve it over HTTP",
	Long: `Serve runs the poller for the configured region and exposes the last
known good summary over HTTP alongside health, version and metrics endpoints.

Endpoints:
  GET  /api/v1/summary       last known good record (503 before the first success)
  GET  /api/v1/sensors       the record as sensor readings
  GET  /api/v1/diagnostics   redacted diagnostics snapshot
  POST /api/v1/refresh       fetch now (429 when the local quota is exhausted)

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-read the config file`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		cfg, err := loadConfig()
		if err != nil {
			exitOnConfigError(err)
		}

		observability.InitServerLogger(identity.BinaryName, cfg.Logging.Level, cfg.Logging.Profile, namespace)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(namespace, cfg.Metrics.Port); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.Wrap(cmd.Context(), errwrap.CodeInternal, err, "metrics initialization failed")
			}
		}

		coord := coordinator.New(newClient(cfg), coordinatorOptions(cfg))

		logger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("region", cfg.Region),
			zap.Duration("scan_interval", cfg.ScanInterval),
			zap.Int("quota_per_minute", cfg.Quotas.PerMinute),
			zap.Int("quota_per_day", cfg.Quotas.PerDay),
			zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
			zap.Int("metrics_port", observability.GetMetricsPort()))

		handlers.InitHealthManager(versionInfo.Version)
		registerHealthChecks(handlers.GetHealthManager(), cfg, identity, coord)
		handlers.SetAppIdentity(identity)

		srv := server.New(server.Options{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			Source:       coord,
			Settings:     settingsSnapshot,
		})

		pollCtx, stopPolling := context.WithCancel(cmd.Context())
		defer stopPolling()

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Shutdown handlers run LIFO: stop polling, stop HTTP, flush logs.
		signals.OnShutdown(func(ctx context.Context) error {
			if err := logger.Sync(); err != nil {
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})
		signals.OnShutdown(func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "server shutdown failed")
			}
			logger.Info("HTTP server stopped gracefully")
			return nil
		})
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Stopping poller", zap.String("region", cfg.Region))
			stopPolling()
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: re-reading config file")
			if err := viper.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if errors.As(err, &notFound) {
					logger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				logger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.Wrap(ctx, errwrap.CodeConfigInvalid, err, "config reload failed")
			}
			if _, err := config.Load(viper.GetViper()); err != nil {
				return errwrap.Wrap(ctx, errwrap.CodeConfigInvalid, err, "config reload failed")
			}
			logger.Info("Configuration reloaded; poller settings apply after restart",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			if err := coord.Run(pollCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Poller stopped", zap.Error(err))
			}
		}()
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.Wrap(cmd.Context(), errwrap.CodeInternal, err, "server error")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().Duration("scan-interval", coordinator.DefaultInterval, "poll interval")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("scan_interval", serveCmd.Flags().Lookup("scan-interval"))
}

func registerHealthChecks(hm *handlers.HealthManager, cfg *config.Config, identity *appidentity.Identity, coord *coordinator.Coordinator) {
	hm.RegisterChecker("app_identity", handlers.HealthCheckerFunc(func(ctx context.Context) error {
		switch {
		case identity == nil || identity.BinaryName == "":
			return errwrap.NewConfigInvalidError("app identity missing binary name")
		case identity.EnvPrefix == "":
			return errwrap.NewConfigInvalidError("app identity missing env prefix")
		}
		return nil
	}))

	if cfg.Metrics.Enabled {
		hm.RegisterChecker("telemetry", handlers.HealthCheckerFunc(func(ctx context.Context) error {
			if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
				return errwrap.NewInternalError("telemetry system not initialized")
			}
			return nil
		}))
	}

	if cfg.Health.Enabled {
		hm.RegisterChecker("upstream", handlers.CoordinatorChecker(coord))
		hm.RegisterChecker("quota", handlers.QuotaChecker(coord))
	}
}
