package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth/store"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/config"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits/authguard"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits/ratelimit"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/maintenance"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/server"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/telemetry/health"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/telemetry/logging"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the API gateway",
	Long: `Start the gateway with the specified configuration.

Examples:
  # Start with default config
  divapi run

  # Start with custom config
  divapi run --config /etc/divapi/config.yaml

  # Override listen address
  divapi run --listen 0.0.0.0:8080

  # Validate config without starting
  divapi run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.GetConfig()

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	keyStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open key store: %w", err)
	}
	defer keyStore.Close()

	tiers := limits.NewTierTable(logger)
	tiers.Replace(tierOverrides(cfg))

	quota := ratelimit.NewQuotaLimiter()
	guard := authguard.New(authguard.Config{
		LoginLimit:        cfg.AuthGuard.LoginLimit,
		AuthLimit:         cfg.AuthGuard.AuthLimit,
		IPWindow:          cfg.AuthGuard.IPWindow,
		FailedLoginLimit:  cfg.AuthGuard.FailedLoginLimit,
		FailedLoginWindow: cfg.AuthGuard.FailedLoginWindow,
		MaxIPEntries:      cfg.AuthGuard.MaxIPEntries,
		MaxEmailEntries:   cfg.AuthGuard.MaxEmailEntries,
	})

	probes := health.NewProbeGuard(cfg.HealthGuard.MaxRequests, cfg.HealthGuard.Window)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(nil)
		collector.TrackSizes(quota.Size, guard.Sizes)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Auth.WatchConfig {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			return fmt.Errorf("failed to create config watcher: %w", err)
		}
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				tiers.Replace(tierOverrides(next))
			})
			if err != nil {
				logger.Error("config watcher exited", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	scheduler := maintenance.NewScheduler(cfg.Maintenance, quota, guard, probes, keyStore, logger)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}
	defer scheduler.Stop()

	srv := server.New(server.Options{
		Config:  cfg,
		Store:   keyStore,
		Tiers:   tiers,
		Quota:   quota,
		Guard:   guard,
		Probes:  probes,
		Metrics: collector,
		Logger:  logger,
	})

	return srv.Start(ctx)
}

// openStore opens the configured key store backend.
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		slog.Warn("using in-memory key store, keys are lost on restart")
		return store.NewMemoryStore(), nil
	default:
		return store.NewSQLiteStore(cfg.Store.Path)
	}
}

// tierOverrides converts the config tier section for the tier table.
func tierOverrides(cfg *config.Config) map[string]limits.TierLimits {
	overrides := make(map[string]limits.TierLimits, len(cfg.Tiers))
	for name, l := range cfg.Tiers {
		overrides[name] = limits.TierLimits{
			PerMinute: l.PerMinute,
			PerHour:   l.PerHour,
			PerDay:    l.PerDay,
		}
	}
	return overrides
}
