package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"stathive-hq/stathive/pkg/cli"
	"stathive-hq/stathive/pkg/config"
	"stathive-hq/stathive/pkg/exporter"
	"stathive-hq/stathive/pkg/registry"
	"stathive-hq/stathive/pkg/server"
	"stathive-hq/stathive/pkg/shm"
	"stathive-hq/stathive/pkg/telemetry/logging"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stathive exporter server",
	Long: `Start the stathive exporter server with the specified configuration.

The server opens (or creates) the shared region file and serves a Prometheus
exposition of all registered counters on the configured address. Counters
registered by other processes after startup appear on the next scrape.

Examples:
  # Start with default config
  stathive serve

  # Start with custom config
  stathive serve --config /etc/stathive/config.yaml

  # Override listen address
  stathive serve --listen 0.0.0.0:9821

  # Validate config without starting server
  stathive serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	// Apply flag overrides
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.SetAsDefault()

	if serveFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Stathive v%s\n", Version)
	fmt.Println("✓ Configuration loaded")

	// Open or create the shared region
	region, err := shm.OpenOrCreate(cfg.Registry.Path, cfg.Registry.MaxEntries)
	if err != nil {
		return cli.NewRegionError(cfg.Registry.Path, err)
	}
	defer region.Close()

	reg := registry.New(region)
	fmt.Printf("✓ Region attached (%d/%d entries)\n", reg.Count(), reg.MaxEntries())

	collector := exporter.NewCollector(reg, cfg.Exporter.Namespace, slog.Default())
	handler, err := exporter.Handler(collector)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	// Periodic usage reporting
	reporter := exporter.NewUsageReporter(reg, cfg.Exporter.UsageReportSchedule, slog.Default())
	if err := reporter.Start(ctx); err != nil {
		slog.Warn("usage reporter not started", "error", err)
	} else {
		defer reporter.Stop()
	}

	// Watch the config file for log level changes
	if _, statErr := os.Stat(cfgFile); statErr == nil {
		watcher := config.NewWatcher(cfgFile, slog.Default())
		go func() {
			if err := watcher.Watch(ctx, func() error {
				return reloadConfig(logger)
			}); err != nil {
				slog.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	srv := server.NewServer(&cfg.Server, cfg.Exporter.MetricsPath, handler)

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/healthz\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Exporter.MetricsPath)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// reloadConfig re-reads the config file and applies the settings that are
// safe to change at runtime. Region geometry and the listen address are
// fixed for the life of the process.
func reloadConfig(logger *logging.Logger) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	if err := logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
		return err
	}

	config.SetConfig(cfg)
	slog.Info("configuration reloaded", "log_level", cfg.Telemetry.Logging.Level)
	return nil
}

// loadCommandConfig initializes the global configuration for a command.
// A missing config file is only an error when the --config flag was set
// explicitly; otherwise built-in defaults apply.
func loadCommandConfig(cmd *cobra.Command) (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) && !cmd.Flags().Changed("config") {
		cfg := config.DefaultConfig()
		config.SetConfig(cfg)
		return cfg, nil
	}

	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return config.GetConfig(), nil
}
