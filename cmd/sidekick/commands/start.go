package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/sidekick/internal/logger"
	"github.com/marmos91/sidekick/pkg/config"
	"github.com/marmos91/sidekick/pkg/daemon"
)

var pidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start sidekick in the foreground",
	Long: `Start sidekick with the specified configuration.

The process runs in the foreground until it receives SIGINT or SIGTERM, then
stops its side-cars in order: admin endpoint, metrics exporter, trace
reporter, profiler and local metrics reporter. 'sidekick stop' sends that
signal using the PID file written at startup.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/sidekick/config.yaml. Without a file
the defaults apply.

Examples:
  # Start with the default configuration
  sidekick start

  # Start with custom config file and a PID file
  sidekick start --config /etc/sidekick/config.yaml --pid-file /run/sidekick.pid

  # Start with environment variable overrides
  SIDEKICK_LOGGING_LEVEL=DEBUG SIDEKICK_TRACING_ENABLED=true sidekick start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/sidekick/sidekick.pid)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()),
		"level", cfg.Logging.Level, "format", cfg.Logging.Format)

	d, err := daemon.New(cfg, daemon.WithVersion(Version, Commit, Date))
	if err != nil {
		return err
	}
	if err := d.Initialize(); err != nil {
		return err
	}

	ctx := context.Background()
	cancelHook := d.RegisterTerminationHook(ctx)
	defer cancelHook()

	pidPath := pidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}
	remove, err := writePidFile(pidPath)
	if err != nil {
		return err
	}
	defer remove()

	if err := d.Start(ctx); err != nil {
		_ = d.Close()
		return err
	}
	logger.Info("Sidekick is running. Press Ctrl+C to stop.", logger.KeyInstance, d.InstanceID())

	return d.Wait(ctx)
}
