package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/sidekick/internal/cli/prompt"
	"github.com/marmos91/sidekick/pkg/config"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample sidekick configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/sidekick/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  sidekick init

  # Choose the side-cars interactively
  sidekick init --interactive

  # Force overwrite existing config
  sidekick init --force --config /etc/sidekick/config.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Ask which side-cars to enable")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.GetDefaultConfig()
	if initInteractive {
		if err := askSideCars(cfg); err != nil {
			if prompt.IsAborted(err) {
				return fmt.Errorf("init aborted")
			}
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid answers: %w", err)
		}
	}

	if err := config.WriteSample(cfg, configPath, initForce); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the configuration file to customize your setup")
	_, _ = fmt.Fprintf(out, "  2. Start with: sidekick start --config %s\n", configPath)
	_, _ = fmt.Fprintln(out, "  3. Check health with: sidekick status")
	return nil
}

// askSideCars lets the user pick the side-cars and their ports.
func askSideCars(cfg *config.Config) error {
	adminOn, err := prompt.Confirm("Enable the admin endpoint", true)
	if err != nil {
		return err
	}
	cfg.Admin.Enabled = &adminOn
	if adminOn {
		if cfg.Admin.Port, err = prompt.Port("Admin port", cfg.Admin.Port); err != nil {
			return err
		}
	}

	metricsOn, err := prompt.Confirm("Enable the Prometheus metrics exporter", true)
	if err != nil {
		return err
	}
	cfg.Metrics.Enabled = &metricsOn
	if metricsOn {
		if cfg.Metrics.Port, err = prompt.Port("Metrics port", cfg.Metrics.Port); err != nil {
			return err
		}
	}

	if cfg.Tracing.Enabled, err = prompt.Confirm("Enable OpenTelemetry tracing", false); err != nil {
		return err
	}
	if cfg.Tracing.Enabled {
		if cfg.Tracing.Port, err = prompt.Port("OTLP collector port", cfg.Tracing.Port); err != nil {
			return err
		}
	}

	if cfg.Profiling.Enabled, err = prompt.Confirm("Enable Pyroscope profiling", false); err != nil {
		return err
	}
	return nil
}
