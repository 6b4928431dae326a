package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/sidekick/internal/cli/output"
	"github.com/marmos91/sidekick/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the sidekick configuration file.

Checks for syntax errors, missing required fields, invalid values and port
clashes between side-cars, then prints which side-cars will run.

Examples:
  # Validate default config
  sidekick config validate

  # Validate specific config file
  sidekick config validate --config /etc/sidekick/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if !cfg.Admin.IsEnabled() {
		warnings = append(warnings, "admin endpoint disabled - health checks are not reachable over HTTP")
	}
	if cfg.Tracing.Enabled && cfg.Tracing.SampleRate == 0 {
		warnings = append(warnings, "tracing enabled with sample_rate 0 - no spans will be exported")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintln(out, "\nSide-cars:")
	table := output.NewTableData("Side-car", "Enabled", "Endpoint")
	table.AddRow("admin", strconv.FormatBool(cfg.Admin.IsEnabled()), fmt.Sprintf(":%d", cfg.Admin.Port))
	table.AddRow("metrics", strconv.FormatBool(cfg.Metrics.IsEnabled()), fmt.Sprintf(":%d/%s", cfg.Metrics.Port, cfg.Metrics.Path))
	table.AddRow("tracing", strconv.FormatBool(cfg.Tracing.Enabled), cfg.Tracing.URL())
	table.AddRow("profiling", strconv.FormatBool(cfg.Profiling.Enabled), cfg.Profiling.Endpoint)
	return output.PrintTable(out, table)
}
