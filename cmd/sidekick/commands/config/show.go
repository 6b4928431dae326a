package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/sidekick/internal/cli/output"
	"github.com/marmos91/sidekick/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display effective configuration",
	Long: `Display the effective sidekick configuration: defaults, then the
configuration file, then SIDEKICK_* environment overrides.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show effective config as YAML
  sidekick config show

  # Show as JSON
  sidekick config show --output json`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	}
	return output.PrintYAML(cmd.OutOrStdout(), cfg)
}
