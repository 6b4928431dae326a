package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/sidekick/internal/cli/health"
	"github.com/marmos91/sidekick/internal/cli/output"
	"github.com/marmos91/sidekick/pkg/config"
)

var (
	statusOutput   string
	statusAdminURL string
	statusTimeout  time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show health check results of a running process",
	Long: `Call the admin side-car's health check endpoint and print the result of
every registered check.

The admin address defaults to localhost on the configured admin port. The
command exits non-zero when any check is unhealthy.

Examples:
  # Check status using the configured admin port
  sidekick status

  # Check a remote process
  sidekick status --admin-url http://10.0.0.5:8092

  # Output as JSON
  sidekick status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAdminURL, "admin-url", "", "Admin side-car base URL (default: http://localhost:<admin.port>)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second, "Request timeout")
}

// errUnhealthy makes the process exit non-zero after the report is printed.
var errUnhealthy = errors.New("process is unhealthy")

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		cfg = config.GetDefaultConfig()
	}

	base := statusAdminURL
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", cfg.Admin.Port)
	}
	url := strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(cfg.Admin.HealthCheckPath, "/")

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	report, err := health.Fetch(ctx, &http.Client{Timeout: statusTimeout}, url)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == output.FormatTable {
		_, _ = fmt.Fprintf(out, "Status: %s\n\n", report.Status)
	}
	if err := output.Print(out, format, report); err != nil {
		return err
	}

	if !report.Healthy() {
		return errUnhealthy
	}
	return nil
}
