package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	stopPidFile string
	stopForce   bool
)

// errProcessDone reports that the process in the PID file no longer exists.
var errProcessDone = errors.New("process already finished")

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running sidekick process",
	Long: `Stop a running sidekick process.

By default, sends SIGTERM so the side-cars shut down in order. Use --force for
immediate termination with SIGKILL.

Examples:
  # Stop using the default PID file
  sidekick stop

  # Stop using a custom PID file
  sidekick stop --pid-file /run/sidekick.pid

  # Force stop (SIGKILL)
  sidekick stop --force`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/sidekick/sidekick.pid)")
	stopCmd.Flags().BoolVarP(&stopForce, "force", "f", false, "Force kill (SIGKILL) instead of graceful shutdown (SIGTERM)")
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath := stopPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	pid, err := readPidFile(pidPath)
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	out := cmd.OutOrStdout()
	if err := stopProcess(out, process, pid, stopForce); err != nil {
		if errors.Is(err, errProcessDone) {
			_, _ = fmt.Fprintln(out, "Sidekick already stopped")
			_ = os.Remove(pidPath)
			return nil
		}
		return err
	}

	if stopForce {
		_, _ = fmt.Fprintln(out, "Sidekick terminated")
	} else {
		_, _ = fmt.Fprintln(out, "Shutdown signal sent. Sidekick will stop gracefully.")
	}
	return nil
}

// readPidFile returns the PID recorded at path.
func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("PID file not found: %s\n\nIs sidekick running?", path)
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in file %s: %q", path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}
