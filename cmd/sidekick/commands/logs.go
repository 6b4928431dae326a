package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/marmos91/sidekick/pkg/config"
)

var (
	logsFollow bool
	logsLines  int
	logsSince  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail process logs",
	Long: `Display and optionally follow the sidekick logs.

This command reads the log file set by 'logging.output' and displays the most
recent entries. If the process logs to stdout/stderr, there is no file to read.

Examples:
  # Show last 100 lines (default)
  sidekick logs

  # Show last 50 lines
  sidekick logs -n 50

  # Follow logs in real-time
  sidekick logs -f

  # Show logs of the last 15 minutes, or since a timestamp
  sidekick logs --since 15m
  sidekick logs --since "2026-01-15T10:00:00Z"`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since a timestamp (RFC3339) or a duration ago (e.g. 15m)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logOutput := cfg.Logging.Output
	switch strings.ToLower(logOutput) {
	case "stdout", "stderr":
		return fmt.Errorf("sidekick is configured to log to %s, not a file\n"+
			"Set 'logging.output' to a file path to use this command", logOutput)
	}

	if _, err := os.Stat(logOutput); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s\nThe process may not have started yet or is logging elsewhere", logOutput)
	}

	since, err := parseSince(logsSince, time.Now())
	if err != nil {
		return err
	}

	if logsFollow {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Following %s (Ctrl+C to stop)...\n", logOutput)
		return followLogs(ctx, cmd.OutOrStdout(), logOutput, logsLines, since)
	}
	return showLogs(cmd.OutOrStdout(), logOutput, logsLines, since)
}

// parseSince accepts an RFC3339 timestamp or a duration counted back from now.
func parseSince(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q (use RFC3339 or a duration like 15m)", s)
	}
	return t, nil
}

// showLogs writes the last n lines of logFile to w.
func showLogs(w io.Writer, logFile string, n int, since time.Time) error {
	file, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	lines, pending, err := tailLines(bufio.NewReader(file), n, since)
	if err != nil {
		return err
	}
	if pending != "" {
		lines = appendBounded(lines, pending, n)
	}
	for _, line := range lines {
		_, _ = fmt.Fprintln(w, line)
	}
	return nil
}

// followLogs prints the last n lines of logFile and then every line appended
// to it until ctx is done.
func followLogs(ctx context.Context, w io.Writer, logFile string, n int, since time.Time) error {
	file, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := bufio.NewReader(file)
	lines, pending, err := tailLines(reader, n, since)
	if err != nil {
		return err
	}
	for _, line := range lines {
		_, _ = fmt.Fprintln(w, line)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(logFile); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	// Lines are only printed once complete; a partial write stays pending.
	drain := func() {
		for {
			chunk, err := reader.ReadString('\n')
			pending += chunk
			if err != nil {
				return
			}
			_, _ = io.WriteString(w, pending)
			pending = ""
		}
	}

	// Catch up on anything written between the initial read and the watch.
	drain()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) {
				drain()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// tailLines reads r to EOF, keeping the last n complete lines not older than
// since. A trailing line without newline is returned as pending.
func tailLines(r *bufio.Reader, n int, since time.Time) (lines []string, pending string, err error) {
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			return lines, line, nil
		}
		if err != nil {
			return nil, "", fmt.Errorf("error reading log file: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")
		if !since.IsZero() {
			if ts := extractTimestamp(line); !ts.IsZero() && ts.Before(since) {
				continue
			}
		}
		lines = appendBounded(lines, line, n)
	}
}

func appendBounded(lines []string, line string, n int) []string {
	if n <= 0 {
		return lines
	}
	lines = append(lines, line)
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// textTimeLayout is the timestamp of the text log format:
// "[2006-01-02 15:04:05.000] [INFO] message".
const textTimeLayout = "2006-01-02 15:04:05.000"

// extractTimestamp returns the time of a text or JSON log line, or the zero
// time when the line carries none.
func extractTimestamp(line string) time.Time {
	if strings.HasPrefix(line, "[") && len(line) > len(textTimeLayout)+1 {
		if t, err := time.ParseInLocation(textTimeLayout, line[1:len(textTimeLayout)+1], time.Local); err == nil {
			return t
		}
	}

	// JSON: {"time":"2026-01-15T10:30:45.123+01:00",...}
	const timeKey = `"time":"`
	if idx := strings.Index(line, timeKey); idx >= 0 {
		rest := line[idx+len(timeKey):]
		if end := strings.IndexByte(rest, '"'); end > 0 {
			if t, err := time.Parse(time.RFC3339Nano, rest[:end]); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
