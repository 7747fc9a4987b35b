package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"hsplit/internal/paths"
)

var (
	logFollow bool
	logLines  int
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the hsplit log file",
	Long: `View .hsplit/logs/hsplit.log. The file is written when logging.file is
enabled in the config or HSPLIT_LOG_FILE=true is set.

Examples:
  hsplit log              # Show last 50 lines
  hsplit log -n 100       # Show last 100 lines
  hsplit log -f           # Follow log output (tail -f)`,
	Annotations: map[string]string{skipValidation: "true"},
	RunE:        runLog,
}

func init() {
	logCmd.Flags().BoolVarP(&logFollow, "follow", "f", false, "Follow log output")
	logCmd.Flags().IntVarP(&logLines, "lines", "n", 50, "Number of lines to show")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	logPath := paths.LogPath(app.root)

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(w, "No logs found.")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Log file location: %s\n", logPath)
		fmt.Fprintln(w, "Enable it with logging.file in .hsplit/config.json or HSPLIT_LOG_FILE=true.")
		return nil
	}

	if logFollow {
		return followLogFile(cmd, logPath)
	}
	return showLogLines(w, logPath, logLines)
}

func showLogLines(w io.Writer, path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return scanner.Err()
}

func followLogFile(cmd *cobra.Command, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Following %s (Ctrl+C to stop)\n\n", path)

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fmt.Fprint(w, line)
		}
		if err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(100 * time.Millisecond):
		}
	}
}
