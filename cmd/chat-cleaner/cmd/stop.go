package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running chat-cleaner server",
	Long: `Stop a running chat-cleaner server by reading its PID file and sending SIGTERM.

The PID file is located at ~/.chat-cleaner/server.pid.

Examples:
  # Stop the running server
  chat-cleaner stop`,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath := pidFilePath()

	proc, err := runningServer(pidPath)
	if err != nil {
		return err
	}

	// SIGTERM on Unix, Kill on Windows.
	fmt.Fprintf(os.Stderr, "Stopping chat-cleaner server (PID %d)...\n", proc.Pid)
	if err := sendGracefulStop(proc); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Poll every 200ms, max 10s.
	for i := 0; i < 50; i++ {
		time.Sleep(200 * time.Millisecond)
		if !processIsAlive(proc) {
			os.Remove(pidPath)
			fmt.Fprintf(os.Stderr, "Server stopped.\n")
			return nil
		}
	}

	fmt.Fprintf(os.Stderr, "Server did not stop gracefully, sending SIGKILL...\n")
	_ = proc.Kill()
	os.Remove(pidPath)
	fmt.Fprintf(os.Stderr, "Server killed.\n")
	return nil
}
