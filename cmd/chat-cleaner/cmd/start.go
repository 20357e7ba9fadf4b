package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chatcleaner/chat-cleaner/internal/config"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bridge server",
	Long: `Start the chat-cleaner bridge server.

The server loads the block lists and settings from the game directory, then
answers allow or supersede for every event and message the game-side shim
forwards. Lists are reloaded by "chat-cleaner reload", SIGHUP, the file
watcher (watch.enabled) or the redis reload channel (redis.enabled).

Examples:
  # Start with config file settings
  chat-cleaner start

  # Force per-event debug logging on
  chat-cleaner start --debug

  # Start with a specific config file
  chat-cleaner --config /path/to/chat-cleaner.yaml start`,
	RunE: runStart,
}

var (
	devMode   bool
	debugMode bool
)

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (debug logging, journal on stdout)")
	startCmd.Flags().BoolVar(&debugMode, "debug", false, "Log every event and message seen, regardless of the settings resource")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// Without validation, so CLI flags can override first.
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	if debugMode {
		cfg.DebugMode = true
	}
	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	logger := newLogger(os.Stderr, cfg)
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	pidPath := pidFilePath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("failed to write PID file", "path", pidPath, "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	return srv.run(ctx)
}

// newLogger builds the process logger. DevMode always forces debug.
func newLogger(w io.Writer, cfg *config.AppConfig) *slog.Logger {
	level := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})).With("plugin", LogTag)
	logger.Debug("log level configured", "level", cfg.Server.LogLevel, "effective", level.String())
	return logger
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
