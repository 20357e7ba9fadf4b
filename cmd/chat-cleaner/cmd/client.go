package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chatcleaner/chat-cleaner/internal/config"
	"github.com/chatcleaner/chat-cleaner/pkg/bridge"
)

// Flags shared by the commands that talk to a running server.
var (
	serverAddr    string
	serverAPIKey  string
	serverTimeout time.Duration
)

// newBridgeClient returns a fail-closed client for the server named by
// --server, or by server.http_addr when the flag is empty. An operator asking
// a question wants the error, not a silent allow.
func newBridgeClient(cfg *config.AppConfig) *bridge.Client {
	addr := serverAddr
	if addr == "" {
		addr = cfg.Server.HTTPAddr
	}
	opts := []bridge.Option{
		bridge.WithServerAddr(addr),
		bridge.WithFailMode(bridge.FailClosed),
		bridge.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))),
	}
	if serverTimeout > 0 {
		opts = append(opts, bridge.WithTimeout(serverTimeout))
	}
	if serverAPIKey != "" {
		opts = append(opts, bridge.WithAPIKey(serverAPIKey))
	}
	return bridge.NewClient(opts...)
}

// addServerFlags registers --server, --api-key and --timeout on cmd.
func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serverAddr, "server", "", "bridge address (default: server.http_addr)")
	cmd.Flags().StringVar(&serverAPIKey, "api-key", "", "admin API key (default: $CHAT_CLEANER_API_KEY)")
	cmd.Flags().DurationVar(&serverTimeout, "timeout", 5*time.Second, "request timeout")
}
