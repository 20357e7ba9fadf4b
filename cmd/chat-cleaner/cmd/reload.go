package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chatcleaner/chat-cleaner/internal/adapter/outbound/pubsub"
	"github.com/chatcleaner/chat-cleaner/internal/config"
	"github.com/chatcleaner/chat-cleaner/pkg/bridge"
)

var (
	reloadViaRedis  bool
	reloadViaSignal bool
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload lists and settings on a running server",
	Long: `Ask a running chat-cleaner server to re-read its settings and block lists.

By default the request goes to POST /admin/reload on the bridge. With --redis
a reload notice is published on redis.channel instead, which reloads every
server subscribed to it. With --signal the server found through the PID file
receives SIGHUP (Unix only).

Examples:
  chat-cleaner reload
  chat-cleaner reload --server 10.0.0.5:8765 --api-key "$KEY"
  chat-cleaner reload --redis`,
	Args: cobra.NoArgs,
	RunE: runReload,
}

func init() {
	addServerFlags(reloadCmd)
	reloadCmd.Flags().BoolVar(&reloadViaRedis, "redis", false, "publish a reload notice on the redis channel")
	reloadCmd.Flags().BoolVar(&reloadViaSignal, "signal", false, "send SIGHUP to the server in the PID file")
	reloadCmd.MarkFlagsMutuallyExclusive("redis", "signal")
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if reloadViaSignal {
		proc, err := runningServer(pidFilePath())
		if err != nil {
			return err
		}
		if err := sendReload(proc); err != nil {
			return fmt.Errorf("failed to signal server: %w", err)
		}
		fmt.Fprintf(out, "Sent reload signal to PID %d.\n", proc.Pid)
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), serverTimeout)
	defer cancel()

	if reloadViaRedis {
		client := pubsub.NewClient(pubsub.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		n, err := pubsub.Publish(ctx, client, cfg.Redis.Channel, pubsub.Origin())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Reload notice delivered to %d subscriber(s) on %s.\n", n, cfg.Redis.Channel)
		return nil
	}

	resp, err := newBridgeClient(cfg).Reload(ctx)
	if err != nil {
		return err
	}
	printReload(out, resp)
	return nil
}

func printReload(w io.Writer, resp *bridge.ReloadResponse) {
	fmt.Fprintf(w, "Reloaded (generation %d, %.1fms)\n", resp.Generation, resp.DurationMs)
	lists := make([]string, 0, len(resp.Counts))
	for name := range resp.Counts {
		lists = append(lists, name)
	}
	sort.Strings(lists)
	for _, name := range lists {
		fmt.Fprintf(w, "  %-8s %d entries\n", name+":", resp.Counts[name])
	}
	fmt.Fprintf(w, "  debug:   %t\n", resp.DebugMode)
	for _, f := range resp.Failed {
		fmt.Fprintf(w, "  missing: %s\n", f)
	}
}
