package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatcleaner/chat-cleaner/internal/config"
	"github.com/chatcleaner/chat-cleaner/internal/domain/blocklist"
	"github.com/chatcleaner/chat-cleaner/pkg/bridge"
)

// triggerCLI names reloads done by one-shot commands.
const triggerCLI = "cli"

// Message type names sent to the bridge by "check --remote".
const (
	radioMessageType = "CCSUsrMsg_RadioText"
	textMessageType  = "CUserMessageTextMsg"
)

var (
	checkKind   string
	checkRemote bool
)

var checkCmd = &cobra.Command{
	Use:   "check <text>",
	Short: "Classify a message or event name",
	Long: `Classify a radio phrase, text message or event name against the block lists.

By default the lists are read from the game directory, exactly as the server
would read them. With --remote (or --server) the question is sent to a running
server, so the answer reflects the lists it has loaded.

Examples:
  chat-cleaner check "Fire in the hole!"
  chat-cleaner check --kind text "visit my site"
  chat-cleaner check --kind event player_death --remote`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkKind, "kind", "radio", "list to check against: radio, text or event")
	checkCmd.Flags().BoolVar(&checkRemote, "remote", false, "ask a running server instead of reading the lists")
	addServerFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

// parseKind accepts the --kind values.
func parseKind(s string) (blocklist.Kind, error) {
	switch k := blocklist.Kind(s); k {
	case blocklist.KindRadio, blocklist.KindText, blocklist.KindEvent:
		return k, nil
	case "events":
		return blocklist.KindEvent, nil
	}
	return "", fmt.Errorf("unknown kind %q (want radio, text or event)", s)
}

func runCheck(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(checkKind)
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if checkRemote || cmd.Flags().Changed("server") {
		ctx, cancel := context.WithTimeout(cmd.Context(), serverTimeout)
		defer cancel()
		resp, err := checkServer(ctx, newBridgeClient(cfg), kind, args[0])
		if err != nil {
			return err
		}
		printVerdict(cmd.OutOrStdout(), kind, resp.Matched, resp.Superseded())
		return nil
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	matched, blocked := checkLocal(cmd.Context(), cfg, logger, kind, args[0])
	printVerdict(cmd.OutOrStdout(), kind, matched, blocked)
	return nil
}

// checkLocal loads the lists named by cfg and classifies text.
func checkLocal(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger, kind blocklist.Kind, text string) (string, bool) {
	filter, _ := newFilter(cfg, logger)
	filter.Reload(ctx, triggerCLI)
	return filter.Match(kind, text)
}

// checkServer asks the bridge. Radio and text phrases travel as the debug
// rendering of a message of the matching type.
func checkServer(ctx context.Context, client *bridge.Client, kind blocklist.Kind, text string) (*bridge.DecisionResponse, error) {
	switch kind {
	case blocklist.KindEvent:
		return client.FireEvent(ctx, text, false)
	case blocklist.KindText:
		return client.PostMessage(ctx, bridge.MessageRequest{Type: textMessageType, Debug: text})
	default:
		return client.PostMessage(ctx, bridge.MessageRequest{Type: radioMessageType, Debug: text})
	}
}

func printVerdict(w io.Writer, kind blocklist.Kind, matched string, blocked bool) {
	if !blocked {
		fmt.Fprintf(w, "allow (%s)\n", kind)
		return
	}
	fmt.Fprintf(w, "supersede (%s, matched %q)\n", kind, matched)
}
