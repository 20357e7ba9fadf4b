// Package cmd provides the CLI commands for chat-cleaner.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatcleaner/chat-cleaner/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "chat-cleaner",
	Short: "Chat Cleaner - radio, chat and event filter for game servers",
	Long: `Chat Cleaner suppresses radio commands, chat messages and game events
whose text matches an operator-maintained block list.

The game-side shim forwards every event and network message to the bridge
server, which answers allow or supersede. When the bridge is unreachable the
shim lets everything through.

Quick start:
  1. Put blocked_radio.txt, blocked_text.txt and blocked_events.txt under
     <game_dir>/addons/configs/chat_cleaner/
  2. Run: chat-cleaner start

Configuration:
  Config is loaded from chat-cleaner.yaml in the current directory,
  $HOME/.chat-cleaner/, or /etc/chat-cleaner/.

  Environment variables can override config values with the CHAT_CLEANER_ prefix.
  Example: CHAT_CLEANER_SERVER_HTTP_ADDR=127.0.0.1:9090

Commands:
  start       Start the bridge server
  stop        Stop the running server
  reload      Reload lists and settings on a running server
  check       Classify a message or event name
  lint        Report on the block lists
  hash-key    Generate an argon2id hash for the admin API key
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./chat-cleaner.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
