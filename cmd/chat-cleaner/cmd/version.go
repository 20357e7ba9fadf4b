package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information. Populated at build time via -ldflags.
var (
	Version   = "1.0"
	Commit    = "none"
	BuildDate = "unknown"
)

// Plugin metadata reported to the host and by "chat-cleaner version".
const (
	PluginName    = "Chat Cleaner"
	PluginAuthor  = "ABKAM"
	PluginLicense = "GPL"
	PluginURL     = "https://discord.gg/ChYfTtrtmS"
	LogTag        = "[chat_cleaner]"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the plugin metadata, version, commit, and build date of chat-cleaner.`,
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", PluginName, Version)
	fmt.Fprintf(w, "  Author:     %s\n", PluginAuthor)
	fmt.Fprintf(w, "  License:    %s\n", PluginLicense)
	fmt.Fprintf(w, "  URL:        %s\n", PluginURL)
	fmt.Fprintf(w, "  Log tag:    %s\n", LogTag)
	fmt.Fprintf(w, "  Commit:     %s\n", Commit)
	fmt.Fprintf(w, "  Built:      %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
	fmt.Fprintf(w, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
