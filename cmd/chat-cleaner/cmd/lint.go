package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chatcleaner/chat-cleaner/internal/adapter/outbound/resource"
	"github.com/chatcleaner/chat-cleaner/internal/config"
	"github.com/chatcleaner/chat-cleaner/internal/domain/blocklist"
)

var lintStrict bool

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Report on the block lists",
	Long: `Read the settings resource and the three block lists and print a YAML
report: entry counts, collapsed duplicates and suspicious entries.

With --strict the command fails when a list is missing or any entry is
suspicious, for use in CI before lists are deployed.

Examples:
  chat-cleaner lint
  chat-cleaner lint --strict`,
	Args: cobra.NoArgs,
	RunE: runLint,
}

func init() {
	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "exit non-zero on missing lists or suspicious entries")
	rootCmd.AddCommand(lintCmd)
}

// lintReport is the document printed by "chat-cleaner lint".
type lintReport struct {
	GameDir  string                 `yaml:"game_dir"`
	Settings settingsReport         `yaml:"settings"`
	Lists    []blocklist.ListReport `yaml:"lists"`
}

type settingsReport struct {
	Path      string `yaml:"path"`
	Missing   bool   `yaml:"missing,omitempty"`
	Error     string `yaml:"error,omitempty"`
	DebugMode bool   `yaml:"debug_mode"`
}

// problems counts what --strict rejects.
func (r lintReport) problems() int {
	n := 0
	for _, l := range r.Lists {
		if l.Missing {
			n++
		}
		n += len(l.Issues)
	}
	if r.Settings.Error != "" {
		n++
	}
	return n
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	report := buildLintReport(resource.NewProvider(cfg.Paths.GameDir), cfg)
	if err := writeLintReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if n := report.problems(); lintStrict && n > 0 {
		return fmt.Errorf("lint found %d problem(s)", n)
	}
	return nil
}

// buildLintReport reads everything a reload reads, in the same order.
func buildLintReport(p *resource.Provider, cfg *config.AppConfig) lintReport {
	report := lintReport{GameDir: cfg.Paths.GameDir}

	settingsPath := p.Resolve(cfg.Paths.Settings)
	report.Settings.Path = settingsPath
	settings, err := config.LoadSettings(p.Fs(), settingsPath)
	switch {
	case errors.Is(err, config.ErrSettingsNotFound):
		report.Settings.Missing = true
	case err != nil:
		report.Settings.Error = err.Error()
	default:
		report.Settings.DebugMode = settings.DebugMode
	}

	paths := map[blocklist.Kind]string{
		blocklist.KindRadio: cfg.Paths.Radio,
		blocklist.KindText:  cfg.Paths.Text,
		blocklist.KindEvent: cfg.Paths.Events,
	}
	for _, kind := range blocklist.Kinds {
		path := paths[kind]
		data, err := p.ReadResource(path)
		if err != nil {
			report.Lists = append(report.Lists, blocklist.ListReport{
				List:    kind.Label(),
				Path:    p.Resolve(path),
				Missing: true,
			})
			continue
		}
		lr := blocklist.Lint(kind, data)
		lr.Path = p.Resolve(path)
		report.Lists = append(report.Lists, lr)
	}
	return report
}

func writeLintReport(w io.Writer, report lintReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode lint report: %w", err)
	}
	return enc.Close()
}
