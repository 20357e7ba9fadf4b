package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ErrSettingsNotFound is returned when the settings resource does not exist.
var ErrSettingsNotFound = errors.New("settings resource not found")

// settingsSection is the root section name of the plugin settings file.
const settingsSection = "GameManager"

// Settings is the legacy plugin settings resource.
type Settings struct {
	DebugMode bool
}

// LoadSettings reads the DebugMode key from the settings resource at path on
// fs. The resource may be a KeyValues block ("GameManager" { "DebugMode" "1" })
// or any format viper reads by extension. A missing key, or a value that is
// not an integer, leaves DebugMode false. Any non-zero integer enables it.
func LoadSettings(fs afero.Fs, path string) (Settings, error) {
	if fs == nil {
		return Settings{}, fmt.Errorf("load settings %s: no filesystem", path)
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("load settings %s: %w", path, ErrSettingsNotFound)
		}
		return Settings{}, fmt.Errorf("load settings %s: %w", path, err)
	}

	if kv, ok := parseKeyValues(data); ok {
		return Settings{DebugMode: debugModeFromKeyValues(kv)}, nil
	}

	v := viper.New()
	v.SetConfigType(settingsType(path))
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return Settings{DebugMode: debugModeFromViper(v)}, nil
}

// LoadSettingsOrDefault is LoadSettings with failures collapsed into a log
// line and default settings.
func LoadSettingsOrDefault(fs afero.Fs, path string, logger *slog.Logger) Settings {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := LoadSettings(fs, path)
	if err != nil {
		logger.Warn("failed to load settings, using defaults", "path", path, "error", err)
		return Settings{}
	}
	logger.Info("config loaded", "path", path, "debug_mode", s.DebugMode)
	return s
}

func settingsType(path string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "yaml", "yml", "json", "toml", "ini", "properties", "env", "hcl":
		return ext
	default:
		return "ini"
	}
}

// debugModeFromViper looks for the key at the top level, in ini's default
// section and in the GameManager section. Viper lowercases keys.
func debugModeFromViper(v *viper.Viper) bool {
	for _, key := range []string{
		"debugmode",
		"default.debugmode",
		strings.ToLower(settingsSection) + ".debugmode",
	} {
		if !v.IsSet(key) {
			continue
		}
		if n, ok := parseDebugValue(v.Get(key)); ok {
			return n != 0
		}
	}
	return false
}

func parseDebugValue(raw any) (int64, bool) {
	switch val := raw.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return n, err == nil
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		n, err := cast.ToInt64E(val)
		return n, err == nil
	}
}

// debugModeFromKeyValues takes the first DebugMode key in file order.
func debugModeFromKeyValues(kv []kvPair) bool {
	for _, p := range kv {
		if strings.EqualFold(p.key, "DebugMode") {
			n, ok := parseDebugValue(p.value)
			return ok && n != 0
		}
	}
	return false
}

type kvPair struct {
	key, value string
}

// parseKeyValues reads the first-level keys of a KeyValues document:
//
//	"GameManager"
//	{
//		"DebugMode"	"1"
//	}
//
// Quotes are optional, "//" starts a comment, nested blocks are skipped.
// ok is false when data does not look like KeyValues.
func parseKeyValues(data []byte) ([]kvPair, bool) {
	toks, ok := tokenizeKeyValues(data)
	if !ok || len(toks) < 2 || toks[0].brace || !toks[1].open() {
		return nil, false
	}

	var out []kvPair
	depth := 0
	for i := 1; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.open():
			depth++
		case t.close():
			depth--
			if depth == 0 {
				return out, true
			}
			if depth < 0 {
				return nil, false
			}
		case depth == 1 && i+1 < len(toks) && !toks[i+1].brace:
			out = append(out, kvPair{key: t.text, value: toks[i+1].text})
			i++
		}
	}
	return nil, false
}

type kvToken struct {
	text  string
	brace bool
}

func (t kvToken) open() bool  { return t.brace && t.text == "{" }
func (t kvToken) close() bool { return t.brace && t.text == "}" }

func tokenizeKeyValues(data []byte) ([]kvToken, bool) {
	s := string(bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF")))
	var toks []kvToken
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case c == '{' || c == '}':
			toks = append(toks, kvToken{text: string(c), brace: true})
			i++
		case c == '"':
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				return nil, false
			}
			toks = append(toks, kvToken{text: s[i+1 : i+1+end]})
			i += end + 2
		case c == '[' || c == '=':
			// INI syntax.
			return nil, false
		default:
			start := i
			for i < len(s) && !strings.ContainsRune(" \t\r\n{}\"", rune(s[i])) {
				if s[i] == '=' {
					return nil, false
				}
				i++
			}
			toks = append(toks, kvToken{text: s[start:i]})
		}
	}
	return toks, true
}
