package config

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestLoadSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		content string
		want    bool
	}{
		{
			name: "keyvalues on",
			path: "settings.ini",
			content: `"GameManager"
{
	"DebugMode"	"1"
}`,
			want: true,
		},
		{
			name: "keyvalues off",
			path: "settings.ini",
			content: `"GameManager"
{
	// verbose logging
	"DebugMode"	"0"
}`,
			want: false,
		},
		{
			name:    "keyvalues unquoted and case-insensitive key",
			path:    "settings.ini",
			content: "GameManager { debugmode 5 }",
			want:    true,
		},
		{
			name: "keyvalues nested block ignored",
			path: "settings.ini",
			content: `"GameManager"
{
	"Other" { "DebugMode" "1" }
	"DebugMode" "0"
}`,
			want: false,
		},
		{
			name:    "keyvalues first key wins",
			path:    "settings.ini",
			content: `"GameManager" { "DebugMode" "1" "debugmode" "0" }`,
			want:    true,
		},
		{
			name:    "keyvalues first key wins regardless of case",
			path:    "settings.ini",
			content: `"GameManager" { "debugmode" "0" "DebugMode" "1" }`,
			want:    false,
		},
		{
			name:    "keyvalues non-integer is missing",
			path:    "settings.ini",
			content: `"GameManager" { "DebugMode" "yes" }`,
			want:    false,
		},
		{
			name:    "ini default section",
			path:    "settings.ini",
			content: "DebugMode=2\n",
			want:    true,
		},
		{
			name:    "ini GameManager section",
			path:    "settings.ini",
			content: "[GameManager]\nDebugMode = 1\n",
			want:    true,
		},
		{
			name:    "yaml",
			path:    "settings.yaml",
			content: "DebugMode: 1\n",
			want:    true,
		},
		{
			name:    "json off",
			path:    "settings.json",
			content: `{"DebugMode": 0}`,
			want:    false,
		},
		{
			name:    "missing key",
			path:    "settings.yaml",
			content: "Other: 1\n",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, tt.path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			got, err := LoadSettings(fs, tt.path)
			if err != nil {
				t.Fatalf("LoadSettings() error = %v", err)
			}
			if got.DebugMode != tt.want {
				t.Errorf("DebugMode = %v, want %v", got.DebugMode, tt.want)
			}
		})
	}
}

func TestLoadSettings_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadSettings(afero.NewMemMapFs(), DefaultSettingsPath)
	if !errors.Is(err, ErrSettingsNotFound) {
		t.Errorf("error = %v, want ErrSettingsNotFound", err)
	}

	if _, err := LoadSettings(nil, DefaultSettingsPath); err == nil {
		t.Error("expected error for nil filesystem")
	}
}

func TestLoadSettingsOrDefault_LogsDefaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := LoadSettingsOrDefault(afero.NewMemMapFs(), DefaultSettingsPath, logger)
	if s.DebugMode {
		t.Error("missing settings must default DebugMode to false")
	}
	if !strings.Contains(buf.String(), "using defaults") {
		t.Errorf("expected 'using defaults' log, got: %s", buf.String())
	}
}

func TestParseKeyValues_RejectsOtherFormats(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"[GameManager]\nDebugMode=1",
		"DebugMode: 1",
		`{"DebugMode": 1}`,
		`"GameManager" { "DebugMode" "1"`,
		`"GameManager" { "DebugMode "1" }`,
	} {
		if _, ok := parseKeyValues([]byte(in)); ok {
			t.Errorf("parseKeyValues(%q) accepted non-KeyValues input", in)
		}
	}
}
