package blocklist

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// mapReader is an in-memory ResourceReader for tests.
type mapReader map[string]string

func (m mapReader) ReadResource(path string) ([]byte, error) {
	v, ok := m[path]
	if !ok {
		return nil, ErrResourceNotFound
	}
	return []byte(v), nil
}

func TestParseList_CommentsAndBlanks(t *testing.T) {
	data := "# comment\nnoob\n//ignored\nidiot\n"
	set := ParseList([]byte(data))

	if set.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (entries: %v)", set.Len(), set.Entries())
	}
	for _, want := range []string{"noob", "idiot"} {
		if !set.Contains(want) {
			t.Errorf("expected %q in set", want)
		}
	}
}

func TestParseList_Lines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"whitespace only", "   \n\t\t\n \r\n", []string{}},
		{"crlf", "alpha\r\nbeta\r\n", []string{"alpha", "beta"}},
		{"trimmed", "  spaced out \t\n", []string{"spaced out"}},
		{"indented comment", "   # still a comment\n\t// also\n", []string{}},
		{"hash in middle is literal", "gg#ez\n", []string{"gg#ez"}},
		{"slash in middle is literal", "a//b\n", []string{"a//b"}},
		{"single slash is kept", "/kick\n", []string{"/kick"}},
		{"duplicates collapse", "spam\nspam\n  spam\n", []string{"spam"}},
		{"case sensitive", "Noob\nnoob\n", []string{"Noob", "noob"}},
		{"no trailing newline", "last", []string{"last"}},
		{"utf8 kept verbatim", "нуб\n", []string{"нуб"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseList([]byte(tt.input)).Entries()
			want := append([]string(nil), tt.want...)
			if len(got) != len(want) {
				t.Fatalf("entries = %q, want %q", got, want)
			}
			set := NewSet(want...)
			for _, e := range got {
				if !set.Contains(e) {
					t.Errorf("unexpected entry %q (want %q)", e, want)
				}
			}
		})
	}
}

func TestParseList_BOM(t *testing.T) {
	bom := "\xEF\xBB\xBF"

	set := ParseList([]byte(bom + "first\nsecond\n"))
	if !set.Contains("first") {
		t.Errorf("BOM not stripped: %q", set.Entries())
	}
	if set.Contains(bom + "first") {
		t.Error("entry still carries the BOM")
	}

	// BOM followed by a comment marker is still a comment.
	set = ParseList([]byte(bom + "# header\nword\n"))
	if set.Len() != 1 || !set.Contains("word") {
		t.Errorf("entries = %q, want [word]", set.Entries())
	}

	// A line holding only a BOM is blank.
	set = ParseList([]byte(bom + "\n"))
	if set.Len() != 0 {
		t.Errorf("entries = %q, want none", set.Entries())
	}

	// Trimming runs before the BOM strip, so spaces after the BOM survive.
	set = ParseList([]byte(bom + "  padded\n"))
	if !set.Contains("  padded") {
		t.Errorf("entries = %q, want [\"  padded\"]", set.Entries())
	}
}

func TestLoadList_Missing(t *testing.T) {
	set, err := LoadList(mapReader{}, "missing.txt", KindText)
	if err == nil {
		t.Fatal("expected error for missing resource")
	}
	if !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("error = %v, want ErrResourceNotFound", err)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("error type = %T, want *LoadError", err)
	}
	if loadErr.Label != "BlockedText" {
		t.Errorf("Label = %q, want BlockedText", loadErr.Label)
	}
	if set.Len() != 0 {
		t.Errorf("set should be empty, got %d entries", set.Len())
	}
}

func TestLoadList_EmptyResourceIsNotAnError(t *testing.T) {
	set, err := LoadList(mapReader{"empty.txt": ""}, "empty.txt", KindRadio)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("Len() = %d, want 0", set.Len())
	}
}

func TestLoadList_NilReader(t *testing.T) {
	_, err := LoadList(nil, "x.txt", KindEvent)
	if err == nil {
		t.Fatal("expected error for nil reader")
	}
}

func TestLoadListOrEmpty_LogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	set, ok := LoadListOrEmpty(mapReader{}, "blocked_radio.txt", KindRadio, logger)
	if ok {
		t.Error("ok = true for a missing list")
	}
	if set.Len() != 0 {
		t.Errorf("Len() = %d, want 0", set.Len())
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "BlockedRadio") {
		t.Errorf("expected warning naming the list, got: %s", out)
	}
}

func TestLoadListOrEmpty_LogsCount(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	set, ok := LoadListOrEmpty(mapReader{"ev.txt": "player_death\nround_end\n"}, "ev.txt", KindEvent, logger)
	if !ok {
		t.Error("ok = false for a readable list")
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}
	if !strings.Contains(buf.String(), "entries=2") {
		t.Errorf("expected entry count in log, got: %s", buf.String())
	}
}

func TestLoadListOrEmpty_NilLogger(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	set, _ := LoadListOrEmpty(mapReader{"a": "x"}, "a", KindText, nil)
	if !set.Contains("x") {
		t.Error("expected entry x")
	}
}
