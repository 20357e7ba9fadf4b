package blocklist

import (
	"strings"
	"testing"
)

func issueReasons(r ListReport) map[string]string {
	out := make(map[string]string, len(r.Issues))
	for _, is := range r.Issues {
		out[is.Entry] = is.Reason
	}
	return out
}

func TestLint_CountsAndDuplicates(t *testing.T) {
	data := []byte("# comment\nfire in the hole\n\nfire in the hole\n  go go go  \n")
	r := Lint(KindRadio, data)

	if r.List != "BlockedRadio" {
		t.Errorf("List = %q", r.List)
	}
	if r.Lines != 3 || r.Entries != 2 || r.Duplicates != 1 {
		t.Errorf("lines/entries/duplicates = %d/%d/%d, want 3/2/1", r.Lines, r.Entries, r.Duplicates)
	}
	if len(r.Issues) != 0 {
		t.Errorf("unexpected issues %+v", r.Issues)
	}
}

func TestLint_Issues(t *testing.T) {
	tests := []struct {
		name       string
		kind       Kind
		data       string
		wantEntry  string
		wantReason string
	}{
		{"shadowed phrase", KindText, "bad\nreally bad words\n", "really bad words", `shadowed by "bad"`},
		{"single character", KindText, "x\n", "x", "matches nearly every message"},
		{"trailing BOM", KindRadio, "cheer\xEF\xBB\xBF\n", "cheer\xEF\xBB\xBF", "contains a byte-order mark"},
		{"event with space", KindEvent, "player death\n", "player death", "event names never contain whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := issueReasons(Lint(tt.kind, []byte(tt.data)))
			reason, ok := got[tt.wantEntry]
			if !ok {
				t.Fatalf("no issue for %q in %v", tt.wantEntry, got)
			}
			if !strings.Contains(reason, tt.wantReason) {
				t.Errorf("reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestLint_EventsAreExact(t *testing.T) {
	r := Lint(KindEvent, []byte("round_end\nround_end_extra\nx\n"))
	if len(r.Issues) != 0 {
		t.Errorf("event lists use exact matching, got issues %+v", r.Issues)
	}
}
