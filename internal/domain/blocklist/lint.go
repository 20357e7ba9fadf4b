package blocklist

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Issue is one suspicious entry found by Lint.
type Issue struct {
	Entry  string `yaml:"entry" json:"entry"`
	Reason string `yaml:"reason" json:"reason"`
}

// ListReport summarizes one list file.
type ListReport struct {
	List       string  `yaml:"list" json:"list"`
	Path       string  `yaml:"path" json:"path"`
	Missing    bool    `yaml:"missing,omitempty" json:"missing,omitempty"`
	Lines      int     `yaml:"lines" json:"lines"`
	Entries    int     `yaml:"entries" json:"entries"`
	Duplicates int     `yaml:"duplicates" json:"duplicates"`
	Issues     []Issue `yaml:"issues,omitempty" json:"issues,omitempty"`
}

// Lint parses list content the way ParseList does and reports entries that
// are probably mistakes:
//
//   - a byte-order mark left inside the entry (only a leading one is stripped)
//   - a phrase of one character, which matches nearly every message
//   - a phrase containing another phrase of the same list, which can never
//     be the one that matches
//   - an event name containing whitespace
func Lint(kind Kind, data []byte) ListReport {
	lines := scanEntries(data)
	set := NewSet(lines...)
	report := ListReport{
		List:       kind.Label(),
		Lines:      len(lines),
		Entries:    set.Len(),
		Duplicates: len(lines) - set.Len(),
	}

	entries := set.Entries()
	for _, e := range entries {
		if strings.Contains(e, string(utf8BOM)) {
			report.Issues = append(report.Issues, Issue{Entry: e, Reason: "contains a byte-order mark"})
		}
		if kind == KindEvent {
			if strings.ContainsAny(e, " \t") {
				report.Issues = append(report.Issues, Issue{Entry: e, Reason: "event names never contain whitespace"})
			}
			continue
		}
		if utf8.RuneCountInString(e) < 2 {
			report.Issues = append(report.Issues, Issue{Entry: e, Reason: "matches nearly every message"})
		}
		for _, other := range entries {
			if other != e && strings.Contains(e, other) {
				report.Issues = append(report.Issues, Issue{
					Entry:  e,
					Reason: fmt.Sprintf("shadowed by %q", other),
				})
				break
			}
		}
	}
	return report
}
