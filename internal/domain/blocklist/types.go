// Package blocklist holds the operator-curated lists of blocked radio phrases,
// text phrases and event names, and the decisions made against them.
package blocklist

import (
	"sort"
	"time"
)

// Kind identifies one of the three blocklists.
type Kind string

const (
	// KindRadio is the list of phrases blocked in radio messages.
	KindRadio Kind = "radio"
	// KindText is the list of phrases blocked in text messages.
	KindText Kind = "text"
	// KindEvent is the list of blocked game event names.
	KindEvent Kind = "event"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// Label returns the label used for the list in log lines.
func (k Kind) Label() string {
	switch k {
	case KindRadio:
		return "BlockedRadio"
	case KindText:
		return "BlockedText"
	case KindEvent:
		return "BlockedEvents"
	default:
		return string(k)
	}
}

// Kinds lists every blocklist in load order.
var Kinds = []Kind{KindRadio, KindText, KindEvent}

// Set is an immutable set of blocked entries. The zero value is an empty set.
type Set struct {
	entries map[string]struct{}
}

// NewSet builds a Set from the given entries. Duplicates collapse.
func NewSet(entries ...string) Set {
	m := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		m[e] = struct{}{}
	}
	return Set{entries: m}
}

// Len returns the number of entries.
func (s Set) Len() int {
	return len(s.entries)
}

// Contains reports whether entry is in the set (exact match).
func (s Set) Contains(entry string) bool {
	_, ok := s.entries[entry]
	return ok
}

// Entries returns the entries sorted, for reporting. Classification never
// depends on this order.
func (s Set) Entries() []string {
	out := make([]string, 0, len(s.entries))
	for e := range s.entries {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Snapshot is one consistent generation of all three blocklists.
// A Snapshot is never modified after it is published.
type Snapshot struct {
	Radio  Set
	Text   Set
	Events Set

	// Generation increases by one every time a snapshot is published.
	Generation uint64
	// LoadedAt is when the lists were read.
	LoadedAt time.Time
}

// List returns the set for the given kind.
func (s *Snapshot) List(k Kind) Set {
	switch k {
	case KindRadio:
		return s.Radio
	case KindText:
		return s.Text
	case KindEvent:
		return s.Events
	default:
		return Set{}
	}
}

// Counts returns the number of entries per list.
func (s *Snapshot) Counts() map[Kind]int {
	return map[Kind]int{
		KindRadio: s.Radio.Len(),
		KindText:  s.Text.Len(),
		KindEvent: s.Events.Len(),
	}
}
