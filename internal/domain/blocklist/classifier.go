package blocklist

import "strings"

// MatchSubstring returns the first entry of set contained in text.
// Empty text never matches. Iteration order over the set is unspecified, so
// when several entries match any one of them may be returned.
func MatchSubstring(set Set, text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for entry := range set.entries {
		if strings.Contains(text, entry) {
			return entry, true
		}
	}
	return "", false
}

// MatchRadio returns the radio entry found in text, if any.
func (s *Snapshot) MatchRadio(text string) (string, bool) {
	return MatchSubstring(s.Radio, text)
}

// MatchText returns the text entry found in text, if any.
func (s *Snapshot) MatchText(text string) (string, bool) {
	return MatchSubstring(s.Text, text)
}

// IsBlockedRadioMessage reports whether any radio entry is a substring of text.
func (s *Snapshot) IsBlockedRadioMessage(text string) bool {
	_, ok := s.MatchRadio(text)
	return ok
}

// IsBlockedTextMessage reports whether any text entry is a substring of text.
func (s *Snapshot) IsBlockedTextMessage(text string) bool {
	_, ok := s.MatchText(text)
	return ok
}

// IsBlockedEvent reports whether name is exactly one of the blocked event
// names. Event names are identifiers, so there is no substring matching here:
// "round_end" does not block "round_end_extra".
func (s *Snapshot) IsBlockedEvent(name string) bool {
	if name == "" {
		return false
	}
	return s.Events.Contains(name)
}

// Match dispatches to the matcher for kind. Event matches return the name
// itself as the matched entry.
func (s *Snapshot) Match(kind Kind, text string) (string, bool) {
	switch kind {
	case KindRadio:
		return s.MatchRadio(text)
	case KindText:
		return s.MatchText(text)
	case KindEvent:
		if s.IsBlockedEvent(text) {
			return text, true
		}
	}
	return "", false
}
