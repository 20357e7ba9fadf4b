// Package journal contains the record of every event and message the filter
// superseded, and the ports its sinks implement.
package journal

import (
	"context"
	"time"
	"unicode/utf8"
)

// MaxExcerptLen bounds the rendered text kept in a Record, in bytes.
const MaxExcerptLen = 512

// Record describes one superseded event or message.
type Record struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`
	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`
	// Channel is event, radio or text.
	Channel string `json:"channel"`
	// Name is the event name or unscoped message type name.
	Name string `json:"name"`
	// Matched is the blocklist entry that matched.
	Matched string `json:"matched"`
	// Excerpt is the start of the rendered message.
	Excerpt string `json:"excerpt,omitempty"`
	// Generation is the blocklist snapshot generation that decided.
	Generation uint64 `json:"generation"`
}

// Excerpt shortens text to at most MaxExcerptLen bytes without splitting a
// UTF-8 sequence.
func Excerpt(text string) string {
	if len(text) <= MaxExcerptLen {
		return text
	}
	cut := MaxExcerptLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Store persists journal records.
type Store interface {
	// Append stores records.
	Append(ctx context.Context, records ...Record) error
	// Flush forces pending records to storage.
	Flush(ctx context.Context) error
	// Close releases resources.
	Close() error
}

// RecentReader returns the most recent records, newest first.
type RecentReader interface {
	Recent(n int) []Record
}
