// Package journal provides sinks for the suppression journal: JSON Lines to
// stdout or a file, SQLite, and a discard sink.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/chatcleaner/chat-cleaner/internal/domain/journal"
)

const defaultRecentCap = 1000

// ring is a bounded buffer of the most recent records.
type ring struct {
	records []journal.Record
	cap     int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = defaultRecentCap
	}
	return &ring{records: make([]journal.Record, 0, capacity), cap: capacity}
}

func (r *ring) add(rec journal.Record) {
	if len(r.records) >= r.cap {
		copy(r.records, r.records[1:])
		r.records[len(r.records)-1] = rec
		return
	}
	r.records = append(r.records, rec)
}

// recent returns up to n records, newest first.
func (r *ring) recent(n int) []journal.Record {
	if n <= 0 || n > len(r.records) {
		n = len(r.records)
	}
	out := make([]journal.Record, 0, n)
	for i := len(r.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.records[i])
	}
	return out
}

// WriterStore writes records as JSON Lines to an io.Writer and keeps a ring
// of recent records for the admin API.
type WriterStore struct {
	mu      sync.Mutex
	encoder *json.Encoder
	closer  io.Closer
	syncer  interface{ Sync() error }
	recent  *ring
}

// Compile-time checks.
var (
	_ journal.Store        = (*WriterStore)(nil)
	_ journal.RecentReader = (*WriterStore)(nil)
)

// NewStdoutStore creates a store writing to stdout.
func NewStdoutStore(recentCap int) *WriterStore {
	return NewWriterStore(os.Stdout, recentCap)
}

// NewWriterStore creates a store writing to w. w is not closed by Close.
func NewWriterStore(w io.Writer, recentCap int) *WriterStore {
	return &WriterStore{
		encoder: json.NewEncoder(w),
		recent:  newRing(recentCap),
	}
}

// NewFileStore creates a store appending to the file at path.
func NewFileStore(path string, recentCap int) (*WriterStore, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open journal file %s: %w", path, err)
	}
	s := NewWriterStore(f, recentCap)
	s.closer = f
	s.syncer = f
	return s, nil
}

// Append writes records and remembers them as recent.
func (s *WriterStore) Append(_ context.Context, records ...journal.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if err := s.encoder.Encode(r); err != nil {
			return fmt.Errorf("write journal record: %w", err)
		}
		s.recent.add(r)
	}
	return nil
}

// Flush syncs the underlying file, if any.
func (s *WriterStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.syncer != nil {
		return s.syncer.Sync()
	}
	return nil
}

// Close closes the underlying file, if the store opened one.
func (s *WriterStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closer == nil {
		return nil
	}
	if s.syncer != nil {
		_ = s.syncer.Sync()
	}
	err := s.closer.Close()
	s.closer = nil
	s.syncer = nil
	return err
}

// Recent returns up to n recent records, newest first.
func (s *WriterStore) Recent(n int) []journal.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.recent(n)
}

// DiscardStore drops every record but still remembers recent ones.
type DiscardStore struct {
	mu     sync.Mutex
	recent *ring
}

// NewDiscardStore creates a DiscardStore.
func NewDiscardStore(recentCap int) *DiscardStore {
	return &DiscardStore{recent: newRing(recentCap)}
}

// Append implements journal.Store.
func (s *DiscardStore) Append(_ context.Context, records ...journal.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.recent.add(r)
	}
	return nil
}

// Flush implements journal.Store.
func (s *DiscardStore) Flush(context.Context) error { return nil }

// Close implements journal.Store.
func (s *DiscardStore) Close() error { return nil }

// Recent implements journal.RecentReader.
func (s *DiscardStore) Recent(n int) []journal.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.recent(n)
}
