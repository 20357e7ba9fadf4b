package blocklist

import (
	"sync/atomic"
	"time"
)

// Store holds the active Snapshot. Reads are lock-free; Publish replaces the
// whole snapshot in one atomic store, so a reader sees either the old lists
// or the new ones, never a mix.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a Store holding an empty generation-0 snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{LoadedAt: time.Now().UTC()})
	return s
}

// Current returns the active snapshot. The result must not be modified.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish installs a new snapshot built from the given sets and returns it.
// Publish is not meant to be called concurrently with itself; the filter
// service serializes reloads.
func (s *Store) Publish(radio, text, events Set) *Snapshot {
	prev := s.current.Load()
	next := &Snapshot{
		Radio:      radio,
		Text:       text,
		Events:     events,
		Generation: prev.Generation + 1,
		LoadedAt:   time.Now().UTC(),
	}
	s.current.Store(next)
	return next
}
