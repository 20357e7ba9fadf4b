package service

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"

	"github.com/chatcleaner/chat-cleaner/internal/domain/blocklist"
)

// cachedVerdict is the memoized answer for one (kind, text) pair.
type cachedVerdict struct {
	matched string
	blocked bool
}

// VerdictCache memoizes classifier answers. Chat spam repeats the same
// phrase, and substring matching walks the whole list on every miss.
type VerdictCache struct {
	cache *ristretto.Cache[uint64, cachedVerdict]
}

// NewVerdictCache creates a cache holding roughly maxEntries verdicts.
func NewVerdictCache(maxEntries int64) (*VerdictCache, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, cachedVerdict]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create verdict cache: %w", err)
	}
	return &VerdictCache{cache: c}, nil
}

// computeVerdictKey hashes the snapshot generation, list kind and text.
// Including the generation means a verdict from an older snapshot can never
// answer for a newer one, even before Clear has run.
func computeVerdictKey(generation uint64, kind blocklist.Kind, text string) uint64 {
	h := xxhash.New()

	var gen [8]byte
	binary.LittleEndian.PutUint64(gen[:], generation)
	_, _ = h.Write(gen[:])

	_, _ = h.WriteString(string(kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(text)

	return h.Sum64()
}

// Get returns the cached verdict.
func (c *VerdictCache) Get(generation uint64, kind blocklist.Kind, text string) (string, bool, bool) {
	v, ok := c.cache.Get(computeVerdictKey(generation, kind, text))
	if !ok {
		return "", false, false
	}
	return v.matched, v.blocked, true
}

// Put stores a verdict. Ristretto may refuse admission; that only costs a
// future miss.
func (c *VerdictCache) Put(generation uint64, kind blocklist.Kind, text, matched string, blocked bool) {
	c.cache.Set(computeVerdictKey(generation, kind, text), cachedVerdict{matched: matched, blocked: blocked}, 1)
}

// Wait blocks until buffered writes are applied.
func (c *VerdictCache) Wait() {
	c.cache.Wait()
}

// Clear drops every verdict. Called on reload.
func (c *VerdictCache) Clear() {
	c.cache.Clear()
}

// Close stops the cache's goroutines.
func (c *VerdictCache) Close() {
	c.cache.Close()
}
