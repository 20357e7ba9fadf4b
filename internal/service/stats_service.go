// Package service contains application services.
package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keilerkonzept/topk/sliding"

	"github.com/chatcleaner/chat-cleaner/internal/domain/intercept"
)

// StatsService tracks decision counters and the most frequently matched
// blocklist entries over a sliding window.
type StatsService struct {
	allowed    atomic.Int64
	superseded atomic.Int64
	errors     atomic.Int64

	// Per-channel counters (mutex-protected maps).
	mu               sync.Mutex
	allowedByChan    map[string]int64
	supersededByChan map[string]int64

	sketchMu sync.Mutex
	sketch   *sliding.Sketch
	k        int
	tick     time.Duration
}

// Compile-time check that StatsService observes verdicts.
var _ intercept.Observer = (*StatsService)(nil)

// NewStatsService creates a StatsService reporting the k hottest phrases over
// window, which is divided into segments ticks.
func NewStatsService(k int, window time.Duration, segments int) *StatsService {
	if k <= 0 {
		k = 10
	}
	if segments <= 0 {
		segments = 10
	}
	tick := window / time.Duration(segments)
	if tick <= 0 {
		tick = time.Minute
	}
	return &StatsService{
		allowedByChan:    make(map[string]int64),
		supersededByChan: make(map[string]int64),
		sketch:           sliding.New(k, segments, sliding.WithWidth(1024), sliding.WithDepth(3)),
		k:                k,
		tick:             tick,
	}
}

// RecordDecision counts one adapter decision.
func (s *StatsService) RecordDecision(res intercept.Result) {
	ch := string(res.Channel)
	if res.Superseded() {
		s.superseded.Add(1)
	} else {
		s.allowed.Add(1)
	}

	s.mu.Lock()
	if res.Superseded() {
		s.supersededByChan[ch]++
	} else {
		s.allowedByChan[ch]++
	}
	s.mu.Unlock()
}

// RecordError counts a request the bridge could not decode.
func (s *StatsService) RecordError() {
	s.errors.Add(1)
}

// Superseded implements intercept.Observer by feeding the matched entry into
// the hot-phrase sketch.
func (s *StatsService) Superseded(_ context.Context, v intercept.Verdict) {
	if v.Matched == "" {
		return
	}
	s.sketchMu.Lock()
	s.sketch.Incr(phraseKey(v.Channel, v.Matched))
	s.sketchMu.Unlock()
}

func phraseKey(ch intercept.Channel, matched string) string {
	return string(ch) + ":" + matched
}

// Tick advances the sliding window by one segment.
func (s *StatsService) Tick() {
	s.sketchMu.Lock()
	s.sketch.Tick()
	s.sketchMu.Unlock()
}

// Run advances the window on a timer until ctx is cancelled.
func (s *StatsService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// HotPhrase is one entry of the hot-phrase report.
type HotPhrase struct {
	Channel string `json:"channel"`
	Phrase  string `json:"phrase"`
	Count   uint32 `json:"count"`
}

// Stats holds a snapshot of all counters at a point in time.
type Stats struct {
	Allowed             int64            `json:"allowed"`
	Superseded          int64            `json:"superseded"`
	Errors              int64            `json:"errors"`
	AllowedByChannel    map[string]int64 `json:"allowed_by_channel"`
	SupersededByChannel map[string]int64 `json:"superseded_by_channel"`
	HotPhrases          []HotPhrase      `json:"hot_phrases"`
}

// HotPhrases returns the hottest matched entries, highest count first.
func (s *StatsService) HotPhrases() []HotPhrase {
	s.sketchMu.Lock()
	items := s.sketch.SortedSlice()
	s.sketchMu.Unlock()

	out := make([]HotPhrase, 0, len(items))
	for _, it := range items {
		if it.Count == 0 {
			continue
		}
		ch, phrase, _ := strings.Cut(it.Item, ":")
		out = append(out, HotPhrase{Channel: ch, Phrase: phrase, Count: it.Count})
		if len(out) == s.k {
			break
		}
	}
	return out
}

// GetStats returns a snapshot of all counters.
// The snapshot is consistent per-counter but not atomically across all counters.
func (s *StatsService) GetStats() Stats {
	s.mu.Lock()
	ac := make(map[string]int64, len(s.allowedByChan))
	for k, v := range s.allowedByChan {
		ac[k] = v
	}
	sc := make(map[string]int64, len(s.supersededByChan))
	for k, v := range s.supersededByChan {
		sc[k] = v
	}
	s.mu.Unlock()

	return Stats{
		Allowed:             s.allowed.Load(),
		Superseded:          s.superseded.Load(),
		Errors:              s.errors.Load(),
		AllowedByChannel:    ac,
		SupersededByChannel: sc,
		HotPhrases:          s.HotPhrases(),
	}
}

// Reset sets all counters to zero. The sketch keeps its window.
func (s *StatsService) Reset() {
	s.allowed.Store(0)
	s.superseded.Store(0)
	s.errors.Store(0)

	s.mu.Lock()
	s.allowedByChan = make(map[string]int64)
	s.supersededByChan = make(map[string]int64)
	s.mu.Unlock()
}
