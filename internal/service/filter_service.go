package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/chatcleaner/chat-cleaner/internal/config"
	"github.com/chatcleaner/chat-cleaner/internal/domain/blocklist"
	"github.com/chatcleaner/chat-cleaner/internal/domain/intercept"
)

// Reload triggers.
const (
	TriggerStartup = "startup"
	TriggerAdmin   = "admin"
	TriggerSignal  = "signal"
	TriggerWatch   = "watch"
	TriggerRedis   = "redis"
)

// Reload results, used as the metrics label.
const (
	ReloadOK      = "ok"
	ReloadPartial = "partial"
)

// ReloadRecorder receives the outcome of every reload. The prometheus
// metrics implement it.
type ReloadRecorder interface {
	ObserveReload(result string, counts map[blocklist.Kind]int)
}

// FilterSources locates everything a reload reads.
type FilterSources struct {
	// Reader reads the block lists.
	Reader blocklist.ResourceReader
	// Settings loads the plugin settings resource. nil means defaults.
	Settings func() config.Settings

	RadioPath  string
	TextPath   string
	EventsPath string
}

// ReloadReport describes one completed reload.
type ReloadReport struct {
	Trigger    string                 `json:"trigger"`
	Generation uint64                 `json:"generation"`
	Counts     map[blocklist.Kind]int `json:"counts"`
	DebugMode  bool                   `json:"debug_mode"`
	Failed     []string               `json:"failed,omitempty"`
	Duration   time.Duration          `json:"duration"`
	LoadedAt   time.Time              `json:"loaded_at"`
}

// Result returns ReloadOK or ReloadPartial.
func (r ReloadReport) Result() string {
	if len(r.Failed) > 0 {
		return ReloadPartial
	}
	return ReloadOK
}

// FilterService owns the active blocklists and the debug flag. It answers
// classifier questions for the interception adapters and serializes reloads.
type FilterService struct {
	sources FilterSources
	store   *blocklist.Store
	logger  *slog.Logger

	debugForced   bool
	debugSettings atomic.Bool

	cache    *VerdictCache
	recorder ReloadRecorder
	tracer   trace.Tracer
	reloadMs metric.Float64Histogram

	mu   sync.Mutex // Only for Reload
	last atomic.Pointer[ReloadReport]
}

// Compile-time checks.
var (
	_ intercept.Matcher   = (*FilterService)(nil)
	_ intercept.DebugFlag = (*FilterService)(nil)
)

// FilterOption configures FilterService.
type FilterOption func(*FilterService)

// WithVerdictCache memoizes classifier answers in c.
func WithVerdictCache(c *VerdictCache) FilterOption {
	return func(s *FilterService) {
		s.cache = c
	}
}

// WithReloadRecorder reports reloads to r.
func WithReloadRecorder(r ReloadRecorder) FilterOption {
	return func(s *FilterService) {
		s.recorder = r
	}
}

// WithTracer opens a span for every reload.
func WithTracer(t trace.Tracer) FilterOption {
	return func(s *FilterService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMeter records reload durations as an OpenTelemetry histogram.
func WithMeter(m metric.Meter) FilterOption {
	return func(s *FilterService) {
		if m == nil {
			return
		}
		h, err := m.Float64Histogram("chatcleaner.reload.duration",
			metric.WithDescription("Time spent reloading settings and block lists"),
			metric.WithUnit("ms"),
		)
		if err == nil {
			s.reloadMs = h
		}
	}
}

// WithForcedDebug turns debug mode on regardless of the settings resource.
func WithForcedDebug(on bool) FilterOption {
	return func(s *FilterService) {
		s.debugForced = on
	}
}

// NewFilterService creates a FilterService with empty lists. Call Reload
// with TriggerStartup to load them.
func NewFilterService(sources FilterSources, logger *slog.Logger, opts ...FilterOption) *FilterService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FilterService{
		sources: sources,
		store:   blocklist.NewStore(),
		logger:  logger,
		tracer:  tracenoop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reload re-reads the settings and all three lists, in that order, and
// publishes them as one new snapshot. Unreadable lists become empty; a
// reload never fails.
func (s *FilterService) Reload(ctx context.Context, trigger string) ReloadReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "blocklist.reload",
		trace.WithAttributes(attribute.String("chatcleaner.trigger", trigger)))
	defer span.End()

	start := time.Now()

	settings := config.Settings{}
	if s.sources.Settings != nil {
		settings = s.sources.Settings()
	}
	s.debugSettings.Store(settings.DebugMode)

	var failed []string
	load := func(path string, kind blocklist.Kind) blocklist.Set {
		set, ok := blocklist.LoadListOrEmpty(s.sources.Reader, path, kind, s.logger)
		if !ok {
			failed = append(failed, kind.Label())
		}
		return set
	}

	radio := load(s.sources.RadioPath, blocklist.KindRadio)
	text := load(s.sources.TextPath, blocklist.KindText)
	events := load(s.sources.EventsPath, blocklist.KindEvent)

	snap := s.store.Publish(radio, text, events)
	if s.cache != nil {
		s.cache.Clear()
	}

	report := ReloadReport{
		Trigger:    trigger,
		Generation: snap.Generation,
		Counts:     snap.Counts(),
		DebugMode:  s.DebugMode(),
		Failed:     failed,
		Duration:   time.Since(start),
		LoadedAt:   snap.LoadedAt,
	}
	s.last.Store(&report)

	if s.recorder != nil {
		s.recorder.ObserveReload(report.Result(), report.Counts)
	}
	if s.reloadMs != nil {
		s.reloadMs.Record(ctx, float64(report.Duration.Microseconds())/1000,
			metric.WithAttributes(attribute.String("result", report.Result())))
	}

	span.SetAttributes(
		attribute.Int64("chatcleaner.generation", int64(snap.Generation)),
		attribute.Int("chatcleaner.radio_entries", report.Counts[blocklist.KindRadio]),
		attribute.Int("chatcleaner.text_entries", report.Counts[blocklist.KindText]),
		attribute.Int("chatcleaner.event_entries", report.Counts[blocklist.KindEvent]),
	)
	if len(failed) > 0 {
		span.SetStatus(codes.Error, "some lists could not be read")
	}

	msg := "All configs reloaded!"
	if trigger == TriggerStartup {
		msg = "chat cleaner loaded"
	}
	s.logger.Info(msg,
		"trigger", trigger,
		"generation", snap.Generation,
		"debug_mode", report.DebugMode,
		"duration", report.Duration,
	)
	return report
}

// Match implements intercept.Matcher against the current snapshot.
func (s *FilterService) Match(kind blocklist.Kind, text string) (string, bool) {
	snap := s.store.Current()
	if s.cache == nil {
		return snap.Match(kind, text)
	}
	if matched, blocked, ok := s.cache.Get(snap.Generation, kind, text); ok {
		return matched, blocked
	}
	matched, blocked := snap.Match(kind, text)
	s.cache.Put(snap.Generation, kind, text, matched, blocked)
	return matched, blocked
}

// DebugMode implements intercept.DebugFlag.
func (s *FilterService) DebugMode() bool {
	return s.debugForced || s.debugSettings.Load()
}

// Snapshot returns the active snapshot.
func (s *FilterService) Snapshot() *blocklist.Snapshot {
	return s.store.Current()
}

// Generation returns the active snapshot generation.
func (s *FilterService) Generation() uint64 {
	return s.store.Current().Generation
}

// LastReload returns the most recent reload report, if any.
func (s *FilterService) LastReload() (ReloadReport, bool) {
	r := s.last.Load()
	if r == nil {
		return ReloadReport{}, false
	}
	return *r, true
}
