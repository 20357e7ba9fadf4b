package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chatcleaner/chat-cleaner/internal/domain/intercept"
	"github.com/chatcleaner/chat-cleaner/internal/domain/journal"
)

// JournalService records superseded calls asynchronously through a buffered
// channel and a background worker, so the host's dispatch path never waits
// on a sink.
type JournalService struct {
	store         journal.Store
	records       chan journal.Record
	wg            sync.WaitGroup
	logger        *slog.Logger
	batchSize     int
	flushInterval time.Duration

	channelSize int
	sendTimeout time.Duration // 0 = drop immediately
	dropCount   atomic.Int64
	onDrop      func()

	warningThreshold int // percent of capacity
	lastWarning      atomic.Int64

	stopOnce   sync.Once
	generation func() uint64
}

// Compile-time check that JournalService observes verdicts.
var _ intercept.Observer = (*JournalService)(nil)

// JournalOption configures JournalService.
type JournalOption func(*JournalService)

// WithBatchSize sets the number of records to batch before writing.
func WithBatchSize(size int) JournalOption {
	return func(s *JournalService) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithFlushInterval sets the interval to flush pending records.
func WithFlushInterval(interval time.Duration) JournalOption {
	return func(s *JournalService) {
		if interval > 0 {
			s.flushInterval = interval
		}
	}
}

// WithChannelSize sets the size of the record buffer.
func WithChannelSize(size int) JournalOption {
	return func(s *JournalService) {
		if size > 0 {
			s.records = make(chan journal.Record, size)
			s.channelSize = size
		}
	}
}

// WithSendTimeout sets how long Record may block on a full buffer before
// dropping. 0 drops immediately.
func WithSendTimeout(timeout time.Duration) JournalOption {
	return func(s *JournalService) {
		s.sendTimeout = timeout
	}
}

// WithWarningThreshold sets the buffer depth warning percentage (0-100).
func WithWarningThreshold(percent int) JournalOption {
	return func(s *JournalService) {
		s.warningThreshold = min(max(percent, 0), 100)
	}
}

// WithDropHook registers a function called once per dropped record.
func WithDropHook(fn func()) JournalOption {
	return func(s *JournalService) {
		s.onDrop = fn
	}
}

// WithGeneration sets the source of the snapshot generation stamped on
// records built from verdicts.
func WithGeneration(fn func() uint64) JournalOption {
	return func(s *JournalService) {
		s.generation = fn
	}
}

// NewJournalService creates a JournalService writing to store.
func NewJournalService(store journal.Store, logger *slog.Logger, opts ...JournalOption) *JournalService {
	if logger == nil {
		logger = slog.Default()
	}
	const defaultChannelSize = 1000
	s := &JournalService{
		store:            store,
		records:          make(chan journal.Record, defaultChannelSize),
		logger:           logger,
		batchSize:        100,
		flushInterval:    time.Second,
		channelSize:      defaultChannelSize,
		warningThreshold: 80,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the background worker.
func (s *JournalService) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
}

// Superseded implements intercept.Observer.
func (s *JournalService) Superseded(_ context.Context, v intercept.Verdict) {
	rec := journal.Record{
		ID:        uuid.NewString(),
		Timestamp: v.Time,
		Channel:   string(v.Channel),
		Name:      v.Name,
		Matched:   v.Matched,
		Excerpt:   journal.Excerpt(v.Text),
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if s.generation != nil {
		rec.Generation = s.generation()
	}
	s.Record(rec)
}

// Record queues a record for the worker. When the buffer is full it waits up
// to the send timeout and then drops the record.
func (s *JournalService) Record(rec journal.Record) {
	if s.warningThreshold > 0 {
		depth := len(s.records)
		if depth >= s.channelSize*s.warningThreshold/100 {
			s.warnChannelDepth(depth)
		}
	}

	select {
	case s.records <- rec:
		return
	default:
	}

	if s.sendTimeout <= 0 {
		s.recordDrop(rec)
		return
	}

	timer := time.NewTimer(s.sendTimeout)
	defer timer.Stop()
	select {
	case s.records <- rec:
	case <-timer.C:
		s.recordDrop(rec)
	}
}

func (s *JournalService) recordDrop(rec journal.Record) {
	drops := s.dropCount.Add(1)
	if s.onDrop != nil {
		s.onDrop()
	}
	s.logger.Warn("journal record dropped",
		"channel", rec.Channel,
		"name", rec.Name,
		"total_drops", drops,
	)
}

// warnChannelDepth logs at most once per second.
func (s *JournalService) warnChannelDepth(depth int) {
	now := time.Now().UnixNano()
	last := s.lastWarning.Load()
	if now-last < int64(time.Second) {
		return
	}
	if s.lastWarning.CompareAndSwap(last, now) {
		s.logger.Warn("journal channel approaching capacity",
			"depth", depth,
			"capacity", s.channelSize,
			"percent", depth*100/s.channelSize,
		)
	}
}

// DroppedRecords returns the number of dropped records.
func (s *JournalService) DroppedRecords() int64 {
	return s.dropCount.Load()
}

// ChannelDepth returns the number of queued records.
func (s *JournalService) ChannelDepth() int {
	return len(s.records)
}

// ChannelCapacity returns the buffer size.
func (s *JournalService) ChannelCapacity() int {
	return cap(s.records)
}

// Recent returns recent records when the store keeps them.
func (s *JournalService) Recent(n int) []journal.Record {
	if rr, ok := s.store.(journal.RecentReader); ok {
		return rr.Recent(n)
	}
	return nil
}

// Stop closes the buffer, waits for the worker to flush and closes the store.
// Record must not be called after Stop.
func (s *JournalService) Stop() {
	s.stopOnce.Do(func() {
		close(s.records)
		s.wg.Wait()
		if err := s.store.Close(); err != nil {
			s.logger.Error("failed to close journal store", "error", err)
		}
	})
}

func (s *JournalService) worker(ctx context.Context) {
	defer s.wg.Done()

	batch := make([]journal.Record, 0, s.batchSize)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	finalFlush := func() {
		if len(batch) == 0 {
			return
		}
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.flush(flushCtx, batch)
	}

	for {
		select {
		case rec, ok := <-s.records:
			if !ok {
				finalFlush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= s.batchSize {
				s.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			// Drain until Stop closes the channel.
			for rec := range s.records {
				batch = append(batch, rec)
			}
			finalFlush()
			return
		}
	}
}

// flush writes a batch. Errors are logged and never reach the host.
func (s *JournalService) flush(ctx context.Context, batch []journal.Record) {
	if err := s.store.Append(ctx, batch...); err != nil {
		s.logger.Error("failed to write journal batch",
			"error", err,
			"count", len(batch),
		)
		return
	}
	if err := s.store.Flush(ctx); err != nil {
		s.logger.Debug("journal flush failed", "error", err)
	}
}
