package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/chatcleaner/chat-cleaner/internal/adapter/inbound/http"
	"github.com/chatcleaner/chat-cleaner/internal/adapter/inbound/watch"
	"github.com/chatcleaner/chat-cleaner/internal/adapter/outbound/journal"
	"github.com/chatcleaner/chat-cleaner/internal/adapter/outbound/pubsub"
	"github.com/chatcleaner/chat-cleaner/internal/adapter/outbound/resource"
	"github.com/chatcleaner/chat-cleaner/internal/config"
	"github.com/chatcleaner/chat-cleaner/internal/domain/intercept"
	"github.com/chatcleaner/chat-cleaner/internal/observability"
	"github.com/chatcleaner/chat-cleaner/internal/service"
)

// server is the assembled bridge process.
type server struct {
	cfg    *config.AppConfig
	logger *slog.Logger

	telemetry *observability.Provider
	cache     *service.VerdictCache
	filter    *service.FilterService
	journal   *service.JournalService
	stats     *service.StatsService
	transport *http.HTTPTransport

	watcher    *watch.Watcher
	subscriber *pubsub.Subscriber
}

// newFilter builds the FilterService for cfg. Lists and settings are read
// relative to cfg.Paths.GameDir.
func newFilter(cfg *config.AppConfig, logger *slog.Logger, opts ...service.FilterOption) (*service.FilterService, *resource.Provider) {
	provider := resource.NewProvider(cfg.Paths.GameDir)
	settingsPath := provider.Resolve(cfg.Paths.Settings)
	sources := service.FilterSources{
		Reader: provider,
		Settings: func() config.Settings {
			return config.LoadSettingsOrDefault(provider.Fs(), settingsPath, logger)
		},
		RadioPath:  cfg.Paths.Radio,
		TextPath:   cfg.Paths.Text,
		EventsPath: cfg.Paths.Events,
	}
	opts = append(opts, service.WithForcedDebug(cfg.DebugMode))
	return service.NewFilterService(sources, logger, opts...), provider
}

// newServer wires every component and performs the startup load. Nothing
// accepts connections until run.
func newServer(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*server, error) {
	s := &server{cfg: cfg, logger: logger}

	telemetry, err := observability.Init(ctx, observability.Config{
		ServiceName:     "chat-cleaner",
		ServiceVersion:  Version,
		TraceStdout:     cfg.Telemetry.TraceStdout,
		MetricsStdout:   cfg.Telemetry.MetricsStdout,
		MetricsInterval: config.Duration(cfg.Telemetry.MetricsInterval, time.Minute),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init telemetry: %w", err)
	}
	s.telemetry = telemetry

	registry := http.NewRegistry()
	metrics := http.NewMetrics(registry)

	filterOpts := []service.FilterOption{
		service.WithReloadRecorder(metrics),
		service.WithTracer(telemetry.Tracer()),
		service.WithMeter(telemetry.Meter()),
	}
	if cfg.Cache.Enabled {
		cache, err := service.NewVerdictCache(cfg.Cache.MaxEntries)
		if err != nil {
			s.close(ctx)
			return nil, err
		}
		s.cache = cache
		filterOpts = append(filterOpts, service.WithVerdictCache(cache))
	}

	filter, provider := newFilter(cfg, logger, filterOpts...)
	s.filter = filter
	filter.Reload(ctx, service.TriggerStartup)

	sink, err := journal.Open(ctx, cfg.Journal.Output, cfg.Journal.RecentSize)
	if err != nil {
		s.close(ctx)
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	s.journal = service.NewJournalService(sink, logger.With("component", "journal"),
		service.WithChannelSize(cfg.Journal.ChannelSize),
		service.WithBatchSize(cfg.Journal.BatchSize),
		service.WithFlushInterval(config.Duration(cfg.Journal.FlushInterval, time.Second)),
		service.WithSendTimeout(config.Duration(cfg.Journal.SendTimeout, 0)),
		service.WithDropHook(metrics.JournalDropsTotal.Inc),
		service.WithGeneration(filter.Generation),
	)

	s.stats = service.NewStatsService(cfg.Stats.TopK, config.Duration(cfg.Stats.Window, 10*time.Minute), cfg.Stats.Segments)

	observers := intercept.Observers{s.journal, s.stats}
	deps := http.Deps{
		Filter:   filter,
		Events:   intercept.NewEventAdapter(filter, filter, observers, logger),
		Messages: intercept.NewMessageAdapter(filter, filter, observers, logger),
		Journal:  s.journal,
		Stats:    s.stats,
	}
	s.transport = http.NewHTTPTransport(deps,
		http.WithAddr(cfg.Server.HTTPAddr),
		http.WithLogger(logger),
		http.WithAdminKeyHash(cfg.Admin.APIKeyHash),
		http.WithMetrics(registry, metrics),
		http.WithHealthChecker(http.NewHealthChecker(filter, s.journal, Version)),
		http.WithTracer(telemetry.Tracer()),
	)

	if cfg.Watch.Enabled {
		files := []string{
			provider.Resolve(cfg.Paths.Settings),
			provider.Resolve(cfg.Paths.Radio),
			provider.Resolve(cfg.Paths.Text),
			provider.Resolve(cfg.Paths.Events),
		}
		s.watcher = watch.New(files, config.Duration(cfg.Watch.Debounce, watch.DefaultDebounce),
			s.reloadFunc(service.TriggerWatch), logger.With("component", "watch"))
	}

	if cfg.Redis.Enabled {
		s.subscriber = pubsub.NewSubscriber(pubsub.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		}, s.reloadFunc(service.TriggerRedis), logger.With("component", "redis"))
	}

	return s, nil
}

func (s *server) reloadFunc(trigger string) func(ctx context.Context) {
	return func(ctx context.Context) {
		s.filter.Reload(ctx, trigger)
	}
}

// run starts the background components and serves the bridge until ctx is
// cancelled. Components that fail to start are logged and skipped; the bridge
// itself failing to listen is returned.
func (s *server) run(ctx context.Context) error {
	defer s.close(context.Background())

	// The journal outlives ctx so records from in-flight requests are flushed
	// by close.
	s.journal.Start(context.Background())

	var wg sync.WaitGroup
	bgCtx, cancelBg := context.WithCancel(ctx)
	defer func() {
		cancelBg()
		wg.Wait()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.stats.Run(bgCtx)
	}()

	if sigs := reloadSignals(); len(sigs) > 0 {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, sigs...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer signal.Stop(sigCh)
			for {
				select {
				case <-bgCtx.Done():
					return
				case <-sigCh:
					s.filter.Reload(bgCtx, service.TriggerSignal)
				}
			}
		}()
	}

	if s.watcher != nil {
		if err := s.watcher.Start(bgCtx); err != nil {
			s.logger.Warn("file watcher disabled", "error", err)
			s.watcher = nil
		}
	}
	if s.subscriber != nil {
		if err := s.subscriber.Start(bgCtx); err != nil {
			s.logger.Warn("redis reload channel disabled", "addr", s.cfg.Redis.Addr, "error", err)
			_ = s.subscriber.Stop()
			s.subscriber = nil
		}
	}

	return s.transport.Start(ctx)
}

// close stops every component that was started. Safe on a partially built
// server.
func (s *server) close(ctx context.Context) {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Debug("failed to stop file watcher", "error", err)
		}
	}
	if s.subscriber != nil {
		if err := s.subscriber.Stop(); err != nil {
			s.logger.Debug("failed to stop redis subscriber", "error", err)
		}
	}
	if s.journal != nil {
		s.journal.Stop()
	}
	if s.cache != nil {
		s.cache.Close()
	}
	if s.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.telemetry.Shutdown(shutdownCtx); err != nil {
			s.logger.Debug("failed to shut down telemetry", "error", err)
		}
	}
}
