package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chatcleaner/chat-cleaner/internal/domain/blocklist"
	"github.com/chatcleaner/chat-cleaner/internal/domain/intercept"
	"github.com/chatcleaner/chat-cleaner/internal/service"
)

// Metrics holds all Prometheus metrics for chat-cleaner.
// Pass to components that need to record metrics.
type Metrics struct {
	DecisionsTotal    *prometheus.CounterVec
	ListEntries       *prometheus.GaugeVec
	ReloadsTotal      *prometheus.CounterVec
	JournalDropsTotal prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
}

// Compile-time check that Metrics receives reload outcomes.
var _ service.ReloadRecorder = (*Metrics)(nil)

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chatcleaner",
				Name:      "decisions_total",
				Help:      "Total interception decisions",
			},
			[]string{"channel", "decision"}, // channel=event/radio/text/other, decision=allow/supersede
		),
		ListEntries: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "chatcleaner",
				Name:      "list_entries",
				Help:      "Number of entries in each active blocklist",
			},
			[]string{"list"},
		),
		ReloadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chatcleaner",
				Name:      "reloads_total",
				Help:      "Total blocklist reloads",
			},
			[]string{"result"}, // result=ok/partial
		),
		JournalDropsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "chatcleaner",
				Name:      "journal_drops_total",
				Help:      "Total journal records dropped due to backpressure",
			},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "chatcleaner",
				Name:      "request_duration_seconds",
				Help:      "Bridge request duration in seconds",
				Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
			},
			[]string{"route", "status"},
		),
	}
}

// ObserveReload implements service.ReloadRecorder.
func (m *Metrics) ObserveReload(result string, counts map[blocklist.Kind]int) {
	m.ReloadsTotal.WithLabelValues(result).Inc()
	for kind, n := range counts {
		m.ListEntries.WithLabelValues(kind.String()).Set(float64(n))
	}
}

// ObserveDecision counts one decision.
func (m *Metrics) ObserveDecision(res intercept.Result) {
	m.DecisionsTotal.WithLabelValues(string(res.Channel), res.Decision.String()).Inc()
}
