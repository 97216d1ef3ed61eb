package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mmcdole/artshelf/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements domain.Observer with Prometheus collectors on a
// private registry. A CLI process is short-lived, so metrics are flushed to a
// node_exporter textfile instead of being served.
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	toggles      *prometheus.CounterVec
	ledgerSize   *prometheus.GaugeVec
	cacheLookups *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "artshelf_requests_total",
			Help: "Total number of API requests",
		}, []string{"endpoint", "status"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "artshelf_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		toggles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "artshelf_toggles_total",
			Help: "Engagement toggles by kind and outcome",
		}, []string{"kind", "outcome"}),

		ledgerSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "artshelf_ledger_records",
			Help: "Number of engagement records held per kind",
		}, []string{"kind"}),

		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "artshelf_detail_cache_lookups_total",
			Help: "Artwork detail cache lookups by result",
		}, []string{"result"}),
	}
}

// NewObserver returns Prometheus metrics when enabled, a no-op observer otherwise
func NewObserver(cfg *MetricsConfig) (domain.Observer, *Metrics) {
	if cfg == nil || !cfg.Enabled {
		return domain.NoOpObserver{}, nil
	}
	m := NewMetrics()
	return m, m
}

func (m *Metrics) OnRequest(endpoint string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(endpoint, statusBucket(status)).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) OnToggle(kind domain.Kind, outcome string) {
	m.toggles.WithLabelValues(kind.String(), outcome).Inc()
}

func (m *Metrics) OnLedgerSize(kind domain.Kind, size int) {
	m.ledgerSize.WithLabelValues(kind.String()).Set(float64(size))
}

func (m *Metrics) OnCache(hit bool) {
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// Registry exposes the underlying registry (for tests and embedding)
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes every collected metric to path in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func statusBucket(code int) string {
	switch {
	case code == 0:
		return "error"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
