// internal/monitoring/metrics.go
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configuration for metrics
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	Namespace     string `yaml:"namespace" json:"namespace"`
	MetricsPath   string `yaml:"path" json:"path"`
	ListenAddress string `yaml:"listen_address" json:"listen_address"`
}

// Metrics tracks scraping progress. All methods are safe on a nil receiver so
// scrapers can run without monitoring.
type Metrics struct {
	registry *prometheus.Registry

	pagesScraped    *prometheus.CounterVec
	leavesCollected *prometheus.CounterVec
	urlsCollected   *prometheus.CounterVec
	recordsScraped  *prometheus.CounterVec
	retries         *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	navigation      *prometheus.HistogramVec
	recordsWritten  *prometheus.CounterVec
}

// NewMetrics registers the scraper metrics on a fresh registry.
func NewMetrics(config MetricsConfig) *Metrics {
	if config.Namespace == "" {
		config.Namespace = "parishscraper"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		pagesScraped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "scraper",
			Name:      "pages_scraped_total",
			Help:      "Result pages whose table was captured",
		}, []string{"site"}),
		leavesCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "scraper",
			Name:      "leaves_collected_total",
			Help:      "Fully specified browse paths visited",
		}, []string{"site"}),
		urlsCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "scraper",
			Name:      "urls_collected_total",
			Help:      "Detail viewer URLs found at browse leaves",
		}, []string{"site"}),
		recordsScraped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "scraper",
			Name:      "records_scraped_total",
			Help:      "Rows extracted from result pages",
		}, []string{"site"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "scraper",
			Name:      "retries_total",
			Help:      "Retried operations by name",
		}, []string{"site", "operation"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "scraper",
			Name:      "page_refreshes_total",
			Help:      "Page reloads issued to recover from slow rendering",
		}, []string{"site"}),
		navigation: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: "scraper",
			Name:      "navigation_duration_seconds",
			Help:      "Time spent loading pages",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"site"}),
		recordsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: "output",
			Name:      "records_written_total",
			Help:      "Rows written to the output sink",
		}, []string{"format"}),
	}
}

// Registry exposes the underlying registry for the HTTP handler and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) PageScraped(site string) {
	if m == nil {
		return
	}
	m.pagesScraped.WithLabelValues(site).Inc()
}

func (m *Metrics) LeafCollected(site string, urls int) {
	if m == nil {
		return
	}
	m.leavesCollected.WithLabelValues(site).Inc()
	m.urlsCollected.WithLabelValues(site).Add(float64(urls))
}

func (m *Metrics) RecordsScraped(site string, n int) {
	if m == nil {
		return
	}
	m.recordsScraped.WithLabelValues(site).Add(float64(n))
}

func (m *Metrics) Retry(site, operation string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(site, operation).Inc()
}

func (m *Metrics) Refresh(site string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(site).Inc()
}

// ObserveNavigation records how long a page load took.
func (m *Metrics) ObserveNavigation(site string, d time.Duration) {
	if m == nil {
		return
	}
	m.navigation.WithLabelValues(site).Observe(d.Seconds())
}

func (m *Metrics) RecordsWritten(format string, n int) {
	if m == nil {
		return
	}
	m.recordsWritten.WithLabelValues(format).Add(float64(n))
}
