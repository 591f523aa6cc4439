package rest

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for verb calls and the query
// cache. It is safe for concurrent use. A nil collector records nothing.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	transportErrors  *prometheus.CounterVec

	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations *prometheus.CounterVec
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(registry)

	return &MetricsCollector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restkit_requests_total",
				Help: "Total number of verb calls dispatched",
			},
			[]string{"verb", "status_code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "restkit_request_duration_seconds",
				Help:    "Duration of verb calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"verb"},
		),
		requestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "restkit_requests_in_flight",
				Help: "Number of verb calls currently in flight",
			},
			[]string{"verb"},
		),
		transportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restkit_transport_errors_total",
				Help: "Total number of calls whose transport failed",
			},
			[]string{"verb"},
		),
		cacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "restkit_cache_hits_total",
				Help: "Total number of reads served from the cache",
			},
		),
		cacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "restkit_cache_misses_total",
				Help: "Total number of reads that had to fetch",
			},
		),
		cacheInvalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restkit_cache_invalidations_total",
				Help: "Total number of cache invalidations by canonical path",
			},
			[]string{"path"},
		),
	}
}

func (m *MetricsCollector) requestStarted(verb Verb) {
	if m == nil {
		return
	}

	m.requestsInFlight.WithLabelValues(string(verb)).Inc()
}

func (m *MetricsCollector) requestFinished(verb Verb, status int, err error, latency time.Duration) {
	if m == nil {
		return
	}

	m.requestsInFlight.WithLabelValues(string(verb)).Dec()
	m.requestDuration.WithLabelValues(string(verb)).Observe(latency.Seconds())

	if err != nil {
		m.transportErrors.WithLabelValues(string(verb)).Inc()

		return
	}

	m.requestsTotal.WithLabelValues(string(verb), strconv.Itoa(status)).Inc()
}

// RecordCacheHit records a read served from the cache.
func (m *MetricsCollector) RecordCacheHit() {
	if m == nil {
		return
	}

	m.cacheHits.Inc()
}

// RecordCacheMiss records a read that had to fetch.
func (m *MetricsCollector) RecordCacheMiss() {
	if m == nil {
		return
	}

	m.cacheMisses.Inc()
}

// RecordInvalidation records an invalidation of the given key prefix.
func (m *MetricsCollector) RecordInvalidation(prefix Key) {
	if m == nil {
		return
	}

	path := ""
	if len(prefix) > 0 {
		if s, ok := prefix[0].(string); ok {
			path = s
		}
	}

	m.cacheInvalidations.WithLabelValues(path).Inc()
}
