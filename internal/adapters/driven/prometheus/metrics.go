// Package prometheus exports ranking and HTTP metrics.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RankingMetrics = (*Metrics)(nil)

const namespace = "newsrank"

// latencyBuckets cover the 500ms search budget in detail
var latencyBuckets = []float64{.005, .01, .025, .05, .1, .2, .3, .4, .5, .75, 1, 2.5}

// Metrics implements driven.RankingMetrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	searchTotal           *prometheus.CounterVec
	searchDuration        *prometheus.HistogramVec
	sourceTotal           *prometheus.CounterVec
	sourceDuration        *prometheus.HistogramVec
	recommendationTotal   *prometheus.CounterVec
	recommendationLatency *prometheus.HistogramVec
	cacheLookups          *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

// New creates the collectors and registers them with Go runtime collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		searchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search responses by retrieval method and cache status.",
		}, []string{"method", "cached"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "End-to-end search latency.",
			Buckets:   latencyBuckets,
		}, []string{"method"}),
		sourceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "calls_total",
			Help:      "Retrieval source calls by outcome.",
		}, []string{"source", "status"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "duration_seconds",
			Help:      "Retrieval source latency.",
			Buckets:   latencyBuckets,
		}, []string{"source"}),
		recommendationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommendation",
			Name:      "requests_total",
			Help:      "Recommendation responses by cache and personalization status.",
		}, []string{"cached", "personalized"}),
		recommendationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recommendation",
			Name:      "duration_seconds",
			Help:      "Recommendation latency.",
			Buckets:   latencyBuckets,
		}, []string{"cached"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by namespace and result.",
		}, []string{"namespace", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.searchTotal,
		m.searchDuration,
		m.sourceTotal,
		m.sourceDuration,
		m.recommendationTotal,
		m.recommendationLatency,
		m.cacheLookups,
		m.httpRequests,
		m.httpDuration,
		m.httpInFlight,
	)
	return m
}

func (m *Metrics) ObserveSearch(method domain.SearchMethod, cached bool, elapsed time.Duration) {
	label := string(method)
	if label == "" {
		label = "unknown"
	}
	m.searchTotal.WithLabelValues(label, strconv.FormatBool(cached)).Inc()
	m.searchDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSource(source domain.Source, status domain.SourceStatus, elapsed time.Duration) {
	m.sourceTotal.WithLabelValues(string(source), string(status)).Inc()
	if status != domain.SourceStatusSkipped {
		m.sourceDuration.WithLabelValues(string(source)).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveRecommendation(cached, personalized bool, elapsed time.Duration) {
	m.recommendationTotal.WithLabelValues(strconv.FormatBool(cached), strconv.FormatBool(personalized)).Inc()
	m.recommendationLatency.WithLabelValues(strconv.FormatBool(cached)).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCache(namespace string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(namespace, result).Inc()
}

// ObserveHTTP records one served request. route is the matched pattern,
// never the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns its decrement
func (m *Metrics) TrackInFlight() func() {
	m.httpInFlight.Inc()
	return m.httpInFlight.Dec
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
