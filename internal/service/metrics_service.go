package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/coursework-sync/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and sync runs.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	syncRuns        *prometheus.CounterVec
	syncItems       *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec
	databases       prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	syncRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_runs_total",
		Help: "Sync runs by trigger and final status",
	}, []string{"trigger", "status"})

	syncItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_items_total",
		Help: "Destination items written or failed, by outcome",
	}, []string{"outcome"})

	syncDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_run_duration_seconds",
		Help:    "Wall time of sync runs",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"trigger"})

	databases := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_databases_created_total",
		Help: "Destination databases created",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		syncRuns, syncItems, syncDuration, databases, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		syncRuns:        syncRuns,
		syncItems:       syncItems,
		syncDuration:    syncDuration,
		databases:       databases,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSync records the outcome of one sync run.
func (m *MetricsService) ObserveSync(trigger string, result *models.SyncResult) {
	if m == nil || result == nil {
		return
	}
	m.syncRuns.WithLabelValues(trigger, result.Status()).Inc()
	m.syncItems.WithLabelValues("created").Add(float64(result.Created))
	m.syncItems.WithLabelValues("updated").Add(float64(result.Updated))
	m.syncItems.WithLabelValues("failed").Add(float64(len(result.Errors)))
	if !result.StartedAt.IsZero() && !result.FinishedAt.IsZero() {
		m.syncDuration.WithLabelValues(trigger).Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
	}
	if result.DatabaseCreated {
		m.databases.Inc()
	}
}

// ObserveDatabaseCreated counts a database created outside a sync run.
func (m *MetricsService) ObserveDatabaseCreated() {
	if m == nil {
		return
	}
	m.databases.Inc()
}
