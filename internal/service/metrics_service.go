package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edusight/prism/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the calculation pipeline.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	taskDuration   *prometheus.HistogramVec
	runDuration    prometheus.Histogram
	runTotal       *prometheus.CounterVec
	studentsTotal  *prometheus.CounterVec
	bandLastCounts *prometheus.GaugeVec
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

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	taskDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_task_duration_seconds",
		Help:    "Duration of pipeline tasks",
		Buckets: []float64{.1, .5, 1, 5, 15, 60, 300, 900, 1800},
	}, []string{"task", "outcome"})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_run_duration_seconds",
		Help:    "Duration of complete pipeline runs",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
	})

	runTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Total pipeline runs by outcome",
	}, []string{"outcome"})

	studentsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_students_total",
		Help: "Students processed by the batch driver",
	}, []string{"outcome"})

	bandLastCounts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wellbeing_band_students",
		Help: "Students per performance band in the most recent run",
	}, []string{"band"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration, cacheHits, cacheMisses,
		taskDuration, runDuration, runTotal, studentsTotal, bandLastCounts, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		dbQueryDuration: dbQueryDuration,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		taskDuration:    taskDuration,
		runDuration:     runDuration,
		runTotal:        runTotal,
		studentsTotal:   studentsTotal,
		bandLastCounts:  bandLastCounts,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordCacheOperation counts cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveTask records one pipeline task execution.
func (m *MetricsService) ObserveTask(task, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.taskDuration.WithLabelValues(task, outcome).Observe(duration.Seconds())
}

// ObserveRun records a completed pipeline run.
func (m *MetricsService) ObserveRun(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(duration.Seconds())
	m.runTotal.WithLabelValues(outcome).Inc()
}

// CountStudent increments the per-student outcome counter.
func (m *MetricsService) CountStudent(outcome string) {
	if m == nil {
		return
	}
	m.studentsTotal.WithLabelValues(outcome).Inc()
}

// SetBandCounts publishes the band distribution of the latest run.
func (m *MetricsService) SetBandCounts(counts models.BandCounts) {
	if m == nil {
		return
	}
	m.bandLastCounts.WithLabelValues(string(models.BandThriving)).Set(float64(counts.Thriving))
	m.bandLastCounts.WithLabelValues(string(models.BandHealthyProgress)).Set(float64(counts.HealthyProgress))
	m.bandLastCounts.WithLabelValues(string(models.BandNeedsSupport)).Set(float64(counts.NeedsSupport))
	m.bandLastCounts.WithLabelValues(string(models.BandAtRisk)).Set(float64(counts.AtRisk))
	m.bandLastCounts.WithLabelValues(string(models.BandInsufficientData)).Set(float64(counts.InsufficientData))
}
