package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// matching engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	matchScores     prometheus.Histogram
	quotaDenials    *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	expiredSwept    prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	matchCount           uint64
}

// NewMetricsService registers the collectors on a private registry.
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

	matchScores := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "match_score",
		Help:    "Distribution of outfit match scores",
		Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	quotaDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quota_denials_total",
		Help: "Uploads rejected by the per-category item cap",
	}, []string{"category"})

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "item_uploads_total",
		Help: "Accepted wardrobe item uploads",
	}, []string{"category"})

	expiredSwept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "expired_items_swept_total",
		Help: "Anonymous items removed by the expiry sweeper",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, matchScores, quotaDenials, uploads, expiredSwept, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		matchScores:     matchScores,
		quotaDenials:    quotaDenials,
		uploads:         uploads,
		expiredSwept:    expiredSwept,
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

// ObserveHTTPRequest records request timing and volume.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveMatchScore records the score of a produced pairing.
func (m *MetricsService) ObserveMatchScore(score int) {
	if m == nil {
		return
	}
	m.matchScores.Observe(float64(score))
	atomic.AddUint64(&m.matchCount, 1)
}

// RecordQuotaDenial counts an upload rejected by the item cap.
func (m *MetricsService) RecordQuotaDenial(category string) {
	if m == nil {
		return
	}
	m.quotaDenials.WithLabelValues(category).Inc()
}

// RecordUpload counts an accepted upload.
func (m *MetricsService) RecordUpload(category string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(category).Inc()
}

// RecordExpiredSweep counts items removed by the expiry sweeper.
func (m *MetricsService) RecordExpiredSweep(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.expiredSwept.Add(float64(count))
}
