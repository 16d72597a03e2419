package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/buspass-portal/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the portal and its backend calls.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	backendTotal    *prometheus.CounterVec
	standings       *prometheus.CounterVec
	alertPolls      *prometheus.CounterVec
	activeAlerts    prometheus.Gauge
	sosSent         *prometheus.CounterVec
	payments        *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	backendCount         uint64
	backendFailures      uint64
}

// MetricsSnapshot is a lightweight summary served next to the Prometheus endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	BackendCallsTotal        uint64    `json:"backend_calls_total"`
	BackendFailuresTotal     uint64    `json:"backend_failures_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of portal HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of portal HTTP requests",
	}, []string{"method", "path", "status"})

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Duration of calls to the bus pass backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	backendTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_requests_total",
		Help: "Total calls to the bus pass backend",
	}, []string{"method", "route", "status"})

	standings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pass_standing_resolutions_total",
		Help: "Resolved pass standings by state",
	}, []string{"state"})

	alertPolls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sos_alert_polls_total",
		Help: "Alert list refreshes by outcome",
	}, []string{"outcome"})

	activeAlerts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sos_alerts_active",
		Help: "Active alerts seen on the most recent refresh",
	})

	sosSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sos_alerts_sent_total",
		Help: "SOS alert send attempts by outcome",
	}, []string{"outcome"})

	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pass_payments_total",
		Help: "Payment flow outcomes",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, backendDuration, backendTotal, standings, alertPolls, activeAlerts, sosSent, payments, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		backendDuration: backendDuration,
		backendTotal:    backendTotal,
		standings:       standings,
		alertPolls:      alertPolls,
		activeAlerts:    activeAlerts,
		sosSent:         sosSent,
		payments:        payments,
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

// ObserveHTTPRequest records portal request metrics.
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

// ObserveBackendRequest records one call to the remote bus pass service.
func (m *MetricsService) ObserveBackendRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.backendDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.backendTotal.WithLabelValues(method, route, fmt.Sprintf("%d", status)).Inc()
	atomic.AddUint64(&m.backendCount, 1)
	if status >= http.StatusInternalServerError {
		atomic.AddUint64(&m.backendFailures, 1)
	}
}

// RecordStanding counts a resolved standing.
func (m *MetricsService) RecordStanding(state models.StandingState) {
	if m == nil {
		return
	}
	m.standings.WithLabelValues(string(state)).Inc()
}

// RecordAlertPoll counts an alert refresh and tracks the active gauge on success.
func (m *MetricsService) RecordAlertPoll(err error, active int) {
	if m == nil {
		return
	}
	if err != nil {
		m.alertPolls.WithLabelValues("error").Inc()
		return
	}
	m.alertPolls.WithLabelValues("ok").Inc()
	m.activeAlerts.Set(float64(active))
}

// RecordSOS counts an SOS send attempt.
func (m *MetricsService) RecordSOS(err error) {
	if m == nil {
		return
	}
	m.sosSent.WithLabelValues(outcome(err)).Inc()
}

// RecordPayment counts a payment flow outcome such as "verified" or "cancelled".
func (m *MetricsService) RecordPayment(result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(result).Inc()
}

// Snapshot returns aggregated metrics.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		BackendCallsTotal:        atomic.LoadUint64(&m.backendCount),
		BackendFailuresTotal:     atomic.LoadUint64(&m.backendFailures),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
