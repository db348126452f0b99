package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
)

const namespace = "docclassify"

// ClientMetrics records fetch, classify and dashboard telemetry on a private
// registry.
type ClientMetrics struct {
	registry *prometheus.Registry

	fetchAttempts   *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	fetchRetries    *prometheus.CounterVec
	classifyTotal   *prometheus.CounterVec
	classifyFlight  prometheus.Gauge
	classifyTime    prometheus.Histogram
	refreshToken    prometheus.Gauge
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	mu            sync.Mutex
	classifyStart time.Time
}

func NewClientMetrics(service string) *ClientMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	fetchAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "fetch",
			Name:        "attempts_total",
			Help:        "Remote read attempts by operation and outcome.",
			ConstLabels: constLabels,
		},
		[]string{"operation", "outcome"},
	)
	fetchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "fetch",
			Name:        "attempt_duration_seconds",
			Help:        "Duration of a single remote read attempt.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"operation"},
	)
	fetchRetries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "fetch",
			Name:        "retries_total",
			Help:        "Automatic retries scheduled after a failed read.",
			ConstLabels: constLabels,
		},
		[]string{"operation"},
	)
	classifyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "classify",
			Name:        "uploads_total",
			Help:        "Upload and classify calls by status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	classifyFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "classify",
			Name:        "in_flight",
			Help:        "Uploads currently running (0 or 1).",
			ConstLabels: constLabels,
		},
	)
	classifyTime := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "classify",
			Name:        "duration_seconds",
			Help:        "Upload and classify duration in seconds.",
			Buckets:     []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			ConstLabels: constLabels,
		},
	)
	refreshToken := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "refresh",
			Name:        "token",
			Help:        "Current value of the refresh token.",
			ConstLabels: constLabels,
		},
	)
	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Dashboard HTTP requests processed.",
			ConstLabels: constLabels,
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "Dashboard HTTP request duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Dashboard HTTP requests in flight.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(
		fetchAttempts,
		fetchDuration,
		fetchRetries,
		classifyTotal,
		classifyFlight,
		classifyTime,
		refreshToken,
		requestTotal,
		requestDuration,
		requestInFlight,
	)

	return &ClientMetrics{
		registry:        registry,
		fetchAttempts:   fetchAttempts,
		fetchDuration:   fetchDuration,
		fetchRetries:    fetchRetries,
		classifyTotal:   classifyTotal,
		classifyFlight:  classifyFlight,
		classifyTime:    classifyTime,
		refreshToken:    refreshToken,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
	}
}

func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ClientMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *ClientMetrics) ObserveAttempt(operation string, duration time.Duration, err error) {
	m.fetchAttempts.WithLabelValues(operation, outcome(err)).Inc()
	m.fetchDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *ClientMetrics) ObserveRetry(operation string, _ int) {
	m.fetchRetries.WithLabelValues(operation).Inc()
}

func (m *ClientMetrics) StartClassify() {
	m.classifyFlight.Inc()
	m.mu.Lock()
	m.classifyStart = time.Now()
	m.mu.Unlock()
}

func (m *ClientMetrics) FinishClassify(err error) {
	m.classifyFlight.Dec()
	m.mu.Lock()
	started := m.classifyStart
	m.classifyStart = time.Time{}
	m.mu.Unlock()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.classifyTotal.WithLabelValues(status).Inc()
	if !started.IsZero() {
		m.classifyTime.Observe(time.Since(started).Seconds())
	}
}

func (m *ClientMetrics) SetRefreshToken(value uint64) {
	m.refreshToken.Set(float64(value))
}

func outcome(err error) string {
	var httpErr *domain.HTTPError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &httpErr):
		return "http_status"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	case errors.Is(err, domain.ErrInvalidResponseFormat):
		return "invalid_format"
	case errors.Is(err, domain.ErrNoValidData):
		return "no_valid_data"
	default:
		return "error"
	}
}
