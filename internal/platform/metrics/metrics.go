package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rxcore"

// Metrics agrupa los collectors del proceso. Se registra en un Registry
// propio (no en el global) para que cada router/test tenga el suyo.
type Metrics struct {
	registry *prometheus.Registry

	AuditRecords    *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	DispenseOutcome *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		AuditRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_records_total",
			Help:      "Audit records appended, by type and flag.",
		}, []string{"type", "flagged"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DispenseOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispense_completions_total",
			Help:      "completeDispensation attempts by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.AuditRecords,
		m.HTTPRequests,
		m.HTTPDuration,
		m.DispenseOutcome,
		collectors.NewGoCollector(),
	)
	return m
}

// AuditRecorded implementa audit.Observer.
func (m *Metrics) AuditRecorded(recordType string, flagged bool) {
	m.AuditRecords.WithLabelValues(recordType, strconv.FormatBool(flagged)).Inc()
}

// DispenseCompleted implementa dispense.Observer.
func (m *Metrics) DispenseCompleted(outcome string) {
	m.DispenseOutcome.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry expone el registro propio para consultas de colectores.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
