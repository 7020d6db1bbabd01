// Package obs exposes Prometheus metrics for the gateway.
package obs

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
)

// Metrics holds every collector. Build one per registry; tests use a fresh
// prometheus.NewRegistry so series never leak between them.
type Metrics struct {
	inFlight        prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rejections      *prometheus.CounterVec
	securityEvents  *prometheus.CounterVec
	buildInfo       *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faithlink_gate_rejections_total",
			Help: "Requests rejected by a gate, by error code.",
		}, []string{"code"}),
		securityEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faithlink_security_events_total",
			Help: "Security events emitted, by kind.",
		}, []string{"kind"}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "faithlink_build_info",
			Help: "FaithLink gateway build information.",
		}, []string{"version"}),
	}

	reg.MustRegister(m.inFlight, m.requestsTotal, m.requestDuration, m.rejections, m.securityEvents, m.buildInfo)

	for _, k := range domain.EventKinds {
		m.securityEvents.WithLabelValues(string(k))
	}
	return m
}

// SetBuildInfo sets faithlink_build_info{version} to 1.
func (m *Metrics) SetBuildInfo(version string) {
	m.buildInfo.WithLabelValues(version).Set(1)
}

// Instrument wraps one route. route is the mux pattern, not the request
// path, so label cardinality stays bounded.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		m.requestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

// RecordRejection counts a gate rejection by its code.
func (m *Metrics) RecordRejection(code string) {
	m.rejections.WithLabelValues(code).Inc()
}

// Emit makes Metrics a domain.EventSink.
func (m *Metrics) Emit(_ context.Context, ev domain.SecurityEvent) {
	m.securityEvents.WithLabelValues(string(ev.Kind)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
