// Package metrics provides Prometheus metrics for the session manager.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	SessionsParsed       prometheus.Counter
	SessionParseFailures prometheus.Counter
	ScanDuration         *prometheus.HistogramVec
	RequestsTotal        *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SessionsParsed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "claude_sessions_parsed_total",
				Help: "Session log files parsed during full scans.",
			},
		),
		SessionParseFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "claude_session_parse_failures_total",
				Help: "Session log files excluded from scans because they could not be read.",
			},
		),
		ScanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "claude_scan_duration_seconds",
				Help:    "Duration of full scans over the projects directory by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claude_http_requests_total",
				Help: "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "claude_http_request_duration_seconds",
				Help:    "HTTP request duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		registry: reg,
	}

	reg.MustRegister(m.SessionsParsed)
	reg.MustRegister(m.SessionParseFailures)
	reg.MustRegister(m.ScanDuration)
	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestDuration)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SessionParsed counts one successfully parsed session file.
func (m *Metrics) SessionParsed() {
	if m == nil {
		return
	}
	m.SessionsParsed.Inc()
}

// SessionParseFailed counts one session file that could not be parsed.
func (m *Metrics) SessionParseFailed() {
	if m == nil {
		return
	}
	m.SessionParseFailures.Inc()
}

// ObserveScan records how long a full scan took.
func (m *Metrics) ObserveScan(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScanDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordRequest records one served HTTP request.
func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}
