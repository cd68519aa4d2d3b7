// Package observability provides Prometheus metrics and echo middleware
// for monitoring the contactbook service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Session check outcomes, used as the result label of SessionChecksTotal.
const (
	SessionValid  = "valid"
	SessionAbsent = "absent"
	SessionReject = "rejected"
	SessionError  = "error"
)

// Cache lookup outcomes for ContactCacheTotal.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
	CacheError  = "error"
)

var (
	// RequestsTotal counts HTTP requests by method, route template and status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactbook_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records request latency in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contactbook_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// SessionChecksTotal counts session cookie extractions by outcome.
	SessionChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactbook_session_checks_total",
			Help: "Session extractions by result",
		},
		[]string{"result"},
	)

	// ContactCacheTotal counts contact cache lookups by outcome.
	ContactCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactbook_contact_cache_total",
			Help: "Contact cache lookups by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		SessionChecksTotal,
		ContactCacheTotal,
	)
}
