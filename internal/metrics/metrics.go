// Package metrics defines the Prometheus collectors exported at /metrics.
//
// Authority metrics:
//   - authority_requests_total{operation, outcome}: calls to the coordinate
//     authority; outcome is success, failure, or rejected (breaker open).
//   - authority_request_duration_seconds{operation}: latency of those calls.
//   - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open.
//   - circuit_breaker_transitions_total{name, from, to}
//   - pin_reads_degraded_total{operation}: reads served without positions
//     because the authority was unreachable.
//
// HTTP metrics:
//   - http_requests_total{method, route, status}
//   - http_request_duration_seconds{method, route}
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthorityRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authority_requests_total",
			Help: "Calls to the coordinate authority by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	AuthorityRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authority_request_duration_seconds",
			Help:    "Coordinate authority call latency",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	DegradedReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pin_reads_degraded_total",
			Help: "Pin reads served without positions because the authority was unreachable",
		},
		[]string{"operation"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
