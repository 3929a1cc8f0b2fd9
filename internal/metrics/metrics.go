// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	VisitTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visit_transitions_total",
			Help: "Visit lifecycle transitions by kind (check_in, check_out, delete)",
		},
		[]string{"transition"},
	)

	VisitConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visit_conflicts_total",
			Help: "Rejected transitions by reason (open_visit_exists, already_closed)",
		},
		[]string{"reason"},
	)

	LocationMismatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visit_location_mismatches_total",
			Help: "Check-outs flagged as location mismatch",
		},
	)

	CheckOutDistance = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "visit_checkout_distance_meters",
			Help:    "Distance between check-in and check-out coordinates",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)

	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Geocoding calls by direction and outcome (ok, no_result, error, cache_hit)",
		},
		[]string{"direction", "outcome"},
	)

	LiveEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visit_live_events_dropped_total",
			Help: "Visit events dropped from the live feed because its queue was full",
		},
	)

	LiveClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "visit_live_clients",
			Help: "Connected websocket clients on the live visit feed",
		},
	)
)
