package health

import "github.com/prometheus/client_golang/prometheus"

const namespace = "dutchthrift"

var (
	HttpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern",
		},
		[]string{"method", "route", "status"},
	)

	// IntakeSubmissions counts intake requests by body shape and outcome.
	// Bodies rejected before decoding have shape "unknown".
	IntakeSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Intake submissions by shape and outcome",
		},
		[]string{"shape", "outcome"},
	)

	// IntakeItems counts submitted items by result (created, failed)
	IntakeItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "items_total",
			Help:      "Submitted intake items by result",
		},
		[]string{"result"},
	)
)
