// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_applications_total",
			Help: "Total number of applications created",
		},
		[]string{"source", "course"},
	)

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_status_transitions_total",
			Help: "Total number of application status transitions",
		},
		[]string{"from", "to", "trigger"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_notifications_total",
			Help: "Total number of notification attempts",
		},
		[]string{"channel", "status"},
	)

	AllocatorFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admissions_allocator_fallbacks_total",
			Help: "Times the allocator degraded to a timestamp-derived number",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
