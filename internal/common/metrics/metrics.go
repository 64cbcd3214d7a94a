// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total number of /api/chat requests by mode and response status",
		},
		[]string{"mode", "status"},
	)

	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_upstream_errors_total",
			Help: "Total number of failed upstream generation calls",
		},
		[]string{"provider", "error_code"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_upstream_duration_seconds",
			Help:    "Duration of upstream generation calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"provider"},
	)

	NormalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_normalized_total",
			Help: "Normalized upstream responses by mode and the parsing tier that produced them",
		},
		[]string{"mode", "tier"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	ChatRequestsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_requests_active",
			Help: "Number of /api/chat requests in flight",
		},
	)
)
