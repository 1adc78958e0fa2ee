package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "untrap_predictions_total",
			Help: "Crowd predictions served, by predicted label.",
		},
		[]string{"label"},
	)

	StatsRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "untrap_stats_requests_total",
		Help: "Crowd statistics summaries computed.",
	})

	FeedObservationsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "untrap_feed_observations_ingested_total",
		Help: "Observations stored by the upstream crowd feed.",
	})

	FeedCycleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "untrap_feed_cycle_errors_total",
		Help: "Feed cycles that failed to fetch or store data.",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "untrap_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "untrap_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
