package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stay_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stay_db_tx_seconds",
			Help:    "Duration of booking store transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	BookingConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stay_booking_conflicts_total",
			Help: "Booking attempts rejected because the dates were taken",
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stay_outbox_lag_seconds",
			Help: "Age of the oldest unpublished outbox record",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stay_rate_limit_exceeded_total",
			Help: "Total rate limited requests",
		},
	)
)
