package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{Namespace: "takataka", Name: "reservations_created_total", Help: "Total reservations created"})
	ClaimsTotal         = promauto.NewCounter(prometheus.CounterOpts{Namespace: "takataka", Name: "claims_total", Help: "Total successful reservation claims"})
	ClaimRejections     = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "takataka", Name: "claim_rejections_total", Help: "Claim attempts rejected, by kind"},
		[]string{"kind"},
	)
	NotificationsPublished = promauto.NewCounter(prometheus.CounterOpts{Namespace: "takataka", Name: "notifications_published_total", Help: "Passenger notifications published"})
	NotificationFailures   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "takataka", Name: "notification_failures_total", Help: "Passenger notifications that could not be delivered"})
	OffersBroadcast        = promauto.NewCounter(prometheus.CounterOpts{Namespace: "takataka", Name: "offers_broadcast_total", Help: "Ride offers pushed to drivers"})
	LocationReports        = promauto.NewCounter(prometheus.CounterOpts{Namespace: "takataka", Name: "location_reports_total", Help: "Driver location reports received"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "takataka", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "takataka",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
