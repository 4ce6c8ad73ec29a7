package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitstudio_bookings_created_total",
			Help: "Number of confirmed bookings",
		},
	)

	BookingsCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitstudio_bookings_cancelled_total",
			Help: "Number of cancelled bookings by cause",
		},
		[]string{"cause"},
	)

	WaitlistJoined = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitstudio_waitlist_joined_total",
			Help: "Number of waitlist entries created or re-queued",
		},
	)

	WaitlistPromoted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitstudio_waitlist_promoted_total",
			Help: "Number of waitlist entries moved to notified",
		},
	)

	WaitlistExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitstudio_waitlist_expired_total",
			Help: "Number of notified entries removed after the notification window",
		},
	)

	ClassesCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitstudio_classes_cancelled_total",
			Help: "Number of class sessions cancelled",
		},
	)

	CreditsRefunded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitstudio_credits_refunded_total",
			Help: "Credits returned to memberships",
		},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitstudio_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func Register() {
	prometheus.MustRegister(
		BookingsCreated,
		BookingsCancelled,
		WaitlistJoined,
		WaitlistPromoted,
		WaitlistExpired,
		ClassesCancelled,
		CreditsRefunded,
		HTTPRequestDuration,
	)
}
