package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetbook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fleetbook",
			Name:      "bookings_submitted_total",
			Help:      "Booking drafts accepted into PENDING state.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fleetbook",
			Name:      "booking_conflicts_total",
			Help:      "Booking submissions rejected because of overlapping dates.",
		},
	)

	bookingReviews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetbook",
			Name:      "booking_reviews_total",
			Help:      "Admin review decisions by outcome.",
		},
		[]string{"decision"},
	)

	mailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fleetbook",
			Name:      "notification_mails_sent_total",
			Help:      "Notification emails delivered to the transport.",
		},
	)

	mailsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fleetbook",
			Name:      "notification_mails_failed_total",
			Help:      "Notification emails that exhausted their retries.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookingsSubmitted,
			bookingConflicts,
			bookingReviews,
			mailsSent,
			mailsFailed,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncSubmitted() { bookingsSubmitted.Inc() }

func IncConflict() { bookingConflicts.Inc() }

func IncReview(decision string) {
	bookingReviews.WithLabelValues(decision).Inc()
}

func IncMailSent() { mailsSent.Inc() }

func IncMailFailed() { mailsFailed.Inc() }
