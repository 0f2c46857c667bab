package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carpool_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	bookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_booking_transitions_total",
			Help: "Booking status changes by source and target status",
		},
		[]string{"from", "to"},
	)

	seatConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carpool_seat_conflicts_total",
			Help: "Acceptances refused because the ride ran out of seats",
		},
	)

	notificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carpool_notifications_dropped_total",
			Help: "Booking notifications dropped because the queue was full",
		},
	)
)

// BookingTransition records a booking moving between statuses. New bookings use from="".
func BookingTransition(from, to string) {
	if from == "" {
		from = "none"
	}
	bookingTransitions.WithLabelValues(from, to).Add(1)
}

// BookingTransitions adds n bulk transitions made by a ride completion.
func BookingTransitions(from, to string, n int64) {
	if n <= 0 {
		return
	}
	bookingTransitions.WithLabelValues(from, to).Add(float64(n))
}

func SeatConflict() {
	seatConflicts.Inc()
}

func NotificationDropped() {
	notificationsDropped.Inc()
}
