package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parkhub",
			Name:      "bookings_opened_total",
			Help:      "Bookings opened.",
		},
	)

	bookingsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "parkhub",
			Name:      "bookings_completed_total",
			Help:      "Bookings checked out.",
		},
	)

	bookingErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkhub",
			Name:      "booking_errors_total",
			Help:      "Booking operation failures by kind.",
		},
		[]string{"kind"},
	)

	bookingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "parkhub",
			Name:      "booking_duration_hours",
			Help:      "Elapsed hours per completed booking.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 12, 24, 48},
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookingsOpened,
			bookingsCompleted,
			bookingErrors,
			bookingDuration,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingOpened() {
	bookingsOpened.Inc()
}

func IncBookingCompleted() {
	bookingsCompleted.Inc()
}

func IncBookingError(kind string) {
	bookingErrors.WithLabelValues(kind).Inc()
}

// ObserveBookingDuration records the elapsed time of a completed booking.
func ObserveBookingDuration(hours float64) {
	bookingDuration.Observe(hours)
}
