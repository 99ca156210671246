package metrics

import (
	"sync"

	"shareit/internal/events"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shareit"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Bookings entering a status.",
		},
		[]string{"status"},
	)

	commentsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_added_total",
			Help:      "Comments accepted by the comment gate.",
		},
	)

	throttled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttled_requests_total",
			Help:      "Requests rejected by the per-user rate limit.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingTransitions, commentsAdded, throttled)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

func IncComment() {
	commentsAdded.Inc()
}

func IncThrottled() {
	throttled.Inc()
}

// Observe subscribes the domain counters to bus.
func Observe(bus *events.EventBus) {
	onBooking := func(e *events.Event) error {
		var p events.BookingEventPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		IncBookingTransition(p.Status)
		return nil
	}
	bus.Subscribe(events.EventBookingCreated, onBooking)
	bus.Subscribe(events.EventBookingApproved, onBooking)
	bus.Subscribe(events.EventBookingRejected, onBooking)
	bus.Subscribe(events.EventCommentAdded, func(*events.Event) error {
		IncComment()
		return nil
	})
}
