package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hotelbooking/internal/domain/events"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelbooking_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotelbooking_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelbooking_events_total",
			Help: "Booking and wallet change events published",
		},
		[]string{"type"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelbooking_booking_transitions_total",
			Help: "Booking status transitions",
		},
		[]string{"from", "to"},
	)

	WalletChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelbooking_wallet_changes_total",
			Help: "Wallet ledger changes by reason",
		},
		[]string{"reason"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelbooking_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordRateLimited(path string) {
	RateLimitedTotal.WithLabelValues(path).Inc()
}

// EventCounter is an events.Publisher that only counts what goes by.
type EventCounter struct{}

func (EventCounter) Publish(_ context.Context, ev events.Event) error {
	EventsTotal.WithLabelValues(ev.Type).Inc()

	switch ev.Type {
	case events.BookingStatusChanged:
		BookingTransitionsTotal.WithLabelValues(label(ev.Payload["from"]), label(ev.Payload["to"])).Inc()
	case events.WalletUpdated:
		WalletChangesTotal.WithLabelValues(label(ev.Payload["reason"])).Inc()
	}
	return nil
}

func label(v any) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprint(v)
}
