// Package events fans booking and wallet change notices out to connected
// clients and to the message bus. Notices carry identifiers only; clients
// re-fetch the authoritative state after receiving one.
package events

import (
	"context"
	"errors"
	"time"
)

const (
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
	BookingServiceAdded  = "booking.service_added"
	BookingPaymentUpdate = "booking.payment_updated"
	WalletUpdated        = "wallet.updated"
)

type Event struct {
	Type       string         `json:"type"`
	UserID     int64          `json:"user_id"`
	BookingID  int64          `json:"booking_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
