package invoice

import (
	"context"
	"errors"

	"hotelbooking/internal/domain/auth"
	"hotelbooking/internal/domain/booking"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/pkg/logger"
)

type Bookings interface {
	Get(ctx context.Context, actor booking.Actor, id int64) (*booking.Booking, error)
}

type Catalog interface {
	GetHotel(ctx context.Context, id int64) (*catalog.Hotel, error)
	GetRoom(ctx context.Context, id int64) (*catalog.Room, error)
}

type Users interface {
	GetUser(ctx context.Context, id int64) (*auth.User, error)
}

type Service struct {
	bookings Bookings
	catalog  Catalog
	users    Users
	log      *logger.Logger
}

func NewService(bookings Bookings, catalog Catalog, users Users, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{bookings: bookings, catalog: catalog, users: users, log: log.WithComponent("invoice")}
}

// ForBooking loads the snapshot and projects it. A subtotal mismatch is
// logged and returned alongside the invoice.
func (s *Service) ForBooking(ctx context.Context, actor booking.Actor, bookingID int64) (*Invoice, error) {
	b, err := s.bookings.Get(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if !Invoiceable(b) {
		return nil, ErrNotInvoiceable
	}

	hotel, err := s.catalog.GetHotel(ctx, b.HotelID)
	if err != nil {
		return nil, err
	}
	room, err := s.catalog.GetRoom(ctx, b.RoomID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, b.UserID)
	if err != nil {
		return nil, err
	}

	inv, err := Project(b, hotel, room, user)
	if inv == nil {
		return nil, err
	}
	if errors.Is(err, ErrSubtotalMismatch) {
		s.log.Error("invoice subtotal mismatch", "booking_id", b.ID, "error", err)
	}
	for _, w := range inv.Warnings {
		s.log.Warn("invoice data warning", "booking_id", b.ID, "warning", w)
	}
	return inv, err
}
