package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelbooking/internal/domain/booking"
	"hotelbooking/internal/domain/catalog"
)

var today = time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)

func newForm() *BookingForm {
	room := catalog.Room{ID: 7, HotelID: 1, Name: "Deluxe", Price: 1_000_000, CapacityAdults: 2, CapacityChildren: 1, IsActive: true}
	services := []catalog.Service{{ID: 3, Name: "Spa", Price: 200_000}}
	f := NewBookingForm(room, services)
	f.CheckIn = today.AddDate(0, 0, 2)
	f.CheckOut = today.AddDate(0, 0, 5)
	f.Adults = 2
	f.ContactName = "Tran Thi B"
	f.ContactEmail = "b@example.com"
	f.ContactPhone = "+84907654321"
	return f
}

func TestBookingForm_LiveQuote(t *testing.T) {
	f := newForm()
	require.NoError(t, f.SetQuantity(3, 2))

	q := f.Quote()
	assert.Equal(t, 3, q.Nights)
	assert.Equal(t, int64(3_400_000), q.Total)
	assert.True(t, f.CanSubmit(today))

	require.NoError(t, f.SetQuantity(3, 0))
	assert.Equal(t, int64(3_000_000), f.Quote().Total)

	assert.ErrorIs(t, f.SetQuantity(99, 1), ErrNotFound)
}

func TestBookingForm_Validate(t *testing.T) {
	f := newForm()
	f.Adults = 3
	f.Children = 2
	f.ContactEmail = "not-an-email"

	fields := f.Validate(today)
	assert.Equal(t, "exceeds_capacity:2", fields["adults"])
	assert.Equal(t, "exceeds_capacity:1", fields["children"])
	assert.Equal(t, "email", fields["contact_email"])
	assert.False(t, f.CanSubmit(today))
}

func TestBookingForm_DateRange(t *testing.T) {
	f := newForm()
	f.CheckOut = f.CheckIn
	assert.Equal(t, "must_be_after_check_in", f.Validate(today)["check_out"])

	f = newForm()
	f.CheckIn = today.AddDate(0, 0, -1)
	assert.Equal(t, "in_past", f.Validate(today)["check_in"])

	f = newForm()
	f.CheckIn = time.Time{}
	assert.Equal(t, "required", f.Validate(today)["check_in"])
}

func TestBookingForm_ZeroQuoteIsIncomplete(t *testing.T) {
	f := newForm()
	f.Room.Price = 0

	assert.Equal(t, map[string]string{"total": "incomplete"}, f.Validate(today))
}

func TestBookingForm_Request(t *testing.T) {
	f := newForm()
	f.PaymentMethod = booking.MethodWallet
	require.NoError(t, f.SetQuantity(3, 1))

	req := f.Request()
	assert.Equal(t, int64(7), req.RoomID)
	assert.Equal(t, "2026-03-03", req.CheckIn)
	assert.Equal(t, "2026-03-06", req.CheckOut)
	assert.Equal(t, []booking.ServiceSelection{{ServiceID: 3, Quantity: 1}}, req.Services)
}
