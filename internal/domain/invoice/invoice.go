// Package invoice projects settled bookings into printable invoices.
// Invoices are never stored; the same booking snapshot always yields the
// same invoice.
package invoice

import (
	"errors"
	"fmt"
	"time"

	"hotelbooking/internal/domain/auth"
	"hotelbooking/internal/domain/booking"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/pricing"
)

const Currency = "VND"

var (
	ErrIncomplete       = errors.New("invoice needs booking, hotel, room and user")
	ErrSubtotalMismatch = errors.New("invoice lines do not add up to the booking price")
	ErrNotInvoiceable   = errors.New("invoice is available once the booking is paid or completed")
)

type Line struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Amount      int64  `json:"amount"`
}

type Party struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type Invoice struct {
	Number    string    `json:"number"`
	BookingID int64     `json:"booking_id"`
	IssuedAt  time.Time `json:"issued_at"`

	Hotel Party `json:"hotel"`
	Guest Party `json:"guest"`

	RoomName string    `json:"room_name"`
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Nights   int       `json:"nights"`

	Lines          []Line `json:"lines"`
	Subtotal       int64  `json:"subtotal"`
	PaidFromWallet int64  `json:"paid_from_wallet"`
	PaidFromBonus  int64  `json:"paid_from_bonus"`
	// FinalAmount is what remains for the booking's payment method.
	FinalAmount int64 `json:"final_amount"`

	PaymentMethod booking.PaymentMethod `json:"payment_method"`
	PaymentStatus booking.PaymentStatus `json:"payment_status"`
	Currency      string                `json:"currency"`
	Warnings      []string              `json:"warnings,omitempty"`
}

func Number(bookingID int64) string {
	return fmt.Sprintf("INV-%06d", bookingID)
}

// Project builds the invoice. A nights count that disagrees with the stored
// dates only adds a warning. Lines that do not sum to the booking's final
// (or total) price return the invoice together with ErrSubtotalMismatch.
func Project(b *booking.Booking, h *catalog.Hotel, r *catalog.Room, u *auth.User) (*Invoice, error) {
	if b == nil || h == nil || r == nil || u == nil {
		return nil, ErrIncomplete
	}

	inv := &Invoice{
		Number:    Number(b.ID),
		BookingID: b.ID,
		IssuedAt:  issuedAt(b),
		Hotel: Party{
			Name:    h.Name,
			Address: joinNonEmpty(h.Address, h.City),
		},
		Guest:          guest(b, u),
		RoomName:       r.Name,
		CheckIn:        b.CheckIn,
		CheckOut:       b.CheckOut,
		Nights:         b.Nights,
		PaidFromWallet: b.PaidFromWallet,
		PaidFromBonus:  b.PaidFromBonus,
		PaymentMethod:  b.PaymentMethod,
		PaymentStatus:  b.PaymentStatus,
		Currency:       Currency,
	}

	if nights := pricing.Nights(b.CheckIn, b.CheckOut); nights != b.Nights {
		inv.Warnings = append(inv.Warnings,
			fmt.Sprintf("stored stay length is %d nights but the dates give %d", b.Nights, nights))
	}

	inv.Lines = append(inv.Lines, Line{
		Description: fmt.Sprintf("Room %s", r.Name),
		Quantity:    b.Nights,
		UnitPrice:   b.RoomRate,
		Amount:      b.RoomPrice,
	})
	for _, s := range b.Services {
		inv.Lines = append(inv.Lines, Line{
			Description: s.Name,
			Quantity:    s.Quantity,
			UnitPrice:   s.Price,
			Amount:      s.Subtotal(),
		})
	}
	for _, l := range inv.Lines {
		inv.Subtotal += l.Amount
	}
	inv.FinalAmount = inv.Subtotal - inv.PaidFromWallet - inv.PaidFromBonus

	expected := b.TotalPrice
	if b.FinalPrice != nil {
		expected = *b.FinalPrice
	}
	if inv.Subtotal != expected {
		return inv, fmt.Errorf("%w: lines sum to %d, booking price is %d", ErrSubtotalMismatch, inv.Subtotal, expected)
	}
	return inv, nil
}

// Invoiceable reports whether an invoice may be shown for the booking.
func Invoiceable(b *booking.Booking) bool {
	return b.Status == booking.StatusCompleted || b.PaymentStatus == booking.PaymentPaid
}

func issuedAt(b *booking.Booking) time.Time {
	if b.ActualCheckOut != nil {
		return b.ActualCheckOut.UTC()
	}
	return b.UpdatedAt.UTC()
}

func guest(b *booking.Booking, u *auth.User) Party {
	p := Party{Name: b.ContactName, Email: b.ContactEmail, Phone: b.ContactPhone}
	if p.Name == "" {
		p.Name = u.Name
	}
	if p.Email == "" {
		p.Email = u.Email
	}
	if p.Phone == "" {
		p.Phone = u.Phone
	}
	return p
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}
