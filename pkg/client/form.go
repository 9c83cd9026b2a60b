package client

import (
	"fmt"
	"time"

	"hotelbooking/internal/domain/booking"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/pricing"
	"hotelbooking/internal/pkg/validator"
)

// BookingForm is the guest-side booking draft. Its quote is for display
// only; the server recomputes the total when the booking is created.
type BookingForm struct {
	Room          catalog.Room
	CheckIn       time.Time
	CheckOut      time.Time
	Adults        int
	Children      int
	ContactName   string
	ContactEmail  string
	ContactPhone  string
	PaymentMethod booking.PaymentMethod
	Notes         string

	services map[int64]catalog.Service
	quantity map[int64]int
}

func NewBookingForm(room catalog.Room, services []catalog.Service) *BookingForm {
	f := &BookingForm{
		Room:          room,
		Adults:        1,
		PaymentMethod: booking.MethodBankTransfer,
		services:      make(map[int64]catalog.Service, len(services)),
		quantity:      map[int64]int{},
	}
	for _, s := range services {
		f.services[s.ID] = s
	}
	return f
}

// SetQuantity selects a service; zero or less deselects it.
func (f *BookingForm) SetQuantity(serviceID int64, qty int) error {
	if _, ok := f.services[serviceID]; !ok {
		return fmt.Errorf("service %d: %w", serviceID, ErrNotFound)
	}
	if qty <= 0 {
		delete(f.quantity, serviceID)
		return nil
	}
	f.quantity[serviceID] = qty
	return nil
}

func (f *BookingForm) selections() []pricing.Selection {
	out := make([]pricing.Selection, 0, len(f.quantity))
	for id, qty := range f.quantity {
		out = append(out, pricing.Selection{ServiceID: id, Price: f.services[id].Price, Quantity: qty})
	}
	return out
}

// Quote recomputes the live total from the current inputs.
func (f *BookingForm) Quote() pricing.Quote {
	return pricing.ComputeQuote(f.Room.Price, f.CheckIn, f.CheckOut, f.selections())
}

// Validate returns field -> reason for everything that would be rejected,
// or nil. A zero quote counts as an incomplete form.
func (f *BookingForm) Validate(today time.Time) map[string]string {
	fields := validator.Validate(f.Request())
	if fields == nil {
		fields = map[string]string{}
	}
	// dates are checked below against calendar days
	delete(fields, "check_in")
	delete(fields, "check_out")

	switch {
	case f.CheckIn.IsZero():
		fields["check_in"] = "required"
	case pricing.Nights(today, f.CheckIn) < 0:
		fields["check_in"] = "in_past"
	}
	if f.CheckOut.IsZero() {
		fields["check_out"] = "required"
	} else if !f.CheckIn.IsZero() && pricing.Nights(f.CheckIn, f.CheckOut) <= 0 {
		fields["check_out"] = "must_be_after_check_in"
	}

	capacity := f.Room.Capacity()
	if f.Adults > capacity.Adults {
		fields["adults"] = fmt.Sprintf("exceeds_capacity:%d", capacity.Adults)
	}
	if f.Children > capacity.Children {
		fields["children"] = fmt.Sprintf("exceeds_capacity:%d", capacity.Children)
	}

	if len(fields) == 0 && !f.Quote().Valid() {
		fields["total"] = "incomplete"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (f *BookingForm) CanSubmit(today time.Time) bool {
	return f.Validate(today) == nil
}

func (f *BookingForm) Request() booking.CreateBookingRequest {
	req := booking.CreateBookingRequest{
		RoomID:        f.Room.ID,
		Adults:        f.Adults,
		Children:      f.Children,
		ContactName:   f.ContactName,
		ContactEmail:  f.ContactEmail,
		ContactPhone:  f.ContactPhone,
		PaymentMethod: f.PaymentMethod,
		Notes:         f.Notes,
	}
	if !f.CheckIn.IsZero() {
		req.CheckIn = f.CheckIn.Format(pricing.DateLayout)
	}
	if !f.CheckOut.IsZero() {
		req.CheckOut = f.CheckOut.Format(pricing.DateLayout)
	}
	for _, s := range f.selections() {
		req.Services = append(req.Services, booking.ServiceSelection{ServiceID: s.ServiceID, Quantity: s.Quantity})
	}
	return req
}
