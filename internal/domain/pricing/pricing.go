// Package pricing computes stay quotes from a nightly room price and
// selected add-on services. All amounts are whole currency units.
package pricing

import (
	"math"
	"time"
)

// Selection is one add-on service picked for a stay.
type Selection struct {
	ServiceID int64 `json:"service_id"`
	Price     int64 `json:"price"`
	Quantity  int   `json:"quantity"`
}

type Quote struct {
	Nights          int   `json:"nights"`
	RoomSubtotal    int64 `json:"room_subtotal"`
	ServiceSubtotal int64 `json:"service_subtotal"`
	Total           int64 `json:"total"`
}

// Valid reports whether the quote describes a complete stay. A zero total
// means the form is incomplete, never a free booking.
func (q Quote) Valid() bool {
	return q.Nights > 0 && q.Total > 0
}

const secondsPerDay = 24 * 60 * 60

// Nights is the calendar-day difference between the two dates. Time of day
// and zone offsets are ignored: only the year/month/day of each value count.
func Nights(checkIn, checkOut time.Time) int {
	in := calendarDay(checkIn).Unix()
	out := calendarDay(checkOut).Unix()
	return int((out - in) / secondsPerDay)
}

// ComputeQuote returns the full breakdown. Quantities below one are treated
// as deselected. A total that does not fit in int64 yields a zero total,
// which Valid rejects.
func ComputeQuote(roomPrice int64, checkIn, checkOut time.Time, selections []Selection) Quote {
	nights := Nights(checkIn, checkOut)
	if nights <= 0 {
		return Quote{}
	}

	room, ok := mul(roomPrice, int64(nights))
	if !ok {
		return Quote{Nights: nights}
	}
	services, ok := serviceSubtotal(selections)
	if !ok {
		return Quote{Nights: nights}
	}
	total, ok := add(room, services)
	if !ok {
		return Quote{Nights: nights}
	}
	return Quote{Nights: nights, RoomSubtotal: room, ServiceSubtotal: services, Total: total}
}

// ComputeTotal is the total of ComputeQuote; 0 when checkOut is not after checkIn.
func ComputeTotal(roomPrice int64, checkIn, checkOut time.Time, selections []Selection) int64 {
	return ComputeQuote(roomPrice, checkIn, checkOut, selections).Total
}

// ServiceSubtotal sums the selected services, saturating at math.MaxInt64.
func ServiceSubtotal(selections []Selection) int64 {
	sum, ok := serviceSubtotal(selections)
	if !ok {
		return math.MaxInt64
	}
	return sum
}

func serviceSubtotal(selections []Selection) (int64, bool) {
	var sum int64
	for _, s := range selections {
		if s.Quantity < 1 {
			continue
		}
		line, ok := mul(s.Price, int64(s.Quantity))
		if !ok {
			return 0, false
		}
		if sum, ok = add(sum, line); !ok {
			return 0, false
		}
	}
	return sum, true
}

// mul and add work on non-negative amounts and report overflow.
func mul(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a != 0 && b > math.MaxInt64/a {
		return 0, false
	}
	return a * b, true
}

func add(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const DateLayout = "2006-01-02"

// ParseDate accepts an ISO-8601 calendar date or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
