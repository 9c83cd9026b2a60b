package invoice

import (
	"fmt"
	"strconv"
	"strings"

	"hotelbooking/internal/domain/pricing"
)

const textWidth = 72

// Text renders the invoice in a fixed-width printable layout.
func (inv *Invoice) Text() string {
	return inv.TextWithNotes()
}

// TextWithNotes is Text with extra notes printed after the data warnings.
func (inv *Invoice) TextWithNotes(notes ...string) string {
	var sb strings.Builder
	rule := strings.Repeat("=", textWidth) + "\n"
	thin := strings.Repeat("-", textWidth) + "\n"

	sb.WriteString(rule)
	fmt.Fprintf(&sb, "%-36s%36s\n", "INVOICE "+inv.Number, "Issued "+inv.IssuedAt.Format(pricing.DateLayout))
	sb.WriteString(rule)
	fmt.Fprintf(&sb, "%s\n", inv.Hotel.Name)
	if inv.Hotel.Address != "" {
		fmt.Fprintf(&sb, "%s\n", inv.Hotel.Address)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Guest:    %s\n", inv.Guest.Name)
	if inv.Guest.Email != "" {
		fmt.Fprintf(&sb, "Email:    %s\n", inv.Guest.Email)
	}
	if inv.Guest.Phone != "" {
		fmt.Fprintf(&sb, "Phone:    %s\n", inv.Guest.Phone)
	}
	fmt.Fprintf(&sb, "Booking:  #%d\n", inv.BookingID)
	fmt.Fprintf(&sb, "Room:     %s\n", inv.RoomName)
	fmt.Fprintf(&sb, "Stay:     %s to %s (%d nights)\n",
		inv.CheckIn.Format(pricing.DateLayout), inv.CheckOut.Format(pricing.DateLayout), inv.Nights)
	sb.WriteString(thin)

	fmt.Fprintf(&sb, "%-34s %5s %15s %15s\n", "Description", "Qty", "Unit price", "Amount")
	sb.WriteString(thin)
	for _, l := range inv.Lines {
		fmt.Fprintf(&sb, "%-34s %5d %15s %15s\n", truncate(l.Description, 34), l.Quantity, FormatAmount(l.UnitPrice), FormatAmount(l.Amount))
	}
	sb.WriteString(thin)

	total := func(label string, amount int64) {
		fmt.Fprintf(&sb, "%56s %15s\n", label, FormatAmount(amount))
	}
	total("Subtotal", inv.Subtotal)
	total("Paid from wallet", -inv.PaidFromWallet)
	total("Paid from bonus", -inv.PaidFromBonus)
	total("Amount due ("+inv.Currency+")", inv.FinalAmount)
	sb.WriteString(thin)
	fmt.Fprintf(&sb, "Payment:  %s / %s\n", inv.PaymentMethod, inv.PaymentStatus)
	for _, w := range inv.Warnings {
		fmt.Fprintf(&sb, "Note:     %s\n", w)
	}
	for _, n := range notes {
		fmt.Fprintf(&sb, "Note:     %s\n", n)
	}
	sb.WriteString(rule)
	return sb.String()
}

// FormatAmount groups thousands with dots: 1250000 -> "1.250.000".
func FormatAmount(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	sb.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		sb.WriteByte('.')
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
