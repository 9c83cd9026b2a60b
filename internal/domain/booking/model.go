package booking

import "time"

type Booking struct {
	ID      int64 `json:"id" gorm:"primaryKey"`
	UserID  int64 `json:"user_id" gorm:"not null;index"`
	HotelID int64 `json:"hotel_id" gorm:"not null;index"`
	RoomID  int64 `json:"room_id" gorm:"not null;index"`

	CheckIn        time.Time  `json:"check_in" gorm:"not null"`
	CheckOut       time.Time  `json:"check_out" gorm:"not null"`
	Nights         int        `json:"nights" gorm:"not null"`
	ActualCheckIn  *time.Time `json:"actual_check_in,omitempty"`
	ActualCheckOut *time.Time `json:"actual_check_out,omitempty"`

	Adults   int `json:"adults" gorm:"not null"`
	Children int `json:"children" gorm:"not null;default:0"`

	ContactName  string `json:"contact_name" gorm:"size:255;not null"`
	ContactEmail string `json:"contact_email" gorm:"size:255;not null"`
	ContactPhone string `json:"contact_phone" gorm:"size:32;not null"`
	Notes        string `json:"notes,omitempty" gorm:"type:text"`

	// RoomRate is the nightly price captured at creation.
	RoomRate       int64  `json:"room_rate" gorm:"not null"`
	RoomPrice      int64  `json:"room_price" gorm:"not null"`
	ServicePrice   int64  `json:"service_price" gorm:"not null;default:0"`
	TotalPrice     int64  `json:"total_price" gorm:"not null"`
	EstimatedPrice int64  `json:"estimated_price" gorm:"not null"`
	FinalPrice     *int64 `json:"final_price,omitempty"`
	DepositAmount  int64  `json:"deposit_amount" gorm:"not null;default:0"`
	PaidFromWallet int64  `json:"paid_from_wallet" gorm:"not null;default:0"`
	PaidFromBonus  int64  `json:"paid_from_bonus" gorm:"not null;default:0"`
	// PaidExternally is what was collected outside the wallet: a deposit
	// received by bank transfer, or cash and bank payments marked paid.
	PaidExternally int64 `json:"paid_externally" gorm:"not null;default:0"`

	Status        Status        `json:"status" gorm:"type:varchar(32);not null;index"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(16);not null"`
	PaymentMethod PaymentMethod `json:"payment_method" gorm:"type:varchar(16);not null"`

	DepositProof       string     `json:"deposit_proof,omitempty" gorm:"size:512"`
	CancellationReason string     `json:"cancellation_reason,omitempty" gorm:"type:text"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Services []ServiceLine `json:"services" gorm:"foreignKey:BookingID"`
}

func (Booking) TableName() string { return "bookings" }

// ServiceLine is a service snapshot: the price is the one in effect when it
// was added and is never re-read from the catalog.
type ServiceLine struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	BookingID int64     `json:"booking_id" gorm:"not null;index"`
	ServiceID int64     `json:"service_id" gorm:"not null"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Price     int64     `json:"price" gorm:"not null"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	AddedBy   int64     `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (ServiceLine) TableName() string { return "booking_services" }

func (l ServiceLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// PaidFromBalances is what the user's wallet and bonus balances have covered.
func (b *Booking) PaidFromBalances() int64 {
	return b.PaidFromWallet + b.PaidFromBonus
}

// Outstanding is the part of the total nobody has paid yet.
func (b *Booking) Outstanding() int64 {
	return max(b.TotalPrice-b.PaidFromBalances()-b.PaidExternally, 0)
}

func (b *Booking) CheckedIn() bool {
	return b.ActualCheckIn != nil
}

func (b *Booking) CheckedOut() bool {
	return b.ActualCheckOut != nil
}

func Models() []any {
	return []any{&Booking{}, &ServiceLine{}}
}
