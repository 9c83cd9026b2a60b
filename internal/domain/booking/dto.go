package booking

type ServiceSelection struct {
	ServiceID int64 `json:"service_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=0,lte=100"`
}

type CreateBookingRequest struct {
	RoomID        int64              `json:"room_id" validate:"required,gt=0"`
	CheckIn       string             `json:"check_in" validate:"required"`
	CheckOut      string             `json:"check_out" validate:"required"`
	Adults        int                `json:"adults" validate:"required,gte=1"`
	Children      int                `json:"children" validate:"gte=0"`
	ContactName   string             `json:"contact_name" validate:"required,max=255"`
	ContactEmail  string             `json:"contact_email" validate:"required,email"`
	ContactPhone  string             `json:"contact_phone" validate:"required,min=6,max=32"`
	PaymentMethod PaymentMethod      `json:"payment_method" validate:"required,oneof=bank_transfer wallet cash"`
	Services      []ServiceSelection `json:"services" validate:"dive"`
	Notes         string             `json:"notes" validate:"max=1000"`
}

type DepositProofRequest struct {
	Reference string `json:"reference" binding:"required,max=512"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type AddServiceRequest struct {
	ServiceID int64 `json:"service_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

type ScanRequest struct {
	Code     string `json:"code" binding:"required"`
	Quantity int    `json:"quantity"`
}

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID int64
	Admin  bool
}

type ListResult struct {
	Bookings []Booking `json:"bookings"`
	Total    int64     `json:"total"`
}
