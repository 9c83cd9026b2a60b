package catalog

type CreateHotelRequest struct {
	Name        string `json:"name" binding:"required"`
	City        string `json:"city" binding:"required"`
	Address     string `json:"address"`
	Description string `json:"description"`
	Stars       int    `json:"stars" binding:"gte=0,lte=5"`
}

type CreateRoomRequest struct {
	HotelID          int64    `json:"hotel_id" binding:"required"`
	Name             string   `json:"name" binding:"required"`
	Price            int64    `json:"price" binding:"gte=0"`
	CapacityAdults   int      `json:"capacity_adults" binding:"required,gte=1"`
	CapacityChildren int      `json:"capacity_children" binding:"gte=0"`
	Amenities        []string `json:"amenities"`
}

type CreateServiceRequest struct {
	Name   string `json:"name" binding:"required"`
	Price  int64  `json:"price" binding:"gte=0"`
	Icon   string `json:"icon"`
	QRCode string `json:"qr_code"`
}

type UpdatePriceRequest struct {
	Price int64 `json:"price" binding:"gte=0"`
}

type ServiceSelection struct {
	ServiceID int64 `json:"service_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

type QuoteRequest struct {
	RoomID   int64              `json:"room_id" binding:"required"`
	CheckIn  string             `json:"check_in" binding:"required"`
	CheckOut string             `json:"check_out" binding:"required"`
	Services []ServiceSelection `json:"services"`
}
