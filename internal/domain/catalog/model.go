package catalog

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type Hotel struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	City        string    `json:"city" gorm:"size:128;index"`
	Address     string    `json:"address,omitempty" gorm:"size:512"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Stars       int       `json:"stars"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Rooms []Room `json:"rooms,omitempty" gorm:"foreignKey:HotelID"`
}

func (Hotel) TableName() string { return "hotels" }

type Capacity struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
}

// Room is priced per night. Price and capacity are read once when a booking
// is created and not re-read afterwards.
type Room struct {
	ID               int64          `json:"id" gorm:"primaryKey"`
	HotelID          int64          `json:"hotel_id" gorm:"not null;index"`
	Name             string         `json:"name" gorm:"size:255;not null"`
	Price            int64          `json:"price" gorm:"not null"`
	CapacityAdults   int            `json:"capacity_adults" gorm:"not null;default:1"`
	CapacityChildren int            `json:"capacity_children" gorm:"not null;default:0"`
	Amenities        datatypes.JSON `json:"amenities,omitempty" swaggertype:"array,string"`
	IsActive         bool           `json:"is_active" gorm:"not null;default:true"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (Room) TableName() string { return "rooms" }

func (r Room) Capacity() Capacity {
	return Capacity{Adults: r.CapacityAdults, Children: r.CapacityChildren}
}

func (r Room) AmenityList() []string {
	if len(r.Amenities) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(r.Amenities, &out); err != nil {
		return nil
	}
	return out
}

func (r *Room) SetAmenities(list []string) {
	if len(list) == 0 {
		r.Amenities = nil
		return
	}
	raw, _ := json.Marshal(list)
	r.Amenities = datatypes.JSON(raw)
}

// Service is an add-on that can be booked by quantity (breakfast, spa, laundry).
type Service struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Price     int64     `json:"price" gorm:"not null"`
	Icon      string    `json:"icon,omitempty" gorm:"size:255"`
	QRCode    *string   `json:"qr_code,omitempty" gorm:"size:128;uniqueIndex"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Service) TableName() string { return "services" }
