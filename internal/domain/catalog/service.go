package catalog

import (
	"context"
	"fmt"
	"strings"

	"hotelbooking/internal/domain/pricing"
)

type Catalog struct {
	repo *Repository
}

func NewService(repo *Repository) *Catalog {
	return &Catalog{repo: repo}
}

func (s *Catalog) ListHotels(ctx context.Context, city string) ([]Hotel, error) {
	return s.repo.ListHotels(ctx, strings.TrimSpace(city))
}

func (s *Catalog) GetHotel(ctx context.Context, id int64) (*Hotel, error) {
	return s.repo.GetHotel(ctx, id)
}

func (s *Catalog) ListRooms(ctx context.Context, hotelID int64) ([]Room, error) {
	if _, err := s.repo.GetHotel(ctx, hotelID); err != nil {
		return nil, err
	}
	return s.repo.ListRooms(ctx, hotelID)
}

func (s *Catalog) GetRoom(ctx context.Context, id int64) (*Room, error) {
	return s.repo.GetRoom(ctx, id)
}

func (s *Catalog) ListServices(ctx context.Context) ([]Service, error) {
	return s.repo.ListServices(ctx)
}

func (s *Catalog) GetService(ctx context.Context, id int64) (*Service, error) {
	return s.repo.GetService(ctx, id)
}

func (s *Catalog) GetServiceByCode(ctx context.Context, code string) (*Service, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetServiceByCode(ctx, code)
}

func (s *Catalog) GetServicesByIDs(ctx context.Context, ids []int64) (map[int64]Service, error) {
	return s.repo.GetServicesByIDs(ctx, ids)
}

func (s *Catalog) CreateHotel(ctx context.Context, req CreateHotelRequest) (*Hotel, error) {
	h := &Hotel{
		Name:        strings.TrimSpace(req.Name),
		City:        strings.TrimSpace(req.City),
		Address:     strings.TrimSpace(req.Address),
		Description: req.Description,
		Stars:       req.Stars,
		IsActive:    true,
	}
	if h.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := s.repo.CreateHotel(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Catalog) CreateRoom(ctx context.Context, req CreateRoomRequest) (*Room, error) {
	if req.Price < 0 || req.CapacityAdults < 1 || req.CapacityChildren < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0 and capacity at least one adult", ErrValidation)
	}
	if _, err := s.repo.GetHotel(ctx, req.HotelID); err != nil {
		return nil, err
	}

	room := &Room{
		HotelID:          req.HotelID,
		Name:             strings.TrimSpace(req.Name),
		Price:            req.Price,
		CapacityAdults:   req.CapacityAdults,
		CapacityChildren: req.CapacityChildren,
		IsActive:         true,
	}
	room.SetAmenities(req.Amenities)

	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Catalog) UpdateRoomPrice(ctx context.Context, roomID, price int64) (*Room, error) {
	if price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	room.Price = price
	if err := s.repo.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Catalog) CreateService(ctx context.Context, req CreateServiceRequest) (*Service, error) {
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}

	svc := &Service{
		Name:     strings.TrimSpace(req.Name),
		Price:    req.Price,
		Icon:     req.Icon,
		IsActive: true,
	}
	if code := strings.TrimSpace(req.QRCode); code != "" {
		svc.QRCode = &code
	}

	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Catalog) UpdateServicePrice(ctx context.Context, serviceID, price int64) (*Service, error) {
	if price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	svc.Price = price
	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// Quote prices a prospective stay with current catalog prices. It is
// advisory: the booking snapshot taken at creation is authoritative.
func (s *Catalog) Quote(ctx context.Context, req QuoteRequest) (*pricing.Quote, error) {
	checkIn, err := pricing.ParseDate(req.CheckIn)
	if err != nil {
		return nil, fmt.Errorf("%w: check_in", ErrValidation)
	}
	checkOut, err := pricing.ParseDate(req.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("%w: check_out", ErrValidation)
	}

	room, err := s.repo.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(req.Services))
	for _, sel := range req.Services {
		ids = append(ids, sel.ServiceID)
	}
	services, err := s.repo.GetServicesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	selections := make([]pricing.Selection, 0, len(req.Services))
	for _, sel := range req.Services {
		svc, ok := services[sel.ServiceID]
		if !ok {
			return nil, fmt.Errorf("%w: service %d", ErrNotFound, sel.ServiceID)
		}
		selections = append(selections, pricing.Selection{ServiceID: svc.ID, Price: svc.Price, Quantity: sel.Quantity})
	}

	q := pricing.ComputeQuote(room.Price, checkIn, checkOut, selections)
	return &q, nil
}
