package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListHotels(ctx context.Context, city string) ([]Hotel, error) {
	var hotels []Hotel
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if city != "" {
		q = q.Where("LOWER(city) = LOWER(?)", city)
	}
	if err := q.Order("id").Find(&hotels).Error; err != nil {
		return nil, err
	}
	return hotels, nil
}

func (r *Repository) GetHotel(ctx context.Context, id int64) (*Hotel, error) {
	var h Hotel
	if err := r.db.WithContext(ctx).First(&h, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &h, nil
}

func (r *Repository) CreateHotel(ctx context.Context, h *Hotel) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *Repository) ListRooms(ctx context.Context, hotelID int64) ([]Room, error) {
	var rooms []Room
	err := r.db.WithContext(ctx).
		Where("hotel_id = ? AND is_active = ?", hotelID, true).
		Order("price").
		Find(&rooms).Error
	return rooms, err
}

func (r *Repository) GetRoom(ctx context.Context, id int64) (*Room, error) {
	var room Room
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (r *Repository) CreateRoom(ctx context.Context, room *Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *Repository) UpdateRoom(ctx context.Context, room *Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

func (r *Repository) ListServices(ctx context.Context) ([]Service, error) {
	var services []Service
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&services).Error
	return services, err
}

func (r *Repository) GetService(ctx context.Context, id int64) (*Service, error) {
	var s Service
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *Repository) GetServiceByCode(ctx context.Context, code string) (*Service, error) {
	var s Service
	if err := r.db.WithContext(ctx).Where("qr_code = ?", code).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *Repository) GetServicesByIDs(ctx context.Context, ids []int64) (map[int64]Service, error) {
	out := make(map[int64]Service, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []Service
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.ID] = s
	}
	return out, nil
}

func (r *Repository) CreateService(ctx context.Context, s *Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repository) UpdateService(ctx context.Context, s *Service) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
