package main

import (
	"context"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/domain/auth"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/wallet"
	jwtsvc "hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/logger"
)

type seedRoom struct {
	name     string
	price    int64
	adults   int
	children int
	amenity  []string
}

type seedHotel struct {
	req   catalog.CreateHotelRequest
	rooms []seedRoom
}

var hotels = []seedHotel{
	{
		req: catalog.CreateHotelRequest{
			Name:        "Saigon Riverside",
			City:        "Ho Chi Minh City",
			Address:     "12 Ton Duc Thang, District 1",
			Description: "Riverfront hotel near the old quarter",
			Stars:       4,
		},
		rooms: []seedRoom{
			{"Standard Double", 850_000, 2, 1, []string{"wifi", "air_conditioning"}},
			{"Deluxe River View", 1_450_000, 2, 2, []string{"wifi", "bathtub", "balcony"}},
			{"Family Suite", 2_300_000, 4, 2, []string{"wifi", "kitchenette", "sofa_bed"}},
		},
	},
	{
		req: catalog.CreateHotelRequest{
			Name:        "Hoi An Lantern House",
			City:        "Hoi An",
			Address:     "45 Tran Phu",
			Description: "Boutique rooms inside the ancient town",
			Stars:       3,
		},
		rooms: []seedRoom{
			{"Garden Twin", 600_000, 2, 0, []string{"wifi", "garden_view"}},
			{"Heritage Suite", 1_200_000, 3, 1, []string{"wifi", "bathtub"}},
		},
	},
}

var services = []catalog.CreateServiceRequest{
	{Name: "Breakfast buffet", Price: 150_000, Icon: "coffee", QRCode: "SVC-BREAKFAST"},
	{Name: "Airport pickup", Price: 350_000, Icon: "car", QRCode: "SVC-AIRPORT"},
	{Name: "Laundry", Price: 80_000, Icon: "shirt", QRCode: "SVC-LAUNDRY"},
	{Name: "Spa massage 60 min", Price: 450_000, Icon: "spa", QRCode: "SVC-SPA60"},
	{Name: "Late checkout", Price: 200_000, Icon: "clock", QRCode: "SVC-LATE"},
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal("invalid configuration", "error", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: logger.FormatText, Service: "hotelbooking-seed"})

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", "error", err)
	}

	// Cleanup old data (children first to avoid foreign key errors)
	log.Info("cleaning old data")
	for _, table := range []string{
		"booking_services",
		"bookings",
		"wallet_withdrawals",
		"wallet_transactions",
		"wallets",
		"services",
		"rooms",
		"hotels",
		"users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatal("cleanup failed", "table", table, "error", err)
		}
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := auth.NewService(auth.NewUserRepository(db), j)
	catalogService := catalog.NewService(catalog.NewRepository(db))
	walletService := wallet.NewService(db, nil, nil, cfg.WithdrawCodeTTL, log)

	// ================== USERS ==================
	admin, err := authService.Register(ctx, auth.RegisterRequest{
		Email:    "admin@hotelbooking.local",
		Password: "admin12345",
		Name:     "Front Desk Admin",
	})
	if err != nil {
		log.Fatal("create admin", "error", err)
	}
	if err := authService.PromoteToAdmin(ctx, admin.ID); err != nil {
		log.Fatal("promote admin", "error", err)
	}

	guest, err := authService.Register(ctx, auth.RegisterRequest{
		Email:    "guest@hotelbooking.local",
		Password: "guest12345",
		Name:     "Nguyen Van A",
		Phone:    "+84901234567",
	})
	if err != nil {
		log.Fatal("create guest", "error", err)
	}

	if _, _, err := walletService.TopUp(ctx, guest.ID, 2_000_000); err != nil {
		log.Fatal("top up guest wallet", "error", err)
	}
	if _, _, err := walletService.GrantBonus(ctx, guest.ID, 300_000, "welcome bonus"); err != nil {
		log.Fatal("grant guest bonus", "error", err)
	}

	// ================== CATALOG ==================
	roomCount := 0
	for _, h := range hotels {
		hotel, err := catalogService.CreateHotel(ctx, h.req)
		if err != nil {
			log.Fatal("create hotel", "name", h.req.Name, "error", err)
		}
		for _, r := range h.rooms {
			_, err := catalogService.CreateRoom(ctx, catalog.CreateRoomRequest{
				HotelID:          hotel.ID,
				Name:             r.name,
				Price:            r.price,
				CapacityAdults:   r.adults,
				CapacityChildren: r.children,
				Amenities:        r.amenity,
			})
			if err != nil {
				log.Fatal("create room", "name", r.name, "error", err)
			}
			roomCount++
		}
	}

	for _, s := range services {
		if _, err := catalogService.CreateService(ctx, s); err != nil {
			log.Fatal("create service", "name", s.Name, "error", err)
		}
	}

	log.Info("seed complete",
		"admin", admin.Email,
		"guest", guest.Email,
		"hotels", len(hotels),
		"rooms", roomCount,
		"services", len(services),
	)
}
