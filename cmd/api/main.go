package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/domain/auth"
	"hotelbooking/internal/domain/booking"
	"hotelbooking/internal/domain/catalog"
	"hotelbooking/internal/domain/events"
	"hotelbooking/internal/domain/invoice"
	"hotelbooking/internal/domain/wallet"
	"hotelbooking/internal/middleware"
	jwtsvc "hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/logger"
	"hotelbooking/internal/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal("invalid configuration", "error", err)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "hotelbooking-api",
	})

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", "error", err)
	}

	deposit, err := booking.NewDepositPolicy(cfg.DepositMode, cfg.DepositValue)
	if err != nil {
		log.Fatal("invalid deposit policy", "error", err)
	}

	hub := events.NewHub()
	publishers := events.Multi{hub, metrics.EventCounter{}}
	if cfg.KafkaEnabled() {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatal("kafka publisher", "error", err)
		}
		defer kp.Close()
		publishers = append(publishers, kp)
		log.Info("publishing events to kafka", "topic", cfg.KafkaTopic)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	catalogService := catalog.NewService(catalog.NewRepository(db))
	walletService := wallet.NewService(db, publishers, wallet.NewDevConsoleSender(log), cfg.WithdrawCodeTTL, log)
	authService := auth.NewService(auth.NewUserRepository(db), j)
	bookingService := booking.NewService(
		booking.NewRepository(db),
		catalogService,
		walletService,
		deposit,
		publishers,
		log,
	)
	invoiceService := invoice.NewService(bookingService, catalogService, authService, log)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	walletService.ScheduleSweep(bgCtx, wallet.DefaultSweepConfig())
	limiter := middleware.NewRateLimiter(bgCtx, cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)

	authHandler := auth.NewHandler(authService, walletService)
	catalogHandler := catalog.NewHandler(catalogService)
	walletHandler := wallet.NewHandler(walletService)
	bookingHandler := booking.NewHandler(bookingService)
	invoiceHandler := invoice.NewHandler(invoiceService)
	eventsHandler := events.NewHandler(hub, j, log, cfg.CORSAllowedOrigins)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(log),
		middleware.AccessLog(log),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	eventsHandler.RegisterRoutes(r)

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1.Group("", limiter.Middleware()))
		catalogHandler.RegisterRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			walletHandler.RegisterRoutes(protected.Group("", limiter.Middleware()))
			bookingHandler.RegisterRoutes(protected)
			invoiceHandler.RegisterRoutes(protected)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(j), middleware.AdminOnly())
		{
			catalogHandler.RegisterAdminRoutes(admin)
			walletHandler.RegisterAdminRoutes(admin)
			bookingHandler.RegisterAdminRoutes(admin)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", srv.Addr, "env", cfg.AppEnv)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", "error", err)
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("server shutdown failed", "error", err)
			_ = srv.Close()
		}
		log.Info("server stopped")
	}
}
