package main // Entry point package

import (
	"log" // Logging library

	"github.com/go-playground/validator/v10" // Request payload validation
	"github.com/joho/godotenv"               // Loads .env files into the environment
	"github.com/labstack/echo/v4"            // Echo web framework

	"github.com/iliyamo/hotel-booking-engine/internal/config"     // Internal config loader
	"github.com/iliyamo/hotel-booking-engine/internal/database"   // MySQL connection helper
	"github.com/iliyamo/hotel-booking-engine/internal/handler"    // HTTP handlers
	"github.com/iliyamo/hotel-booking-engine/internal/middleware" // Cache and rate limit middleware
	"github.com/iliyamo/hotel-booking-engine/internal/queue"      // RabbitMQ consumer
	"github.com/iliyamo/hotel-booking-engine/internal/repository" // Data access layer
	"github.com/iliyamo/hotel-booking-engine/internal/router"     // Route registration
	notifier "github.com/iliyamo/hotel-booking-engine/internal/service"
)

func main() {
	_ = godotenv.Load() // Load .env when present; real env wins

	cfg := config.Load() // Load environment config

	// Open the MySQL connection pool.  Every repository shares it.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	// Redis backs the response cache, the rate limiter and the reservation
	// code counter.  A nil client degrades all three to their fallbacks.
	rdb := config.NewRedisClient()

	// Repositories
	hotelRepo := repository.NewHotelRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	hallRepo := repository.NewHallRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	incidentRepo := repository.NewIncidentRepo(db)
	codes := repository.NewCodeAllocator(rdb)

	// Notification dispatcher: publishes reservation events and records an
	// incident row when the broker is unreachable.
	events := notifier.New(incidentRepo)

	// Shared request validator
	validate := validator.New()

	// Handlers
	availabilityHandler := handler.NewAvailabilityHandler(roomRepo, hallRepo, reservationRepo)
	reservationHandler := handler.NewReservationHandler(roomRepo, hallRepo, reservationRepo, codes, events, validate, cfg.TaxRatePercent)
	packageHandler := handler.NewPackageHandler(hotelRepo, roomRepo, hallRepo, reservationRepo, codes, events, validate, cfg.TaxRatePercent, cfg.CateringMaxHeadcount, cfg.CateringMinLeadHours)
	catalogHandler := &handler.CatalogHandler{HotelRepo: hotelRepo, RoomRepo: roomRepo, HallRepo: hallRepo}

	e := echo.New() // Create Echo instance

	// Middleware backed by Redis.  Both constructors return pass-through
	// middleware when the client is nil.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Health check, public catalog browse, then the protected engine group.
	router.RegisterRoutes(e)
	router.RegisterCatalog(e, catalogHandler, cache)
	router.RegisterEngine(e, availabilityHandler, reservationHandler, packageHandler, cfg.JWTSecret, rateLimit)

	// Consume reservation events in the background and append them to the
	// booking log.  The consumer reconnects on broker failure.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
