package main // Entry point package

import (
	"log"  // Logging library
	"time" // time converts TTL config into durations

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/tverdal/venue-seat-booking/internal/booking"
	"github.com/tverdal/venue-seat-booking/internal/config"
	"github.com/tverdal/venue-seat-booking/internal/database"
	"github.com/tverdal/venue-seat-booking/internal/handler"
	"github.com/tverdal/venue-seat-booking/internal/holdstore"
	"github.com/tverdal/venue-seat-booking/internal/queue"
	"github.com/tverdal/venue-seat-booking/internal/repository"
	"github.com/tverdal/venue-seat-booking/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables rate limiting and the
	// layout cache but never blocks startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and layout cache disabled")
	}

	reservationRepo := repository.NewReservationRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	resourceRepo := repository.NewResourceRepo(db)

	holds := holdstore.New()
	engine := booking.NewEngine(reservationRepo, holds)

	h := router.Handlers{
		Availability: handler.NewAvailabilityHandler(engine, seatRepo, resourceRepo),
		Hold: handler.NewHoldHandler(holds, seatRepo,
			time.Duration(cfg.HoldTTLDefaultSec)*time.Second,
			time.Duration(cfg.HoldTTLMaxSec)*time.Second),
		Reservation: handler.NewReservationHandler(engine, reservationRepo, resourceRepo, seatRepo),
		Owner:       handler.NewOwnerReservationHandler(engine, reservationRepo),
	}

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e, cfg, rdb, h)

	// Background consumer: appends seat.reserved events to the booking
	// log.  It reconnects on its own; a broker outage never stops the API.
	go func() {
		if err := queue.StartSeatReservedConsumer(); err != nil {
			log.Printf("seat-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
