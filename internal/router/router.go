package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tverdal/venue-seat-booking/internal/config"
	"github.com/tverdal/venue-seat-booking/internal/handler"
	"github.com/tverdal/venue-seat-booking/internal/middleware"
)

// Handlers bundles the constructed handler set so RegisterRoutes keeps
// a stable signature as endpoints are added.
type Handlers struct {
	Availability *handler.AvailabilityHandler
	Hold         *handler.HoldHandler
	Reservation  *handler.ReservationHandler
	Owner        *handler.OwnerReservationHandler
}

// RegisterRoutes mounts every endpoint of the service.
//
// Route tiers:
//   - public: health, session minting and the seat layout / advisory
//     availability reads.  The layout alone sits behind the Redis
//     response cache; availability is always recomputed.
//   - open: hold placement/release and reservation creation.  These
//     accept either a Bearer token or an anonymous session token, so
//     they carry OptionalJWT plus the rate limiter.
//   - user: reads and cancellation of the caller's own reservations.
//   - owner: lifecycle management of reservations on the owner's
//     resources, gated by the OWNER role claim.
func RegisterRoutes(e *echo.Echo, cfg config.Config, rdb *redis.Client, h Handlers) {
	rate := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	layoutCache := middleware.NewLayoutCache(config.LoadCacheConfig(), rdb)

	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.GET("/session", handler.NewSession)
	v1.GET("/resources/:id/seats", h.Availability.GetLayout, layoutCache)
	v1.GET("/resources/:id/availability", h.Availability.GetAvailability)

	open := v1.Group("", middleware.OptionalJWT(cfg.JWTSecret), rate)
	open.POST("/resources/:id/seats/:seatId/hold", h.Hold.PlaceHold)
	open.DELETE("/resources/:id/seats/:seatId/hold", h.Hold.ReleaseHold)
	open.POST("/resources/:id/reservations", h.Reservation.Create)

	user := v1.Group("", middleware.JWTAuth(cfg.JWTSecret))
	user.GET("/my-reservations", h.Reservation.ListMine)
	user.GET("/reservations/:id", h.Reservation.Get)
	user.DELETE("/reservations/:id", h.Reservation.Cancel)

	owner := v1.Group("/owner", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole("OWNER"))
	owner.POST("/reservations/:id/confirm", h.Owner.Confirm)
	owner.DELETE("/reservations/:id", h.Owner.Cancel)
	owner.PUT("/reservations/:id/window", h.Owner.Reschedule)
}
