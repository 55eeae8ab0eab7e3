package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tverdal/venue-seat-booking/internal/booking"
	"github.com/tverdal/venue-seat-booking/internal/model"
	"github.com/tverdal/venue-seat-booking/internal/notifier"
	"github.com/tverdal/venue-seat-booking/internal/queue"
)

// ReservationHandler serves the customer-facing reservation endpoints.
// Creation goes through the booking engine so the authoritative
// conflict check and lifecycle rules apply; this layer only translates
// HTTP to engine calls and engine errors back to status codes.
type ReservationHandler struct {
	Engine          *booking.Engine
	ReservationRepo ReservationReader
	ResourceRepo    ResourceReader
	SeatRepo        SeatReader

	PublishSeatReserved func(ctx context.Context, e queue.SeatReservedEvent) error
}

// NewReservationHandler wires the customer reservation endpoints with
// the default notifier callback.
func NewReservationHandler(engine *booking.Engine, reservations ReservationReader, resources ResourceReader, seats SeatReader) *ReservationHandler {
	if engine == nil || reservations == nil || resources == nil || seats == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{
		Engine:              engine,
		ReservationRepo:     reservations,
		ResourceRepo:        resources,
		SeatRepo:            seats,
		PublishSeatReserved: notifier.PublishSeatReserved,
	}
}

// createReservationRequest is the body of POST
// /v1/resources/:id/reservations.  SeatID is optional for
// capacity-based resources.  Guests must supply at least one contact
// field; authenticated callers need neither.
type createReservationRequest struct {
	SeatID     *uint64 `json:"seat_id"`
	StartsAt   string  `json:"starts_at"`
	EndsAt     string  `json:"ends_at"`
	GuestEmail *string `json:"guest_email"`
	GuestPhone *string `json:"guest_phone"`
	EventID    *uint64 `json:"event_id"`
}

// reservationView is the wire shape of a reservation.  Status is the
// effective status: a non-cancelled reservation whose window has fully
// passed reads COMPLETED even though the row still stores its last
// transition.
type reservationView struct {
	ID         uint64    `json:"id"`
	ResourceID uint64    `json:"resource_id"`
	SeatID     *uint64   `json:"seat_id,omitempty"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Status     string    `json:"status"`
	EventID    *uint64   `json:"event_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toReservationView(r *model.Reservation) reservationView {
	return reservationView{
		ID:         r.ID,
		ResourceID: r.ResourceID,
		SeatID:     r.SeatID,
		StartsAt:   r.StartsAt,
		EndsAt:     r.EndsAt,
		Status:     booking.EffectiveStatus(r, time.Now().UTC()),
		EventID:    r.EventID,
		CreatedAt:  r.CreatedAt,
	}
}

// Create handles POST /v1/resources/:id/reservations.  The route sits
// behind OptionalJWT: an authenticated caller books under their
// account and starts CONFIRMED, an anonymous caller must leave contact
// details and starts PENDING.  A seat conflict answers 409.
func (h *ReservationHandler) Create(c echo.Context) error {
	resourceID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}

	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, err := parseWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at and ends_at must be RFC3339 timestamps"})
	}

	ctx := c.Request().Context()
	if _, err := h.ResourceRepo.GetByID(ctx, resourceID); err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load resource"})
	}

	res := &model.Reservation{
		ResourceID: resourceID,
		SeatID:     req.SeatID,
		StartsAt:   start,
		EndsAt:     end,
		EventID:    req.EventID,
	}

	if userID, err := getUserID(c); err == nil {
		res.UserID = &userID
	} else {
		if emptyStr(req.GuestEmail) && emptyStr(req.GuestPhone) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest bookings require guest_email or guest_phone"})
		}
		res.GuestEmail = req.GuestEmail
		res.GuestPhone = req.GuestPhone
	}

	if req.SeatID != nil {
		seat, err := h.SeatRepo.GetByID(ctx, *req.SeatID)
		if err != nil {
			if errors.Is(err, booking.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seat"})
		}
		if seat.ResourceID != resourceID {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		if !seat.IsAvailable {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is not available for sale"})
		}
	}

	if err := h.Engine.Commit(ctx, res); err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidWindow):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be before ends_at"})
		case errors.Is(err, booking.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat is already reserved for this window"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
		}
	}

	h.publishReserved(ctx, res)
	return c.JSON(http.StatusCreated, toReservationView(res))
}

// ListMine handles GET /v1/my-reservations for authenticated users.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.ReservationRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	views := make([]reservationView, 0, len(list))
	for i := range list {
		views = append(views, toReservationView(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": views})
}

// Get handles GET /v1/reservations/:id.  A user may only read their
// own reservations.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	res, err := h.ReservationRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
	}
	if res.UserID == nil || *res.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
	}
	return c.JSON(http.StatusOK, toReservationView(res))
}

// Cancel handles DELETE /v1/reservations/:id.  Users may cancel their
// own PENDING or CONFIRMED reservations; cancelled and completed rows
// are immutable and answer 403.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	res, err := h.ReservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
	}
	if res.UserID == nil || *res.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
	}

	res, err = h.Engine.Cancel(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "reservation can no longer be cancelled"})
		case errors.Is(err, booking.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
		}
	}
	return c.JSON(http.StatusOK, toReservationView(res))
}

// publishReserved emits a best-effort seat.reserved event.
func (h *ReservationHandler) publishReserved(ctx context.Context, res *model.Reservation) {
	if h.PublishSeatReserved == nil {
		return
	}
	_ = h.PublishSeatReserved(ctx, seatReservedEvent(res))
}

func emptyStr(s *string) bool { return s == nil || *s == "" }
