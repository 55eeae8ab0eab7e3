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

// OwnerReservationHandler serves the owner-side reservation endpoints:
// confirming guest bookings, cancelling on the customer's behalf and
// rescheduling.  Every operation first proves the caller owns the
// resource the reservation books; lifecycle legality is then the
// engine's call.
type OwnerReservationHandler struct {
	Engine          *booking.Engine
	ReservationRepo ReservationReader

	PublishSeatReserved func(ctx context.Context, e queue.SeatReservedEvent) error
}

// NewOwnerReservationHandler wires the owner endpoints with the
// default notifier callback.
func NewOwnerReservationHandler(engine *booking.Engine, reservations ReservationReader) *OwnerReservationHandler {
	if engine == nil || reservations == nil {
		panic("nil dependency passed to NewOwnerReservationHandler")
	}
	return &OwnerReservationHandler{
		Engine:              engine,
		ReservationRepo:     reservations,
		PublishSeatReserved: notifier.PublishSeatReserved,
	}
}

// authorize loads the reservation and verifies the caller owns its
// resource, translating repository errors into terminal HTTP
// responses.  On success the reservation id is returned for the
// engine call.
func (h *OwnerReservationHandler) authorize(c echo.Context) (uint64, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
		return 0, false
	}
	ownerID, err := getUserID(c)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return 0, false
	}
	if _, err := h.ReservationRepo.GetByIDForOwner(c.Request().Context(), id, ownerID); err != nil {
		switch {
		case errors.Is(err, booking.ErrNotFound):
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, booking.ErrForbidden):
			_ = c.JSON(http.StatusForbidden, echo.Map{"error": "reservation belongs to another owner's resource"})
		default:
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
		}
		return 0, false
	}
	return id, true
}

// Confirm handles POST /v1/owner/reservations/:id/confirm.  Only
// PENDING reservations can be confirmed; anything else answers 403.
func (h *OwnerReservationHandler) Confirm(c echo.Context) error {
	id, ok := h.authorize(c)
	if !ok {
		return nil
	}
	ctx := c.Request().Context()

	res, err := h.Engine.Confirm(ctx, id)
	if err != nil {
		return h.engineError(c, err, "reservation cannot be confirmed")
	}

	if h.PublishSeatReserved != nil {
		_ = h.PublishSeatReserved(ctx, seatReservedEvent(res))
	}
	return c.JSON(http.StatusOK, toReservationView(res))
}

// Cancel handles DELETE /v1/owner/reservations/:id.  The row is kept
// with status CANCELLED, immediately freeing the seat/window pair for
// new commits.
func (h *OwnerReservationHandler) Cancel(c echo.Context) error {
	id, ok := h.authorize(c)
	if !ok {
		return nil
	}
	res, err := h.Engine.Cancel(c.Request().Context(), id)
	if err != nil {
		return h.engineError(c, err, "reservation can no longer be cancelled")
	}
	return c.JSON(http.StatusOK, toReservationView(res))
}

// rescheduleRequest is the body of PUT /v1/owner/reservations/:id/window.
// SeatID omitted keeps the current seat.
type rescheduleRequest struct {
	SeatID   *uint64 `json:"seat_id"`
	StartsAt string  `json:"starts_at"`
	EndsAt   string  `json:"ends_at"`
}

// Reschedule handles PUT /v1/owner/reservations/:id/window.  The new
// seat/window pair must pass the authoritative conflict check,
// ignoring the reservation's own current row, so a booking can always
// be shifted within the slot it already occupies.
func (h *OwnerReservationHandler) Reschedule(c echo.Context) error {
	id, ok := h.authorize(c)
	if !ok {
		return nil
	}

	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, err := parseWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at and ends_at must be RFC3339 timestamps"})
	}

	ctx := c.Request().Context()
	res, err := h.Engine.Reschedule(ctx, id, req.SeatID, start, end)
	if err != nil {
		return h.engineError(c, err, "reservation can no longer be edited")
	}

	if h.PublishSeatReserved != nil {
		_ = h.PublishSeatReserved(ctx, seatReservedEvent(res))
	}
	return c.JSON(http.StatusOK, toReservationView(res))
}

// engineError maps booking engine errors onto HTTP responses with an
// operation-specific 403 message.
func (h *OwnerReservationHandler) engineError(c echo.Context, err error, forbiddenMsg string) error {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, booking.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": forbiddenMsg})
	case errors.Is(err, booking.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat is already reserved for this window"})
	case errors.Is(err, booking.ErrInvalidWindow):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be before ends_at"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
	}
}

// seatReservedEvent builds the broker payload for a reservation state
// change.
func seatReservedEvent(res *model.Reservation) queue.SeatReservedEvent {
	event := queue.SeatReservedEvent{
		ReservationID: res.ID,
		ResourceID:    res.ResourceID,
		StartsAt:      res.StartsAt.Format(time.RFC3339),
		EndsAt:        res.EndsAt.Format(time.RFC3339),
		Status:        res.Status,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if res.SeatID != nil {
		event.SeatID = *res.SeatID
	}
	return event
}
