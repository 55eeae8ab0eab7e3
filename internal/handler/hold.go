package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tverdal/venue-seat-booking/internal/booking"
	"github.com/tverdal/venue-seat-booking/internal/holdstore"
	"github.com/tverdal/venue-seat-booking/internal/middleware"
	"github.com/tverdal/venue-seat-booking/internal/notifier"
	"github.com/tverdal/venue-seat-booking/internal/queue"
)

// HoldHandler serves the advisory seat hold endpoints.  Holds live
// only in the in-process store; nothing here touches the reservation
// ledger.  The publish callbacks default to the notifier package and
// are swapped for nil in tests – a nil callback skips the event, and
// a failed publish never fails the request.
type HoldHandler struct {
	Holds    *holdstore.Store
	SeatRepo SeatReader

	// TTL policy: requests may shorten or lengthen the hold within
	// (0, TTLMax]; zero/omitted ttl_seconds takes TTLDefault.
	TTLDefault time.Duration
	TTLMax     time.Duration

	PublishHoldPlaced   func(ctx context.Context, e queue.HoldPlacedEvent) error
	PublishHoldReleased func(ctx context.Context, e queue.HoldReleasedEvent) error
}

// NewHoldHandler wires the hold endpoints with the default notifier
// callbacks.
func NewHoldHandler(holds *holdstore.Store, seats SeatReader, ttlDefault, ttlMax time.Duration) *HoldHandler {
	if holds == nil || seats == nil {
		panic("nil dependency passed to NewHoldHandler")
	}
	return &HoldHandler{
		Holds:               holds,
		SeatRepo:            seats,
		TTLDefault:          ttlDefault,
		TTLMax:              ttlMax,
		PublishHoldPlaced:   notifier.PublishHoldPlaced,
		PublishHoldReleased: notifier.PublishHoldReleased,
	}
}

// holdRequest is the body of POST .../hold.  TTLSeconds is optional.
type holdRequest struct {
	StartsAt   string `json:"starts_at"`
	EndsAt     string `json:"ends_at"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// PlaceHold handles POST /v1/resources/:id/seats/:seatId/hold.  It
// validates the seat, clamps the requested TTL and asks the hold
// store for the seat/window pair.  201 carries the hold expiry; a live
// overlapping hold by anyone (including the caller) answers 409.
func (h *HoldHandler) PlaceHold(c echo.Context) error {
	resourceID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	seatID, ok := paramID(c, "seatId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}

	holder := middleware.HolderKey(c)
	if holder == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session token"})
	}

	var req holdRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, err := parseWindow(req.StartsAt, req.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at and ends_at must be RFC3339 timestamps"})
	}
	if !start.Before(end) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be before ends_at"})
	}

	ttl := h.TTLDefault
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
		if ttl > h.TTLMax {
			ttl = h.TTLMax
		}
	}

	ctx := c.Request().Context()
	seat, err := h.SeatRepo.GetByID(ctx, seatID)
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

	expiresAt, ok := h.Holds.TryHold(resourceID, seatID, start, end, holder, ttl)
	if !ok {
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat is already held for this window"})
	}

	// Best-effort fanout; a broker outage never fails the hold.
	if h.PublishHoldPlaced != nil {
		_ = h.PublishHoldPlaced(ctx, queue.HoldPlacedEvent{
			ResourceID: resourceID,
			SeatID:     seatID,
			StartsAt:   start.Format(time.RFC3339),
			EndsAt:     end.Format(time.RFC3339),
			ExpiresAt:  expiresAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"resource_id": resourceID,
		"seat_id":     seatID,
		"expires_at":  expiresAt.UTC().Format(time.RFC3339),
	})
}

// ReleaseHold handles DELETE /v1/resources/:id/seats/:seatId/hold.
// Only the holder that placed a hold can release it; anyone else (or a
// hold that already expired) gets released=false rather than an error,
// since the end state – no live hold for that holder – is the same.
func (h *HoldHandler) ReleaseHold(c echo.Context) error {
	resourceID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	seatID, ok := paramID(c, "seatId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}

	holder := middleware.HolderKey(c)
	if holder == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session token"})
	}

	released := h.Holds.Release(resourceID, seatID, holder)
	if released && h.PublishHoldReleased != nil {
		_ = h.PublishHoldReleased(c.Request().Context(), queue.HoldReleasedEvent{
			ResourceID: resourceID,
			SeatID:     seatID,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"released": released})
}
