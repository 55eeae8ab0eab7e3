package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tverdal/venue-seat-booking/internal/booking"
	"github.com/tverdal/venue-seat-booking/internal/model"
)

// AvailabilityHandler serves the public seat layout and the advisory
// availability view.  The layout is static and cacheable; the
// availability view is recomputed on every request from the ledger and
// the live hold store and must never be cached.
type AvailabilityHandler struct {
	Engine       *booking.Engine
	SeatRepo     SeatReader
	ResourceRepo ResourceReader
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(engine *booking.Engine, seats SeatReader, resources ResourceReader) *AvailabilityHandler {
	if engine == nil || seats == nil || resources == nil {
		panic("nil dependency passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Engine: engine, SeatRepo: seats, ResourceRepo: resources}
}

// seatView is the wire shape of one seat in layout and availability
// responses.
type seatView struct {
	ID          uint64  `json:"id"`
	PosX        uint32  `json:"pos_x"`
	PosY        uint32  `json:"pos_y"`
	Label       *string `json:"label,omitempty"`
	IsAvailable bool    `json:"is_available"`
	Occupied    *bool   `json:"occupied,omitempty"`
}

func toSeatView(s model.Seat) seatView {
	return seatView{
		ID:          s.ID,
		PosX:        s.PosX,
		PosY:        s.PosY,
		Label:       s.Label,
		IsAvailable: s.IsAvailable,
	}
}

// GetLayout handles GET /v1/resources/:id/seats.  It returns the full
// seat map of a resource ordered by position, with no occupancy
// information.  This is the only seat endpoint behind the response
// cache.
func (h *AvailabilityHandler) GetLayout(c echo.Context) error {
	resourceID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	ctx := c.Request().Context()

	resource, err := h.ResourceRepo.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load resource"})
	}

	seats, err := h.SeatRepo.GetByResource(ctx, resourceID, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}

	views := make([]seatView, 0, len(seats))
	for _, s := range seats {
		views = append(views, toSeatView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"resource_id": resource.ID,
		"name":        resource.Name,
		"capacity":    resource.Capacity,
		"seats":       views,
	})
}

// GetAvailability handles GET /v1/resources/:id/availability with
// RFC3339 `start` and `end` query parameters.  Each sellable seat is
// annotated with the advisory occupied flag for the requested window:
// occupied means a non-cancelled reservation or a live hold overlaps
// it.  The flag is a snapshot; a hold may expire the moment after the
// response is written, so it guides seat pickers rather than gating
// anything.
func (h *AvailabilityHandler) GetAvailability(c echo.Context) error {
	resourceID, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	start, end, err := parseWindow(c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start and end must be RFC3339 timestamps"})
	}

	ctx := c.Request().Context()
	if _, err := h.ResourceRepo.GetByID(ctx, resourceID); err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load resource"})
	}

	occupied, err := h.Engine.OccupiedSeats(ctx, resourceID, start, end)
	if err != nil {
		if errors.Is(err, booking.ErrInvalidWindow) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be before end"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute availability"})
	}

	seats, err := h.SeatRepo.GetByResource(ctx, resourceID, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}

	views := make([]seatView, 0, len(seats))
	for _, s := range seats {
		v := toSeatView(s)
		_, taken := occupied[s.ID]
		v.Occupied = &taken
		views = append(views, v)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"resource_id": resourceID,
		"start":       start,
		"end":         end,
		"seats":       views,
	})
}
