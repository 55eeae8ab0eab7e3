package handler // handler defines http handlers

import (
	"context" // context threads request deadlines into repository reads
	"errors"  // errors provides sentinel values used in getUserID
	"strconv" // strconv converts strings to numeric types
	"time"    // time parses request window bounds

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/tverdal/venue-seat-booking/internal/model"
)

// SeatReader is the seat lookup surface handlers need.  The MySQL
// SeatRepo satisfies it in production; tests substitute in-memory
// fakes.
type SeatReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Seat, error)
	GetByResource(ctx context.Context, resourceID uint64, availableOnly bool) ([]model.Seat, error)
}

// ResourceReader resolves resources for existence and metadata checks.
type ResourceReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Resource, error)
}

// ReservationReader is the read/list surface of the reservation
// ledger used by handlers directly; writes always go through the
// booking engine.
type ReservationReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	GetByIDForOwner(ctx context.Context, id, ownerID uint64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
}

// getUserID extracts the authenticated user's id from echo.Context.
// JWTAuth stores the raw "sub" claim, whose concrete type depends on
// how the identity service encoded it, so several forms are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// paramID parses a positive numeric path parameter.  Zero or garbage
// yields ok=false and the handler should answer 400.
func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

// parseWindow reads RFC3339 start/end strings and normalizes them to
// UTC.  The strict start < end guard lives in the hold store and the
// booking engine; this helper only rejects unparsable input.
func parseWindow(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start.UTC(), end.UTC(), nil
}
