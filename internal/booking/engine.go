package booking

import (
	"context"
	"time"

	"github.com/tverdal/venue-seat-booking/internal/holdstore"
	"github.com/tverdal/venue-seat-booking/internal/model"
)

// Ledger is the narrow contract the engine needs from the durable
// reservation store.  FindOverlapping is the authoritative conflict
// check: it must report whether any non-cancelled reservation for the
// same (resource, seat) overlaps the half-open window [start, end),
// optionally ignoring one reservation id (used when editing that
// row).  Insert must run the same check and the write atomically so
// that two concurrent commits cannot both pass; it returns
// ErrConflict when the check fails at write time.
type Ledger interface {
	FindOverlapping(ctx context.Context, resourceID, seatID uint64, start, end time.Time, excludeID uint64) (bool, error)
	OccupiedSeatIDs(ctx context.Context, resourceID uint64, start, end time.Time) ([]uint64, error)
	Insert(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
	UpdateWindow(ctx context.Context, id uint64, seatID *uint64, start, end time.Time) error
}

// Engine resolves seat conflicts and drives the reservation
// lifecycle.  It merges two independent sources: the ledger (durable
// reservations) and the hold store (live advisory holds).  The merge
// is only ever used for the advisory availability view; commits are
// gated by the ledger alone.
type Engine struct {
	ledger Ledger
	holds  *holdstore.Store
}

// NewEngine constructs an Engine.  Both dependencies must be non-nil.
func NewEngine(ledger Ledger, holds *holdstore.Store) *Engine {
	if ledger == nil || holds == nil {
		panic("nil dependency passed to NewEngine")
	}
	return &Engine{ledger: ledger, holds: holds}
}

// OccupiedSeats returns the advisory occupied-seat set for a resource
// and window: seat ids referenced by non-cancelled ledger
// reservations overlapping the window, unioned with seat ids under a
// live overlapping hold.  The result is informational – it is
// recomputed on every call and may diverge from what a subsequent
// commit sees, since holds are not consulted at commit time.
func (e *Engine) OccupiedSeats(ctx context.Context, resourceID uint64, start, end time.Time) (map[uint64]struct{}, error) {
	if !start.Before(end) {
		return nil, ErrInvalidWindow
	}
	reserved, err := e.ledger.OccupiedSeatIDs(ctx, resourceID, start, end)
	if err != nil {
		return nil, err
	}
	occupied := e.holds.GetOccupiedByHold(resourceID, start, end)
	for _, id := range reserved {
		occupied[id] = struct{}{}
	}
	return occupied, nil
}

// Commit validates and writes a new reservation.  The initial status
// is derived from the entry path: CONFIRMED when a user id is
// present, PENDING for guests.  For seat-bound reservations the
// authoritative ledger check gates the insert; live holds are
// deliberately ignored here – they are advisory only, and a caller
// still holding the seat simply finds the ledger free.  Returns
// ErrInvalidWindow or ErrConflict on failure.
func (e *Engine) Commit(ctx context.Context, r *model.Reservation) error {
	if !r.StartsAt.Before(r.EndsAt) {
		return ErrInvalidWindow
	}
	r.Status = initialStatus(r)
	if r.SeatID != nil {
		taken, err := e.ledger.FindOverlapping(ctx, r.ResourceID, *r.SeatID, r.StartsAt, r.EndsAt, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}
	}
	return e.ledger.Insert(ctx, r)
}

// Confirm moves a PENDING reservation to CONFIRMED.  Any other
// stored status – or a window that has already fully passed – yields
// ErrForbidden.
func (e *Engine) Confirm(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, err := e.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(r, time.Now().UTC()); err != nil {
		return nil, err
	}
	if !canConfirm(r.Status) {
		return nil, ErrForbidden
	}
	if err := e.ledger.UpdateStatus(ctx, id, model.StatusConfirmed); err != nil {
		return nil, err
	}
	r.Status = model.StatusConfirmed
	return r, nil
}

// Cancel moves a PENDING or CONFIRMED reservation to CANCELLED.
// Cancelling a cancelled or completed reservation yields
// ErrForbidden; the row itself is never deleted.
func (e *Engine) Cancel(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, err := e.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(r, time.Now().UTC()); err != nil {
		return nil, err
	}
	if !canCancel(r.Status) {
		return nil, ErrForbidden
	}
	if err := e.ledger.UpdateStatus(ctx, id, model.StatusCancelled); err != nil {
		return nil, err
	}
	r.Status = model.StatusCancelled
	return r, nil
}

// Reschedule changes a reservation's window and, optionally, its
// seat.  The new (seat, window) pair must independently pass the
// authoritative check, excluding the reservation's own current row.
// Terminal reservations cannot be edited.
func (e *Engine) Reschedule(ctx context.Context, id uint64, seatID *uint64, start, end time.Time) (*model.Reservation, error) {
	if !start.Before(end) {
		return nil, ErrInvalidWindow
	}
	r, err := e.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guardMutable(r, time.Now().UTC()); err != nil {
		return nil, err
	}
	if seatID == nil {
		seatID = r.SeatID
	}
	if seatID != nil {
		taken, err := e.ledger.FindOverlapping(ctx, r.ResourceID, *seatID, start, end, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrConflict
		}
	}
	if err := e.ledger.UpdateWindow(ctx, id, seatID, start, end); err != nil {
		return nil, err
	}
	r.SeatID = seatID
	r.StartsAt = start
	r.EndsAt = end
	return r, nil
}
