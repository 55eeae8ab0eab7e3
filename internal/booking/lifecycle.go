package booking

import (
	"time"

	"github.com/tverdal/venue-seat-booking/internal/model"
)

// The reservation lifecycle:
//
//	PENDING ──confirm──▶ CONFIRMED
//	   │                     │
//	   └──────cancel─────────┴──▶ CANCELLED
//
// COMPLETED is never stored on the hot path; it is the derived
// condition "ends_at < now" and makes a reservation immutable the
// same way CANCELLED does.  Violations surface ErrForbidden to the
// caller and are never silently coerced into a different status.

// canConfirm reports whether a reservation in the given status may be
// confirmed.  Only PENDING qualifies.
func canConfirm(status string) bool {
	return status == model.StatusPending
}

// canCancel reports whether a reservation in the given status may be
// cancelled.  PENDING and CONFIRMED qualify; cancelling twice is an
// error, not a no-op.
func canCancel(status string) bool {
	return status == model.StatusPending || status == model.StatusConfirmed
}

// EffectiveStatus returns the status a reader should present for the
// reservation at the given instant: the stored status, except that a
// non-cancelled reservation whose window has fully passed reads as
// COMPLETED.
func EffectiveStatus(r *model.Reservation, now time.Time) string {
	if r.Status != model.StatusCancelled && r.IsCompleted(now) {
		return model.StatusCompleted
	}
	return r.Status
}

// guardMutable returns ErrForbidden when the reservation is in a
// terminal state (cancelled, or completed by time passage) and may no
// longer be transitioned or edited.
func guardMutable(r *model.Reservation, now time.Time) error {
	if r.Status == model.StatusCancelled || r.IsCompleted(now) {
		return ErrForbidden
	}
	return nil
}

// initialStatus picks the entry status for a new reservation:
// authenticated users book directly as CONFIRMED, guests start as
// PENDING and wait for an owner confirmation.
func initialStatus(r *model.Reservation) string {
	if r.UserID != nil {
		return model.StatusConfirmed
	}
	return model.StatusPending
}
