package model

import "time"

// Reservation status values.  A reservation is created as PENDING
// (guest) or CONFIRMED (authenticated user) and only ever moves
// forward through the lifecycle; rows are never deleted, only
// status-transitioned.  COMPLETED is a derived condition
// (ends_at in the past) rather than a stored transition on the
// hot path; IsCompleted reports it.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusCompleted = "COMPLETED"
)

// Reservation records a durable booking of a resource, optionally
// bound to a specific seat, for a half-open time window
// [StartsAt, EndsAt).  Either UserID is set (account booking) or
// the guest contact fields are (anonymous booking).
//
// Fields:
//  ID         – primary key identifier.
//  ResourceID – resource being booked.
//  SeatID     – seat for seat-based resources (nullable for
//               capacity-based bookings).
//  UserID     – booking user (nullable for guests).
//  GuestEmail – guest contact email (nullable).
//  GuestPhone – guest contact phone (nullable).
//  StartsAt   – window start, inclusive.  Always < EndsAt.
//  EndsAt     – window end, exclusive.
//  Status     – one of the Status* constants above.
//  EventID    – originating event occurrence, if any (nullable).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Reservation struct {
	ID         uint64    // reservations.id
	ResourceID uint64    // reservations.resource_id
	SeatID     *uint64   // reservations.seat_id (nullable)
	UserID     *uint64   // reservations.user_id (nullable)
	GuestEmail *string   // reservations.guest_email (nullable)
	GuestPhone *string   // reservations.guest_phone (nullable)
	StartsAt   time.Time // reservations.starts_at
	EndsAt     time.Time // reservations.ends_at
	Status     string    // reservations.status
	EventID    *uint64   // reservations.event_id (nullable)
	CreatedAt  time.Time // reservations.created_at
	UpdatedAt  time.Time // reservations.updated_at
}

// IsCompleted reports whether the reservation's window has fully
// passed at the given instant.  Completion is derived, not stored.
func (r *Reservation) IsCompleted(now time.Time) bool {
	return r.EndsAt.Before(now)
}
