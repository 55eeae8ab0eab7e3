// Package queue defines message payloads exchanged over the message broker.
package queue

// HoldPlacedEvent is published after a seat hold is successfully
// placed.  Live seat-map viewers subscribed to the resource use it to
// grey the seat out without polling.
type HoldPlacedEvent struct {
	ResourceID uint64 `json:"resource_id"`
	SeatID     uint64 `json:"seat_id"`
	StartsAt   string `json:"starts_at"`
	EndsAt     string `json:"ends_at"`
	ExpiresAt  string `json:"expires_at"`
}

// HoldReleasedEvent is published after a hold is explicitly released.
// Expired holds disappear silently; no event is emitted for them.
type HoldReleasedEvent struct {
	ResourceID uint64 `json:"resource_id"`
	SeatID     uint64 `json:"seat_id"`
}

// SeatReservedEvent is published when a reservation is committed or
// confirmed.  It carries enough information for downstream consumers
// to log or notify without querying the primary database.
type SeatReservedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	ResourceID    uint64 `json:"resource_id"`
	SeatID        uint64 `json:"seat_id,omitempty"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}
