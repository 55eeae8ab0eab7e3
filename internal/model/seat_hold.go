package model

import "time"

// SeatHold is a short-lived advisory claim on a seat for a time
// window.  Holds exist only in process memory: they are created by
// the hold store, replaced or rejected on conflicting TryHold
// calls, removed by an ownership-checked release and lazily
// evicted once ExpiresAt has passed.  They are never written to
// the database and do not survive a restart.
//
// Fields:
//  ResourceID – resource the held seat belongs to.
//  SeatID     – seat being held.
//  StartsAt   – start of the claimed window (inclusive).
//  EndsAt     – end of the claimed window (exclusive).
//  HolderKey  – opaque ownership key (user id or anonymous
//               session token); compared byte-for-byte, never parsed.
//  ExpiresAt  – when the hold stops being live.
type SeatHold struct {
	ResourceID uint64
	SeatID     uint64
	StartsAt   time.Time
	EndsAt     time.Time
	HolderKey  string
	ExpiresAt  time.Time
}
