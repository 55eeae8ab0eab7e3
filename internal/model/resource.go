package model

import "time"

// Resource is a bookable unit owned by a company: a dining room,
// a court, a co-working area.  Resources either expose individual
// seats (seat-based booking) or only a total capacity
// (capacity-based booking).  Resource records are created and
// edited elsewhere; this service only reads them.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user who owns/administers the resource.
//  Name      – display name.
//  Capacity  – total capacity for capacity-based resources.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Resource struct {
	ID        uint64    // resources.id
	OwnerID   uint64    // resources.owner_id
	Name      string    // resources.name
	Capacity  uint32    // resources.capacity
	CreatedAt time.Time // resources.created_at
	UpdatedAt time.Time // resources.updated_at
}
