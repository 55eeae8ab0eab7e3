package model

import "time"

// Seat describes a single bookable position inside a resource.
// Seats are uniquely identified by their (resource, x, y)
// coordinates.  The IsAvailable flag is a static, layout-level
// switch (a seat removed from sale entirely); it says nothing
// about live occupancy, which is always derived from reservations
// and holds.  Seat records are produced by the seat-map editor and
// are read-only to this service.
//
// Fields:
//  ID          – primary key identifier.
//  ResourceID  – resource to which this seat belongs.
//  PosX        – horizontal coordinate within the resource layout.
//  PosY        – vertical coordinate within the resource layout.
//  Label       – optional display label such as "A1" (nullable).
//  IsAvailable – whether the seat is sellable at all.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Seat struct {
	ID          uint64    // seats.id
	ResourceID  uint64    // seats.resource_id
	PosX        uint32    // seats.pos_x
	PosY        uint32    // seats.pos_y
	Label       *string   // seats.label (nullable)
	IsAvailable bool      // seats.is_available
	CreatedAt   time.Time // seats.created_at
	UpdatedAt   time.Time // seats.updated_at
}
