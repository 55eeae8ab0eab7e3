package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tverdal/venue-seat-booking/internal/booking"
	"github.com/tverdal/venue-seat-booking/internal/model"
)

// ResourceRepo reads bookable resources.  Resource CRUD lives in the
// company administration service; this core only needs existence and
// ownership lookups.
type ResourceRepo struct {
	db *sql.DB
}

// NewResourceRepo constructs a ResourceRepo given a DB handle.
func NewResourceRepo(db *sql.DB) *ResourceRepo {
	return &ResourceRepo{db: db}
}

// GetByID retrieves a resource by its id.  Returns
// booking.ErrNotFound when the resource does not exist.
func (r *ResourceRepo) GetByID(ctx context.Context, id uint64) (*model.Resource, error) {
	const q = `SELECT id, owner_id, name, capacity, created_at, updated_at
	           FROM resources WHERE id = ?`
	var res model.Resource
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.OwnerID, &res.Name, &res.Capacity, &res.CreatedAt, &res.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
