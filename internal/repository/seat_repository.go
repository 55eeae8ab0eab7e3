package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tverdal/venue-seat-booking/internal/booking"
	"github.com/tverdal/venue-seat-booking/internal/model"
)

// SeatRepo reads seat layout data.  Seat creation and editing happen
// in the seat-map tooling outside this service, so the repository is
// intentionally read-only.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// GetByResource retrieves every seat of a resource ordered by layout
// position.  Pass availableOnly to filter out seats removed from sale.
func (r *SeatRepo) GetByResource(ctx context.Context, resourceID uint64, availableOnly bool) ([]model.Seat, error) {
	q := `SELECT id, resource_id, pos_x, pos_y, label, is_available, created_at, updated_at
	           FROM seats
	           WHERE resource_id = ?`
	if availableOnly {
		q += ` AND is_available = 1`
	}
	q += ` ORDER BY pos_y, pos_x`
	rows, err := r.db.QueryContext(ctx, q, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(
			&s.ID, &s.ResourceID, &s.PosX, &s.PosY, &s.Label,
			&s.IsAvailable, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID retrieves a seat by its id.  Returns booking.ErrNotFound
// when the seat does not exist.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, resource_id, pos_x, pos_y, label, is_available, created_at, updated_at
	           FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.ResourceID, &s.PosX, &s.PosY, &s.Label,
		&s.IsAvailable, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
