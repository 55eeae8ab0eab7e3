package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tverdal/venue-seat-booking/internal/booking"
	"github.com/tverdal/venue-seat-booking/internal/model"
)

// ReservationRepo is the MySQL implementation of the reservation
// ledger (booking.Ledger).  All timestamps are stored and compared in
// UTC; windows are half-open, so two reservations whose windows merely
// touch do not overlap.  Reservations are never deleted – lifecycle
// changes only rewrite the status column.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the provided
// database handle.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for callers that need to begin
// their own transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// overlapPredicate selects non-cancelled reservations on the same
// (resource, seat) whose half-open window intersects [start, end).
const overlapPredicate = `resource_id = ? AND seat_id = ?
               AND status <> 'CANCELLED'
               AND NOT (ends_at <= ? OR starts_at >= ?)`

// FindOverlapping is the authoritative conflict check: it reports
// whether any non-cancelled reservation occupies the seat for a
// window overlapping [start, end).  excludeID, when non-zero, ignores
// that reservation so a row can be edited without colliding with
// itself.
func (r *ReservationRepo) FindOverlapping(ctx context.Context, resourceID, seatID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	q := `SELECT EXISTS(SELECT 1 FROM reservations WHERE ` + overlapPredicate
	args := []interface{}{resourceID, seatID, start.UTC(), end.UTC()}
	if excludeID != 0 {
		q += ` AND id <> ?`
		args = append(args, excludeID)
	}
	q += `)`
	var taken bool
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// OccupiedSeatIDs returns the distinct seat ids referenced by
// non-cancelled seat-bound reservations on the resource overlapping
// [start, end).  This feeds the advisory availability view; it never
// gates a commit.
func (r *ReservationRepo) OccupiedSeatIDs(ctx context.Context, resourceID uint64, start, end time.Time) ([]uint64, error) {
	const q = `SELECT DISTINCT seat_id FROM reservations
               WHERE resource_id = ? AND seat_id IS NOT NULL
               AND status <> 'CANCELLED'
               AND NOT (ends_at <= ? OR starts_at >= ?)`
	rows, err := r.db.QueryContext(ctx, q, resourceID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Insert writes a new reservation.  For seat-bound reservations the
// overlap check and the INSERT run in one transaction, with the check
// taking row locks on any conflicting range (SELECT ... FOR UPDATE),
// so two concurrent commits for the same seat/window cannot both
// pass: the second blocks on the first's locks and then sees its row.
// Returns booking.ErrConflict when the seat is taken.  The inserted
// id is written back into res.ID.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if res.SeatID != nil {
		lockQ := `SELECT id FROM reservations WHERE ` + overlapPredicate + ` LIMIT 1 FOR UPDATE`
		var conflictID uint64
		err := tx.QueryRowContext(ctx, lockQ, res.ResourceID, *res.SeatID, res.StartsAt.UTC(), res.EndsAt.UTC()).Scan(&conflictID)
		switch {
		case err == nil:
			return booking.ErrConflict
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
	}
	const ins = `INSERT INTO reservations
               (resource_id, seat_id, user_id, guest_email, guest_phone, starts_at, ends_at, status, event_id)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, ins,
		res.ResourceID, res.SeatID, res.UserID, res.GuestEmail, res.GuestPhone,
		res.StartsAt.UTC(), res.EndsAt.UTC(), res.Status, res.EventID,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	res.ID = uint64(id)
	return nil
}

const reservationColumns = `id, resource_id, seat_id, user_id, guest_email, guest_phone,
               starts_at, ends_at, status, event_id, created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID, &res.ResourceID, &res.SeatID, &res.UserID, &res.GuestEmail, &res.GuestPhone,
		&res.StartsAt, &res.EndsAt, &res.Status, &res.EventID, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByID fetches a reservation by id.  Returns booking.ErrNotFound
// when no row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	return res, err
}

// GetByIDForOwner fetches a reservation only when the resource it
// books is owned by ownerID.  Returns booking.ErrNotFound when the
// reservation does not exist and booking.ErrForbidden when it belongs
// to a different owner's resource.
func (r *ReservationRepo) GetByIDForOwner(ctx context.Context, id, ownerID uint64) (*model.Reservation, error) {
	res, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var resOwner uint64
	const ownerQ = `SELECT owner_id FROM resources WHERE id = ?`
	if err := r.db.QueryRowContext(ctx, ownerQ, res.ResourceID).Scan(&resOwner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	if resOwner != ownerID {
		return nil, booking.ErrForbidden
	}
	return res, nil
}

// ListByUser returns all reservations made under the given user
// account, newest first.  An empty slice means the user has none.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? ORDER BY starts_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus rewrites the status column.  The lifecycle legality of
// the transition is the engine's responsibility; this method only
// guarantees the row exists.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE reservations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrNotFound
	}
	return nil
}

// UpdateWindow rewrites the seat and time window of a reservation.
// The caller must already have passed the authoritative conflict
// check for the new pair.
func (r *ReservationRepo) UpdateWindow(ctx context.Context, id uint64, seatID *uint64, start, end time.Time) error {
	const q = `UPDATE reservations SET seat_id = ?, starts_at = ?, ends_at = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, seatID, start.UTC(), end.UTC(), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrNotFound
	}
	return nil
}
