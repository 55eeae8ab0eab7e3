package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tverdal/venue-seat-booking/internal/holdstore"
	"github.com/tverdal/venue-seat-booking/internal/model"
)

// fakeLedger is an in-memory Ledger used to exercise the engine
// without a database.  Insert re-runs the overlap check before
// appending, mirroring the atomic check-and-insert contract of the
// real MySQL implementation.
type fakeLedger struct {
	nextID       uint64
	reservations []*model.Reservation
}

func newFakeLedger() *fakeLedger { return &fakeLedger{nextID: 1} }

func (f *fakeLedger) FindOverlapping(_ context.Context, resourceID, seatID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	for _, r := range f.reservations {
		if r.ResourceID != resourceID || r.SeatID == nil || *r.SeatID != seatID {
			continue
		}
		if r.ID == excludeID || r.Status == model.StatusCancelled {
			continue
		}
		if holdstore.Overlaps(r.StartsAt, r.EndsAt, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) OccupiedSeatIDs(_ context.Context, resourceID uint64, start, end time.Time) ([]uint64, error) {
	var out []uint64
	for _, r := range f.reservations {
		if r.ResourceID == resourceID && r.SeatID != nil && r.Status != model.StatusCancelled &&
			holdstore.Overlaps(r.StartsAt, r.EndsAt, start, end) {
			out = append(out, *r.SeatID)
		}
	}
	return out, nil
}

func (f *fakeLedger) Insert(ctx context.Context, r *model.Reservation) error {
	if r.SeatID != nil {
		taken, _ := f.FindOverlapping(ctx, r.ResourceID, *r.SeatID, r.StartsAt, r.EndsAt, 0)
		if taken {
			return ErrConflict
		}
	}
	r.ID = f.nextID
	f.nextID++
	f.reservations = append(f.reservations, r)
	return nil
}

func (f *fakeLedger) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	for _, r := range f.reservations {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeLedger) UpdateStatus(ctx context.Context, id uint64, status string) error {
	r, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	r.Status = status
	return nil
}

func (f *fakeLedger) UpdateWindow(ctx context.Context, id uint64, seatID *uint64, start, end time.Time) error {
	r, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	r.SeatID = seatID
	r.StartsAt = start
	r.EndsAt = end
	return nil
}

func seatRef(id uint64) *uint64 { return &id }
func userRef(id uint64) *uint64 { return &id }

func futureWindow(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	return start, start.Add(2 * time.Hour)
}

func TestCommitInvalidWindow(t *testing.T) {
	e := NewEngine(newFakeLedger(), holdstore.New())
	start, end := futureWindow(t)
	err := e.Commit(context.Background(), &model.Reservation{
		ResourceID: 1, SeatID: seatRef(5), StartsAt: end, EndsAt: start,
	})
	require.ErrorIs(t, err, ErrInvalidWindow)
}

func TestCommitEmptyLedgerSucceeds(t *testing.T) {
	ledger := newFakeLedger()
	e := NewEngine(ledger, holdstore.New())
	start, end := futureWindow(t)

	guest := &model.Reservation{ResourceID: 1, SeatID: seatRef(5), StartsAt: start, EndsAt: end}
	require.NoError(t, e.Commit(context.Background(), guest))
	require.Equal(t, model.StatusPending, guest.Status, "guest commits start PENDING")
	require.NotZero(t, guest.ID)

	user := &model.Reservation{ResourceID: 1, SeatID: seatRef(6), UserID: userRef(42), StartsAt: start, EndsAt: end}
	require.NoError(t, e.Commit(context.Background(), user))
	require.Equal(t, model.StatusConfirmed, user.Status, "user commits start CONFIRMED")
}

func TestCommitConflictsWithConfirmedReservation(t *testing.T) {
	ledger := newFakeLedger()
	e := NewEngine(ledger, holdstore.New())
	start, end := futureWindow(t)

	first := &model.Reservation{ResourceID: 1, SeatID: seatRef(5), UserID: userRef(1), StartsAt: start, EndsAt: end}
	require.NoError(t, e.Commit(context.Background(), first))

	second := &model.Reservation{ResourceID: 1, SeatID: seatRef(5), UserID: userRef(2),
		StartsAt: start.Add(30 * time.Minute), EndsAt: end.Add(30 * time.Minute)}
	require.ErrorIs(t, e.Commit(context.Background(), second), ErrConflict)
}

func TestCommitIgnoresCancelledReservations(t *testing.T) {
	ledger := newFakeLedger()
	e := NewEngine(ledger, holdstore.New())
	start, end := futureWindow(t)

	first := &model.Reservation{ResourceID: 1, SeatID: seatRef(5), UserID: userRef(1), StartsAt: start, EndsAt: end}
	require.NoError(t, e.Commit(context.Background(), first))
	_, err := e.Cancel(context.Background(), first.ID)
	require.NoError(t, err)

	second := &model.Reservation{ResourceID: 1, SeatID: seatRef(5), UserID: userRef(2), StartsAt: start, EndsAt: end}
	require.NoError(t, e.Commit(context.Background(), second), "cancelled rows do not block the seat")
}

func TestCommitIgnoresLiveHolds(t *testing.T) {
	// The authoritative gate consults the ledger only: a foreign live
	// hold does not stop a commit.  That asymmetry is the documented
	// contract between the advisory and authoritative paths.
	ledger := newFakeLedger()
	holds := holdstore.New()
	e := NewEngine(ledger, holds)
	start, end := futureWindow(t)

	_, ok := holds.TryHold(1, 5, start, end, "somebody-else", time.Minute)
	require.True(t, ok)

	r := &model.Reservation{ResourceID: 1, SeatID: seatRef(5), UserID: userRef(1), StartsAt: start, EndsAt: end}
	require.NoError(t, e.Commit(context.Background(), r))
}

func TestOccupiedSeatsMergesLedgerAndHolds(t *testing.T) {
	ledger := newFakeLedger()
	holds := holdstore.New()
	e := NewEngine(ledger, holds)
	start, end := futureWindow(t)

	require.NoError(t, e.Commit(context.Background(), &model.Reservation{
		ResourceID: 1, SeatID: seatRef(3), UserID: userRef(1), StartsAt: start, EndsAt: end,
	}))
	_, ok := holds.TryHold(1, 7, start, end, "guest-token", time.Minute)
	require.True(t, ok)

	occupied, err := e.OccupiedSeats(context.Background(), 1, start, end)
	require.NoError(t, err)
	require.Contains(t, occupied, uint64(3), "ledger side of the union")
	require.Contains(t, occupied, uint64(7), "hold side of the union")
	require.Len(t, occupied, 2)
}

func TestLifecycleTransitions(t *testing.T) {
	ledger := newFakeLedger()
	e := NewEngine(ledger, holdstore.New())
	start, end := futureWindow(t)

	r := &model.Reservation{ResourceID: 1, SeatID: seatRef(5), StartsAt: start, EndsAt: end}
	require.NoError(t, e.Commit(context.Background(), r))
	require.Equal(t, model.StatusPending, r.Status)

	// PENDING -> CONFIRMED -> CANCELLED is legal.
	confirmed, err := e.Confirm(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusConfirmed, confirmed.Status)

	cancelled, err := e.Cancel(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, cancelled.Status)

	// CANCELLED is terminal in both directions.
	_, err = e.Confirm(context.Background(), r.ID)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = e.Cancel(context.Background(), r.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestConfirmUnknownReservation(t *testing.T) {
	e := NewEngine(newFakeLedger(), holdstore.New())
	_, err := e.Confirm(context.Background(), 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmingConfirmedIsForbidden(t *testing.T) {
	ledger := newFakeLedger()
	e := NewEngine(ledger, holdstore.New())
	start, end := futureWindow(t)

	r := &model.Reservation{ResourceID: 1, SeatID: seatRef(5), UserID: userRef(1), StartsAt: start, EndsAt: end}
	require.NoError(t, e.Commit(context.Background(), r))
	_, err := e.Confirm(context.Background(), r.ID)
	require.ErrorIs(t, err, ErrForbidden, "only PENDING may be confirmed")
}

func TestCompletedReservationIsImmutable(t *testing.T) {
	ledger := newFakeLedger()
	e := NewEngine(ledger, holdstore.New())

	past := time.Now().UTC().Add(-3 * time.Hour)
	r := &model.Reservation{ID: 77, ResourceID: 1, SeatID: seatRef(5),
		StartsAt: past, EndsAt: past.Add(time.Hour), Status: model.StatusPending}
	ledger.reservations = append(ledger.reservations, r)

	_, err := e.Confirm(context.Background(), 77)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = e.Cancel(context.Background(), 77)
	require.ErrorIs(t, err, ErrForbidden)
	require.Equal(t, model.StatusCompleted, EffectiveStatus(r, time.Now().UTC()))
}

func TestRescheduleChecksNewPairExcludingSelf(t *testing.T) {
	ledger := newFakeLedger()
	e := NewEngine(ledger, holdstore.New())
	start, end := futureWindow(t)

	r := &model.Reservation{ResourceID: 1, SeatID: seatRef(5), UserID: userRef(1), StartsAt: start, EndsAt: end}
	require.NoError(t, e.Commit(context.Background(), r))

	// Shifting within its own window must not conflict with itself.
	moved, err := e.Reschedule(context.Background(), r.ID, nil, start.Add(15*time.Minute), end.Add(15*time.Minute))
	require.NoError(t, err)
	require.Equal(t, start.Add(15*time.Minute), moved.StartsAt)

	// Reassigning onto an occupied seat fails.
	other := &model.Reservation{ResourceID: 1, SeatID: seatRef(6), UserID: userRef(2), StartsAt: start, EndsAt: end}
	require.NoError(t, e.Commit(context.Background(), other))
	_, err = e.Reschedule(context.Background(), r.ID, seatRef(6), start, end)
	require.ErrorIs(t, err, ErrConflict)
}

func TestEndToEndHoldCommitConfirm(t *testing.T) {
	ledger := newFakeLedger()
	holds := holdstore.New()
	e := NewEngine(ledger, holds)
	start, end := futureWindow(t)

	// Guest places a 90s hold on seat 5.
	_, ok := holds.TryHold(1, 5, start, end, "guest-a", 90*time.Second)
	require.True(t, ok)

	// Advisory availability now lists seat 5 as occupied.
	occupied, err := e.OccupiedSeats(context.Background(), 1, start, end)
	require.NoError(t, err)
	require.Contains(t, occupied, uint64(5))

	// A second guest's hold attempt on the same seat/window fails.
	_, ok = holds.TryHold(1, 5, start, end, "guest-b", 90*time.Second)
	require.False(t, ok)

	// First guest commits: ledger is empty, so the insert succeeds as PENDING.
	r := &model.Reservation{ResourceID: 1, SeatID: seatRef(5), StartsAt: start, EndsAt: end}
	require.NoError(t, e.Commit(context.Background(), r))
	require.Equal(t, model.StatusPending, r.Status)

	// Owner confirms.
	confirmed, err := e.Confirm(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusConfirmed, confirmed.Status)

	// After the hold is released, the seat stays occupied via the ledger.
	require.True(t, holds.Release(1, 5, "guest-a"))
	occupied, err = e.OccupiedSeats(context.Background(), 1, start, end)
	require.NoError(t, err)
	require.Contains(t, occupied, uint64(5))
}
