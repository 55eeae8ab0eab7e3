package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tverdal/venue-seat-booking/internal/booking"
	"github.com/tverdal/venue-seat-booking/internal/holdstore"
	"github.com/tverdal/venue-seat-booking/internal/model"
)

// memLedger is an in-memory booking.Ledger and ReservationReader.  It
// mirrors the authoritative contract: Insert re-runs the overlap check
// so a commit cannot slip past a concurrent one.
type memLedger struct {
	nextID    uint64
	rows      map[uint64]*model.Reservation
	ownership map[uint64]uint64 // resource id -> owner id
}

func newMemLedger() *memLedger {
	return &memLedger{nextID: 1, rows: map[uint64]*model.Reservation{}, ownership: map[uint64]uint64{1: 100}}
}

func (l *memLedger) overlaps(resourceID, seatID uint64, start, end time.Time, excludeID uint64) bool {
	for _, r := range l.rows {
		if r.ID == excludeID || r.ResourceID != resourceID || r.Status == model.StatusCancelled {
			continue
		}
		if r.SeatID == nil || *r.SeatID != seatID {
			continue
		}
		if holdstore.Overlaps(r.StartsAt, r.EndsAt, start, end) {
			return true
		}
	}
	return false
}

func (l *memLedger) FindOverlapping(_ context.Context, resourceID, seatID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	return l.overlaps(resourceID, seatID, start, end, excludeID), nil
}

func (l *memLedger) OccupiedSeatIDs(_ context.Context, resourceID uint64, start, end time.Time) ([]uint64, error) {
	var ids []uint64
	for _, r := range l.rows {
		if r.ResourceID != resourceID || r.Status == model.StatusCancelled || r.SeatID == nil {
			continue
		}
		if holdstore.Overlaps(r.StartsAt, r.EndsAt, start, end) {
			ids = append(ids, *r.SeatID)
		}
	}
	return ids, nil
}

func (l *memLedger) Insert(_ context.Context, r *model.Reservation) error {
	if r.SeatID != nil && l.overlaps(r.ResourceID, *r.SeatID, r.StartsAt, r.EndsAt, 0) {
		return booking.ErrConflict
	}
	r.ID = l.nextID
	l.nextID++
	r.CreatedAt = time.Now().UTC()
	cp := *r
	l.rows[r.ID] = &cp
	return nil
}

func (l *memLedger) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	r, ok := l.rows[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (l *memLedger) GetByIDForOwner(ctx context.Context, id, ownerID uint64) (*model.Reservation, error) {
	r, err := l.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.ownership[r.ResourceID] != ownerID {
		return nil, booking.ErrForbidden
	}
	return r, nil
}

func (l *memLedger) ListByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	out := []model.Reservation{}
	for _, r := range l.rows {
		if r.UserID != nil && *r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (l *memLedger) UpdateStatus(_ context.Context, id uint64, status string) error {
	r, ok := l.rows[id]
	if !ok {
		return booking.ErrNotFound
	}
	r.Status = status
	return nil
}

func (l *memLedger) UpdateWindow(_ context.Context, id uint64, seatID *uint64, start, end time.Time) error {
	r, ok := l.rows[id]
	if !ok {
		return booking.ErrNotFound
	}
	r.SeatID = seatID
	r.StartsAt = start
	r.EndsAt = end
	return nil
}

// fakeResources is an in-memory ResourceReader.
type fakeResources struct {
	resources map[uint64]model.Resource
}

func (f *fakeResources) GetByID(_ context.Context, id uint64) (*model.Resource, error) {
	r, ok := f.resources[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &r, nil
}

func newReservationHandlerForTest() (*ReservationHandler, *memLedger) {
	ledger := newMemLedger()
	engine := booking.NewEngine(ledger, holdstore.New())
	resources := &fakeResources{resources: map[uint64]model.Resource{
		1: {ID: 1, OwnerID: 100, Name: "Main Hall", Capacity: 40},
	}}
	seats := &fakeSeats{seats: map[uint64]model.Seat{
		10: {ID: 10, ResourceID: 1, IsAvailable: true},
	}}
	h := NewReservationHandler(engine, ledger, resources, seats)
	h.PublishSeatReserved = nil
	return h, ledger
}

func createReservation(t *testing.T, h *ReservationHandler, resourceID uint64, body string, userID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/resources/:id/reservations")
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(resourceID, 10))
	if userID != "" {
		c.Set("user_id", userID)
	}
	require.NoError(t, h.Create(c))
	return rec
}

func reservationBody(seatID uint64, start, end time.Time, guestEmail string) string {
	m := map[string]interface{}{
		"starts_at": start.Format(time.RFC3339),
		"ends_at":   end.Format(time.RFC3339),
	}
	if seatID != 0 {
		m["seat_id"] = seatID
	}
	if guestEmail != "" {
		m["guest_email"] = guestEmail
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func TestCreateReservationGuestStartsPending(t *testing.T) {
	h, ledger := newReservationHandlerForTest()
	start := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	end := start.Add(2 * time.Hour)

	rec := createReservation(t, h, 1, reservationBody(10, start, end, "guest@example.com"), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp reservationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusPending, resp.Status)

	stored := ledger.rows[resp.ID]
	require.NotNil(t, stored)
	assert.Nil(t, stored.UserID)
	require.NotNil(t, stored.GuestEmail)
	assert.Equal(t, "guest@example.com", *stored.GuestEmail)
}

func TestCreateReservationUserStartsConfirmed(t *testing.T) {
	h, _ := newReservationHandlerForTest()
	start := time.Now().UTC().Add(time.Hour)
	end := start.Add(time.Hour)

	rec := createReservation(t, h, 1, reservationBody(10, start, end, ""), "42")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp reservationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusConfirmed, resp.Status)
}

func TestCreateReservationGuestNeedsContact(t *testing.T) {
	h, _ := newReservationHandlerForTest()
	start := time.Now().UTC().Add(time.Hour)
	rec := createReservation(t, h, 1, reservationBody(10, start, start.Add(time.Hour), ""), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReservationSeatConflict(t *testing.T) {
	h, _ := newReservationHandlerForTest()
	start := time.Now().UTC().Add(time.Hour)
	end := start.Add(2 * time.Hour)

	rec := createReservation(t, h, 1, reservationBody(10, start, end, ""), "42")
	require.Equal(t, http.StatusCreated, rec.Code)

	// Overlapping second booking loses.
	rec = createReservation(t, h, 1, reservationBody(10, start.Add(time.Hour), end.Add(time.Hour), ""), "43")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// A touching window does not overlap (half-open semantics).
	rec = createReservation(t, h, 1, reservationBody(10, end, end.Add(time.Hour), ""), "43")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCancelReservationOwnershipAndLifecycle(t *testing.T) {
	h, ledger := newReservationHandlerForTest()
	start := time.Now().UTC().Add(time.Hour)
	end := start.Add(time.Hour)

	rec := createReservation(t, h, 1, reservationBody(10, start, end, ""), "42")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created reservationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	cancel := func(userID string) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/reservations/:id")
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(created.ID, 10))
		c.Set("user_id", userID)
		require.NoError(t, h.Cancel(c))
		return rec
	}

	// Someone else's reservation.
	assert.Equal(t, http.StatusForbidden, cancel("43").Code)

	// The owner cancels; the row survives as CANCELLED.
	rec2 := cancel("42")
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, model.StatusCancelled, ledger.rows[created.ID].Status)

	// Cancelling twice is forbidden, not idempotent.
	assert.Equal(t, http.StatusForbidden, cancel("42").Code)
}
