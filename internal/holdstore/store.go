// Package holdstore implements the in-memory advisory seat hold store.
// A hold is a best-effort, single-process claim on a (resource, seat)
// pair for a time window.  Holds are purely advisory traffic shaping
// for the booking flow: the authoritative conflict gate at commit time
// is the reservation ledger, never this store.  Holds are not
// persisted and do not survive a restart.
package holdstore

import (
	"encoding/binary"
	"hash/fnv"
	"sync"
	"time"

	"github.com/tverdal/venue-seat-booking/internal/model"
)

// shardCount is the number of independent mutex-protected buckets.
// Operations on different (resource, seat) keys hash to different
// shards and proceed concurrently; operations on the same key always
// land on the same shard and are therefore mutually exclusive.
const shardCount = 32

// holdKey identifies the single slot a seat can be held under.  At
// most one live hold exists per key at any instant.
type holdKey struct {
	resourceID uint64
	seatID     uint64
}

type shard struct {
	mu    sync.Mutex
	holds map[holdKey]model.SeatHold
}

// Store is a concurrency-safe map of advisory seat holds.  It has no
// background expiry timer: expired entries are swept lazily at the top
// of every public operation, so an expired hold may linger until the
// next call but can never block a new TryHold or appear in query
// results.  Construct with New and inject into handlers; there is no
// package-level singleton.
type Store struct {
	shards [shardCount]*shard
}

// New returns an empty hold store.
func New() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{holds: make(map[holdKey]model.SeatHold)}
	}
	return s
}

// Overlaps reports whether the half-open windows [aStart, aEnd) and
// [bStart, bEnd) share any instant.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func (s *Store) shardFor(k holdKey) *shard {
	h := fnv.New64a()
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], k.resourceID)
	binary.BigEndian.PutUint64(buf[8:16], k.seatID)
	_, _ = h.Write(buf[:])
	return s.shards[h.Sum64()%shardCount]
}

// TryHold attempts to place a hold on (resourceID, seatID) for the
// window [start, end) lasting ttl from now.  It returns the hold's
// expiry and true on success.  The call fails when start >= end, or
// when a live hold already occupies the key with an overlapping
// window – regardless of who owns it (holds are not re-entrant).  A
// hold whose window does not overlap the new one is silently
// overwritten: time-disjoint holds on the same seat do not conflict,
// and the key only ever carries one entry.
func (s *Store) TryHold(resourceID, seatID uint64, start, end time.Time, holderKey string, ttl time.Duration) (time.Time, bool) {
	if !start.Before(end) {
		return time.Time{}, false
	}
	s.CleanupExpired()
	now := time.Now().UTC()
	k := holdKey{resourceID: resourceID, seatID: seatID}
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if existing, ok := sh.holds[k]; ok && existing.ExpiresAt.After(now) {
		if Overlaps(existing.StartsAt, existing.EndsAt, start, end) {
			return time.Time{}, false
		}
	}
	expiresAt := now.Add(ttl)
	sh.holds[k] = model.SeatHold{
		ResourceID: resourceID,
		SeatID:     seatID,
		StartsAt:   start,
		EndsAt:     end,
		HolderKey:  holderKey,
		ExpiresAt:  expiresAt,
	}
	return expiresAt, true
}

// Release removes the hold on (resourceID, seatID) if a live entry
// exists and its holder key matches exactly.  It returns false – with
// no side effects – when the key is absent, expired or owned by a
// different holder; a caller can never release someone else's hold.
func (s *Store) Release(resourceID, seatID uint64, holderKey string) bool {
	s.CleanupExpired()
	k := holdKey{resourceID: resourceID, seatID: seatID}
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	existing, ok := sh.holds[k]
	if !ok || existing.HolderKey != holderKey {
		return false
	}
	delete(sh.holds, k)
	return true
}

// GetHolds returns all live holds for the given resource, in no
// particular order.
func (s *Store) GetHolds(resourceID uint64) []model.SeatHold {
	s.CleanupExpired()
	var out []model.SeatHold
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, h := range sh.holds {
			if k.resourceID == resourceID {
				out = append(out, h)
			}
		}
		sh.mu.Unlock()
	}
	return out
}

// GetOccupiedByHold returns the seat ids on the given resource whose
// live hold window overlaps [start, end).
func (s *Store) GetOccupiedByHold(resourceID uint64, start, end time.Time) map[uint64]struct{} {
	s.CleanupExpired()
	occupied := make(map[uint64]struct{})
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, h := range sh.holds {
			if k.resourceID == resourceID && Overlaps(h.StartsAt, h.EndsAt, start, end) {
				occupied[k.seatID] = struct{}{}
			}
		}
		sh.mu.Unlock()
	}
	return occupied
}

// CleanupExpired removes every entry whose expiry has passed.  The
// sweep is idempotent and is also invoked implicitly at the top of
// every other operation; callers only need it directly when they want
// to bound staleness without performing another operation.
func (s *Store) CleanupExpired() {
	now := time.Now().UTC()
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, h := range sh.holds {
			if !h.ExpiresAt.After(now) {
				delete(sh.holds, k)
			}
		}
		sh.mu.Unlock()
	}
}
