// Package booking contains the reservation conflict resolver and the
// reservation lifecycle state machine.  It talks to the durable
// reservation ledger through the narrow Ledger interface and to the
// in-memory hold store for the advisory availability view.  These
// sentinel values allow handlers to distinguish failure scenarios with
// errors.Is and map them to HTTP responses.  Expected seat contention
// on the hold path is reported as a boolean, not an error; the errors
// below cover the reservation path and lifecycle violations.
package booking

import "errors"

// ErrInvalidWindow is returned when a reservation or edit carries a
// window whose start is not strictly before its end.  Handlers should
// translate this into an HTTP 400 response.
var ErrInvalidWindow = errors.New("invalid time window")

// ErrConflict is returned when the authoritative ledger check finds a
// non-cancelled reservation overlapping the requested seat and
// window.  Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when the referenced reservation does not
// exist in the ledger.  Handlers should translate this into an HTTP
// 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned on an illegal lifecycle transition, such
// as confirming a cancelled reservation, or when the caller does not
// own the record it is acting on.  Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")
