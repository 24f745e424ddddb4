package services

import "errors"

// Booking-domain failures. Routes map these to HTTP statuses; nothing in the
// service layer is swallowed.
var (
	// ErrInvalidRange: check-in is not strictly before check-out. Rejected
	// before any database call.
	ErrInvalidRange = errors.New("check-in must be before check-out")

	// ErrInvalidNights: stay length is outside the property's
	// [min_nights, max_nights]. Rejected before any database call.
	ErrInvalidNights = errors.New("stay length outside the property's night limits")

	// ErrRangeUnavailable: an active reservation already covers part of the
	// requested range. Surfaced verbatim from the availability check or the
	// storage constraint, never retried silently.
	ErrRangeUnavailable = errors.New("requested dates are not available")

	// ErrInvalidTransition: the reservation state machine forbids the
	// requested status change.
	ErrInvalidTransition = errors.New("reservation status transition not allowed")

	// ErrTransient: network or timeout failure. Safe to retry with the same
	// idempotency key.
	ErrTransient = errors.New("temporary failure, retry the request")

	// ErrNotFound: unknown property or reservation.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized: the caller lacks the required relationship to the
	// entity (e.g. cancelling another guest's reservation).
	ErrUnauthorized = errors.New("not allowed for this user")
)
