// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrConflict signals that a conditional reservation insert
// lost to an overlapping active reservation, while ErrStaleVersion
// means an optimistic update matched no row because the record moved
// on underneath the caller.
package repository

import "errors"

// ErrNotFound is returned when a hotel, room, hall or reservation does
// not exist. Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a reservation they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write-time availability re-check fails:
// an overlapping PENDING/CONFIRMED reservation already holds the
// resource. Handlers should translate this into an HTTP 409 response
// carrying the conflicting reservations.
var ErrConflict = errors.New("conflict")

// ErrCodeTaken is returned when a reservation insert hits the unique
// index on the code column. Callers allocate a fresh code and retry.
var ErrCodeTaken = errors.New("reservation code taken")

// ErrStaleVersion is returned when an optimistic update (cancel or date
// modification) matches no row: another request changed the reservation
// first. Handlers should translate this into an HTTP 409 response.
var ErrStaleVersion = errors.New("stale reservation version")
