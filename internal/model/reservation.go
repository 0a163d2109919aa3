package model

import "time"

// Reservation statuses.  PENDING and CONFIRMED are "active": they block
// the underlying resource.  CANCELLED and COMPLETED never do.  A
// reservation is never deleted; cancelling is a state transition that
// keeps the row and attaches a Cancellation record.
const (
	StatusPending   = "PENDING"   // created but awaiting confirmation
	StatusConfirmed = "CONFIRMED" // active booking
	StatusCancelled = "CANCELLED" // released by the guest, never blocks
	StatusCompleted = "COMPLETED" // date range fully elapsed (batch job)
)

// Resource types a reservation can bind to.  Exactly one physical
// resource per row; package reservations are linked through a shared
// PackageCode instead of a composite resource.
const (
	ResourceRoom = "ROOM"
	ResourceHall = "HALL"
)

// Package roles.  The parent row is bound to the hall; each child row is
// bound to one room unit.  Both carry the same PackageCode.
const (
	PackageParent = "PARENT"
	PackageChild  = "CHILD"
)

// Reservation binds one resource to a half-open date range
// [StartsOn, EndsOn): the check-out day is not occupied, so a range
// ending on a day another range starts does not overlap it.
//
// Fields:
//  ID            – primary key identifier.
//  Code          – human-readable unique reservation code.
//  ResourceType  – ROOM or HALL.
//  ResourceID    – room or hall identifier.
//  HotelID       – hotel owning the resource (denormalised for queries).
//  UserID        – authenticated principal who created the reservation.
//  Status        – one of the Status* constants above.
//  StartsOn      – check-in date (inclusive), UTC midnight.
//  EndsOn        – check-out date (exclusive), UTC midnight.
//  EventStartMin – optional event start, minutes of day (halls only).
//  EventEndMin   – optional event end, minutes of day (halls only).
//  GuestName     – contact name.
//  GuestEmail    – contact email.
//  GuestPhone    – contact phone (optional).
//  UnitPriceCents – per-night/per-day price at booking time.
//  SubtotalCents – unit price × units.
//  TaxCents      – tax portion.
//  TotalCents    – subtotal + tax.
//  PackageCode   – shared package code when part of a package.
//  PackageRole   – PARENT or CHILD when part of a package.
//  Version       – optimistic concurrency token for cancel/modify.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Reservation struct {
	ID             uint64    // reservations.id
	Code           string    // reservations.code
	ResourceType   string    // reservations.resource_type
	ResourceID     uint64    // reservations.resource_id
	HotelID        uint64    // reservations.hotel_id
	UserID         uint64    // reservations.user_id
	Status         string    // reservations.status
	StartsOn       time.Time // reservations.starts_on (DATE)
	EndsOn         time.Time // reservations.ends_on (DATE)
	EventStartMin  *int      // reservations.event_start_min (nullable)
	EventEndMin    *int      // reservations.event_end_min (nullable)
	GuestName      string    // reservations.guest_name
	GuestEmail     string    // reservations.guest_email
	GuestPhone     *string   // reservations.guest_phone (nullable)
	UnitPriceCents int64     // reservations.unit_price_cents
	SubtotalCents  int64     // reservations.subtotal_cents
	TaxCents       int64     // reservations.tax_cents
	TotalCents     int64     // reservations.total_cents
	PackageCode    *string   // reservations.package_code (nullable)
	PackageRole    *string   // reservations.package_role (nullable)
	Version        uint32    // reservations.version
	CreatedAt      time.Time // reservations.created_at
	UpdatedAt      time.Time // reservations.updated_at
}

// Cancellation stores the outcome of a successful cancellation.  One row
// per cancelled reservation; the reservation row itself stays in place
// with status CANCELLED.
//
// Fields:
//  ReservationID      – cancelled reservation.
//  CancelledAt        – when the transition happened.
//  Reason             – free-text reason supplied by the caller.
//  PenaltyCents       – penalty withheld.
//  RefundCents        – amount returned to the guest.
//  HoursBeforeCheckin – hours between cancellation and check-in.
type Cancellation struct {
	ReservationID      uint64    // cancellations.reservation_id
	CancelledAt        time.Time // cancellations.cancelled_at
	Reason             string    // cancellations.reason
	PenaltyCents       int64     // cancellations.penalty_cents
	RefundCents        int64     // cancellations.refund_cents
	HoursBeforeCheckin float64   // cancellations.hours_before_checkin
}

// ReservationChange is an entry in a reservation's date-modification
// history.  Appended whenever the dates of a confirmed reservation are
// moved; the reservation row always holds the latest values.
type ReservationChange struct {
	ID            uint64    // reservation_changes.id
	ReservationID uint64    // reservation_changes.reservation_id
	OldStartsOn   time.Time // reservation_changes.old_starts_on
	OldEndsOn     time.Time // reservation_changes.old_ends_on
	NewStartsOn   time.Time // reservation_changes.new_starts_on
	NewEndsOn     time.Time // reservation_changes.new_ends_on
	OldTotalCents int64     // reservation_changes.old_total_cents
	NewTotalCents int64     // reservation_changes.new_total_cents
	ChangedAt     time.Time // reservation_changes.changed_at
}
