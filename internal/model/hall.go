package model

import "time"

// Hall is a bookable event space inside a hotel.  Halls are reserved by
// the day like rooms, optionally narrowed to an hour range expressed as
// minutes of day on the reservation itself.  A hall is the anchor of a
// package reservation.
//
// IsListed mirrors the advisory flag on Room and is equally advisory:
// free/occupied is always computed from active reservations.
//
// Fields:
//  ID               – primary key identifier.
//  HotelID          – owning hotel.
//  Name             – hall name, unique per hotel.
//  Capacity         – maximum headcount for events.
//  PriceCentsPerDay – daily price in cents.
//  IsListed         – advisory catalog flag, not a source of truth.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Hall struct {
	ID               uint64    // halls.id
	HotelID          uint64    // halls.hotel_id
	Name             string    // halls.name
	Capacity         uint32    // halls.capacity
	PriceCentsPerDay int64     // halls.price_cents_per_day
	IsListed         bool      // halls.is_listed
	CreatedAt        time.Time // halls.created_at
	UpdatedAt        time.Time // halls.updated_at
}
