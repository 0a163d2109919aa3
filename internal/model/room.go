package model

import "time"

// Room is a bookable sleeping unit inside a hotel.  Every room has a
// type label (e.g. "sencilla", "doble", "suite") used by package
// requests that ask for N units of a type rather than specific rooms.
//
// The IsListed flag is a legacy advisory marker carried over from the
// catalog: it may hide a room from browse responses but it is never
// consulted when deciding whether a room is free.  Availability is
// always derived from active reservations.
//
// Fields:
//  ID                 – primary key identifier.
//  HotelID            – owning hotel.
//  Number             – human room number, unique per hotel.
//  RoomType           – type label used for package counting.
//  Capacity           – maximum number of guests.
//  PriceCentsPerNight – nightly price in cents.
//  IsListed           – advisory catalog flag, not a source of truth.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Room struct {
	ID                 uint64    // rooms.id
	HotelID            uint64    // rooms.hotel_id
	Number             string    // rooms.number
	RoomType           string    // rooms.room_type
	Capacity           uint32    // rooms.capacity
	PriceCentsPerNight int64     // rooms.price_cents_per_night
	IsListed           bool      // rooms.is_listed
	CreatedAt          time.Time // rooms.created_at
	UpdatedAt          time.Time // rooms.updated_at
}
