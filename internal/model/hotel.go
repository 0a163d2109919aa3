package model

import "time"

// Hotel represents a property in the chain.  Rooms and halls belong to
// exactly one hotel.  Hotels are managed by an external catalog service;
// the engine only reads them when resolving availability and suggesting
// alternatives.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the hotel.
//  City      – city where the hotel is located.
//  IsActive  – whether the hotel accepts new reservations.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Hotel struct {
	ID        uint64    // hotels.id
	Name      string    // hotels.name
	City      string    // hotels.city
	IsActive  bool      // hotels.is_active
	CreatedAt time.Time // hotels.created_at
	UpdatedAt time.Time // hotels.updated_at
}
