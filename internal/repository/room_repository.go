package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// RoomRepo provides read access to rooms plus the row lock used to
// serialize conditional reservation inserts on a room.  The is_listed
// column is exposed for catalog payloads only and is never part of an
// availability predicate: free/occupied is always derived from active
// reservations.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, hotel_id, number, room_type, capacity, price_cents_per_night, is_listed, created_at, updated_at`

func scanRoom(row rowScanner) (*model.Room, error) {
	var rm model.Room
	err := row.Scan(&rm.ID, &rm.HotelID, &rm.Number, &rm.RoomType, &rm.Capacity,
		&rm.PriceCentsPerNight, &rm.IsListed, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

// GetByID returns a room or ErrNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rm, err
}

// LockTx takes a FOR UPDATE lock on the room row within the given
// transaction.  Writers racing for the same room queue up here, so the
// conditional reservation insert that follows sees every committed
// competitor.  Returns ErrNotFound when the room does not exist.
func (r *RoomRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var got uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ListByHotel returns all rooms of a hotel ordered by room number.
func (r *RoomRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE hotel_id = ? ORDER BY number`, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

// FreeRoomsByType returns the rooms of a given type in a hotel that
// have no active reservation overlapping [start, end), ordered by room
// number.  The caller compares len(result) against the requested count
// and, when short, can report exactly how many units are available.
func (r *RoomRepo) FreeRoomsByType(ctx context.Context, hotelID uint64, roomType string, start, end time.Time) ([]model.Room, error) {
	const q = `SELECT ` + roomColumns + `
	           FROM rooms r
	           WHERE r.hotel_id = ? AND r.room_type = ?
	             AND NOT EXISTS (
	               SELECT 1 FROM reservations v
	               WHERE v.resource_type = 'ROOM' AND v.resource_id = r.id
	                 AND v.` + activeStates + `
	                 AND v.starts_on < ? AND ? < v.ends_on
	             )
	           ORDER BY r.number`
	rows, err := r.db.QueryContext(ctx, q, hotelID, roomType,
		end.Format(dateLayout), start.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

// RoomTypeCount summarises how many units of a type exist in a hotel
// and how many are free for a given range.  Used to suggest room types
// with surplus capacity when a package request falls short.
type RoomTypeCount struct {
	RoomType  string `json:"room_type"`
	Total     int    `json:"total"`
	FreeUnits int    `json:"free"`
}

// CountFreeByType aggregates free units per room type for a hotel and
// date range.
func (r *RoomRepo) CountFreeByType(ctx context.Context, hotelID uint64, start, end time.Time) ([]RoomTypeCount, error) {
	const q = `SELECT r.room_type,
	                  COUNT(*) AS total,
	                  SUM(CASE WHEN NOT EXISTS (
	                        SELECT 1 FROM reservations v
	                        WHERE v.resource_type = 'ROOM' AND v.resource_id = r.id
	                          AND v.` + activeStates + `
	                          AND v.starts_on < ? AND ? < v.ends_on
	                      ) THEN 1 ELSE 0 END) AS free_units
	           FROM rooms r
	           WHERE r.hotel_id = ?
	           GROUP BY r.room_type
	           ORDER BY r.room_type`
	rows, err := r.db.QueryContext(ctx, q, end.Format(dateLayout), start.Format(dateLayout), hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RoomTypeCount, 0)
	for rows.Next() {
		var c RoomTypeCount
		if err := rows.Scan(&c.RoomType, &c.Total, &c.FreeUnits); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
