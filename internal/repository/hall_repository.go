package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors.Is for sentinel comparisons
	"time"         // date range parameters

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// HallRepo provides read access to event halls plus the row lock used
// to serialize conditional reservation inserts on a hall.  Like rooms,
// halls carry an advisory is_listed flag that never feeds availability
// decisions.
type HallRepo struct {
	db *sql.DB
}

// NewHallRepo returns a new HallRepo bound to the given database.
func NewHallRepo(db *sql.DB) *HallRepo { return &HallRepo{db: db} }

const hallColumns = `id, hotel_id, name, capacity, price_cents_per_day, is_listed, created_at, updated_at`

func scanHall(row rowScanner) (*model.Hall, error) {
	var h model.Hall
	err := row.Scan(&h.ID, &h.HotelID, &h.Name, &h.Capacity,
		&h.PriceCentsPerDay, &h.IsListed, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// GetByID returns a hall or ErrNotFound.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	h, err := scanHall(r.db.QueryRowContext(ctx, `SELECT `+hallColumns+` FROM halls WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return h, err
}

// LockTx takes a FOR UPDATE lock on the hall row within the given
// transaction, mirroring RoomRepo.LockTx.  Returns ErrNotFound when the
// hall does not exist.
func (r *HallRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var got uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM halls WHERE id = ? FOR UPDATE`, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ListByHotel returns all halls of a hotel ordered by name.
func (r *HallRepo) ListByHotel(ctx context.Context, hotelID uint64) ([]model.Hall, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+hallColumns+` FROM halls WHERE hotel_id = ? ORDER BY name`, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Hall, 0)
	for rows.Next() {
		h, err := scanHall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

// AvailableHalls returns halls of a hotel, excluding one, that have no
// active reservation overlapping [start, end).  Used to suggest
// alternative halls when the requested one is taken.  Whole-day
// availability only: a hall blocked for any hour window still counts as
// taken here, since alternatives are suggestions rather than promises.
func (r *HallRepo) AvailableHalls(ctx context.Context, hotelID, excludeHallID uint64, start, end time.Time) ([]model.Hall, error) {
	const q = `SELECT ` + hallColumns + `
	           FROM halls h
	           WHERE h.hotel_id = ? AND h.id <> ?
	             AND NOT EXISTS (
	               SELECT 1 FROM reservations v
	               WHERE v.resource_type = 'HALL' AND v.resource_id = h.id
	                 AND v.` + activeStates + `
	                 AND v.starts_on < ? AND ? < v.ends_on
	             )
	           ORDER BY h.name`
	rows, err := r.db.QueryContext(ctx, q, hotelID, excludeHallID,
		end.Format(dateLayout), start.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Hall, 0)
	for rows.Next() {
		h, err := scanHall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}
