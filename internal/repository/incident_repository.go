package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// IncidentRepo records notification delivery failures.  A failed
// publish never changes the outcome of the operation that triggered it;
// instead an incident row ties the failure to the reservation so it can
// be replayed or investigated later.
type IncidentRepo struct {
	db *sql.DB
}

// NewIncidentRepo returns a new IncidentRepo bound to the given database.
func NewIncidentRepo(db *sql.DB) *IncidentRepo { return &IncidentRepo{db: db} }

// Record inserts an incident for the given reservation and event type
// and returns the incident ID.  detail carries the underlying error
// text.
func (r *IncidentRepo) Record(ctx context.Context, reservationID uint64, eventType, detail string) (string, error) {
	id := uuid.NewString()
	const q = `INSERT INTO notification_incidents (id, reservation_id, event_type, detail)
	           VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, id, reservationID, eventType, detail); err != nil {
		return "", err
	}
	return id, nil
}

// ListByReservation returns the incident IDs and event types recorded
// for a reservation, oldest first.
func (r *IncidentRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]Incident, error) {
	const q = `SELECT id, reservation_id, event_type, detail, created_at
	           FROM notification_incidents WHERE reservation_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Incident, 0)
	for rows.Next() {
		var in Incident
		if err := rows.Scan(&in.ID, &in.ReservationID, &in.EventType, &in.Detail, &in.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Incident mirrors one notification_incidents row.
type Incident struct {
	ID            string    `json:"id"`
	ReservationID uint64    `json:"reservation_id"`
	EventType     string    `json:"event_type"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
