package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// ReservationRepo provides persistence for reservations, their
// cancellation records and their date-change history.  The non-overlap
// invariant lives here: inserts of active reservations are conditional
// at the storage layer, so a check done earlier in the request is never
// trusted on its own.  All timestamp fields are stored in UTC; dates
// use DATE columns.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning several repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// Conflict is the caller-facing view of a reservation that blocks a
// requested range.  Guest data is deliberately not included.
type Conflict struct {
	ID       uint64 `json:"id"`
	Code     string `json:"code"`
	Status   string `json:"status"`
	StartsOn string `json:"starts_on"`
	EndsOn   string `json:"ends_on"`
}

const dateLayout = "2006-01-02"

// activeStates is the SQL fragment selecting reservations that block a
// resource.  CANCELLED and COMPLETED rows never conflict.
const activeStates = `status IN ('PENDING','CONFIRMED')`

// overlapPredicate is the shared blocking condition for both the read
// queries and the conditional insert: half-open date overlap, narrowed
// by the hour-window rule for halls.  An existing reservation without a
// window blocks the whole day, a request without a window asks for the
// whole day, and two windows conflict under the same half-open
// inequality as dates.  Placeholders, in order: end, start, evStart,
// evEnd, evStart (see overlapArgs).
const overlapPredicate = activeStates + `
	AND starts_on < ? AND ? < ends_on
	AND (event_start_min IS NULL OR ? IS NULL
	     OR (event_start_min < ? AND ? < event_end_min))`

// overlapArgs renders the placeholder values for overlapPredicate.
func overlapArgs(start, end time.Time, evStart, evEnd *int) []interface{} {
	return []interface{}{end.Format(dateLayout), start.Format(dateLayout), evStart, evEnd, evStart}
}

// queryer abstracts *sql.DB and *sql.Tx for read queries that need to
// run either standalone or inside a caller's transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// ActiveOverlapping returns the active reservations on a resource that
// block [start, end) and, for halls, the optional minutes-of-day
// window.  Two date ranges overlap iff s1 < e2 AND s2 < e1; ranges that
// merely touch do not, and the same rule applies to hour windows.
// excludeID removes one reservation from consideration (used when
// modifying that reservation's own dates); pass 0 to exclude nothing.
// The query is read-only and uses the exact predicate CreateActiveTx
// enforces at write time, so a clean pre-check and an accepted insert
// can only disagree when a concurrent writer lands in between.
func (r *ReservationRepo) ActiveOverlapping(ctx context.Context, resourceType string, resourceID uint64, start, end time.Time, excludeID uint64, eventStartMin, eventEndMin *int) ([]Conflict, error) {
	return overlapping(ctx, r.db, resourceType, resourceID, start, end, excludeID, eventStartMin, eventEndMin)
}

// ActiveOverlappingTx is ActiveOverlapping inside an existing
// transaction, so a date modification can re-check the new range under
// the resource row lock it already holds.
func (r *ReservationRepo) ActiveOverlappingTx(ctx context.Context, tx *sql.Tx, resourceType string, resourceID uint64, start, end time.Time, excludeID uint64, eventStartMin, eventEndMin *int) ([]Conflict, error) {
	return overlapping(ctx, tx, resourceType, resourceID, start, end, excludeID, eventStartMin, eventEndMin)
}

func overlapping(ctx context.Context, q queryer, resourceType string, resourceID uint64, start, end time.Time, excludeID uint64, evStart, evEnd *int) ([]Conflict, error) {
	const query = `SELECT id, code, status, starts_on, ends_on
	               FROM reservations
	               WHERE resource_type = ? AND resource_id = ?
	                 AND id <> ?
	                 AND ` + overlapPredicate + `
	               ORDER BY starts_on`
	args := append([]interface{}{resourceType, resourceID, excludeID},
		overlapArgs(start, end, evStart, evEnd)...)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	conflicts := make([]Conflict, 0)
	for rows.Next() {
		var c Conflict
		var s, e time.Time
		if err := rows.Scan(&c.ID, &c.Code, &c.Status, &s, &e); err != nil {
			return nil, err
		}
		c.StartsOn = s.UTC().Format(dateLayout)
		c.EndsOn = e.UTC().Format(dateLayout)
		conflicts = append(conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conflicts, nil
}

// CreateActiveTx inserts a reservation on the condition that no active
// reservation overlaps it.  The INSERT ... SELECT re-runs the overlap
// check inside the same statement, so combined with the caller's
// FOR UPDATE lock on the resource row the check-then-insert window is
// closed: a racing writer either sees this row or fails the same way.
//
// For hall reservations carrying an event window, an existing
// reservation on an overlapping date only conflicts when its own window
// is absent or overlaps the new one.
//
// Returns ErrConflict when the condition fails, ErrCodeTaken when the
// unique index on code rejects the row (caller should allocate a fresh
// code and retry), and populates ID/timestamps on success.
func (r *ReservationRepo) CreateActiveTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
	             (code, resource_type, resource_id, hotel_id, user_id, status,
	              starts_on, ends_on, event_start_min, event_end_min,
	              guest_name, guest_email, guest_phone,
	              unit_price_cents, subtotal_cents, tax_cents, total_cents,
	              package_code, package_role, version)
	           SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1
	           FROM DUAL
	           WHERE NOT EXISTS (
	             SELECT 1 FROM reservations
	             WHERE resource_type = ? AND resource_id = ?
	               AND ` + overlapPredicate + `
	           )`
	args := []interface{}{
		res.Code, res.ResourceType, res.ResourceID, res.HotelID, res.UserID, res.Status,
		res.StartsOn.Format(dateLayout), res.EndsOn.Format(dateLayout),
		res.EventStartMin, res.EventEndMin,
		res.GuestName, res.GuestEmail, res.GuestPhone,
		res.UnitPriceCents, res.SubtotalCents, res.TaxCents, res.TotalCents,
		res.PackageCode, res.PackageRole,
		res.ResourceType, res.ResourceID,
	}
	args = append(args, overlapArgs(res.StartsOn, res.EndsOn, res.EventStartMin, res.EventEndMin)...)
	result, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrCodeTaken
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	res.Version = 1
	// Read back DB-defaulted timestamps.
	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// scanReservation maps one reservations row.  Keep the column list in
// sync with reservationColumns.
const reservationColumns = `id, code, resource_type, resource_id, hotel_id, user_id, status,
	starts_on, ends_on, event_start_min, event_end_min,
	guest_name, guest_email, guest_phone,
	unit_price_cents, subtotal_cents, tax_cents, total_cents,
	package_code, package_role, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var res model.Reservation
	var eventStart, eventEnd sql.NullInt64
	var phone, pkgCode, pkgRole sql.NullString
	err := row.Scan(
		&res.ID, &res.Code, &res.ResourceType, &res.ResourceID, &res.HotelID, &res.UserID, &res.Status,
		&res.StartsOn, &res.EndsOn, &eventStart, &eventEnd,
		&res.GuestName, &res.GuestEmail, &phone,
		&res.UnitPriceCents, &res.SubtotalCents, &res.TaxCents, &res.TotalCents,
		&pkgCode, &pkgRole, &res.Version, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if eventStart.Valid {
		v := int(eventStart.Int64)
		res.EventStartMin = &v
	}
	if eventEnd.Valid {
		v := int(eventEnd.Int64)
		res.EventEndMin = &v
	}
	if phone.Valid {
		p := phone.String
		res.GuestPhone = &p
	}
	if pkgCode.Valid {
		pc := pkgCode.String
		res.PackageCode = &pc
	}
	if pkgRole.Valid {
		pr := pkgRole.String
		res.PackageRole = &pr
	}
	return &res, nil
}

// GetByID loads a reservation or returns ErrNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// GetForUpdateTx loads a reservation with a row lock inside the given
// transaction, so cancel and modify serialize against each other on the
// same record.  Returns ErrNotFound when the row does not exist.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// CancelTx transitions a reservation to CANCELLED and records the
// cancellation.  The update is guarded by the optimistic version token:
// when another request cancelled or modified the row first, no row
// matches and ErrStaleVersion is returned.  Transitions are only legal
// from PENDING or CONFIRMED; callers enforce that via the policy engine
// before reaching this method, and the status predicate re-checks it.
func (r *ReservationRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64, version uint32, rec model.Cancellation) error {
	const upd = `UPDATE reservations
	             SET status = 'CANCELLED', version = version + 1
	             WHERE id = ? AND version = ? AND ` + activeStates
	result, err := tx.ExecContext(ctx, upd, id, version)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStaleVersion
	}
	const ins = `INSERT INTO cancellations
	               (reservation_id, cancelled_at, reason, penalty_cents, refund_cents, hours_before_checkin)
	             VALUES (?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, ins, id,
		rec.CancelledAt.UTC().Format("2006-01-02 15:04:05"),
		rec.Reason, rec.PenaltyCents, rec.RefundCents, rec.HoursBeforeCheckin)
	return err
}

// UpdateDatesTx moves a confirmed reservation to a new date range with a
// recomputed tariff and appends a history entry.  Guarded by the same
// optimistic version token as CancelTx.  The availability re-check for
// the new range is the caller's job (conditional on excluding this
// reservation), performed under the resource row lock in the same
// transaction.
func (r *ReservationRepo) UpdateDatesTx(ctx context.Context, tx *sql.Tx, id uint64, version uint32, ch model.ReservationChange, subtotal, tax, total int64) error {
	const upd = `UPDATE reservations
	             SET starts_on = ?, ends_on = ?, subtotal_cents = ?, tax_cents = ?, total_cents = ?,
	                 version = version + 1
	             WHERE id = ? AND version = ? AND status = 'CONFIRMED'`
	result, err := tx.ExecContext(ctx, upd,
		ch.NewStartsOn.Format(dateLayout), ch.NewEndsOn.Format(dateLayout),
		subtotal, tax, total, id, version)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStaleVersion
	}
	const ins = `INSERT INTO reservation_changes
	               (reservation_id, old_starts_on, old_ends_on, new_starts_on, new_ends_on,
	                old_total_cents, new_total_cents, changed_at)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, ins, id,
		ch.OldStartsOn.Format(dateLayout), ch.OldEndsOn.Format(dateLayout),
		ch.NewStartsOn.Format(dateLayout), ch.NewEndsOn.Format(dateLayout),
		ch.OldTotalCents, ch.NewTotalCents,
		ch.ChangedAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// GetCancellation returns the cancellation record for a reservation, or
// ErrNotFound when it was never cancelled.
func (r *ReservationRepo) GetCancellation(ctx context.Context, reservationID uint64) (*model.Cancellation, error) {
	const q = `SELECT reservation_id, cancelled_at, reason, penalty_cents, refund_cents, hours_before_checkin
	           FROM cancellations WHERE reservation_id = ?`
	var rec model.Cancellation
	err := r.db.QueryRowContext(ctx, q, reservationID).Scan(
		&rec.ReservationID, &rec.CancelledAt, &rec.Reason,
		&rec.PenaltyCents, &rec.RefundCents, &rec.HoursBeforeCheckin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListChanges returns the date-modification history of a reservation,
// oldest first.
func (r *ReservationRepo) ListChanges(ctx context.Context, reservationID uint64) ([]model.ReservationChange, error) {
	const q = `SELECT id, reservation_id, old_starts_on, old_ends_on, new_starts_on, new_ends_on,
	                  old_total_cents, new_total_cents, changed_at
	           FROM reservation_changes WHERE reservation_id = ? ORDER BY changed_at, id`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	changes := make([]model.ReservationChange, 0)
	for rows.Next() {
		var ch model.ReservationChange
		if err := rows.Scan(&ch.ID, &ch.ReservationID,
			&ch.OldStartsOn, &ch.OldEndsOn, &ch.NewStartsOn, &ch.NewEndsOn,
			&ch.OldTotalCents, &ch.NewTotalCents, &ch.ChangedAt); err != nil {
			return nil, err
		}
		changes = append(changes, ch)
	}
	return changes, rows.Err()
}

// ListByUser returns all reservations created by a user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// ListByPackageCode returns every reservation sharing a package code,
// parent first.
func (r *ReservationRepo) ListByPackageCode(ctx context.Context, code string) ([]*model.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE package_code = ?
	                    ORDER BY FIELD(package_role,'PARENT','CHILD'), id`, code)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// FormatDate renders a stored date the way the API exposes it.
func FormatDate(t time.Time) string { return t.UTC().Format(dateLayout) }
