package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking-engine/internal/availability"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/policy"
	"github.com/iliyamo/hotel-booking-engine/internal/repository"
	"github.com/iliyamo/hotel-booking-engine/internal/service"
)

// codeAttempts bounds the allocate-insert-retry loop when a generated
// reservation code collides with the unique index.
const codeAttempts = 3

// minModifyLeadHours is the smallest distance to check-in at which a
// confirmed reservation's dates may still be moved.
const minModifyLeadHours = 24

// ReservationHandler implements single-resource booking: write-time
// re-validated confirmation, date modification, the two-step
// cancellation protocol and reservation reads.  All methods assume JWT
// authentication and role validation has already been performed by
// middleware.  Critical DB operations run inside a transaction holding
// a lock on the resource row, and every active insert is conditional at
// the storage layer, so an availability check is never trusted across
// the check-to-write gap.
type ReservationHandler struct {
	RoomRepo        *repository.RoomRepo
	HallRepo        *repository.HallRepo
	ReservationRepo *repository.ReservationRepo
	Codes           *repository.CodeAllocator
	Notifier        *notifier.Notifier
	Validate        *validator.Validate
	TaxRatePercent  int
}

// NewReservationHandler constructs a ReservationHandler with the
// provided dependencies.  All repositories must be non-nil.
func NewReservationHandler(roomRepo *repository.RoomRepo, hallRepo *repository.HallRepo, reservationRepo *repository.ReservationRepo, codes *repository.CodeAllocator, n *notifier.Notifier, v *validator.Validate, taxRatePercent int) *ReservationHandler {
	if roomRepo == nil || hallRepo == nil || reservationRepo == nil || codes == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{
		RoomRepo:        roomRepo,
		HallRepo:        hallRepo,
		ReservationRepo: reservationRepo,
		Codes:           codes,
		Notifier:        n,
		Validate:        v,
		TaxRatePercent:  taxRatePercent,
	}
}

type guestPayload struct {
	Name  string  `json:"name" validate:"required"`
	Email string  `json:"email" validate:"required,email"`
	Phone *string `json:"phone"`
}

type createReservationRequest struct {
	ResourceType  string       `json:"resource_type" validate:"required,oneof=ROOM HALL"`
	ResourceID    uint64       `json:"resource_id" validate:"required"`
	Start         string       `json:"start" validate:"required"`
	End           string       `json:"end" validate:"required"`
	Guest         guestPayload `json:"guest"`
	EventStartMin *int         `json:"event_start_min"`
	EventEndMin   *int         `json:"event_end_min"`
}

// computeTariff derives the price breakdown from the resource's unit
// price, the number of occupied units and the tax rate.  Tax rounds
// half-up on cents.
func computeTariff(unitCents int64, units int, taxRatePercent int) (subtotal, tax, total int64) {
	subtotal = unitCents * int64(units)
	tax = (subtotal*int64(taxRatePercent) + 50) / 100
	return subtotal, tax, subtotal + tax
}

// reservationView is the JSON shape of a reservation in responses.
type reservationView struct {
	ID             uint64  `json:"id"`
	Code           string  `json:"code"`
	ResourceType   string  `json:"resource_type"`
	ResourceID     uint64  `json:"resource_id"`
	HotelID        uint64  `json:"hotel_id"`
	Status         string  `json:"status"`
	StartsOn       string  `json:"starts_on"`
	EndsOn         string  `json:"ends_on"`
	EventStartMin  *int    `json:"event_start_min,omitempty"`
	EventEndMin    *int    `json:"event_end_min,omitempty"`
	GuestName      string  `json:"guest_name"`
	GuestEmail     string  `json:"guest_email"`
	GuestPhone     *string `json:"guest_phone,omitempty"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	SubtotalCents  int64   `json:"subtotal_cents"`
	TaxCents       int64   `json:"tax_cents"`
	TotalCents     int64   `json:"total_cents"`
	PackageCode    *string `json:"package_code,omitempty"`
	PackageRole    *string `json:"package_role,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func toReservationView(res *model.Reservation) reservationView {
	return reservationView{
		ID:             res.ID,
		Code:           res.Code,
		ResourceType:   res.ResourceType,
		ResourceID:     res.ResourceID,
		HotelID:        res.HotelID,
		Status:         res.Status,
		StartsOn:       repository.FormatDate(res.StartsOn),
		EndsOn:         repository.FormatDate(res.EndsOn),
		EventStartMin:  res.EventStartMin,
		EventEndMin:    res.EventEndMin,
		GuestName:      res.GuestName,
		GuestEmail:     res.GuestEmail,
		GuestPhone:     res.GuestPhone,
		UnitPriceCents: res.UnitPriceCents,
		SubtotalCents:  res.SubtotalCents,
		TaxCents:       res.TaxCents,
		TotalCents:     res.TotalCents,
		PackageCode:    res.PackageCode,
		PackageRole:    res.PackageRole,
		CreatedAt:      res.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Create handles POST /v1/reservations.  It re-validates availability
// at write time: the pre-check gives fast, detailed 409s, but the
// conditional insert under the resource row lock is what actually
// protects the non-overlap invariant.  A losing writer gets a conflict
// immediately, never a wait.  Notification failure after commit is
// recorded as an incident and does not change the response.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	start, end, err := availability.ParseDateRange(req.Start, req.End)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date range: start must be a date before end"})
	}
	if !availability.ValidEventWindow(req.EventStartMin, req.EventEndMin) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event window"})
	}
	if req.ResourceType == model.ResourceRoom && req.EventStartMin != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event windows apply to halls only"})
	}

	ctx := c.Request().Context()
	// resolve the resource and its current unit price
	var hotelID uint64
	var unitPrice int64
	switch req.ResourceType {
	case model.ResourceRoom:
		room, err := h.RoomRepo.GetByID(ctx, req.ResourceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		hotelID, unitPrice = room.HotelID, room.PriceCentsPerNight
	default:
		hall, err := h.HallRepo.GetByID(ctx, req.ResourceID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		hotelID, unitPrice = hall.HotelID, hall.PriceCentsPerDay
	}

	// fast pre-check so the common conflict case carries full detail; the
	// request's hour window rides along so two hall bookings with disjoint
	// windows on the same dates are judged the same way the insert will
	conflicts, err := h.ReservationRepo.ActiveOverlapping(ctx, req.ResourceType, req.ResourceID, start, end, 0, req.EventStartMin, req.EventEndMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	if len(conflicts) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "resource unavailable for the requested range", "conflicts": conflicts})
	}

	subtotal, tax, total := computeTariff(unitPrice, availability.Nights(start, end), h.TaxRatePercent)
	res := &model.Reservation{
		ResourceType:   req.ResourceType,
		ResourceID:     req.ResourceID,
		HotelID:        hotelID,
		UserID:         userID,
		Status:         model.StatusConfirmed,
		StartsOn:       start,
		EndsOn:         end,
		EventStartMin:  req.EventStartMin,
		EventEndMin:    req.EventEndMin,
		GuestName:      req.Guest.Name,
		GuestEmail:     req.Guest.Email,
		GuestPhone:     req.Guest.Phone,
		UnitPriceCents: unitPrice,
		SubtotalCents:  subtotal,
		TaxCents:       tax,
		TotalCents:     total,
	}

	if err := h.insertActive(c, res); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// lost the race between pre-check and insert
			conflicts, qerr := h.ReservationRepo.ActiveOverlapping(ctx, req.ResourceType, req.ResourceID, start, end, 0, req.EventStartMin, req.EventEndMin)
			if qerr != nil {
				conflicts = nil
			}
			return c.JSON(http.StatusConflict, echo.Map{"error": "resource unavailable for the requested range", "conflicts": conflicts})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}

	if h.Notifier != nil {
		h.Notifier.ReservationConfirmed(res)
	}
	return c.JSON(http.StatusCreated, echo.Map{"reservation": toReservationView(res)})
}

// insertActive runs the allocate-lock-insert sequence, retrying with a
// fresh code when the unique code index rejects the row.  The resource
// row lock serializes racing writers; the conditional insert re-checks
// overlap under that lock.
func (h *ReservationHandler) insertActive(c echo.Context, res *model.Reservation) error {
	ctx := c.Request().Context()
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := h.Codes.Next(ctx, repository.PrefixReservation, time.Now())
		if err != nil {
			return err
		}
		res.Code = code

		tx, err := h.ReservationRepo.DB().BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		committed := false
		if res.ResourceType == model.ResourceRoom {
			err = h.RoomRepo.LockTx(ctx, tx, res.ResourceID)
		} else {
			err = h.HallRepo.LockTx(ctx, tx, res.ResourceID)
		}
		if err == nil {
			err = h.ReservationRepo.CreateActiveTx(ctx, tx, res)
		}
		if err == nil {
			err = tx.Commit()
			committed = err == nil
		}
		if !committed {
			_ = tx.Rollback()
		}
		if errors.Is(err, repository.ErrCodeTaken) {
			continue // allocate a fresh code and retry
		}
		return err
	}
	return repository.ErrCodeTaken
}

type modifyDatesRequest struct {
	NewStart string `json:"new_start" validate:"required"`
	NewEnd   string `json:"new_end" validate:"required"`
}

// ModifyDates handles PUT /v1/reservations/:id/dates.  Moving a
// reservation is allowed only while it is CONFIRMED and at least 24
// hours remain before the current check-in; violating either
// precondition is a 400, not a conflict.  The new range is re-checked
// excluding the reservation itself, under the resource row lock, and
// the update is guarded by the optimistic version token so a concurrent
// cancel or modify turns into a 409.
func (h *ReservationHandler) ModifyDates(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req modifyDatesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	newStart, newEnd, err := availability.ParseDateRange(req.NewStart, req.NewEnd)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date range: start must be a date before end"})
	}

	ctx := c.Request().Context()
	tx, err := h.ReservationRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.ReservationRepo.GetForUpdateTx(ctx, tx, resID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
	}
	if res.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	now := time.Now().UTC()
	if res.Status != model.StatusConfirmed {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only confirmed reservations can be moved"})
	}
	if res.StartsOn.Sub(now).Hours() < minModifyLeadHours {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates can no longer be changed this close to check-in"})
	}

	// lock the resource row, then re-check the new range excluding this reservation
	if res.ResourceType == model.ResourceRoom {
		err = h.RoomRepo.LockTx(ctx, tx, res.ResourceID)
	} else {
		err = h.HallRepo.LockTx(ctx, tx, res.ResourceID)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to lock resource"})
	}
	conflicts, err := h.ReservationRepo.ActiveOverlappingTx(ctx, tx, res.ResourceType, res.ResourceID, newStart, newEnd, res.ID, res.EventStartMin, res.EventEndMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	if len(conflicts) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "resource unavailable for the new range", "conflicts": conflicts})
	}

	subtotal, tax, total := computeTariff(res.UnitPriceCents, availability.Nights(newStart, newEnd), h.TaxRatePercent)
	change := model.ReservationChange{
		ReservationID: res.ID,
		OldStartsOn:   res.StartsOn,
		OldEndsOn:     res.EndsOn,
		NewStartsOn:   newStart,
		NewEndsOn:     newEnd,
		OldTotalCents: res.TotalCents,
		NewTotalCents: total,
		ChangedAt:     now,
	}
	if err := h.ReservationRepo.UpdateDatesTx(ctx, tx, res.ID, res.Version, change, subtotal, tax, total); err != nil {
		if errors.Is(err, repository.ErrStaleVersion) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation was changed by another request"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update reservation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	res.StartsOn, res.EndsOn = newStart, newEnd
	res.SubtotalCents, res.TaxCents, res.TotalCents = subtotal, tax, total
	res.Version++
	return c.JSON(http.StatusOK, echo.Map{"reservation": toReservationView(res)})
}

type cancelRequest struct {
	AcknowledgePenalty bool   `json:"acknowledge_penalty"`
	Reason             string `json:"reason"`
}

// Cancel handles PUT /v1/reservations/:id/cancel.  Cancellation is a
// two-step protocol: when a non-zero penalty applies and the caller has
// not acknowledged it, the response is a 400 carrying the computed
// figures so the caller can confirm.  The transition itself is guarded
// by the optimistic version token; losing a concurrent cancel/modify
// race is a 409.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	tx, err := h.ReservationRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := h.ReservationRepo.GetForUpdateTx(ctx, tx, resID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
	}
	if res.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	now := time.Now().UTC()
	out := policy.Evaluate(res.Status, res.StartsOn, res.TotalCents, now, req.AcknowledgePenalty)
	if !out.Allowed {
		if out.DeniedReason == policy.ReasonNeedsAck {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"requires_acknowledgement": true,
				"tier_percent":             out.TierPercent,
				"penalty_cents":            out.PenaltyCents,
				"refund_cents":             out.RefundCents,
			})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": out.DeniedReason})
	}

	rec := model.Cancellation{
		ReservationID:      res.ID,
		CancelledAt:        now,
		Reason:             req.Reason,
		PenaltyCents:       out.PenaltyCents,
		RefundCents:        out.RefundCents,
		HoursBeforeCheckin: out.HoursBeforeCheckin,
	}
	if err := h.ReservationRepo.CancelTx(ctx, tx, res.ID, res.Version, rec); err != nil {
		if errors.Is(err, repository.ErrStaleVersion) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation was changed by another request"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel reservation"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	res.Status = model.StatusCancelled
	if h.Notifier != nil {
		h.Notifier.ReservationCancelled(res, rec)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":               model.StatusCancelled,
		"tier_percent":         out.TierPercent,
		"penalty_cents":        out.PenaltyCents,
		"refund_cents":         out.RefundCents,
		"hours_before_checkin": out.HoursBeforeCheckin,
	})
}

// Get handles GET /v1/reservations/:id.  The response includes the
// cancellation record and date-change history when present.
func (h *ReservationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	res, err := h.ReservationRepo.GetByID(ctx, resID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	if res.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	body := echo.Map{"item": toReservationView(res)}
	if res.Status == model.StatusCancelled {
		if rec, err := h.ReservationRepo.GetCancellation(ctx, res.ID); err == nil {
			body["cancellation"] = echo.Map{
				"cancelled_at":         rec.CancelledAt.UTC().Format(time.RFC3339),
				"reason":               rec.Reason,
				"penalty_cents":        rec.PenaltyCents,
				"refund_cents":         rec.RefundCents,
				"hours_before_checkin": rec.HoursBeforeCheckin,
			}
		}
	}
	if changes, err := h.ReservationRepo.ListChanges(ctx, res.ID); err == nil && len(changes) > 0 {
		history := make([]echo.Map, 0, len(changes))
		for _, ch := range changes {
			history = append(history, echo.Map{
				"old_starts_on":   repository.FormatDate(ch.OldStartsOn),
				"old_ends_on":     repository.FormatDate(ch.OldEndsOn),
				"new_starts_on":   repository.FormatDate(ch.NewStartsOn),
				"new_ends_on":     repository.FormatDate(ch.NewEndsOn),
				"old_total_cents": ch.OldTotalCents,
				"new_total_cents": ch.NewTotalCents,
				"changed_at":      ch.ChangedAt.UTC().Format(time.RFC3339),
			})
		}
		body["changes"] = history
	}
	return c.JSON(http.StatusOK, body)
}

// ListMine handles GET /v1/my-reservations.  It returns all
// reservations created by the current user, newest first.  When no
// reservations exist, it returns an empty array.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.ReservationRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	views := make([]reservationView, 0, len(items))
	for _, res := range items {
		views = append(views, toReservationView(res))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views})
}
