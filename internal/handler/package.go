package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking-engine/internal/availability"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/repository"
	"github.com/iliyamo/hotel-booking-engine/internal/service"
)

// PackageHandler orchestrates event packages: one hall plus a block of
// rooms plus optional catering, validated component by component.
// Validation never writes.  Confirmation creates the parent hall
// reservation and one child reservation per room unit, each in its own
// transaction against its own resource; there is no cross-resource
// transaction and no automatic rollback, so a failure partway through
// is reported as a partial result rather than silently undone.
type PackageHandler struct {
	HotelRepo       *repository.HotelRepo
	RoomRepo        *repository.RoomRepo
	HallRepo        *repository.HallRepo
	ReservationRepo *repository.ReservationRepo
	Codes           *repository.CodeAllocator
	Notifier        *notifier.Notifier
	Validate        *validator.Validate
	TaxRatePercent  int
	MaxHeadcount    int
	MinLeadHours    int
}

// NewPackageHandler constructs a PackageHandler.
func NewPackageHandler(hotelRepo *repository.HotelRepo, roomRepo *repository.RoomRepo, hallRepo *repository.HallRepo, reservationRepo *repository.ReservationRepo, codes *repository.CodeAllocator, n *notifier.Notifier, v *validator.Validate, taxRatePercent, maxHeadcount, minLeadHours int) *PackageHandler {
	if hotelRepo == nil || roomRepo == nil || hallRepo == nil || reservationRepo == nil || codes == nil {
		panic("nil dependency passed to NewPackageHandler")
	}
	return &PackageHandler{
		HotelRepo:       hotelRepo,
		RoomRepo:        roomRepo,
		HallRepo:        hallRepo,
		ReservationRepo: reservationRepo,
		Codes:           codes,
		Notifier:        n,
		Validate:        v,
		TaxRatePercent:  taxRatePercent,
		MaxHeadcount:    maxHeadcount,
		MinLeadHours:    minLeadHours,
	}
}

type roomRequest struct {
	RoomType string `json:"room_type" validate:"required"`
	Count    int    `json:"count" validate:"required,min=1"`
}

type cateringRequest struct {
	Headcount int `json:"headcount" validate:"required,min=1"`
}

type packageRequest struct {
	HotelID       uint64           `json:"hotel_id" validate:"required"`
	HallID        uint64           `json:"hall_id" validate:"required"`
	Rooms         []roomRequest    `json:"rooms" validate:"required,min=1,dive"`
	Catering      *cateringRequest `json:"catering"`
	Start         string           `json:"start" validate:"required"`
	End           string           `json:"end" validate:"required"`
	EventStartMin *int             `json:"event_start_min"`
	EventEndMin   *int             `json:"event_end_min"`
	Guest         *guestPayload    `json:"guest"`
}

// hallStatus is the hall component of a package evaluation.
type hallStatus struct {
	HallID    uint64                `json:"hall_id"`
	Available bool                  `json:"available"`
	Conflicts []repository.Conflict `json:"conflicts,omitempty"`
}

// roomStatus reports one requested room type.
type roomStatus struct {
	RoomType   string `json:"room_type"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
	Sufficient bool   `json:"sufficient"`
}

// cateringStatus reports the catering component when requested.
type cateringStatus struct {
	Requested bool   `json:"requested"`
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
}

// cateringCheck applies the catering business rules: headcount must not
// exceed the configured maximum and the event must start far enough in
// the future for the kitchen to plan.
func cateringCheck(headcount, maxHeadcount int, leadHours float64, minLeadHours int) cateringStatus {
	st := cateringStatus{Requested: true, Allowed: true}
	if headcount > maxHeadcount {
		st.Allowed = false
		st.Reason = fmt.Sprintf("headcount exceeds the maximum of %d", maxHeadcount)
	} else if leadHours < float64(minLeadHours) {
		st.Allowed = false
		st.Reason = fmt.Sprintf("catering requires at least %d hours of lead time", minLeadHours)
	}
	return st
}

// packageReport is the full itemized evaluation of a package request.
// freeRooms carries the concrete free units per type so that Confirm
// can assign them without a second query.
type packageReport struct {
	AllAvailable bool
	Hall         hallStatus
	Rooms        []roomStatus
	Catering     *cateringStatus
	AltHalls     []model.Hall
	AltRoomTypes []repository.RoomTypeCount
	freeRooms    map[string][]model.Room
}

func (rep *packageReport) body() echo.Map {
	out := echo.Map{
		"all_available": rep.AllAvailable,
		"hall":          rep.Hall,
		"rooms":         rep.Rooms,
	}
	if rep.Catering != nil {
		out["catering"] = rep.Catering
	}
	if !rep.AllAvailable {
		alts := echo.Map{}
		if rep.AltHalls != nil {
			views := make([]echo.Map, 0, len(rep.AltHalls))
			for _, hl := range rep.AltHalls {
				views = append(views, echo.Map{
					"id":                  hl.ID,
					"name":                hl.Name,
					"capacity":            hl.Capacity,
					"price_cents_per_day": hl.PriceCentsPerDay,
				})
			}
			alts["halls"] = views
		}
		if rep.AltRoomTypes != nil {
			alts["room_types"] = rep.AltRoomTypes
		}
		out["alternatives"] = alts
	}
	return out
}

// evaluate checks every package component against the requested range
// and builds the itemized report.  It performs reads only.
func (h *PackageHandler) evaluate(ctx context.Context, req *packageRequest, start, end time.Time, now time.Time) (*packageReport, *echo.Map, int) {
	hall, err := h.HallRepo.GetByID(ctx, req.HallID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &echo.Map{"error": "hall not found"}, http.StatusNotFound
		}
		return nil, &echo.Map{"error": "database error"}, http.StatusInternalServerError
	}
	if hall.HotelID != req.HotelID {
		return nil, &echo.Map{"error": "hall does not belong to the requested hotel"}, http.StatusBadRequest
	}

	rep := &packageReport{
		AllAvailable: true,
		Hall:         hallStatus{HallID: hall.ID, Available: true},
		Rooms:        make([]roomStatus, 0, len(req.Rooms)),
		freeRooms:    make(map[string][]model.Room, len(req.Rooms)),
	}

	conflicts, err := h.ReservationRepo.ActiveOverlapping(ctx, model.ResourceHall, hall.ID, start, end, 0, req.EventStartMin, req.EventEndMin)
	if err != nil {
		return nil, &echo.Map{"error": "failed to check hall availability"}, http.StatusInternalServerError
	}
	if len(conflicts) > 0 {
		rep.AllAvailable = false
		rep.Hall.Available = false
		rep.Hall.Conflicts = conflicts
	}

	for _, want := range req.Rooms {
		free, err := h.RoomRepo.FreeRoomsByType(ctx, req.HotelID, want.RoomType, start, end)
		if err != nil {
			return nil, &echo.Map{"error": "failed to check room availability"}, http.StatusInternalServerError
		}
		rep.freeRooms[want.RoomType] = free
		st := roomStatus{
			RoomType:   want.RoomType,
			Requested:  want.Count,
			Available:  len(free),
			Sufficient: len(free) >= want.Count,
		}
		if !st.Sufficient {
			rep.AllAvailable = false
		}
		rep.Rooms = append(rep.Rooms, st)
	}

	if req.Catering != nil {
		st := cateringCheck(req.Catering.Headcount, h.MaxHeadcount, start.Sub(now).Hours(), h.MinLeadHours)
		if !st.Allowed {
			rep.AllAvailable = false
		}
		rep.Catering = &st
	}

	if !rep.AllAvailable {
		if halls, err := h.HallRepo.AvailableHalls(ctx, req.HotelID, hall.ID, start, end); err == nil {
			rep.AltHalls = halls
		}
		if counts, err := h.RoomRepo.CountFreeByType(ctx, req.HotelID, start, end); err == nil {
			rep.AltRoomTypes = counts
		}
	}
	return rep, nil, 0
}

func (h *PackageHandler) parse(c echo.Context) (*packageRequest, time.Time, time.Time, error) {
	var req packageRequest
	if err := c.Bind(&req); err != nil {
		return nil, time.Time{}, time.Time{}, errors.New("invalid request body")
	}
	if err := h.Validate.Struct(&req); err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	start, end, err := availability.ParseDateRange(req.Start, req.End)
	if err != nil {
		return nil, time.Time{}, time.Time{}, errors.New("invalid date range: start must be a date before end")
	}
	if !availability.ValidEventWindow(req.EventStartMin, req.EventEndMin) {
		return nil, time.Time{}, time.Time{}, errors.New("invalid event window")
	}
	return &req, start, end, nil
}

// ValidatePackage handles POST /v1/packages/validate.  It is a dry run:
// the caller gets the same itemized report that a confirmation would be
// judged against, plus alternatives, and nothing is written.
func (h *PackageHandler) ValidatePackage(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	req, start, end, err := h.parse(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	rep, errBody, code := h.evaluate(c.Request().Context(), req, start, end, time.Now().UTC())
	if errBody != nil {
		return c.JSON(code, *errBody)
	}
	return c.JSON(http.StatusOK, rep.body())
}

// createdItem describes one reservation persisted during package
// confirmation.
type createdItem struct {
	Code         string `json:"code"`
	ResourceType string `json:"resource_type"`
	ResourceID   uint64 `json:"resource_id"`
	Role         string `json:"role"`
	TotalCents   int64  `json:"total_cents"`
}

// failedItem describes one component that could not be persisted.
type failedItem struct {
	ResourceType string `json:"resource_type"`
	ResourceID   uint64 `json:"resource_id,omitempty"`
	RoomType     string `json:"room_type,omitempty"`
	Reason       string `json:"reason"`
}

// ConfirmPackage handles POST /v1/packages/confirm.  The three
// validations are re-run first; a clean pre-write conflict is a 409
// with the itemized report and nothing persisted.  Past that point the
// parent hall reservation and each child room reservation commit
// independently, so a later loss against a concurrent writer leaves
// the earlier reservations in place and the response reports the split
// explicitly.  The caller decides whether to keep or cancel what was
// created.
func (h *PackageHandler) ConfirmPackage(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	req, start, end, err := h.parse(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Guest == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest details are required to confirm a package"})
	}
	if err := h.Validate.Struct(req.Guest); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()
	rep, errBody, code := h.evaluate(ctx, req, start, end, now)
	if errBody != nil {
		return c.JSON(code, *errBody)
	}
	if !rep.AllAvailable {
		body := rep.body()
		body["error"] = "one or more package components are unavailable"
		return c.JSON(http.StatusConflict, body)
	}

	hall, err := h.HallRepo.GetByID(ctx, req.HallID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	pkgCode, err := h.Codes.Next(ctx, repository.PrefixPackage, time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to allocate package code"})
	}

	created := make([]createdItem, 0, 1+len(req.Rooms))
	failed := make([]failedItem, 0)

	// parent first: without the hall there is no package
	days := availability.Nights(start, end)
	subtotal, tax, total := computeTariff(hall.PriceCentsPerDay, days, h.TaxRatePercent)
	parentRole, childRole := model.PackageParent, model.PackageChild
	parent := &model.Reservation{
		ResourceType:   model.ResourceHall,
		ResourceID:     hall.ID,
		HotelID:        hall.HotelID,
		UserID:         userID,
		Status:         model.StatusConfirmed,
		StartsOn:       start,
		EndsOn:         end,
		EventStartMin:  req.EventStartMin,
		EventEndMin:    req.EventEndMin,
		GuestName:      req.Guest.Name,
		GuestEmail:     req.Guest.Email,
		GuestPhone:     req.Guest.Phone,
		UnitPriceCents: hall.PriceCentsPerDay,
		SubtotalCents:  subtotal,
		TaxCents:       tax,
		TotalCents:     total,
		PackageCode:    &pkgCode,
		PackageRole:    &parentRole,
	}
	if err := h.insertPackaged(ctx, parent); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			rep2, errBody, code := h.evaluate(ctx, req, start, end, now)
			if errBody != nil {
				return c.JSON(code, *errBody)
			}
			body := rep2.body()
			body["error"] = "one or more package components are unavailable"
			return c.JSON(http.StatusConflict, body)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create hall reservation"})
	}
	created = append(created, createdItem{
		Code: parent.Code, ResourceType: parent.ResourceType, ResourceID: parent.ResourceID,
		Role: parentRole, TotalCents: parent.TotalCents,
	})
	grandTotal := parent.TotalCents

	// children: one reservation per room unit, drawn from the free
	// units seen at evaluation time
	for _, want := range req.Rooms {
		free := rep.freeRooms[want.RoomType]
		for i := 0; i < want.Count; i++ {
			if i >= len(free) {
				failed = append(failed, failedItem{
					ResourceType: model.ResourceRoom, RoomType: want.RoomType,
					Reason: "no free unit left of this type",
				})
				continue
			}
			room := free[i]
			sub, taxCents, tot := computeTariff(room.PriceCentsPerNight, days, h.TaxRatePercent)
			child := &model.Reservation{
				ResourceType:   model.ResourceRoom,
				ResourceID:     room.ID,
				HotelID:        room.HotelID,
				UserID:         userID,
				Status:         model.StatusConfirmed,
				StartsOn:       start,
				EndsOn:         end,
				GuestName:      req.Guest.Name,
				GuestEmail:     req.Guest.Email,
				GuestPhone:     req.Guest.Phone,
				UnitPriceCents: room.PriceCentsPerNight,
				SubtotalCents:  sub,
				TaxCents:       taxCents,
				TotalCents:     tot,
				PackageCode:    &pkgCode,
				PackageRole:    &childRole,
			}
			if err := h.insertPackaged(ctx, child); err != nil {
				reason := "failed to create room reservation"
				if errors.Is(err, repository.ErrConflict) {
					reason = "room was taken by a concurrent reservation"
				}
				failed = append(failed, failedItem{
					ResourceType: model.ResourceRoom, ResourceID: room.ID,
					RoomType: want.RoomType, Reason: reason,
				})
				continue
			}
			created = append(created, createdItem{
				Code: child.Code, ResourceType: child.ResourceType, ResourceID: child.ResourceID,
				Role: childRole, TotalCents: child.TotalCents,
			})
			grandTotal += child.TotalCents
		}
	}

	if len(failed) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"partial":      true,
			"package_code": pkgCode,
			"created":      created,
			"failed":       failed,
		})
	}

	if h.Notifier != nil {
		h.Notifier.PackageConfirmed(parent, grandTotal)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"package_code": pkgCode,
		"created":      created,
		"total_cents":  grandTotal,
	})
}

// insertPackaged allocates a reservation code and runs the lock plus
// conditional insert in one transaction, retrying on a code collision.
func (h *PackageHandler) insertPackaged(ctx context.Context, res *model.Reservation) error {
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
			continue
		}
		return err
	}
	return repository.ErrCodeTaken
}

// GetPackage handles GET /v1/packages/:code, returning every
// reservation carrying the package code, parent first.
func (h *PackageHandler) GetPackage(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	code := c.Param("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing package code"})
	}
	items, err := h.ReservationRepo.ListByPackageCode(c.Request().Context(), code)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load package"})
	}
	if len(items) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
	}
	if items[0].UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	views := make([]reservationView, 0, len(items))
	var grandTotal int64
	for _, res := range items {
		views = append(views, toReservationView(res))
		if res.Status != model.StatusCancelled {
			grandTotal += res.TotalCents
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"package_code": code, "items": views, "total_cents": grandTotal})
}
