package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking-engine/internal/availability"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/repository"
)

// AvailabilityHandler answers the read-only availability question:
// is a resource free for a half-open date range.  It never mutates
// anything, so repeated calls with the same arguments and no
// intervening writes return identical results.
type AvailabilityHandler struct {
	RoomRepo        *repository.RoomRepo
	HallRepo        *repository.HallRepo
	ReservationRepo *repository.ReservationRepo
}

// NewAvailabilityHandler constructs an AvailabilityHandler.  All
// dependencies must be non-nil.
func NewAvailabilityHandler(roomRepo *repository.RoomRepo, hallRepo *repository.HallRepo, reservationRepo *repository.ReservationRepo) *AvailabilityHandler {
	if roomRepo == nil || hallRepo == nil || reservationRepo == nil {
		panic("nil repository passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{RoomRepo: roomRepo, HallRepo: hallRepo, ReservationRepo: reservationRepo}
}

// Check handles GET /v1/availability.  Query parameters: resource_type
// (ROOM or HALL), resource_id, start, end (dates, half-open range).
// A range whose start is not before its end is a caller error, not an
// availability answer.  Only PENDING and CONFIRMED reservations count
// as conflicts; ranges that merely touch at a boundary do not.
func (h *AvailabilityHandler) Check(c echo.Context) error {
	resourceType, ok := normalizeResourceType(c.QueryParam("resource_type"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_type must be ROOM or HALL"})
	}
	resourceID, err := strconv.ParseUint(c.QueryParam("resource_id"), 10, 64)
	if err != nil || resourceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource_id"})
	}
	start, end, err := availability.ParseDateRange(c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date range: start must be a date before end"})
	}

	ctx := c.Request().Context()
	// confirm the resource exists so an unknown ID is a 404, not "available"
	if resourceType == model.ResourceRoom {
		if _, err := h.RoomRepo.GetByID(ctx, resourceID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	} else {
		if _, err := h.HallRepo.GetByID(ctx, resourceID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	// a whole-day ask: existing hall reservations conflict regardless of
	// their hour windows
	conflicts, err := h.ReservationRepo.ActiveOverlapping(ctx, resourceType, resourceID, start, end, 0, nil, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"available": len(conflicts) == 0,
		"conflicts": conflicts,
	})
}
