// This file defines handlers for the public catalog API. These routes allow
// unauthenticated users to browse hotels, rooms and halls. Responses carry
// sanitized views only; the advisory is_listed flag is surfaced for clients
// that want to hide unlisted inventory, but it never affects availability.

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking-engine/internal/repository"
)

// CatalogHandler aggregates the read-only repositories needed for
// unauthenticated browsing.
type CatalogHandler struct {
	HotelRepo *repository.HotelRepo // provides access to hotel data
	RoomRepo  *repository.RoomRepo  // provides access to room data
	HallRepo  *repository.HallRepo  // provides access to hall data
}

// PublicHotel represents a hotel exposed via the public API. It contains
// only safe fields.
type PublicHotel struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// PublicRoom represents a room in catalog responses.
type PublicRoom struct {
	ID                 uint64 `json:"id"`
	Number             string `json:"number"`
	RoomType           string `json:"room_type"`
	Capacity           uint32 `json:"capacity"`
	PriceCentsPerNight int64  `json:"price_cents_per_night"`
	IsListed           bool   `json:"is_listed"`
}

// PublicHall represents a hall in catalog responses.
type PublicHall struct {
	ID               uint64 `json:"id"`
	Name             string `json:"name"`
	Capacity         uint32 `json:"capacity"`
	PriceCentsPerDay int64  `json:"price_cents_per_day"`
	IsListed         bool   `json:"is_listed"`
}

// ListHotels handles GET /v1/hotels. It returns all hotels that
// currently accept reservations.
func (h *CatalogHandler) ListHotels(c echo.Context) error {
	hotels, err := h.HotelRepo.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load hotels"})
	}
	out := make([]PublicHotel, 0, len(hotels))
	for _, ht := range hotels {
		out = append(out, PublicHotel{ID: ht.ID, Name: ht.Name, City: ht.City})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListRooms handles GET /v1/hotels/:id/rooms. Unlisted rooms are
// included with their flag so clients can decide what to show.
func (h *CatalogHandler) ListRooms(c echo.Context) error {
	hotelID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	ctx := c.Request().Context()
	if _, err := h.HotelRepo.GetByID(ctx, hotelID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	rooms, err := h.RoomRepo.ListByHotel(ctx, hotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}
	out := make([]PublicRoom, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, PublicRoom{
			ID:                 rm.ID,
			Number:             rm.Number,
			RoomType:           rm.RoomType,
			Capacity:           rm.Capacity,
			PriceCentsPerNight: rm.PriceCentsPerNight,
			IsListed:           rm.IsListed,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListHalls handles GET /v1/hotels/:id/halls.
func (h *CatalogHandler) ListHalls(c echo.Context) error {
	hotelID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	ctx := c.Request().Context()
	if _, err := h.HotelRepo.GetByID(ctx, hotelID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hotel not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	halls, err := h.HallRepo.ListByHotel(ctx, hotelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load halls"})
	}
	out := make([]PublicHall, 0, len(halls))
	for _, hl := range halls {
		out = append(out, PublicHall{
			ID:               hl.ID,
			Name:             hl.Name,
			Capacity:         hl.Capacity,
			PriceCentsPerDay: hl.PriceCentsPerDay,
			IsListed:         hl.IsListed,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
