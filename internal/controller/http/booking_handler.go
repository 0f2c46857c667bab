package http

import (
	"net/http"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// seats is checked by the service so that 0 and negatives give a 400, not a 422
type createBookingRequest struct {
	RideID  uuid.UUID `json:"ride_id" validate:"required"`
	Seats   int       `json:"seats"`
	Message string    `json:"message" validate:"max=500"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateBooking POST /api/bookings
func (h *Handler) CreateBooking(c echo.Context) error {
	var req createBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	booking, err := h.bookings.CreateBooking(c.Request().Context(), callerFrom(c), req.RideID, req.Seats, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, booking)
}

// ListMyBookings GET /api/bookings
func (h *Handler) ListMyBookings(c echo.Context) error {
	bookings, err := h.bookings.ListMyBookings(c.Request().Context(), callerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bookings)
}

// ListIncomingBookings GET /api/bookings/requests
func (h *Handler) ListIncomingBookings(c echo.Context) error {
	bookings, err := h.bookings.ListIncoming(c.Request().Context(), callerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bookings)
}

// GetBooking GET /api/bookings/:id
func (h *Handler) GetBooking(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	booking, err := h.bookings.GetBooking(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, booking)
}

// UpdateBookingStatus PUT /api/bookings/:id/status
func (h *Handler) UpdateBookingStatus(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req updateBookingStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	booking, err := h.bookings.UpdateBookingStatus(c.Request().Context(), callerFrom(c), id, model.BookingStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, booking)
}
