package http

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/labstack/echo/v4"
)

type createRideRequest struct {
	PickupLocation string    `json:"pickup_location" validate:"required,max=255"`
	PickupLat      float64   `json:"pickup_lat" validate:"gte=-90,lte=90"`
	PickupLng      float64   `json:"pickup_lng" validate:"gte=-180,lte=180"`
	DropLocation   string    `json:"drop_location" validate:"required,max=255"`
	DropLat        float64   `json:"drop_lat" validate:"gte=-90,lte=90"`
	DropLng        float64   `json:"drop_lng" validate:"gte=-180,lte=180"`
	DepartsAt      time.Time `json:"departs_at" validate:"required"`
	Seats          int       `json:"seats" validate:"required,min=1,max=8"`
	PricePerSeat   float64   `json:"price_per_seat" validate:"gte=0"`
	CarModel       string    `json:"car_model" validate:"max=100"`
	CarNumber      string    `json:"car_number" validate:"max=20"`
	Notes          string    `json:"notes" validate:"max=1000"`
}

type updateRideRequest struct {
	PickupLocation *string    `json:"pickup_location" validate:"omitempty,min=1,max=255"`
	PickupLat      *float64   `json:"pickup_lat" validate:"omitempty,gte=-90,lte=90"`
	PickupLng      *float64   `json:"pickup_lng" validate:"omitempty,gte=-180,lte=180"`
	DropLocation   *string    `json:"drop_location" validate:"omitempty,min=1,max=255"`
	DropLat        *float64   `json:"drop_lat" validate:"omitempty,gte=-90,lte=90"`
	DropLng        *float64   `json:"drop_lng" validate:"omitempty,gte=-180,lte=180"`
	DepartsAt      *time.Time `json:"departs_at"`
	PricePerSeat   *float64   `json:"price_per_seat" validate:"omitempty,gte=0"`
	CarModel       *string    `json:"car_model" validate:"omitempty,max=100"`
	CarNumber      *string    `json:"car_number" validate:"omitempty,max=20"`
	Notes          *string    `json:"notes" validate:"omitempty,max=1000"`
}

type searchRidesRequest struct {
	PickupLat   *float64 `json:"pickup_lat" validate:"omitempty,gte=-90,lte=90"`
	PickupLng   *float64 `json:"pickup_lng" validate:"omitempty,gte=-180,lte=180"`
	Date        string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	SeatsNeeded int      `json:"seats_needed" validate:"omitempty,min=1,max=8"`
}

type cancelRideResponse struct {
	Detail            string `json:"detail"`
	CancelledBookings int64  `json:"cancelled_bookings"`
}

// CreateRide POST /api/rides
func (h *Handler) CreateRide(c echo.Context) error {
	var req createRideRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ride, err := h.rides.CreateRide(c.Request().Context(), callerFrom(c), service.RideInput{
		PickupLocation: req.PickupLocation,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DropLocation:   req.DropLocation,
		DropLat:        req.DropLat,
		DropLng:        req.DropLng,
		DepartsAt:      req.DepartsAt,
		Seats:          req.Seats,
		PricePerSeat:   req.PricePerSeat,
		CarModel:       req.CarModel,
		CarNumber:      req.CarNumber,
		Notes:          req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ride)
}

// ListRides GET /api/rides?status=
func (h *Handler) ListRides(c echo.Context) error {
	status := model.RideStatus(c.QueryParam("status"))
	switch status {
	case "", model.RideStatusActive, model.RideStatusCancelled, model.RideStatusCompleted:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	rides, err := h.rides.ListRides(c.Request().Context(), status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rides)
}

// ListMyRides GET /api/rides/my-rides
func (h *Handler) ListMyRides(c echo.Context) error {
	rides, err := h.rides.ListMyRides(c.Request().Context(), callerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rides)
}

// SearchRides POST /api/rides/search
func (h *Handler) SearchRides(c echo.Context) error {
	var req searchRidesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if (req.PickupLat == nil) != (req.PickupLng == nil) {
		return echo.NewHTTPError(http.StatusBadRequest, "pickup_lat and pickup_lng must be given together")
	}

	q := model.RideSearch{
		PickupLat:   req.PickupLat,
		PickupLng:   req.PickupLng,
		SeatsNeeded: req.SeatsNeeded,
	}
	if req.Date != "" {
		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		q.Date = &date
	}

	rides, err := h.rides.SearchRides(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rides)
}

// GetRide GET /api/rides/:id
func (h *Handler) GetRide(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	ride, err := h.rides.GetRide(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ride)
}

// UpdateRide PUT /api/rides/:id
func (h *Handler) UpdateRide(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req updateRideRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ride, err := h.rides.UpdateRide(c.Request().Context(), callerFrom(c), id, service.RidePatch{
		PickupLocation: req.PickupLocation,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		DropLocation:   req.DropLocation,
		DropLat:        req.DropLat,
		DropLng:        req.DropLng,
		DepartsAt:      req.DepartsAt,
		PricePerSeat:   req.PricePerSeat,
		CarModel:       req.CarModel,
		CarNumber:      req.CarNumber,
		Notes:          req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ride)
}

// CancelRide DELETE /api/rides/:id
func (h *Handler) CancelRide(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	n, err := h.bookings.CancelRide(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cancelRideResponse{
		Detail:            "Ride cancelled",
		CancelledBookings: n,
	})
}

// CompleteRide POST /api/rides/:id/complete
func (h *Handler) CompleteRide(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	ride, err := h.bookings.CompleteRide(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ride)
}
