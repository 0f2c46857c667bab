package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/labstack/echo/v4"
)

type createPrivateRequestRequest struct {
	FromLocation string    `json:"from_location" validate:"required,max=255"`
	FromLat      float64   `json:"from_lat" validate:"gte=-90,lte=90"`
	FromLng      float64   `json:"from_lng" validate:"gte=-180,lte=180"`
	ToLocation   string    `json:"to_location" validate:"required,max=255"`
	ToLat        float64   `json:"to_lat" validate:"gte=-90,lte=90"`
	ToLng        float64   `json:"to_lng" validate:"gte=-180,lte=180"`
	PreferredAt  time.Time `json:"preferred_at" validate:"required"`
	SeatsNeeded  int       `json:"seats_needed" validate:"required,min=1,max=8"`
	Message      string    `json:"message" validate:"max=500"`
}

// CreatePrivateRequest POST /api/private-requests
func (h *Handler) CreatePrivateRequest(c echo.Context) error {
	var req createPrivateRequestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pr, err := h.requests.Create(c.Request().Context(), callerFrom(c), service.PrivateRequestInput{
		FromLocation: req.FromLocation,
		FromLat:      req.FromLat,
		FromLng:      req.FromLng,
		ToLocation:   req.ToLocation,
		ToLat:        req.ToLat,
		ToLng:        req.ToLng,
		PreferredAt:  req.PreferredAt,
		SeatsNeeded:  req.SeatsNeeded,
		Message:      req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pr)
}

// ListMyPrivateRequests GET /api/private-requests
func (h *Handler) ListMyPrivateRequests(c echo.Context) error {
	list, err := h.requests.ListMine(c.Request().Context(), callerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// ListNearbyPrivateRequests GET /api/private-requests/nearby?lat=&lng=
func (h *Handler) ListNearbyPrivateRequests(c echo.Context) error {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		return err
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		return err
	}
	if (lat == nil) != (lng == nil) {
		return echo.NewHTTPError(http.StatusBadRequest, "lat and lng must be given together")
	}

	list, err := h.requests.ListNearby(c.Request().Context(), callerFrom(c), lat, lng)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// RespondPrivateRequest POST /api/private-requests/:id/respond
func (h *Handler) RespondPrivateRequest(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	ride, err := h.requests.Respond(c.Request().Context(), callerFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ride)
}

// CancelPrivateRequest DELETE /api/private-requests/:id
func (h *Handler) CancelPrivateRequest(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.requests.Cancel(c.Request().Context(), callerFrom(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Detail: "Request cancelled"})
}

func queryFloat(c echo.Context, name string) (*float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &v, nil
}
