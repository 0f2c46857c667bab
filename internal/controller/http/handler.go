package http

import (
	"net/http"

	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler holds the HTTP endpoints. Methods are grouped by resource in separate files.
type Handler struct {
	users    *service.UserService
	rides    *service.RideService
	bookings *service.BookingService
	requests *service.PrivateRequestService
	chats    *service.ChatService
	reviews  *service.ReviewService
}

func newHandler(s Services) *Handler {
	return &Handler{
		users:    s.Users,
		rides:    s.Rides,
		bookings: s.Bookings,
		requests: s.Requests,
		chats:    s.Chats,
		reviews:  s.Reviews,
	}
}

type messageResponse struct {
	Detail string `json:"detail"`
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// bindAndValidate decodes the request into dst and runs struct validation on it
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(dst)
}

func paramUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
