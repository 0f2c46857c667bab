package http

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type updateProfileRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	Photo          *string `json:"photo" validate:"omitempty,max=500"`
	CarModel       *string `json:"car_model" validate:"omitempty,max=100"`
	CarNumber      *string `json:"car_number" validate:"omitempty,max=20"`
	TelegramChatID *int64  `json:"telegram_chat_id"`
}

// publicUser is what other users may see about someone.
type publicUser struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"name"`
	Photo                 string    `json:"photo,omitempty"`
	CarModel              string    `json:"car_model,omitempty"`
	Rating                float64   `json:"rating"`
	TotalRatings          int       `json:"total_ratings"`
	TotalRidesAsDriver    int       `json:"total_rides_as_driver"`
	TotalRidesAsPassenger int       `json:"total_rides_as_passenger"`
	CreatedAt             time.Time `json:"created_at"`
}

func toPublicUser(u *model.User) publicUser {
	return publicUser{
		ID:                    u.ID,
		Name:                  u.Name,
		Photo:                 u.Photo,
		CarModel:              u.CarModel,
		Rating:                u.Rating,
		TotalRatings:          u.TotalRatings,
		TotalRidesAsDriver:    u.TotalRidesAsDriver,
		TotalRidesAsPassenger: u.TotalRidesAsPassenger,
		CreatedAt:             u.CreatedAt,
	}
}

// GetProfile GET /api/users/profile
func (h *Handler) GetProfile(c echo.Context) error {
	user, err := h.users.GetProfile(c.Request().Context(), callerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile PUT /api/users/profile
func (h *Handler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), callerFrom(c), service.ProfilePatch{
		Name:           req.Name,
		Photo:          req.Photo,
		CarModel:       req.CarModel,
		CarNumber:      req.CarNumber,
		TelegramChatID: req.TelegramChatID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// GetUser GET /api/users/:id
func (h *Handler) GetUser(c echo.Context) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.users.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPublicUser(user))
}
