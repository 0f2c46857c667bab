package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type createReviewRequest struct {
	RideID     uuid.UUID `json:"ride_id" validate:"required"`
	RevieweeID uuid.UUID `json:"reviewee_id" validate:"required"`
	Rating     int       `json:"rating" validate:"required,min=1,max=5"`
	Comment    string    `json:"comment" validate:"max=1000"`
}

// CreateReview POST /api/reviews
func (h *Handler) CreateReview(c echo.Context) error {
	var req createReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	review, err := h.reviews.CreateReview(c.Request().Context(), callerFrom(c), req.RideID, req.RevieweeID, req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, review)
}

// ListUserReviews GET /api/reviews/user/:userId
func (h *Handler) ListUserReviews(c echo.Context) error {
	id, err := paramUUID(c, "userId")
	if err != nil {
		return err
	}

	reviews, err := h.reviews.ListForUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviews)
}
