package http

import (
	"net/http"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type sendMessageRequest struct {
	BookingID *uuid.UUID `json:"booking_id"`
	RequestID *uuid.UUID `json:"request_id"`
	Content   string     `json:"content" validate:"required,max=2000"`
}

// SendMessage POST /api/chats/message
func (h *Handler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.chats.Send(c.Request().Context(), callerFrom(c), service.ChatTarget{
		BookingID: req.BookingID,
		RequestID: req.RequestID,
	}, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

// ListMessages GET /api/chats/:type/:id
func (h *Handler) ListMessages(c echo.Context) error {
	kind := model.ChatKind(c.Param("type"))
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	messages, err := h.chats.List(c.Request().Context(), callerFrom(c), kind, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messages)
}
