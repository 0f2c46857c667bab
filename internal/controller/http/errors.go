package http

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors,omitempty"`
}

// statusFor maps an error returned by a handler to an HTTP status and message.
func statusFor(err error) (int, ErrorResponse) {
	var validationErr *ValidationError
	var httpErr *echo.HTTPError

	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Detail: err.Error()}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Detail: err.Error()}
	case errors.Is(err, service.ErrInsufficientCapacity):
		return http.StatusConflict, ErrorResponse{Detail: err.Error()}
	case errors.Is(err, service.ErrInvalidOperation):
		return http.StatusBadRequest, ErrorResponse{Detail: err.Error()}
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, ErrorResponse{Detail: "validation failed", Errors: validationErr.Fields}
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, ErrorResponse{Detail: msg}
	}
	return http.StatusInternalServerError, ErrorResponse{Detail: "internal server error"}
}

// errorHandler replaces echo's default error handler
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, body := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		s.logger.Warn("Failed to write error response", zap.Error(err))
	}
}
