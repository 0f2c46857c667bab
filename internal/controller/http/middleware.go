package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/carpool/internal/metrics"
	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/repository"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const callerKey = "caller"

// TokenResolver turns a bearer token into a caller.
type TokenResolver interface {
	Resolve(token string) (model.Caller, error)
}

// RateLimiter decides whether a request under key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (repository.RateDecision, error)
}

func callerFrom(c echo.Context) model.Caller {
	caller, _ := c.Get(callerKey).(model.Caller)
	return caller
}

// authMiddleware resolves the caller and makes sure a profile exists for it.
func (s *Server) authMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header is required")
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			caller, err := s.auth.Resolve(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if _, err := s.handler.users.EnsureUser(c.Request().Context(), caller); err != nil {
				return err
			}

			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

// rateLimitMiddleware limits requests per caller and route. Limiter failures let the request through.
func (s *Server) rateLimitMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.limiter == nil {
				return next(c)
			}

			identifier := c.RealIP()
			if caller := callerFrom(c); caller.Role != "" {
				identifier = caller.ID.String()
			}
			key := c.Request().Method + ":" + c.Path() + ":" + identifier

			decision, err := s.limiter.Allow(c.Request().Context(), key)
			if err != nil {
				s.logger.Warn("Rate limiter unavailable", zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				h.Set("Retry-After", strconv.Itoa(int(decision.ResetIn.Seconds())))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}

// metricsMiddleware records request count and latency per route.
func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method

			metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}

// accessLogMiddleware writes one log line per request.
func (s *Server) accessLogMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("client_ip", c.RealIP()),
			}
			if caller := callerFrom(c); caller.Role != "" {
				fields = append(fields, zap.String("user_id", caller.ID.String()))
			}

			switch {
			case status >= http.StatusInternalServerError:
				s.logger.Error("Server error", fields...)
			case status >= http.StatusBadRequest:
				s.logger.Warn("Client error", fields...)
			default:
				s.logger.Info("Request processed", fields...)
			}

			return nil
		}
	}
}
