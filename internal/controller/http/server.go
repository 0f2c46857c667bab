package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Services groups the application services exposed over HTTP.
type Services struct {
	Users    *service.UserService
	Rides    *service.RideService
	Bookings *service.BookingService
	Requests *service.PrivateRequestService
	Chats    *service.ChatService
	Reviews  *service.ReviewService
}

type Server struct {
	echo    *echo.Echo
	addr    string
	handler *Handler
	auth    TokenResolver
	limiter RateLimiter
	logger  *zap.Logger
}

// NewServer builds the API. limiter may be nil to disable rate limiting.
func NewServer(addr string, services Services, auth TokenResolver, limiter RateLimiter, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	s := &Server{
		echo:    e,
		addr:    addr,
		handler: newHandler(services),
		auth:    auth,
		limiter: limiter,
		logger:  logger,
	}
	e.HTTPErrorHandler = s.errorHandler

	e.Use(s.accessLogMiddleware())
	e.Use(metricsMiddleware())
	e.Use(middleware.Recover())

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	h := s.handler

	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/health", h.Health)

	authed := api.Group("", s.authMiddleware())
	limited := s.rateLimitMiddleware()

	users := authed.Group("/users")
	users.GET("/profile", h.GetProfile)
	users.PUT("/profile", h.UpdateProfile)
	users.GET("/:id", h.GetUser)

	rides := authed.Group("/rides")
	rides.POST("", h.CreateRide)
	rides.GET("", h.ListRides)
	rides.GET("/my-rides", h.ListMyRides)
	rides.POST("/search", h.SearchRides)
	rides.GET("/:id", h.GetRide)
	rides.PUT("/:id", h.UpdateRide)
	rides.DELETE("/:id", h.CancelRide)
	rides.POST("/:id/complete", h.CompleteRide)

	bookings := authed.Group("/bookings")
	bookings.POST("", h.CreateBooking, limited)
	bookings.GET("", h.ListMyBookings)
	bookings.GET("/requests", h.ListIncomingBookings)
	bookings.GET("/:id", h.GetBooking)
	bookings.PUT("/:id/status", h.UpdateBookingStatus, limited)

	requests := authed.Group("/private-requests")
	requests.POST("", h.CreatePrivateRequest)
	requests.GET("", h.ListMyPrivateRequests)
	requests.GET("/nearby", h.ListNearbyPrivateRequests)
	requests.POST("/:id/respond", h.RespondPrivateRequest, limited)
	requests.DELETE("/:id", h.CancelPrivateRequest)

	chats := authed.Group("/chats")
	chats.POST("/message", h.SendMessage, limited)
	chats.GET("/:type/:id", h.ListMessages)

	reviews := authed.Group("/reviews")
	reviews.POST("", h.CreateReview)
	reviews.GET("/user/:userId", h.ListUserReviews)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.addr))
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}
