package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/carpool/internal/identity"
	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/repository"
	"github.com/Freeeeeet/carpool/internal/repository/memory"
	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	t      *testing.T
	server *Server
	tokens *identity.JWTProvider
	rides  *memory.RideRepository
}

func newTestEnv(t *testing.T, limiter RateLimiter) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()

	rideRepo := memory.NewRideRepository(store)
	bookingRepo := memory.NewBookingRepository(store)
	userRepo := memory.NewUserRepository(store)
	requestRepo := memory.NewPrivateRequestRepository(store)
	chatRepo := memory.NewChatRepository(store)
	reviewRepo := memory.NewReviewRepository(store)

	services := Services{
		Users:    service.NewUserService(userRepo, logger),
		Rides:    service.NewRideService(rideRepo, logger),
		Bookings: service.NewBookingService(store, rideRepo, bookingRepo, userRepo, nil, service.BookingOptions{}, logger),
		Requests: service.NewPrivateRequestService(store, requestRepo, rideRepo, service.PrivateRequestOptions{}, logger),
		Chats:    service.NewChatService(chatRepo, bookingRepo, rideRepo, requestRepo, logger),
		Reviews:  service.NewReviewService(store, reviewRepo, rideRepo, bookingRepo, userRepo, logger),
	}

	tokens := identity.NewJWTProvider("test-secret", "carpool", time.Hour)
	return &testEnv{
		t:      t,
		server: NewServer(":0", services, tokens, limiter, logger),
		tokens: tokens,
		rides:  rideRepo,
	}
}

func (e *testEnv) token(id uuid.UUID) string {
	tok, _, err := e.tokens.Issue(id, "+7900"+id.String()[:7], model.RoleUser)
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) do(method, path string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+e.token(user))
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func rideBody(seats int) map[string]any {
	return map[string]any{
		"pickup_location": "Central station",
		"pickup_lat":      55.75,
		"pickup_lng":      37.61,
		"drop_location":   "Airport",
		"drop_lat":        55.97,
		"drop_lng":        37.41,
		"departs_at":      time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"seats":           seats,
		"price_per_seat":  300,
	}
}

func (e *testEnv) createRide(driver uuid.UUID, seats int) model.Ride {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/rides", driver, rideBody(seats))
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Ride](e.t, rec)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodGet, "/api/health", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/users/profile", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, header := range []string{"Token abc", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}

	// first authenticated call creates the profile
	id := uuid.New()
	rec = env.do(http.MethodGet, "/api/users/profile", id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode[model.User](t, rec)
	assert.Equal(t, id, user.ID)
	assert.NotEmpty(t, user.Phone)
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	driver, passenger := uuid.New(), uuid.New()

	ride := env.createRide(driver, 3)
	assert.Equal(t, 3, ride.AvailableSeats)
	assert.Equal(t, model.RideStatusActive, ride.Status)

	rec := env.do(http.MethodPost, "/api/bookings", passenger, map[string]any{
		"ride_id": ride.ID,
		"seats":   2,
		"message": "two of us",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode[model.Booking](t, rec)
	assert.Equal(t, model.BookingStatusPending, booking.Status)

	// driver sees it among incoming requests
	rec = env.do(http.MethodGet, "/api/bookings/requests", driver, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Booking](t, rec), 1)

	// passenger cannot accept their own booking
	rec = env.do(http.MethodPut, "/api/bookings/"+booking.ID.String()+"/status", passenger, map[string]any{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPut, "/api/bookings/"+booking.ID.String()+"/status", driver, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.BookingStatusAccepted, decode[model.Booking](t, rec).Status)

	rec = env.do(http.MethodGet, "/api/rides/"+ride.ID.String(), passenger, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[model.Ride](t, rec).AvailableSeats)

	// a second accept is not a valid transition
	rec = env.do(http.MethodPut, "/api/bookings/"+booking.ID.String()+"/status", driver, map[string]any{"status": "accepted"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/rides/"+ride.ID.String()+"/complete", driver, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.RideStatusCompleted, decode[model.Ride](t, rec).Status)

	rec = env.do(http.MethodGet, "/api/bookings/"+booking.ID.String(), passenger, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.BookingStatusCompleted, decode[model.Booking](t, rec).Status)
}

func TestCreateBookingErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	driver, passenger := uuid.New(), uuid.New()
	ride := env.createRide(driver, 2)

	tests := []struct {
		name   string
		user   uuid.UUID
		body   map[string]any
		status int
		detail string
	}{
		{"zero seats", passenger, map[string]any{"ride_id": ride.ID, "seats": 0}, http.StatusBadRequest, service.ErrInvalidSeats.Error()},
		{"too many seats", passenger, map[string]any{"ride_id": ride.ID, "seats": 3}, http.StatusConflict, ""},
		{"own ride", driver, map[string]any{"ride_id": ride.ID, "seats": 1}, http.StatusBadRequest, service.ErrOwnRide.Error()},
		{"unknown ride", passenger, map[string]any{"ride_id": uuid.New(), "seats": 1}, http.StatusNotFound, "ride not found"},
		{"missing ride id", passenger, map[string]any{"seats": 1}, http.StatusUnprocessableEntity, "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/bookings", tt.user, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.detail != "" {
				assert.Equal(t, tt.detail, decode[ErrorResponse](t, rec).Detail)
			}
		})
	}
}

func TestCreateRideValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	body := rideBody(9)
	delete(body, "pickup_location")

	rec := env.do(http.MethodPost, "/api/rides", uuid.New(), body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	fields := map[string]string{}
	for _, f := range resp.Errors {
		fields[f.Field] = f.Code
	}
	assert.Equal(t, "required", fields["pickup_location"])
	assert.Equal(t, "max", fields["seats"])
}

func TestBadRequests(t *testing.T) {
	env := newTestEnv(t, nil)
	user := uuid.New()

	rec := env.do(http.MethodGet, "/api/rides/not-a-uuid", user, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/rides?status=flying", user, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token(user))
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decode[ErrorResponse](t, rec).Detail)
}

func TestGetBookingForbiddenForOutsider(t *testing.T) {
	env := newTestEnv(t, nil)
	driver, passenger := uuid.New(), uuid.New()
	ride := env.createRide(driver, 2)

	rec := env.do(http.MethodPost, "/api/bookings", passenger, map[string]any{"ride_id": ride.ID, "seats": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	booking := decode[model.Booking](t, rec)

	rec = env.do(http.MethodGet, "/api/bookings/"+booking.ID.String(), uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/bookings/"+uuid.NewString(), passenger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelRide(t *testing.T) {
	env := newTestEnv(t, nil)
	driver := uuid.New()
	ride := env.createRide(driver, 4)

	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodPost, "/api/bookings", uuid.New(), map[string]any{"ride_id": ride.ID, "seats": 1})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(http.MethodDelete, "/api/rides/"+ride.ID.String(), uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodDelete, "/api/rides/"+ride.ID.String(), driver, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[cancelRideResponse](t, rec)
	assert.Equal(t, "Ride cancelled", resp.Detail)
	assert.EqualValues(t, 2, resp.CancelledBookings)

	stored, err := env.rides.GetByID(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RideStatusCancelled, stored.Status)
}

func TestSearchRides(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createRide(uuid.New(), 1)
	env.createRide(uuid.New(), 3)

	rec := env.do(http.MethodPost, "/api/rides/search", uuid.New(), map[string]any{"seats_needed": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Ride](t, rec), 1)

	rec = env.do(http.MethodPost, "/api/rides/search", uuid.New(), map[string]any{"pickup_lat": 55.0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/rides/search", uuid.New(), map[string]any{"date": "tomorrow"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetUserHidesContacts(t *testing.T) {
	env := newTestEnv(t, nil)
	owner, viewer := uuid.New(), uuid.New()

	chatID := int64(12345)
	rec := env.do(http.MethodPut, "/api/users/profile", owner, map[string]any{
		"name":             "Anna",
		"telegram_chat_id": chatID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/users/"+owner.String(), viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "Anna", raw["name"])
	assert.NotContains(t, raw, "phone")
	assert.NotContains(t, raw, "telegram_chat_id")

	rec = env.do(http.MethodGet, "/api/users/"+uuid.NewString(), viewer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrivateRequestRespond(t *testing.T) {
	env := newTestEnv(t, nil)
	passenger, driver := uuid.New(), uuid.New()

	rec := env.do(http.MethodPost, "/api/private-requests", passenger, map[string]any{
		"from_location": "Home",
		"from_lat":      55.75,
		"from_lng":      37.61,
		"to_location":   "Office",
		"to_lat":        55.70,
		"to_lng":        37.50,
		"preferred_at":  time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339),
		"seats_needed":  1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pr := decode[model.PrivateRequest](t, rec)

	rec = env.do(http.MethodGet, "/api/private-requests/nearby?lat=55.7501&lng=37.6101", driver, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.PrivateRequest](t, rec), 1)

	rec = env.do(http.MethodGet, "/api/private-requests/nearby?lat=55.75", driver, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/private-requests/"+pr.ID.String()+"/respond", driver, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ride := decode[model.Ride](t, rec)
	assert.Equal(t, driver, ride.DriverID)

	// chat between passenger and responding driver is open
	rec = env.do(http.MethodPost, "/api/chats/message", passenger, map[string]any{
		"request_id": pr.ID,
		"content":    "See you at the entrance",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, fmt.Sprintf("/api/chats/request/%s", pr.ID), driver, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode[[]model.ChatMessage](t, rec)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Read)

	rec = env.do(http.MethodPost, "/api/private-requests/"+pr.ID.String()+"/respond", uuid.New(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := newTestEnv(t, repository.NewRateLimiter(client, 2, time.Minute))
	passenger := uuid.New()
	body := map[string]any{"ride_id": uuid.New(), "seats": 1}

	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodPost, "/api/bookings", passenger, body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec := env.do(http.MethodPost, "/api/bookings", passenger, body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// other callers have their own budget
	rec = env.do(http.MethodPost, "/api/bookings", uuid.New(), body)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// unlimited routes are not counted
	rec = env.do(http.MethodGet, "/api/bookings", passenger, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	env := newTestEnv(t, repository.NewRateLimiter(client, 1, time.Minute))
	rec := env.do(http.MethodPost, "/api/bookings", uuid.New(), map[string]any{"ride_id": uuid.New(), "seats": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
