package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T, s *Store) *model.PrivateRequest {
	t.Helper()
	passenger := &model.User{ID: uuid.New()}
	require.NoError(t, NewUserRepository(s).Create(context.Background(), passenger))
	req := &model.PrivateRequest{
		ID:          uuid.New(),
		PassengerID: passenger.ID,
		SeatsNeeded: 1,
		Status:      model.PrivateRequestStatusActive,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, NewPrivateRequestRepository(s).Create(context.Background(), req))
	return req
}

func TestMarkResponded_NeedsExistingRide(t *testing.T) {
	s := NewStore()
	requests := NewPrivateRequestRepository(s)
	req := newRequest(t, s)
	ctx := context.Background()

	_, err := requests.MarkResponded(ctx, req.ID, uuid.New(), uuid.New())
	require.Error(t, err)

	ride := newRide(t, s, 1)
	ok, err := requests.MarkResponded(ctx, req.ID, ride.DriverID, ride.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PrivateRequestStatusResponded, got.Status)
	require.NotNil(t, got.RideOfferID)
	assert.Equal(t, ride.ID, *got.RideOfferID)

	// already answered
	ok, err = requests.MarkResponded(ctx, req.ID, ride.DriverID, ride.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBookingCreate_OneActivePerPassenger(t *testing.T) {
	s := NewStore()
	bookings := NewBookingRepository(s)
	ride := newRide(t, s, 3)
	passenger := uuid.New()
	ctx := context.Background()

	first := &model.Booking{ID: uuid.New(), RideID: ride.ID, PassengerID: passenger, Seats: 1, Status: model.BookingStatusPending}
	require.NoError(t, bookings.Create(ctx, first))

	second := &model.Booking{ID: uuid.New(), RideID: ride.ID, PassengerID: passenger, Seats: 1, Status: model.BookingStatusPending}
	assert.ErrorIs(t, bookings.Create(ctx, second), model.ErrAlreadyExists)

	_, err := bookings.SetStatus(ctx, first.ID, model.BookingStatusPending, model.BookingStatusCancelled)
	require.NoError(t, err)
	assert.NoError(t, bookings.Create(ctx, second))
}

func TestReviewCreate_Unique(t *testing.T) {
	s := NewStore()
	reviews := NewReviewRepository(s)
	ctx := context.Background()

	review := model.Review{RideID: uuid.New(), ReviewerID: uuid.New(), RevieweeID: uuid.New(), Rating: 4}
	first := review
	first.ID = uuid.New()
	require.NoError(t, reviews.Create(ctx, &first))

	again := review
	again.ID = uuid.New()
	assert.ErrorIs(t, reviews.Create(ctx, &again), model.ErrAlreadyExists)
}

func TestUpdates_MissingRecord(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := NewRideRepository(s).UpdateDetails(ctx, &model.Ride{ID: uuid.New()})
	assert.ErrorIs(t, err, model.ErrRecordNotFound)

	err = NewRideRepository(s).IncrementSeats(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, model.ErrRecordNotFound)

	err = NewUserRepository(s).UpdateProfile(ctx, &model.User{ID: uuid.New()})
	assert.ErrorIs(t, err, model.ErrRecordNotFound)

	err = NewUserRepository(s).UpdateRating(ctx, uuid.New(), 5, 1)
	assert.ErrorIs(t, err, model.ErrRecordNotFound)
}

func TestRideList_NewestFirst(t *testing.T) {
	s := NewStore()
	rides := NewRideRepository(s)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return created })
	first := newRide(t, s, 1)
	second := newRide(t, s, 1) // same timestamp
	created = created.Add(time.Minute)
	third := newRide(t, s, 1)

	list, err := rides.List(ctx, model.RideFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []uuid.UUID{third.ID, second.ID, first.ID}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})
}
