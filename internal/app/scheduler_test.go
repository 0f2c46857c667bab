package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/repository/memory"
	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_CompletesOverdueRides(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rides := memory.NewRideRepository(store)
	bookings := memory.NewBookingRepository(store)
	users := memory.NewUserRepository(store)

	rideService := service.NewRideService(rides, zap.NewNop())
	bookingService := service.NewBookingService(store, rides, bookings, users, nil, service.BookingOptions{}, zap.NewNop())

	driver := &model.User{ID: uuid.New()}
	require.NoError(t, users.Create(ctx, driver))

	now := time.Now()
	newRide := func(departsAt time.Time) *model.Ride {
		r := &model.Ride{
			ID:             uuid.New(),
			DriverID:       driver.ID,
			DepartsAt:      departsAt,
			TotalSeats:     3,
			AvailableSeats: 3,
			Status:         model.RideStatusActive,
		}
		require.NoError(t, rides.Create(ctx, r))
		return r
	}
	overdue := newRide(now.Add(-13 * time.Hour))
	recent := newRide(now.Add(-1 * time.Hour))
	upcoming := newRide(now.Add(2 * time.Hour))

	s := NewScheduler(rideService, bookingService, time.Minute, 12*time.Hour, zap.NewNop())
	s.now = func() time.Time { return now }

	assert.Equal(t, 1, s.completeOverdueRides(ctx))

	for _, tc := range []struct {
		ride *model.Ride
		want model.RideStatus
	}{
		{overdue, model.RideStatusCompleted},
		{recent, model.RideStatusActive},
		{upcoming, model.RideStatusActive},
	} {
		got, err := rides.GetByID(ctx, tc.ride.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Status)
	}

	// a second pass has nothing left to do
	assert.Equal(t, 0, s.completeOverdueRides(ctx))
}

type stubFinder struct {
	rides []*model.Ride
	err   error
}

func (f stubFinder) ListDueForCompletion(context.Context, time.Time) ([]*model.Ride, error) {
	return f.rides, f.err
}

type stubCompleter struct {
	fail  map[uuid.UUID]bool
	calls []model.Caller
}

func (c *stubCompleter) CompleteRide(_ context.Context, caller model.Caller, id uuid.UUID) (*model.Ride, error) {
	c.calls = append(c.calls, caller)
	if c.fail[id] {
		return nil, errors.New("boom")
	}
	return &model.Ride{ID: id}, nil
}

func TestScheduler_ContinuesAfterFailure(t *testing.T) {
	bad, good := uuid.New(), uuid.New()
	completer := &stubCompleter{fail: map[uuid.UUID]bool{bad: true}}
	finder := stubFinder{rides: []*model.Ride{{ID: bad}, {ID: good}}}

	s := NewScheduler(finder, completer, time.Minute, time.Hour, zap.NewNop())

	assert.Equal(t, 1, s.completeOverdueRides(context.Background()))
	require.Len(t, completer.calls, 2)
	assert.True(t, completer.calls[0].IsSystem())
}

func TestScheduler_ListError(t *testing.T) {
	s := NewScheduler(stubFinder{err: errors.New("db down")}, &stubCompleter{}, time.Minute, time.Hour, zap.NewNop())
	assert.Equal(t, 0, s.completeOverdueRides(context.Background()))
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	s := NewScheduler(stubFinder{}, &stubCompleter{}, time.Hour, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
