package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRide(t *testing.T, s *Store, seats int) *model.Ride {
	t.Helper()
	driver := &model.User{ID: uuid.New()}
	require.NoError(t, NewUserRepository(s).Create(context.Background(), driver))
	r := &model.Ride{
		ID:             uuid.New(),
		DriverID:       driver.ID,
		TotalSeats:     seats,
		AvailableSeats: seats,
		Status:         model.RideStatusActive,
	}
	require.NoError(t, NewRideRepository(s).Create(context.Background(), r))
	return r
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	rides := NewRideRepository(s)
	ride := newRide(t, s, 3)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := rides.TryDecrementSeats(ctx, ride.ID, 2)
		require.NoError(t, err)
		require.True(t, ok)
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	got, err := rides.GetByID(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableSeats)
}

func TestWithinTx_Commits(t *testing.T) {
	s := NewStore()
	rides := NewRideRepository(s)
	ride := newRide(t, s, 3)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		// nested calls reuse the outer transaction
		return s.WithinTx(ctx, func(ctx context.Context) error {
			_, err := rides.TryDecrementSeats(ctx, ride.ID, 1)
			return err
		})
	})
	require.NoError(t, err)

	got, err := rides.GetByID(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableSeats)
	require.NotNil(t, got.Driver)
	assert.Equal(t, ride.DriverID, got.Driver.ID)
}

func TestTryDecrementSeats(t *testing.T) {
	s := NewStore()
	rides := NewRideRepository(s)
	ride := newRide(t, s, 2)
	ctx := context.Background()

	ok, err := rides.TryDecrementSeats(ctx, ride.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rides.TryDecrementSeats(ctx, ride.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, rides.IncrementSeats(ctx, ride.ID, 5))
	got, err := rides.GetByID(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableSeats, "never above total")

	changed, err := rides.SetStatus(ctx, ride.ID, model.RideStatusActive, model.RideStatusCancelled)
	require.NoError(t, err)
	assert.True(t, changed)

	ok, err = rides.TryDecrementSeats(ctx, ride.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok, "inactive ride")
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := NewStore()
	rides := NewRideRepository(s)
	ride := newRide(t, s, 2)
	ctx := context.Background()

	got, err := rides.GetByID(ctx, ride.ID)
	require.NoError(t, err)
	got.AvailableSeats = 0

	again, err := rides.GetByID(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.AvailableSeats)
}
