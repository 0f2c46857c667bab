package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
)

type RideRepository struct {
	s *Store
}

func NewRideRepository(s *Store) *RideRepository {
	return &RideRepository{s: s}
}

func (r *RideRepository) Create(ctx context.Context, ride *model.Ride) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.d.rides[ride.ID]; ok {
		return fmt.Errorf("ride %s already exists", ride.ID)
	}
	now := r.s.now()
	ride.CreatedAt = now
	ride.UpdatedAt = now
	r.s.d.rides[ride.ID] = copyRide(ride)
	r.s.d.rideOrder = append(r.s.d.rideOrder, ride.ID)
	return nil
}

func (r *RideRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Ride, error) {
	defer r.s.lock(ctx)()
	return r.withDriver(r.s.d.rides[id]), nil
}

func (r *RideRepository) UpdateDetails(ctx context.Context, ride *model.Ride) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.d.rides[ride.ID]
	if !ok {
		return fmt.Errorf("update ride %s: %w", ride.ID, model.ErrRecordNotFound)
	}
	// seats and status are owned by the booking lifecycle
	updated := copyRide(ride)
	updated.DriverID = stored.DriverID
	updated.TotalSeats = stored.TotalSeats
	updated.AvailableSeats = stored.AvailableSeats
	updated.Status = stored.Status
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = r.s.now()
	r.s.d.rides[ride.ID] = updated

	ride.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *RideRepository) List(ctx context.Context, filter model.RideFilter) ([]*model.Ride, error) {
	defer r.s.lock(ctx)()

	// newest first; equal timestamps fall back to reverse insertion order
	rides := make([]*model.Ride, 0)
	for i := len(r.s.d.rideOrder) - 1; i >= 0; i-- {
		ride := r.s.d.rides[r.s.d.rideOrder[i]]
		if !matchRide(ride, filter) {
			continue
		}
		rides = append(rides, r.withDriver(ride))
	}
	sort.SliceStable(rides, func(i, j int) bool {
		return rides[i].CreatedAt.After(rides[j].CreatedAt)
	})
	return rides, nil
}

func matchRide(ride *model.Ride, f model.RideFilter) bool {
	if f.Status != "" && ride.Status != f.Status {
		return false
	}
	if f.DriverID != uuid.Nil && ride.DriverID != f.DriverID {
		return false
	}
	if f.MinSeats > 0 && ride.AvailableSeats < f.MinSeats {
		return false
	}
	if !f.DepartsFrom.IsZero() && ride.DepartsAt.Before(f.DepartsFrom) {
		return false
	}
	if !f.DepartsTo.IsZero() && !ride.DepartsAt.Before(f.DepartsTo) {
		return false
	}
	return true
}

func (r *RideRepository) ListDepartedBefore(ctx context.Context, before time.Time) ([]*model.Ride, error) {
	return r.List(ctx, model.RideFilter{
		Status:    model.RideStatusActive,
		DepartsTo: before,
	})
}

func (r *RideRepository) TryDecrementSeats(ctx context.Context, id uuid.UUID, n int) (bool, error) {
	defer r.s.lock(ctx)()

	ride, ok := r.s.d.rides[id]
	if !ok || ride.Status != model.RideStatusActive || ride.AvailableSeats < n {
		return false, nil
	}
	ride.AvailableSeats -= n
	ride.UpdatedAt = r.s.now()
	return true, nil
}

func (r *RideRepository) IncrementSeats(ctx context.Context, id uuid.UUID, n int) error {
	defer r.s.lock(ctx)()

	ride, ok := r.s.d.rides[id]
	if !ok {
		return fmt.Errorf("increment seats of ride %s: %w", id, model.ErrRecordNotFound)
	}
	ride.AvailableSeats = min(ride.AvailableSeats+n, ride.TotalSeats)
	ride.UpdatedAt = r.s.now()
	return nil
}

func (r *RideRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to model.RideStatus) (bool, error) {
	defer r.s.lock(ctx)()

	ride, ok := r.s.d.rides[id]
	if !ok || ride.Status != from {
		return false, nil
	}
	ride.Status = to
	ride.UpdatedAt = r.s.now()
	return true, nil
}

func (r *RideRepository) CancelBookingsForRide(ctx context.Context, id uuid.UUID, from []model.BookingStatus) (int64, error) {
	defer r.s.lock(ctx)()
	return r.moveBookings(id, from, model.BookingStatusCancelled), nil
}

func (r *RideRepository) CompleteBookingsForRide(ctx context.Context, id uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()
	return r.moveBookings(id, []model.BookingStatus{model.BookingStatusAccepted}, model.BookingStatusCompleted), nil
}

func (r *RideRepository) moveBookings(rideID uuid.UUID, from []model.BookingStatus, to model.BookingStatus) int64 {
	var n int64
	now := r.s.now()
	for _, b := range r.s.d.bookings {
		if b.RideID != rideID || !hasStatus(from, b.Status) {
			continue
		}
		b.Status = to
		b.UpdatedAt = now
		n++
	}
	return n
}

// withDriver returns a copy of ride with its driver attached. Caller holds the lock.
func (r *RideRepository) withDriver(ride *model.Ride) *model.Ride {
	if ride == nil {
		return nil
	}
	c := copyRide(ride)
	c.Driver = copyUser(r.s.d.users[ride.DriverID])
	return c
}

func hasStatus(list []model.BookingStatus, st model.BookingStatus) bool {
	for _, s := range list {
		if s == st {
			return true
		}
	}
	return false
}
