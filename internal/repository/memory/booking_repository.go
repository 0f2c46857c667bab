package memory

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
)

type BookingRepository struct {
	s *Store
}

func NewBookingRepository(s *Store) *BookingRepository {
	return &BookingRepository{s: s}
}

func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.d.rides[booking.RideID]; !ok {
		return fmt.Errorf("ride %s does not exist", booking.RideID)
	}
	if booking.Status.IsActive() {
		for _, b := range r.s.d.bookings {
			if b.RideID == booking.RideID && b.PassengerID == booking.PassengerID && b.Status.IsActive() {
				return fmt.Errorf("create booking: %w", model.ErrAlreadyExists)
			}
		}
	}
	now := r.s.now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.s.d.bookings[booking.ID] = copyBooking(booking)
	r.s.d.bookingOrder = append(r.s.d.bookingOrder, booking.ID)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	defer r.s.lock(ctx)()
	return copyBooking(r.s.d.bookings[id]), nil
}

func (r *BookingRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) (*model.Booking, error) {
	defer r.s.lock(ctx)()

	booking, ok := r.s.d.bookings[id]
	if !ok || booking.Status != from {
		return nil, nil
	}
	booking.Status = to
	booking.UpdatedAt = r.s.now()
	return copyBooking(booking), nil
}

// ListByPassenger returns the passenger's bookings with rides attached, newest first.
func (r *BookingRepository) ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*model.Booking, error) {
	defer r.s.lock(ctx)()

	return r.collect(func(b *model.Booking) bool {
		return b.PassengerID == passengerID
	}), nil
}

// ListByDriverRides returns bookings on the driver's rides with passengers attached, newest first.
func (r *BookingRepository) ListByDriverRides(ctx context.Context, driverID uuid.UUID) ([]*model.Booking, error) {
	defer r.s.lock(ctx)()

	return r.collect(func(b *model.Booking) bool {
		ride := r.s.d.rides[b.RideID]
		return ride != nil && ride.DriverID == driverID
	}), nil
}

func (r *BookingRepository) ListByRide(ctx context.Context, rideID uuid.UUID, statuses []model.BookingStatus) ([]*model.Booking, error) {
	defer r.s.lock(ctx)()

	return r.collect(func(b *model.Booking) bool {
		return b.RideID == rideID && (len(statuses) == 0 || hasStatus(statuses, b.Status))
	}), nil
}

func (r *BookingRepository) HasActive(ctx context.Context, rideID, passengerID uuid.UUID) (bool, error) {
	defer r.s.lock(ctx)()
	return r.exists(rideID, passengerID, model.BookingStatusPending, model.BookingStatusAccepted), nil
}

func (r *BookingRepository) HasCompleted(ctx context.Context, rideID, passengerID uuid.UUID) (bool, error) {
	defer r.s.lock(ctx)()
	return r.exists(rideID, passengerID, model.BookingStatusCompleted), nil
}

func (r *BookingRepository) exists(rideID, passengerID uuid.UUID, statuses ...model.BookingStatus) bool {
	for _, b := range r.s.d.bookings {
		if b.RideID == rideID && b.PassengerID == passengerID && hasStatus(statuses, b.Status) {
			return true
		}
	}
	return false
}

// collect walks bookings newest first. Caller holds the lock.
func (r *BookingRepository) collect(match func(b *model.Booking) bool) []*model.Booking {
	result := make([]*model.Booking, 0)
	order := r.s.d.bookingOrder
	for i := len(order) - 1; i >= 0; i-- {
		b := r.s.d.bookings[order[i]]
		if !match(b) {
			continue
		}
		c := copyBooking(b)
		c.Ride = copyRide(r.s.d.rides[b.RideID])
		c.Passenger = copyUser(r.s.d.users[b.PassengerID])
		result = append(result, c)
	}
	return result
}
