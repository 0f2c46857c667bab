package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/carpool/internal/metrics"
	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingOptions are product switches of the booking lifecycle.
type BookingOptions struct {
	// RestoreSeatsOnCancel gives the seats of an accepted booking back to the
	// ride when that booking is cancelled. Off by default: cancelled seats stay spent.
	RestoreSeatsOnCancel bool
}

// BookingService owns the booking state machine and the seat bookkeeping of rides.
type BookingService struct {
	tx          Transactor
	rideRepo    RideRepository
	bookingRepo BookingRepository
	userRepo    UserRepository
	notifier    Notifier
	opts        BookingOptions
	logger      *zap.Logger
}

func NewBookingService(
	tx Transactor,
	rideRepo RideRepository,
	bookingRepo BookingRepository,
	userRepo UserRepository,
	notifier Notifier,
	opts BookingOptions,
	logger *zap.Logger,
) *BookingService {
	if notifier == nil {
		notifier = NoopNotifier
	}
	return &BookingService{
		tx:          tx,
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		opts:        opts,
		logger:      logger,
	}
}

// CreateBooking requests seats on a ride. Seats are not deducted until the driver accepts.
func (s *BookingService) CreateBooking(ctx context.Context, caller model.Caller, rideID uuid.UUID, seats int, message string) (*model.Booking, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, fmt.Errorf("get ride: %w", err)
	}
	if ride == nil {
		return nil, ErrRideNotFound
	}

	if ride.DriverID == caller.ID {
		return nil, ErrOwnRide
	}
	if seats < 1 {
		return nil, ErrInvalidSeats
	}
	if !ride.IsActive() {
		return nil, ErrRideNotActive
	}
	if seats > ride.AvailableSeats {
		return nil, fmt.Errorf("%w: only %d left", ErrInsufficientCapacity, ride.AvailableSeats)
	}

	exists, err := s.bookingRepo.HasActive(ctx, rideID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing booking: %w", err)
	}
	if exists {
		return nil, ErrDuplicateBooking
	}

	booking := &model.Booking{
		ID:          uuid.New(),
		RideID:      rideID,
		PassengerID: caller.ID,
		Seats:       seats,
		Status:      model.BookingStatusPending,
		Message:     message,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil, ErrDuplicateBooking
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.BookingTransition("", string(booking.Status))
	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("ride_id", rideID.String()),
		zap.String("passenger_id", caller.ID.String()),
		zap.Int("seats", seats),
	)

	s.notify(ctx, model.BookingEventCreated, ride.DriverID, booking, ride)

	return booking, nil
}

// GetBooking returns a booking visible to either of its two parties.
func (s *BookingService) GetBooking(ctx context.Context, caller model.Caller, bookingID uuid.UUID) (*model.Booking, error) {
	booking, ride, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PassengerID != caller.ID && ride.DriverID != caller.ID {
		return nil, ErrNotBookingParty
	}
	booking.Ride = ride
	return booking, nil
}

// ListMyBookings returns the caller's bookings as a passenger
func (s *BookingService) ListMyBookings(ctx context.Context, caller model.Caller) ([]*model.Booking, error) {
	return s.bookingRepo.ListByPassenger(ctx, caller.ID)
}

// ListIncoming returns bookings on rides driven by the caller
func (s *BookingService) ListIncoming(ctx context.Context, caller model.Caller) ([]*model.Booking, error) {
	return s.bookingRepo.ListByDriverRides(ctx, caller.ID)
}

// UpdateBookingStatus moves a booking along the state machine on behalf of the caller.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, caller model.Caller, bookingID uuid.UUID, target model.BookingStatus) (*model.Booking, error) {
	booking, ride, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	isDriver := ride.DriverID == caller.ID
	isPassenger := booking.PassengerID == caller.ID
	if !isDriver && !isPassenger {
		return nil, ErrNotBookingParty
	}

	if _, ok := model.ParseBookingStatus(string(target)); !ok {
		return nil, ErrInvalidStatus
	}

	switch target {
	case model.BookingStatusAccepted, model.BookingStatusRejected, model.BookingStatusCompleted:
		if !isDriver {
			return nil, ErrNotRideDriver
		}
	}

	if !booking.Status.CanTransition(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
	}

	var updated *model.Booking
	switch target {
	case model.BookingStatusAccepted:
		updated, err = s.accept(ctx, booking, ride)
	case model.BookingStatusCancelled:
		updated, err = s.cancel(ctx, booking)
	default:
		updated, err = s.bookingRepo.SetStatus(ctx, booking.ID, booking.Status, target)
		if err == nil && updated == nil {
			err = staleBooking(booking.Status)
		}
	}
	if err != nil {
		return nil, err
	}

	metrics.BookingTransition(string(booking.Status), string(updated.Status))
	s.logger.Info("Booking status updated",
		zap.String("booking_id", booking.ID.String()),
		zap.String("ride_id", ride.ID.String()),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("caller_id", caller.ID.String()),
	)

	recipient := ride.DriverID
	if isDriver {
		recipient = booking.PassengerID
	}
	s.notify(ctx, model.BookingEventStatusChanged, recipient, updated, ride)

	return updated, nil
}

// accept deducts the booking's seats and marks it accepted in one transaction.
func (s *BookingService) accept(ctx context.Context, booking *model.Booking, ride *model.Ride) (*model.Booking, error) {
	if !ride.IsActive() {
		return nil, ErrRideNotActive
	}

	var updated *model.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.rideRepo.TryDecrementSeats(ctx, booking.RideID, booking.Seats)
		if err != nil {
			return fmt.Errorf("decrement seats: %w", err)
		}
		if !ok {
			metrics.SeatConflict()
			return ErrInsufficientCapacity
		}

		updated, err = s.bookingRepo.SetStatus(ctx, booking.ID, model.BookingStatusPending, model.BookingStatusAccepted)
		if err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		if updated == nil {
			return staleBooking(model.BookingStatusPending)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *BookingService) cancel(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	from := booking.Status

	var updated *model.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.bookingRepo.SetStatus(ctx, booking.ID, from, model.BookingStatusCancelled)
		if err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		if updated == nil {
			return staleBooking(from)
		}

		if from == model.BookingStatusAccepted && s.opts.RestoreSeatsOnCancel {
			if err := s.rideRepo.IncrementSeats(ctx, booking.RideID, booking.Seats); err != nil {
				return fmt.Errorf("restore seats: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CancelRide cancels an active ride and every pending or accepted booking on it.
// It returns the number of cancelled bookings.
func (s *BookingService) CancelRide(ctx context.Context, caller model.Caller, rideID uuid.UUID) (int64, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return 0, fmt.Errorf("get ride: %w", err)
	}
	if ride == nil {
		return 0, ErrRideNotFound
	}
	if ride.DriverID != caller.ID {
		return 0, ErrNotRideDriver
	}
	if !ride.IsActive() {
		return 0, ErrRideNotActive
	}

	affected, err := s.bookingRepo.ListByRide(ctx, rideID, []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusAccepted,
	})
	if err != nil {
		return 0, fmt.Errorf("list ride bookings: %w", err)
	}

	var cancelled int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.rideRepo.SetStatus(ctx, rideID, model.RideStatusActive, model.RideStatusCancelled)
		if err != nil {
			return fmt.Errorf("cancel ride: %w", err)
		}
		if !ok {
			return ErrRideNotActive
		}

		cancelled, err = s.rideRepo.CancelBookingsForRide(ctx, rideID, []model.BookingStatus{
			model.BookingStatusPending,
			model.BookingStatusAccepted,
		})
		if err != nil {
			return fmt.Errorf("cancel ride bookings: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	ride.Status = model.RideStatusCancelled
	for _, b := range affected {
		metrics.BookingTransition(string(b.Status), string(model.BookingStatusCancelled))
	}
	s.logger.Info("Ride cancelled",
		zap.String("ride_id", rideID.String()),
		zap.Int64("cancelled_bookings", cancelled),
	)

	for _, b := range affected {
		b.Status = model.BookingStatusCancelled
		s.notify(ctx, model.BookingEventRideCancelled, b.PassengerID, b, ride)
	}

	return cancelled, nil
}

// CompleteRide finishes an active ride: accepted bookings complete, pending ones are cancelled.
// The driver or a system job may complete a ride.
func (s *BookingService) CompleteRide(ctx context.Context, caller model.Caller, rideID uuid.UUID) (*model.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, fmt.Errorf("get ride: %w", err)
	}
	if ride == nil {
		return nil, ErrRideNotFound
	}
	if !caller.IsSystem() && ride.DriverID != caller.ID {
		return nil, ErrNotRideDriver
	}
	if !ride.IsActive() {
		return nil, ErrRideNotActive
	}

	accepted, err := s.bookingRepo.ListByRide(ctx, rideID, []model.BookingStatus{model.BookingStatusAccepted})
	if err != nil {
		return nil, fmt.Errorf("list ride bookings: %w", err)
	}
	passengers := make([]uuid.UUID, 0, len(accepted))
	for _, b := range accepted {
		passengers = append(passengers, b.PassengerID)
	}

	var completed, dropped int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.rideRepo.SetStatus(ctx, rideID, model.RideStatusActive, model.RideStatusCompleted)
		if err != nil {
			return fmt.Errorf("complete ride: %w", err)
		}
		if !ok {
			return ErrRideNotActive
		}

		completed, err = s.rideRepo.CompleteBookingsForRide(ctx, rideID)
		if err != nil {
			return fmt.Errorf("complete ride bookings: %w", err)
		}

		dropped, err = s.rideRepo.CancelBookingsForRide(ctx, rideID, []model.BookingStatus{model.BookingStatusPending})
		if err != nil {
			return fmt.Errorf("cancel pending bookings: %w", err)
		}

		if err := s.userRepo.IncrementRideCounters(ctx, ride.DriverID, passengers); err != nil {
			return fmt.Errorf("update ride counters: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ride.Status = model.RideStatusCompleted
	ride.UpdatedAt = time.Now()
	metrics.BookingTransitions(string(model.BookingStatusAccepted), string(model.BookingStatusCompleted), completed)
	metrics.BookingTransitions(string(model.BookingStatusPending), string(model.BookingStatusCancelled), dropped)
	s.logger.Info("Ride completed",
		zap.String("ride_id", rideID.String()),
		zap.String("caller_role", caller.Role),
		zap.Int64("completed_bookings", completed),
		zap.Int64("cancelled_pending", dropped),
	)

	for _, b := range accepted {
		b.Status = model.BookingStatusCompleted
		s.notify(ctx, model.BookingEventRideCompleted, b.PassengerID, b, ride)
	}

	return ride, nil
}

func (s *BookingService) loadBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, *model.Ride, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, nil, ErrBookingNotFound
	}

	ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
	if err != nil {
		return nil, nil, fmt.Errorf("get ride: %w", err)
	}
	if ride == nil {
		return nil, nil, ErrRideNotFound
	}
	return booking, ride, nil
}

// notify looks up the recipient and hands the event to the notifier. Failures are logged only.
func (s *BookingService) notify(ctx context.Context, kind model.BookingEventKind, userID uuid.UUID, booking *model.Booking, ride *model.Ride) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load notification recipient",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return
	}
	if user == nil {
		return
	}

	s.notifier.Notify(ctx, model.BookingEvent{
		Kind:      kind,
		Recipient: user,
		Booking:   booking,
		Ride:      ride,
	})
}

func staleBooking(from model.BookingStatus) error {
	return invalidf("booking is no longer %s", from)
}
