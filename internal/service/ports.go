package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
)

// Repositories return (nil, nil) when a row does not exist.

type RideRepository interface {
	Create(ctx context.Context, ride *model.Ride) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Ride, error)
	UpdateDetails(ctx context.Context, ride *model.Ride) error
	List(ctx context.Context, filter model.RideFilter) ([]*model.Ride, error)
	ListDepartedBefore(ctx context.Context, before time.Time) ([]*model.Ride, error)

	// TryDecrementSeats subtracts n seats only if at least n are available.
	// It reports false when the precondition did not hold.
	TryDecrementSeats(ctx context.Context, id uuid.UUID, n int) (bool, error)
	IncrementSeats(ctx context.Context, id uuid.UUID, n int) error
	// SetStatus moves the ride from one status to another and reports false
	// if the ride was not in the from status.
	SetStatus(ctx context.Context, id uuid.UUID, from, to model.RideStatus) (bool, error)
	CancelBookingsForRide(ctx context.Context, id uuid.UUID, from []model.BookingStatus) (int64, error)
	CompleteBookingsForRide(ctx context.Context, id uuid.UUID) (int64, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// SetStatus updates the status only if the booking is still in from.
	// It returns (nil, nil) when the precondition did not hold.
	SetStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) (*model.Booking, error)
	ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*model.Booking, error)
	ListByDriverRides(ctx context.Context, driverID uuid.UUID) ([]*model.Booking, error)
	ListByRide(ctx context.Context, rideID uuid.UUID, statuses []model.BookingStatus) ([]*model.Booking, error)
	HasActive(ctx context.Context, rideID, passengerID uuid.UUID) (bool, error)
	HasCompleted(ctx context.Context, rideID, passengerID uuid.UUID) (bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64, total int) error
	IncrementRideCounters(ctx context.Context, driverID uuid.UUID, passengerIDs []uuid.UUID) error
}

type PrivateRequestRepository interface {
	Create(ctx context.Context, req *model.PrivateRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PrivateRequest, error)
	ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*model.PrivateRequest, error)
	ListNearby(ctx context.Context, filter model.NearbyFilter) ([]*model.PrivateRequest, error)
	MarkResponded(ctx context.Context, id, driverID, rideID uuid.UUID) (bool, error)
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)
}

type ChatRepository interface {
	Create(ctx context.Context, msg *model.ChatMessage) error
	List(ctx context.Context, kind model.ChatKind, contextID uuid.UUID) ([]*model.ChatMessage, error)
	MarkRead(ctx context.Context, kind model.ChatKind, contextID, receiverID uuid.UUID) (int64, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	Exists(ctx context.Context, rideID, reviewerID, revieweeID uuid.UUID) (bool, error)
	ListByReviewee(ctx context.Context, revieweeID uuid.UUID) ([]*model.Review, error)
	RatingStats(ctx context.Context, revieweeID uuid.UUID) (avg float64, count int, err error)
}

// Transactor runs fn in a single database transaction. Repository calls made
// with the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier delivers booking events to participants. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, event model.BookingEvent)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, model.BookingEvent) {}

// NoopNotifier drops every event.
var NoopNotifier Notifier = noopNotifier{}
