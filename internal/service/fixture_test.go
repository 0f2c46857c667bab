package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.BookingEvent
}

func (n *recordingNotifier) Notify(_ context.Context, e model.BookingEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) kinds() []model.BookingEventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.BookingEventKind, len(n.events))
	for i, e := range n.events {
		out[i] = e.Kind
	}
	return out
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	users    *memory.UserRepository
	rides    *memory.RideRepository
	bookings *memory.BookingRepository
	requests *memory.PrivateRequestRepository
	chats    *memory.ChatRepository
	reviews  *memory.ReviewRepository
	notifier *recordingNotifier
	logger   *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	store := memory.NewStore()
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    store,
		users:    memory.NewUserRepository(store),
		rides:    memory.NewRideRepository(store),
		bookings: memory.NewBookingRepository(store),
		requests: memory.NewPrivateRequestRepository(store),
		chats:    memory.NewChatRepository(store),
		reviews:  memory.NewReviewRepository(store),
		notifier: &recordingNotifier{},
		logger:   zap.NewNop(),
	}
}

func (f *fixture) bookingService(opts BookingOptions) *BookingService {
	return NewBookingService(f.store, f.rides, f.bookings, f.users, f.notifier, opts, f.logger)
}

func (f *fixture) user(name string) model.Caller {
	f.t.Helper()
	u := &model.User{ID: uuid.New(), Name: name}
	require.NoError(f.t, f.users.Create(f.ctx, u))
	return model.Caller{ID: u.ID, Role: model.RoleUser}
}

func (f *fixture) ride(driver model.Caller, seats int) *model.Ride {
	f.t.Helper()
	r := &model.Ride{
		ID:             uuid.New(),
		DriverID:       driver.ID,
		PickupLocation: "Station",
		PickupLat:      55.75,
		PickupLng:      37.61,
		DropLocation:   "Airport",
		DropLat:        55.97,
		DropLng:        37.41,
		DepartsAt:      time.Now().Add(24 * time.Hour),
		TotalSeats:     seats,
		AvailableSeats: seats,
		Status:         model.RideStatusActive,
	}
	require.NoError(f.t, f.rides.Create(f.ctx, r))
	return r
}

func (f *fixture) seats(rideID uuid.UUID) int {
	f.t.Helper()
	r, err := f.rides.GetByID(f.ctx, rideID)
	require.NoError(f.t, err)
	return r.AvailableSeats
}

func (f *fixture) bookingStatus(id uuid.UUID) model.BookingStatus {
	f.t.Helper()
	b, err := f.bookings.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return b.Status
}
