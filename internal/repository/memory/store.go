// Package memory keeps all carpool data in process memory. It implements the
// same repository ports as the Postgres layer and is used by tests and local runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
)

type txKey struct{}

// Store owns the data of every memory repository. A single mutex guards it, so
// WithinTx gives the same isolation a serializable database transaction would.
type Store struct {
	mu  sync.Mutex
	d   *data
	now func() time.Time
}

type data struct {
	users    map[uuid.UUID]*model.User
	rides    map[uuid.UUID]*model.Ride
	bookings map[uuid.UUID]*model.Booking
	requests map[uuid.UUID]*model.PrivateRequest

	// insertion order, used for stable listings
	rideOrder    []uuid.UUID
	bookingOrder []uuid.UUID
	requestOrder []uuid.UUID

	messages []*model.ChatMessage
	reviews  []*model.Review
}

func NewStore() *Store {
	return &Store{
		d: &data{
			users:    make(map[uuid.UUID]*model.User),
			rides:    make(map[uuid.UUID]*model.Ride),
			bookings: make(map[uuid.UUID]*model.Booking),
			requests: make(map[uuid.UUID]*model.PrivateRequest),
		},
		now: time.Now,
	}
}

// SetClock replaces the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// WithinTx runs fn holding the store lock. Changes made by fn are rolled back when it fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store mutex unless ctx already holds it through WithinTx.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (d *data) clone() *data {
	c := &data{
		users:        make(map[uuid.UUID]*model.User, len(d.users)),
		rides:        make(map[uuid.UUID]*model.Ride, len(d.rides)),
		bookings:     make(map[uuid.UUID]*model.Booking, len(d.bookings)),
		requests:     make(map[uuid.UUID]*model.PrivateRequest, len(d.requests)),
		rideOrder:    append([]uuid.UUID(nil), d.rideOrder...),
		bookingOrder: append([]uuid.UUID(nil), d.bookingOrder...),
		requestOrder: append([]uuid.UUID(nil), d.requestOrder...),
		messages:     make([]*model.ChatMessage, 0, len(d.messages)),
		reviews:      make([]*model.Review, 0, len(d.reviews)),
	}
	for id, u := range d.users {
		c.users[id] = copyUser(u)
	}
	for id, r := range d.rides {
		c.rides[id] = copyRide(r)
	}
	for id, b := range d.bookings {
		c.bookings[id] = copyBooking(b)
	}
	for id, r := range d.requests {
		c.requests[id] = copyRequest(r)
	}
	for _, m := range d.messages {
		cm := *m
		c.messages = append(c.messages, &cm)
	}
	for _, r := range d.reviews {
		cr := *r
		c.reviews = append(c.reviews, &cr)
	}
	return c
}

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.TelegramChatID != nil {
		id := *u.TelegramChatID
		c.TelegramChatID = &id
	}
	return &c
}

func copyRide(r *model.Ride) *model.Ride {
	if r == nil {
		return nil
	}
	c := *r
	c.Driver = nil
	return &c
}

func copyBooking(b *model.Booking) *model.Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.Ride = nil
	c.Passenger = nil
	return &c
}

func copyRequest(r *model.PrivateRequest) *model.PrivateRequest {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
