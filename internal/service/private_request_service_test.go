package service

import (
	"testing"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) requestService(now time.Time) *PrivateRequestService {
	svc := NewPrivateRequestService(f.store, f.requests, f.rides, PrivateRequestOptions{TTL: time.Hour}, f.logger)
	svc.now = func() time.Time { return now }
	return svc
}

func requestInput(lat, lng float64) PrivateRequestInput {
	return PrivateRequestInput{
		FromLocation: "Home",
		FromLat:      lat,
		FromLng:      lng,
		ToLocation:   "Office",
		ToLat:        55.70,
		ToLng:        37.50,
		PreferredAt:  time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		SeatsNeeded:  2,
	}
}

func TestPrivateRequest_Create(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	svc := f.requestService(now)
	passenger := f.user("passenger")

	req, err := svc.Create(f.ctx, passenger, requestInput(55.75, 37.61))
	require.NoError(t, err)
	assert.Equal(t, model.PrivateRequestStatusActive, req.Status)
	assert.Equal(t, now.Add(time.Hour), req.ExpiresAt)
	assert.Len(t, req.FromGeohash, 7)
	assert.Equal(t, "ucft", req.FromGeohash[:4])

	mine, err := svc.ListMine(f.ctx, passenger)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, req.ID, mine[0].ID)

	bad := requestInput(55.75, 37.61)
	bad.SeatsNeeded = 0
	_, err = svc.Create(f.ctx, passenger, bad)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = svc.Create(f.ctx, passenger, requestInput(-95, 0))
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestPrivateRequest_ListNearby(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	svc := f.requestService(now)
	me, other := f.user("driver"), f.user("passenger")

	nearbyReq, err := svc.Create(f.ctx, other, requestInput(55.75, 37.61))
	require.NoError(t, err)
	_, err = svc.Create(f.ctx, other, requestInput(59.93, 30.33))
	require.NoError(t, err)
	_, err = svc.Create(f.ctx, me, requestInput(55.75, 37.61))
	require.NoError(t, err)

	lat, lng := 55.751, 37.612
	nearby, err := svc.ListNearby(f.ctx, me, &lat, &lng)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Equal(t, nearbyReq.ID, nearby[0].ID)

	// without a point every open request of others is listed
	all, err := svc.ListNearby(f.ctx, me, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// expired requests disappear
	later := f.requestService(now.Add(2 * time.Hour))
	all, err = later.ListNearby(f.ctx, me, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNearbyCells(t *testing.T) {
	cells := NearbyCells(55.75, 37.61, 4)
	require.Len(t, cells, 9)
	assert.Equal(t, "ucft", cells[0])
	for _, c := range cells {
		assert.Len(t, c, 4)
	}
}

func TestPrivateRequest_Respond(t *testing.T) {
	f := newFixture(t)
	svc := f.requestService(time.Now())
	passenger, driver, late := f.user("passenger"), f.user("driver"), f.user("late")

	req, err := svc.Create(f.ctx, passenger, requestInput(55.75, 37.61))
	require.NoError(t, err)

	_, err = svc.Respond(f.ctx, passenger, req.ID)
	assert.ErrorIs(t, err, ErrOwnRequest)

	ride, err := svc.Respond(f.ctx, driver, req.ID)
	require.NoError(t, err)
	assert.Equal(t, driver.ID, ride.DriverID)
	assert.Equal(t, 2, ride.TotalSeats)
	assert.Equal(t, 2, ride.AvailableSeats)
	assert.Equal(t, req.PreferredAt, ride.DepartsAt)
	assert.Equal(t, model.RideStatusActive, ride.Status)

	stored, err := f.requests.GetByID(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PrivateRequestStatusResponded, stored.Status)
	require.NotNil(t, stored.RespondedBy)
	assert.Equal(t, driver.ID, *stored.RespondedBy)
	require.NotNil(t, stored.RideOfferID)
	assert.Equal(t, ride.ID, *stored.RideOfferID)

	// the offer is a regular ride the passenger can book
	_, err = f.bookingService(BookingOptions{}).CreateBooking(f.ctx, passenger, ride.ID, 2, "")
	assert.NoError(t, err)

	_, err = svc.Respond(f.ctx, late, req.ID)
	assert.ErrorIs(t, err, ErrRequestClosed)

	_, err = svc.Respond(f.ctx, late, uuid.New())
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestPrivateRequest_RespondExpired(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	passenger, driver := f.user("passenger"), f.user("driver")

	req, err := f.requestService(now).Create(f.ctx, passenger, requestInput(55.75, 37.61))
	require.NoError(t, err)

	_, err = f.requestService(now.Add(2*time.Hour)).Respond(f.ctx, driver, req.ID)
	assert.ErrorIs(t, err, ErrRequestClosed)

	rides, err := f.rides.List(f.ctx, model.RideFilter{DriverID: driver.ID})
	require.NoError(t, err)
	assert.Empty(t, rides)
}

func TestPrivateRequest_Cancel(t *testing.T) {
	f := newFixture(t)
	svc := f.requestService(time.Now())
	passenger, driver := f.user("passenger"), f.user("driver")

	req, err := svc.Create(f.ctx, passenger, requestInput(55.75, 37.61))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Cancel(f.ctx, driver, req.ID), ErrNotRequestOwner)
	require.NoError(t, svc.Cancel(f.ctx, passenger, req.ID))
	assert.ErrorIs(t, svc.Cancel(f.ctx, passenger, req.ID), ErrRequestClosed)
	assert.ErrorIs(t, svc.Cancel(f.ctx, passenger, uuid.New()), ErrRequestNotFound)

	_, err = svc.Respond(f.ctx, driver, req.ID)
	assert.ErrorIs(t, err, ErrRequestClosed)
}
