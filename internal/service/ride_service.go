package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"
	"go.uber.org/zap"
)

// geohashPrecision of stored pickup / origin cells (~150m).
const geohashPrecision = 7

// RideInput carries the driver-editable fields of a ride.
type RideInput struct {
	PickupLocation string
	PickupLat      float64
	PickupLng      float64
	DropLocation   string
	DropLat        float64
	DropLng        float64
	DepartsAt      time.Time
	Seats          int
	PricePerSeat   float64
	CarModel       string
	CarNumber      string
	Notes          string
}

// RidePatch is a partial update of ride details. Nil fields are left as is.
type RidePatch struct {
	PickupLocation *string
	PickupLat      *float64
	PickupLng      *float64
	DropLocation   *string
	DropLat        *float64
	DropLng        *float64
	DepartsAt      *time.Time
	PricePerSeat   *float64
	CarModel       *string
	CarNumber      *string
	Notes          *string
}

type RideService struct {
	rideRepo RideRepository
	logger   *zap.Logger
}

func NewRideService(rideRepo RideRepository, logger *zap.Logger) *RideService {
	return &RideService{
		rideRepo: rideRepo,
		logger:   logger,
	}
}

// CreateRide publishes a new ride owned by the caller
func (s *RideService) CreateRide(ctx context.Context, caller model.Caller, in RideInput) (*model.Ride, error) {
	if in.Seats < 1 || in.Seats > model.MaxRideSeats {
		return nil, invalidf("seats must be between 1 and %d", model.MaxRideSeats)
	}
	if in.PricePerSeat < 0 {
		return nil, invalidf("price per seat cannot be negative")
	}
	if !validCoordinate(in.PickupLat, in.PickupLng) || !validCoordinate(in.DropLat, in.DropLng) {
		return nil, ErrInvalidRideDetails
	}

	ride := &model.Ride{
		ID:             uuid.New(),
		DriverID:       caller.ID,
		PickupLocation: in.PickupLocation,
		PickupLat:      in.PickupLat,
		PickupLng:      in.PickupLng,
		PickupGeohash:  geohash.EncodeWithPrecision(in.PickupLat, in.PickupLng, geohashPrecision),
		DropLocation:   in.DropLocation,
		DropLat:        in.DropLat,
		DropLng:        in.DropLng,
		DepartsAt:      in.DepartsAt,
		TotalSeats:     in.Seats,
		AvailableSeats: in.Seats,
		PricePerSeat:   in.PricePerSeat,
		CarModel:       in.CarModel,
		CarNumber:      in.CarNumber,
		Notes:          in.Notes,
		Status:         model.RideStatusActive,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}

	s.logger.Info("Ride created",
		zap.String("ride_id", ride.ID.String()),
		zap.String("driver_id", caller.ID.String()),
		zap.Int("seats", ride.TotalSeats),
		zap.Time("departs_at", ride.DepartsAt),
	)

	return ride, nil
}

// GetRide returns a ride by id
func (s *RideService) GetRide(ctx context.Context, id uuid.UUID) (*model.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ride: %w", err)
	}
	if ride == nil {
		return nil, ErrRideNotFound
	}
	return ride, nil
}

// ListRides returns all rides, optionally only those in the given status
func (s *RideService) ListRides(ctx context.Context, status model.RideStatus) ([]*model.Ride, error) {
	return s.rideRepo.List(ctx, model.RideFilter{Status: status})
}

// ListMyRides returns rides published by the caller
func (s *RideService) ListMyRides(ctx context.Context, caller model.Caller) ([]*model.Ride, error) {
	return s.rideRepo.List(ctx, model.RideFilter{DriverID: caller.ID})
}

// SearchRides finds active rides with enough free seats. With a pickup point the
// result is ordered by straight-line distance of the ride's pickup to it.
func (s *RideService) SearchRides(ctx context.Context, q model.RideSearch) ([]*model.Ride, error) {
	filter := model.RideFilter{
		Status:   model.RideStatusActive,
		MinSeats: q.SeatsNeeded,
	}
	if filter.MinSeats < 1 {
		filter.MinSeats = 1
	}
	if q.Date != nil {
		day := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, q.Date.Location())
		filter.DepartsFrom = day
		filter.DepartsTo = day.AddDate(0, 0, 1)
	}

	rides, err := s.rideRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search rides: %w", err)
	}

	if q.PickupLat != nil && q.PickupLng != nil {
		SortByPickupDistance(rides, *q.PickupLat, *q.PickupLng)
	}
	return rides, nil
}

// SortByPickupDistance orders rides by Euclidean distance between their pickup
// coordinates and (lat, lng). Equal distances keep their previous order.
func SortByPickupDistance(rides []*model.Ride, lat, lng float64) {
	sort.SliceStable(rides, func(i, j int) bool {
		return pickupDistance(rides[i], lat, lng) < pickupDistance(rides[j], lat, lng)
	})
}

func pickupDistance(r *model.Ride, lat, lng float64) float64 {
	return math.Hypot(r.PickupLat-lat, r.PickupLng-lng)
}

// UpdateRide edits details of an active ride. Seats and status cannot be changed here.
func (s *RideService) UpdateRide(ctx context.Context, caller model.Caller, id uuid.UUID, patch RidePatch) (*model.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ride: %w", err)
	}
	if ride == nil {
		return nil, ErrRideNotFound
	}
	if ride.DriverID != caller.ID {
		return nil, ErrNotRideDriver
	}
	if !ride.IsActive() {
		return nil, ErrRideNotActive
	}

	applyRidePatch(ride, patch)

	if ride.PricePerSeat < 0 {
		return nil, invalidf("price per seat cannot be negative")
	}
	if !validCoordinate(ride.PickupLat, ride.PickupLng) || !validCoordinate(ride.DropLat, ride.DropLng) {
		return nil, ErrInvalidRideDetails
	}
	ride.PickupGeohash = geohash.EncodeWithPrecision(ride.PickupLat, ride.PickupLng, geohashPrecision)

	if err := s.rideRepo.UpdateDetails(ctx, ride); err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, fmt.Errorf("update ride: %w", err)
	}

	s.logger.Info("Ride updated",
		zap.String("ride_id", ride.ID.String()),
		zap.String("driver_id", caller.ID.String()),
	)

	return ride, nil
}

func applyRidePatch(ride *model.Ride, p RidePatch) {
	if p.PickupLocation != nil {
		ride.PickupLocation = *p.PickupLocation
	}
	if p.PickupLat != nil {
		ride.PickupLat = *p.PickupLat
	}
	if p.PickupLng != nil {
		ride.PickupLng = *p.PickupLng
	}
	if p.DropLocation != nil {
		ride.DropLocation = *p.DropLocation
	}
	if p.DropLat != nil {
		ride.DropLat = *p.DropLat
	}
	if p.DropLng != nil {
		ride.DropLng = *p.DropLng
	}
	if p.DepartsAt != nil {
		ride.DepartsAt = *p.DepartsAt
	}
	if p.PricePerSeat != nil {
		ride.PricePerSeat = *p.PricePerSeat
	}
	if p.CarModel != nil {
		ride.CarModel = *p.CarModel
	}
	if p.CarNumber != nil {
		ride.CarNumber = *p.CarNumber
	}
	if p.Notes != nil {
		ride.Notes = *p.Notes
	}
}

// ListDueForCompletion returns active rides that departed before the given time.
func (s *RideService) ListDueForCompletion(ctx context.Context, before time.Time) ([]*model.Ride, error) {
	return s.rideRepo.ListDepartedBefore(ctx, before)
}

func validCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
