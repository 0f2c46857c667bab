package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"
	"go.uber.org/zap"
)

type PrivateRequestInput struct {
	FromLocation string
	FromLat      float64
	FromLng      float64
	ToLocation   string
	ToLat        float64
	ToLng        float64
	PreferredAt  time.Time
	SeatsNeeded  int
	Message      string
}

type PrivateRequestOptions struct {
	TTL time.Duration
	// NearbyPrecision is the geohash length of the search cell used by ListNearby.
	NearbyPrecision uint
}

type PrivateRequestService struct {
	tx          Transactor
	requestRepo PrivateRequestRepository
	rideRepo    RideRepository
	opts        PrivateRequestOptions
	now         func() time.Time
	logger      *zap.Logger
}

func NewPrivateRequestService(
	tx Transactor,
	requestRepo PrivateRequestRepository,
	rideRepo RideRepository,
	opts PrivateRequestOptions,
	logger *zap.Logger,
) *PrivateRequestService {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.NearbyPrecision == 0 || opts.NearbyPrecision > geohashPrecision {
		opts.NearbyPrecision = 4
	}
	return &PrivateRequestService{
		tx:          tx,
		requestRepo: requestRepo,
		rideRepo:    rideRepo,
		opts:        opts,
		now:         time.Now,
		logger:      logger,
	}
}

// Create publishes a ride wish of the caller
func (s *PrivateRequestService) Create(ctx context.Context, caller model.Caller, in PrivateRequestInput) (*model.PrivateRequest, error) {
	if in.SeatsNeeded < 1 || in.SeatsNeeded > model.MaxRideSeats {
		return nil, invalidf("seats needed must be between 1 and %d", model.MaxRideSeats)
	}
	if !validCoordinate(in.FromLat, in.FromLng) || !validCoordinate(in.ToLat, in.ToLng) {
		return nil, invalidf("invalid coordinates")
	}

	now := s.now()
	req := &model.PrivateRequest{
		ID:           uuid.New(),
		PassengerID:  caller.ID,
		FromLocation: in.FromLocation,
		FromLat:      in.FromLat,
		FromLng:      in.FromLng,
		FromGeohash:  geohash.EncodeWithPrecision(in.FromLat, in.FromLng, geohashPrecision),
		ToLocation:   in.ToLocation,
		ToLat:        in.ToLat,
		ToLng:        in.ToLng,
		PreferredAt:  in.PreferredAt,
		SeatsNeeded:  in.SeatsNeeded,
		Message:      in.Message,
		Status:       model.PrivateRequestStatusActive,
		ExpiresAt:    now.Add(s.opts.TTL),
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create private request: %w", err)
	}

	s.logger.Info("Private request created",
		zap.String("request_id", req.ID.String()),
		zap.String("passenger_id", caller.ID.String()),
		zap.String("geohash", req.FromGeohash),
	)

	return req, nil
}

// ListMine returns the caller's own requests
func (s *PrivateRequestService) ListMine(ctx context.Context, caller model.Caller) ([]*model.PrivateRequest, error) {
	return s.requestRepo.ListByPassenger(ctx, caller.ID)
}

// ListNearby returns open requests of other passengers. When a point is given only
// requests starting in its geohash cell or one of the 8 neighbouring cells are returned.
func (s *PrivateRequestService) ListNearby(ctx context.Context, caller model.Caller, lat, lng *float64) ([]*model.PrivateRequest, error) {
	filter := model.NearbyFilter{
		ExcludePassenger: caller.ID,
		Now:              s.now(),
	}
	if lat != nil && lng != nil {
		filter.GeohashCells = NearbyCells(*lat, *lng, s.opts.NearbyPrecision)
	}
	return s.requestRepo.ListNearby(ctx, filter)
}

// NearbyCells returns the geohash cell of the point and its neighbours.
func NearbyCells(lat, lng float64, precision uint) []string {
	center := geohash.EncodeWithPrecision(lat, lng, precision)
	return append([]string{center}, geohash.Neighbors(center)...)
}

// Respond turns a request into a ride offer driven by the caller.
func (s *PrivateRequestService) Respond(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Ride, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get private request: %w", err)
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.PassengerID == caller.ID {
		return nil, ErrOwnRequest
	}
	if !req.IsOpen(s.now()) {
		return nil, ErrRequestClosed
	}

	ride := &model.Ride{
		ID:             uuid.New(),
		DriverID:       caller.ID,
		PickupLocation: req.FromLocation,
		PickupLat:      req.FromLat,
		PickupLng:      req.FromLng,
		PickupGeohash:  req.FromGeohash,
		DropLocation:   req.ToLocation,
		DropLat:        req.ToLat,
		DropLng:        req.ToLng,
		DepartsAt:      req.PreferredAt,
		TotalSeats:     req.SeatsNeeded,
		AvailableSeats: req.SeatsNeeded,
		Status:         model.RideStatusActive,
	}

	// the request references the ride, so the ride row goes in first
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.rideRepo.Create(ctx, ride); err != nil {
			return fmt.Errorf("create ride offer: %w", err)
		}
		ok, err := s.requestRepo.MarkResponded(ctx, req.ID, caller.ID, ride.ID)
		if err != nil {
			return fmt.Errorf("mark request responded: %w", err)
		}
		if !ok {
			return ErrRequestClosed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Private request answered",
		zap.String("request_id", req.ID.String()),
		zap.String("driver_id", caller.ID.String()),
		zap.String("ride_id", ride.ID.String()),
	)

	return ride, nil
}

// Cancel withdraws an active request of the caller
func (s *PrivateRequestService) Cancel(ctx context.Context, caller model.Caller, id uuid.UUID) error {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get private request: %w", err)
	}
	if req == nil {
		return ErrRequestNotFound
	}
	if req.PassengerID != caller.ID {
		return ErrNotRequestOwner
	}

	ok, err := s.requestRepo.Cancel(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel private request: %w", err)
	}
	if !ok {
		return ErrRequestClosed
	}

	s.logger.Info("Private request cancelled",
		zap.String("request_id", id.String()),
	)
	return nil
}
