package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
)

type PrivateRequestRepository struct {
	s *Store
}

func NewPrivateRequestRepository(s *Store) *PrivateRequestRepository {
	return &PrivateRequestRepository{s: s}
}

func (r *PrivateRequestRepository) Create(ctx context.Context, req *model.PrivateRequest) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.d.requests[req.ID]; ok {
		return fmt.Errorf("private request %s already exists", req.ID)
	}
	now := r.s.now()
	req.CreatedAt = now
	req.UpdatedAt = now
	r.s.d.requests[req.ID] = copyRequest(req)
	r.s.d.requestOrder = append(r.s.d.requestOrder, req.ID)
	return nil
}

func (r *PrivateRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrivateRequest, error) {
	defer r.s.lock(ctx)()
	return copyRequest(r.s.d.requests[id]), nil
}

func (r *PrivateRequestRepository) ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*model.PrivateRequest, error) {
	defer r.s.lock(ctx)()

	return r.collect(func(req *model.PrivateRequest) bool {
		return req.PassengerID == passengerID
	}), nil
}

func (r *PrivateRequestRepository) ListNearby(ctx context.Context, filter model.NearbyFilter) ([]*model.PrivateRequest, error) {
	defer r.s.lock(ctx)()

	return r.collect(func(req *model.PrivateRequest) bool {
		if req.PassengerID == filter.ExcludePassenger || !req.IsOpen(filter.Now) {
			return false
		}
		if len(filter.GeohashCells) == 0 {
			return true
		}
		for _, cell := range filter.GeohashCells {
			if strings.HasPrefix(req.FromGeohash, cell) {
				return true
			}
		}
		return false
	}), nil
}

func (r *PrivateRequestRepository) MarkResponded(ctx context.Context, id, driverID, rideID uuid.UUID) (bool, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.d.rides[rideID]; !ok {
		return false, fmt.Errorf("ride offer %s does not exist", rideID)
	}
	req, ok := r.s.d.requests[id]
	if !ok || req.Status != model.PrivateRequestStatusActive {
		return false, nil
	}
	req.Status = model.PrivateRequestStatusResponded
	req.RespondedBy = &driverID
	req.RideOfferID = &rideID
	req.UpdatedAt = r.s.now()
	return true, nil
}

func (r *PrivateRequestRepository) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	defer r.s.lock(ctx)()

	req, ok := r.s.d.requests[id]
	if !ok || req.Status != model.PrivateRequestStatusActive {
		return false, nil
	}
	req.Status = model.PrivateRequestStatusCancelled
	req.UpdatedAt = r.s.now()
	return true, nil
}

// collect walks requests newest first. Caller holds the lock.
func (r *PrivateRequestRepository) collect(match func(req *model.PrivateRequest) bool) []*model.PrivateRequest {
	result := make([]*model.PrivateRequest, 0)
	order := r.s.d.requestOrder
	for i := len(order) - 1; i >= 0; i-- {
		req := r.s.d.requests[order[i]]
		if match(req) {
			result = append(result, copyRequest(req))
		}
	}
	return result
}
