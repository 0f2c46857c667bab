package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const privateRequestColumns = `id, passenger_id, from_location, from_lat, from_lng, from_geohash,
	to_location, to_lat, to_lng, preferred_at, seats_needed, message, status,
	responded_by, ride_offer_id, expires_at, created_at, updated_at`

type PrivateRequestRepository struct {
	*base.Repository
}

func NewPrivateRequestRepository(pool *pgxpool.Pool) *PrivateRequestRepository {
	return &PrivateRequestRepository{Repository: base.NewRepository(pool)}
}

func scanPrivateRequest(row scanner) (*model.PrivateRequest, error) {
	var req model.PrivateRequest
	err := row.Scan(
		&req.ID,
		&req.PassengerID,
		&req.FromLocation,
		&req.FromLat,
		&req.FromLng,
		&req.FromGeohash,
		&req.ToLocation,
		&req.ToLat,
		&req.ToLng,
		&req.PreferredAt,
		&req.SeatsNeeded,
		&req.Message,
		&req.Status,
		&req.RespondedBy,
		&req.RideOfferID,
		&req.ExpiresAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create создаёт новый частный запрос
func (r *PrivateRequestRepository) Create(ctx context.Context, req *model.PrivateRequest) error {
	query := `
		INSERT INTO private_requests (id, passenger_id, from_location, from_lat, from_lng, from_geohash,
			to_location, to_lat, to_lng, preferred_at, seats_needed, message, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		req.ID,
		req.PassengerID,
		req.FromLocation,
		req.FromLat,
		req.FromLng,
		req.FromGeohash,
		req.ToLocation,
		req.ToLat,
		req.ToLng,
		req.PreferredAt,
		req.SeatsNeeded,
		req.Message,
		req.Status,
		req.ExpiresAt,
	).Scan(&req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create private request: %w", err)
	}

	return nil
}

// GetByID получает частный запрос по ID
func (r *PrivateRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrivateRequest, error) {
	query := `SELECT ` + privateRequestColumns + ` FROM private_requests WHERE id = $1`

	req, err := scanPrivateRequest(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get private request by id: %w", err)
	}

	return req, nil
}

// ListByPassenger получает запросы пассажира, новые первыми
func (r *PrivateRequestRepository) ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*model.PrivateRequest, error) {
	query := `
		SELECT ` + privateRequestColumns + `
		FROM private_requests
		WHERE passenger_id = $1
		ORDER BY created_at DESC
	`

	return r.list(ctx, query, passengerID)
}

// ListNearby получает открытые запросы других пассажиров (в заданных geohash-ячейках, если они переданы)
func (r *PrivateRequestRepository) ListNearby(ctx context.Context, filter model.NearbyFilter) ([]*model.PrivateRequest, error) {
	patterns := make([]string, len(filter.GeohashCells))
	for i, cell := range filter.GeohashCells {
		patterns[i] = cell + "%"
	}

	query := `
		SELECT ` + privateRequestColumns + `
		FROM private_requests
		WHERE status = 'active'
			AND expires_at > $1
			AND passenger_id <> $2
			AND (cardinality($3::text[]) = 0 OR from_geohash LIKE ANY($3))
		ORDER BY created_at DESC
	`

	return r.list(ctx, query, filter.Now, filter.ExcludePassenger, patterns)
}

func (r *PrivateRequestRepository) list(ctx context.Context, query string, args ...any) ([]*model.PrivateRequest, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list private requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*model.PrivateRequest, 0)
	for rows.Next() {
		req, err := scanPrivateRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan private request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// MarkResponded сохраняет предложение водителя, если запрос ещё активен.
// Поездка ride_offer_id должна уже существовать (внешний ключ)
func (r *PrivateRequestRepository) MarkResponded(ctx context.Context, id, driverID, rideID uuid.UUID) (bool, error) {
	query := `
		UPDATE private_requests
		SET status = 'responded', responded_by = $2, ride_offer_id = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	affected, err := r.ExecAffected(ctx, query, id, driverID, rideID)
	if err != nil {
		return false, fmt.Errorf("mark private request responded: %w", err)
	}

	return affected == 1, nil
}

// Cancel отменяет активный запрос
func (r *PrivateRequestRepository) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE private_requests
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("cancel private request: %w", err)
	}

	return affected == 1, nil
}
