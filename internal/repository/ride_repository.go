package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const rideColumns = `r.id, r.driver_id, r.pickup_location, r.pickup_lat, r.pickup_lng, r.pickup_geohash,
	r.drop_location, r.drop_lat, r.drop_lng, r.departs_at, r.total_seats, r.available_seats,
	r.price_per_seat, r.car_model, r.car_number, r.notes, r.status, r.created_at, r.updated_at`

// driverColumns is the public driver summary joined to rides.
const driverColumns = `u.id, u.name, u.photo, u.rating, u.total_ratings`

type RideRepository struct {
	*base.Repository
}

func NewRideRepository(pool *pgxpool.Pool) *RideRepository {
	return &RideRepository{Repository: base.NewRepository(pool)}
}

type scanner interface {
	Scan(dest ...any) error
}

func rideFields(ride *model.Ride) []any {
	return []any{
		&ride.ID,
		&ride.DriverID,
		&ride.PickupLocation,
		&ride.PickupLat,
		&ride.PickupLng,
		&ride.PickupGeohash,
		&ride.DropLocation,
		&ride.DropLat,
		&ride.DropLng,
		&ride.DepartsAt,
		&ride.TotalSeats,
		&ride.AvailableSeats,
		&ride.PricePerSeat,
		&ride.CarModel,
		&ride.CarNumber,
		&ride.Notes,
		&ride.Status,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	}
}

func scanRideWithDriver(row scanner) (*model.Ride, error) {
	var ride model.Ride
	var driver model.User
	dest := append(rideFields(&ride),
		&driver.ID,
		&driver.Name,
		&driver.Photo,
		&driver.Rating,
		&driver.TotalRatings,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	ride.Driver = &driver
	return &ride, nil
}

// Create создаёт новую поездку
func (r *RideRepository) Create(ctx context.Context, ride *model.Ride) error {
	query := `
		INSERT INTO rides (id, driver_id, pickup_location, pickup_lat, pickup_lng, pickup_geohash,
			drop_location, drop_lat, drop_lng, departs_at, total_seats, available_seats,
			price_per_seat, car_model, car_number, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		ride.ID,
		ride.DriverID,
		ride.PickupLocation,
		ride.PickupLat,
		ride.PickupLng,
		ride.PickupGeohash,
		ride.DropLocation,
		ride.DropLat,
		ride.DropLng,
		ride.DepartsAt,
		ride.TotalSeats,
		ride.AvailableSeats,
		ride.PricePerSeat,
		ride.CarModel,
		ride.CarNumber,
		ride.Notes,
		ride.Status,
	).Scan(&ride.CreatedAt, &ride.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create ride: %w", err)
	}

	return nil
}

// GetByID получает поездку по ID вместе с данными водителя
func (r *RideRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Ride, error) {
	query := `
		SELECT ` + rideColumns + `, ` + driverColumns + `
		FROM rides r
		JOIN users u ON u.id = r.driver_id
		WHERE r.id = $1
	`

	ride, err := scanRideWithDriver(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ride by id: %w", err)
	}

	return ride, nil
}

// UpdateDetails обновляет поля, которые может менять водитель. Места и статус не трогает
func (r *RideRepository) UpdateDetails(ctx context.Context, ride *model.Ride) error {
	query := `
		UPDATE rides
		SET pickup_location = $1, pickup_lat = $2, pickup_lng = $3, pickup_geohash = $4,
			drop_location = $5, drop_lat = $6, drop_lng = $7, departs_at = $8,
			price_per_seat = $9, car_model = $10, car_number = $11, notes = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		ride.PickupLocation,
		ride.PickupLat,
		ride.PickupLng,
		ride.PickupGeohash,
		ride.DropLocation,
		ride.DropLat,
		ride.DropLng,
		ride.DepartsAt,
		ride.PricePerSeat,
		ride.CarModel,
		ride.CarNumber,
		ride.Notes,
		ride.ID,
	).Scan(&ride.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("update ride %s: %w", ride.ID, model.ErrRecordNotFound)
		}
		return fmt.Errorf("update ride: %w", err)
	}

	return nil
}

// List получает поездки по фильтру, новые первыми
func (r *RideRepository) List(ctx context.Context, filter model.RideFilter) ([]*model.Ride, error) {
	var where []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("r.status = $%d", filter.Status)
	}
	if filter.DriverID != uuid.Nil {
		add("r.driver_id = $%d", filter.DriverID)
	}
	if filter.MinSeats > 0 {
		add("r.available_seats >= $%d", filter.MinSeats)
	}
	if !filter.DepartsFrom.IsZero() {
		add("r.departs_at >= $%d", filter.DepartsFrom)
	}
	if !filter.DepartsTo.IsZero() {
		add("r.departs_at < $%d", filter.DepartsTo)
	}

	query := `
		SELECT ` + rideColumns + `, ` + driverColumns + `
		FROM rides r
		JOIN users u ON u.id = r.driver_id
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id"

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}
	defer rows.Close()

	rides := make([]*model.Ride, 0)
	for rows.Next() {
		ride, err := scanRideWithDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		rides = append(rides, ride)
	}

	return rides, rows.Err()
}

// ListDepartedBefore получает активные поездки, время отправления которых прошло
func (r *RideRepository) ListDepartedBefore(ctx context.Context, before time.Time) ([]*model.Ride, error) {
	return r.List(ctx, model.RideFilter{
		Status:    model.RideStatusActive,
		DepartsTo: before,
	})
}

// TryDecrementSeats занимает n мест одним условным UPDATE
func (r *RideRepository) TryDecrementSeats(ctx context.Context, id uuid.UUID, n int) (bool, error) {
	query := `
		UPDATE rides
		SET available_seats = available_seats - $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND available_seats >= $2
	`

	affected, err := r.ExecAffected(ctx, query, id, n)
	if err != nil {
		return false, fmt.Errorf("decrement seats: %w", err)
	}

	return affected == 1, nil
}

// IncrementSeats возвращает n мест, но не больше total_seats
func (r *RideRepository) IncrementSeats(ctx context.Context, id uuid.UUID, n int) error {
	query := `
		UPDATE rides
		SET available_seats = LEAST(available_seats + $2, total_seats), updated_at = NOW()
		WHERE id = $1
	`

	affected, err := r.ExecAffected(ctx, query, id, n)
	if err != nil {
		return fmt.Errorf("increment seats: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("increment seats of ride %s: %w", id, model.ErrRecordNotFound)
	}

	return nil
}

// SetStatus переводит поездку в статус to, если она всё ещё в статусе from
func (r *RideRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to model.RideStatus) (bool, error) {
	query := `
		UPDATE rides
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	affected, err := r.ExecAffected(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("set ride status: %w", err)
	}

	return affected == 1, nil
}

// CancelBookingsForRide отменяет бронирования поездки в указанных статусах
func (r *RideRepository) CancelBookingsForRide(ctx context.Context, id uuid.UUID, from []model.BookingStatus) (int64, error) {
	return r.moveBookings(ctx, id, from, model.BookingStatusCancelled)
}

// CompleteBookingsForRide завершает все accepted бронирования поездки
func (r *RideRepository) CompleteBookingsForRide(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.moveBookings(ctx, id, []model.BookingStatus{model.BookingStatusAccepted}, model.BookingStatusCompleted)
}

func (r *RideRepository) moveBookings(ctx context.Context, rideID uuid.UUID, from []model.BookingStatus, to model.BookingStatus) (int64, error) {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE ride_id = $1 AND status = ANY($2)
	`

	affected, err := r.ExecAffected(ctx, query, rideID, statusStrings(from), to)
	if err != nil {
		return 0, fmt.Errorf("move ride bookings to %s: %w", to, err)
	}

	return affected, nil
}

func statusStrings(statuses []model.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
