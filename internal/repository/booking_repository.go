package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `b.id, b.ride_id, b.passenger_id, b.seats, b.status, b.message, b.created_at, b.updated_at`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

func bookingFields(b *model.Booking) []any {
	return []any{
		&b.ID,
		&b.RideID,
		&b.PassengerID,
		&b.Seats,
		&b.Status,
		&b.Message,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (id, ride_id, passenger_id, seats, status, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.ID,
		booking.RideID,
		booking.PassengerID,
		booking.Seats,
		booking.Status,
		booking.Message,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create booking: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.id = $1
	`

	var booking model.Booking
	err := r.QueryRow(ctx, query, id).Scan(bookingFields(&booking)...)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return &booking, nil
}

// SetStatus меняет статус, только если бронирование всё ещё в статусе from
func (r *BookingRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus) (*model.Booking, error) {
	query := `
		UPDATE bookings b
		SET status = $3, updated_at = NOW()
		WHERE b.id = $1 AND b.status = $2
		RETURNING ` + bookingColumns

	var booking model.Booking
	err := r.QueryRow(ctx, query, id, from, to).Scan(bookingFields(&booking)...)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	return &booking, nil
}

// ListByPassenger получает бронирования пассажира вместе с поездками, новые первыми
func (r *BookingRepository) ListByPassenger(ctx context.Context, passengerID uuid.UUID) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `, ` + rideColumns + `, ` + driverColumns + `
		FROM bookings b
		JOIN rides r ON r.id = b.ride_id
		JOIN users u ON u.id = r.driver_id
		WHERE b.passenger_id = $1
		ORDER BY b.created_at DESC
	`

	rows, err := r.Query(ctx, query, passengerID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by passenger: %w", err)
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		var booking model.Booking
		var ride model.Ride
		var driver model.User

		dest := append(bookingFields(&booking), rideFields(&ride)...)
		dest = append(dest, &driver.ID, &driver.Name, &driver.Photo, &driver.Rating, &driver.TotalRatings)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}

		ride.Driver = &driver
		booking.Ride = &ride
		bookings = append(bookings, &booking)
	}

	return bookings, rows.Err()
}

// ListByDriverRides получает бронирования на поездки водителя, новые первыми
func (r *BookingRepository) ListByDriverRides(ctx context.Context, driverID uuid.UUID) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `, ` + rideColumns + `,
			p.id, p.name, p.phone, p.photo, p.rating, p.total_ratings
		FROM bookings b
		JOIN rides r ON r.id = b.ride_id
		JOIN users p ON p.id = b.passenger_id
		WHERE r.driver_id = $1
		ORDER BY b.created_at DESC
	`

	rows, err := r.Query(ctx, query, driverID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by driver: %w", err)
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		var booking model.Booking
		var ride model.Ride
		var passenger model.User

		dest := append(bookingFields(&booking), rideFields(&ride)...)
		dest = append(dest, &passenger.ID, &passenger.Name, &passenger.Phone, &passenger.Photo,
			&passenger.Rating, &passenger.TotalRatings)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}

		booking.Ride = &ride
		booking.Passenger = &passenger
		bookings = append(bookings, &booking)
	}

	return bookings, rows.Err()
}

// ListByRide получает бронирования поездки, при необходимости только в заданных статусах
func (r *BookingRepository) ListByRide(ctx context.Context, rideID uuid.UUID, statuses []model.BookingStatus) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.ride_id = $1 AND (cardinality($2::text[]) = 0 OR b.status = ANY($2))
		ORDER BY b.created_at DESC
	`

	rows, err := r.Query(ctx, query, rideID, statusStrings(statuses))
	if err != nil {
		return nil, fmt.Errorf("get bookings by ride: %w", err)
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		var booking model.Booking
		if err := rows.Scan(bookingFields(&booking)...); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	return bookings, rows.Err()
}

// HasActive проверяет, есть ли у пассажира pending или accepted бронирование на поездку
func (r *BookingRepository) HasActive(ctx context.Context, rideID, passengerID uuid.UUID) (bool, error) {
	return r.exists(ctx, rideID, passengerID, model.BookingStatusPending, model.BookingStatusAccepted)
}

// HasCompleted проверяет, ездил ли пассажир в этой поездке
func (r *BookingRepository) HasCompleted(ctx context.Context, rideID, passengerID uuid.UUID) (bool, error) {
	return r.exists(ctx, rideID, passengerID, model.BookingStatusCompleted)
}

func (r *BookingRepository) exists(ctx context.Context, rideID, passengerID uuid.UUID, statuses ...model.BookingStatus) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE ride_id = $1 AND passenger_id = $2 AND status = ANY($3)
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, rideID, passengerID, statusStrings(statuses)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check booking exists: %w", err)
	}

	return exists, nil
}
