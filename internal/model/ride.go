package model

import (
	"time"

	"github.com/google/uuid"
)

type RideStatus string

const (
	RideStatusActive    RideStatus = "active"
	RideStatusCancelled RideStatus = "cancelled"
	RideStatusCompleted RideStatus = "completed"
)

// MaxRideSeats caps the capacity a driver can publish.
const MaxRideSeats = 8

type Ride struct {
	ID             uuid.UUID  `json:"id"`
	DriverID       uuid.UUID  `json:"driver_id"`
	PickupLocation string     `json:"pickup_location"`
	PickupLat      float64    `json:"pickup_lat"`
	PickupLng      float64    `json:"pickup_lng"`
	PickupGeohash  string     `json:"pickup_geohash"`
	DropLocation   string     `json:"drop_location"`
	DropLat        float64    `json:"drop_lat"`
	DropLng        float64    `json:"drop_lng"`
	DepartsAt      time.Time  `json:"departs_at"`
	TotalSeats     int        `json:"total_seats"`
	AvailableSeats int        `json:"available_seats"`
	PricePerSeat   float64    `json:"price_per_seat"`
	CarModel       string     `json:"car_model,omitempty"`
	CarNumber      string     `json:"car_number,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	Status         RideStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Driver *User `json:"driver,omitempty"`
}

// IsActive checks if the ride still accepts bookings
func (r *Ride) IsActive() bool {
	return r.Status == RideStatusActive
}

// RideFilter narrows ride listings. Zero values mean "no filter".
type RideFilter struct {
	Status   RideStatus
	DriverID uuid.UUID
	MinSeats int
	// DepartsFrom and DepartsTo bound departs_at as [from, to).
	DepartsFrom time.Time
	DepartsTo   time.Time
}

// RideSearch is the passenger-side search query.
type RideSearch struct {
	PickupLat   *float64
	PickupLng   *float64
	Date        *time.Time
	SeatsNeeded int
}
