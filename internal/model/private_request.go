package model

import (
	"time"

	"github.com/google/uuid"
)

type PrivateRequestStatus string

const (
	PrivateRequestStatusActive    PrivateRequestStatus = "active"
	PrivateRequestStatusResponded PrivateRequestStatus = "responded"
	PrivateRequestStatusCancelled PrivateRequestStatus = "cancelled"
)

// PrivateRequest is a passenger's ride wish not tied to an existing ride.
type PrivateRequest struct {
	ID           uuid.UUID            `json:"id"`
	PassengerID  uuid.UUID            `json:"passenger_id"`
	FromLocation string               `json:"from_location"`
	FromLat      float64              `json:"from_lat"`
	FromLng      float64              `json:"from_lng"`
	FromGeohash  string               `json:"from_geohash"`
	ToLocation   string               `json:"to_location"`
	ToLat        float64              `json:"to_lat"`
	ToLng        float64              `json:"to_lng"`
	PreferredAt  time.Time            `json:"preferred_at"`
	SeatsNeeded  int                  `json:"seats_needed"`
	Message      string               `json:"message,omitempty"`
	Status       PrivateRequestStatus `json:"status"`
	RespondedBy  *uuid.UUID           `json:"responded_by,omitempty"`
	RideOfferID  *uuid.UUID           `json:"ride_offer_id,omitempty"`
	ExpiresAt    time.Time            `json:"expires_at"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// IsOpen checks if drivers can still respond to the request
func (r *PrivateRequest) IsOpen(now time.Time) bool {
	return r.Status == PrivateRequestStatusActive && now.Before(r.ExpiresAt)
}

// NearbyFilter selects open requests around a point.
type NearbyFilter struct {
	ExcludePassenger uuid.UUID
	Now              time.Time
	// GeohashCells restricts results to requests whose from_geohash starts with one of the cells.
	GeohashCells []string
}
