package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // waiting for the driver
	BookingStatusAccepted  BookingStatus = "accepted"  // seats deducted from the ride
	BookingStatusRejected  BookingStatus = "rejected"  // declined by the driver
	BookingStatusCancelled BookingStatus = "cancelled" // cancelled by either party or by the ride
	BookingStatusCompleted BookingStatus = "completed" // ride finished
)

// bookingTransitions lists every allowed edge of the booking state machine.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:  {BookingStatusAccepted, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusAccepted: {BookingStatusCancelled, BookingStatusCompleted},
}

// ParseBookingStatus validates a status coming from a client.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch st := BookingStatus(s); st {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusRejected,
		BookingStatusCancelled, BookingStatusCompleted:
		return st, true
	}
	return "", false
}

// CanTransition reports whether the state machine has an edge from s to next.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, to := range bookingTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves this status.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// IsActive reports whether the booking still holds or requests seats.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusAccepted
}

type Booking struct {
	ID          uuid.UUID     `json:"id"`
	RideID      uuid.UUID     `json:"ride_id"`
	PassengerID uuid.UUID     `json:"passenger_id"`
	Seats       int           `json:"seats"`
	Status      BookingStatus `json:"status"`
	Message     string        `json:"message,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Filled by list queries for convenience, not stored.
	Ride      *Ride `json:"ride,omitempty"`
	Passenger *User `json:"passenger,omitempty"`
}
