package model

type BookingEventKind string

const (
	BookingEventCreated       BookingEventKind = "booking_created"
	BookingEventStatusChanged BookingEventKind = "booking_status_changed"
	BookingEventRideCancelled BookingEventKind = "ride_cancelled"
	BookingEventRideCompleted BookingEventKind = "ride_completed"
)

// BookingEvent is delivered to one participant of a booking.
type BookingEvent struct {
	Kind      BookingEventKind
	Recipient *User
	Booking   *Booking
	Ride      *Ride
}
