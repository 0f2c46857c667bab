package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service operation that is caused by the
// request (not by infrastructure) wraps exactly one of them.
var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidOperation     = errors.New("invalid operation")
	ErrInsufficientCapacity = errors.New("not enough seats available")
)

var (
	ErrRideNotFound    = fmt.Errorf("ride %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrRequestNotFound = fmt.Errorf("request %w", ErrNotFound)

	ErrNotRideDriver      = fmt.Errorf("%w: only the driver can do this", ErrForbidden)
	ErrNotBookingParty    = fmt.Errorf("%w: not a participant of this booking", ErrForbidden)
	ErrNotRequestOwner    = fmt.Errorf("%w: not the owner of this request", ErrForbidden)
	ErrNotChatParty       = fmt.Errorf("%w: not a participant of this chat", ErrForbidden)
	ErrNotRideParticipant = fmt.Errorf("%w: you were not part of this ride", ErrForbidden)

	ErrOwnRide            = fmt.Errorf("%w: cannot book your own ride", ErrInvalidOperation)
	ErrRideNotActive      = fmt.Errorf("%w: ride is not active", ErrInvalidOperation)
	ErrDuplicateBooking   = fmt.Errorf("%w: you already have a booking for this ride", ErrInvalidOperation)
	ErrInvalidSeats       = fmt.Errorf("%w: seats must be at least 1", ErrInvalidOperation)
	ErrInvalidStatus      = fmt.Errorf("%w: unknown status", ErrInvalidOperation)
	ErrInvalidTransition  = fmt.Errorf("%w: status transition not allowed", ErrInvalidOperation)
	ErrOwnRequest         = fmt.Errorf("%w: cannot respond to your own request", ErrInvalidOperation)
	ErrRequestClosed      = fmt.Errorf("%w: request is no longer open", ErrInvalidOperation)
	ErrChatClosed         = fmt.Errorf("%w: chat is closed", ErrInvalidOperation)
	ErrNoChatPartner      = fmt.Errorf("%w: no chat partner available", ErrInvalidOperation)
	ErrChatTarget         = fmt.Errorf("%w: provide exactly one of booking_id or request_id", ErrInvalidOperation)
	ErrRideNotCompleted   = fmt.Errorf("%w: can only review completed rides", ErrInvalidOperation)
	ErrSelfReview         = fmt.Errorf("%w: cannot review yourself", ErrInvalidOperation)
	ErrDuplicateReview    = fmt.Errorf("%w: already reviewed this user for this ride", ErrInvalidOperation)
	ErrInvalidRideDetails = fmt.Errorf("%w: invalid ride details", ErrInvalidOperation)
)

// invalidf builds an ErrInvalidOperation with a custom message.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidOperation}, args...)...)
}
