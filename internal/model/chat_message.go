package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatKind string

const (
	ChatKindBooking ChatKind = "booking"
	ChatKindRequest ChatKind = "request"
)

type ChatMessage struct {
	ID         uuid.UUID  `json:"id"`
	BookingID  *uuid.UUID `json:"booking_id,omitempty"`
	RequestID  *uuid.UUID `json:"request_id,omitempty"`
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Content    string     `json:"content"`
	Read       bool       `json:"read"`
	CreatedAt  time.Time  `json:"created_at"`
}
