package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatTarget points at the conversation a message belongs to. Exactly one id must be set.
type ChatTarget struct {
	BookingID *uuid.UUID
	RequestID *uuid.UUID
}

type ChatService struct {
	chatRepo    ChatRepository
	bookingRepo BookingRepository
	rideRepo    RideRepository
	requestRepo PrivateRequestRepository
	logger      *zap.Logger
}

func NewChatService(
	chatRepo ChatRepository,
	bookingRepo BookingRepository,
	rideRepo RideRepository,
	requestRepo PrivateRequestRepository,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		bookingRepo: bookingRepo,
		rideRepo:    rideRepo,
		requestRepo: requestRepo,
		logger:      logger,
	}
}

// chatParties describes who may talk in a conversation and whether it is still open.
type chatParties struct {
	first  uuid.UUID
	second *uuid.UUID
	open   bool
}

func (p chatParties) has(id uuid.UUID) bool {
	return p.first == id || (p.second != nil && *p.second == id)
}

// counterpart returns the other side for id, or nil if there is none yet.
func (p chatParties) counterpart(id uuid.UUID) *uuid.UUID {
	if p.first == id {
		return p.second
	}
	return &p.first
}

// Send posts a message to a booking or request conversation
func (s *ChatService) Send(ctx context.Context, caller model.Caller, target ChatTarget, content string) (*model.ChatMessage, error) {
	if (target.BookingID == nil) == (target.RequestID == nil) {
		return nil, ErrChatTarget
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalidf("message cannot be empty")
	}

	kind, contextID := model.ChatKindBooking, uuid.Nil
	if target.BookingID != nil {
		contextID = *target.BookingID
	} else {
		kind, contextID = model.ChatKindRequest, *target.RequestID
	}

	parties, err := s.parties(ctx, kind, contextID)
	if err != nil {
		return nil, err
	}
	if !parties.has(caller.ID) {
		return nil, ErrNotChatParty
	}
	if !parties.open {
		return nil, ErrChatClosed
	}
	receiver := parties.counterpart(caller.ID)
	if receiver == nil {
		return nil, ErrNoChatPartner
	}

	msg := &model.ChatMessage{
		ID:         uuid.New(),
		BookingID:  target.BookingID,
		RequestID:  target.RequestID,
		SenderID:   caller.ID,
		ReceiverID: *receiver,
		Content:    content,
	}
	if err := s.chatRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create chat message: %w", err)
	}

	s.logger.Debug("Chat message sent",
		zap.String("kind", string(kind)),
		zap.String("context_id", contextID.String()),
		zap.String("sender_id", caller.ID.String()),
	)

	return msg, nil
}

// List returns the conversation in creation order and marks the caller's incoming messages as read.
func (s *ChatService) List(ctx context.Context, caller model.Caller, kind model.ChatKind, contextID uuid.UUID) ([]*model.ChatMessage, error) {
	if kind != model.ChatKindBooking && kind != model.ChatKindRequest {
		return nil, invalidf("unknown chat type %q", kind)
	}

	parties, err := s.parties(ctx, kind, contextID)
	if err != nil {
		return nil, err
	}
	if !parties.has(caller.ID) {
		return nil, ErrNotChatParty
	}

	messages, err := s.chatRepo.List(ctx, kind, contextID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}

	if _, err := s.chatRepo.MarkRead(ctx, kind, contextID, caller.ID); err != nil {
		return nil, fmt.Errorf("mark chat read: %w", err)
	}
	for _, m := range messages {
		if m.ReceiverID == caller.ID {
			m.Read = true
		}
	}

	return messages, nil
}

func (s *ChatService) parties(ctx context.Context, kind model.ChatKind, contextID uuid.UUID) (chatParties, error) {
	switch kind {
	case model.ChatKindBooking:
		booking, err := s.bookingRepo.GetByID(ctx, contextID)
		if err != nil {
			return chatParties{}, fmt.Errorf("get booking: %w", err)
		}
		if booking == nil {
			return chatParties{}, ErrBookingNotFound
		}
		ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
		if err != nil {
			return chatParties{}, fmt.Errorf("get ride: %w", err)
		}
		if ride == nil {
			return chatParties{}, ErrRideNotFound
		}
		driverID := ride.DriverID
		return chatParties{
			first:  booking.PassengerID,
			second: &driverID,
			open:   booking.Status.IsActive(),
		}, nil

	default:
		req, err := s.requestRepo.GetByID(ctx, contextID)
		if err != nil {
			return chatParties{}, fmt.Errorf("get private request: %w", err)
		}
		if req == nil {
			return chatParties{}, ErrRequestNotFound
		}
		return chatParties{
			first:  req.PassengerID,
			second: req.RespondedBy,
			open: req.Status == model.PrivateRequestStatusActive ||
				req.Status == model.PrivateRequestStatusResponded,
		}, nil
	}
}
