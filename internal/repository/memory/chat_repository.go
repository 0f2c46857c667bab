package memory

import (
	"context"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
)

type ChatRepository struct {
	s *Store
}

func NewChatRepository(s *Store) *ChatRepository {
	return &ChatRepository{s: s}
}

func (r *ChatRepository) Create(ctx context.Context, msg *model.ChatMessage) error {
	defer r.s.lock(ctx)()

	msg.CreatedAt = r.s.now()
	c := *msg
	r.s.d.messages = append(r.s.d.messages, &c)
	return nil
}

func (r *ChatRepository) List(ctx context.Context, kind model.ChatKind, contextID uuid.UUID) ([]*model.ChatMessage, error) {
	defer r.s.lock(ctx)()

	result := make([]*model.ChatMessage, 0)
	for _, m := range r.s.d.messages {
		if inChat(m, kind, contextID) {
			c := *m
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *ChatRepository) MarkRead(ctx context.Context, kind model.ChatKind, contextID, receiverID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()

	var n int64
	for _, m := range r.s.d.messages {
		if inChat(m, kind, contextID) && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func inChat(m *model.ChatMessage, kind model.ChatKind, contextID uuid.UUID) bool {
	switch kind {
	case model.ChatKindBooking:
		return m.BookingID != nil && *m.BookingID == contextID
	case model.ChatKindRequest:
		return m.RequestID != nil && *m.RequestID == contextID
	}
	return false
}
