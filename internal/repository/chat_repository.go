package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepository struct {
	*base.Repository
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{Repository: base.NewRepository(pool)}
}

// chatColumn maps a chat kind to the column holding its context id.
func chatColumn(kind model.ChatKind) (string, error) {
	switch kind {
	case model.ChatKindBooking:
		return "booking_id", nil
	case model.ChatKindRequest:
		return "request_id", nil
	}
	return "", fmt.Errorf("unknown chat kind %q", kind)
}

// Create сохраняет сообщение
func (r *ChatRepository) Create(ctx context.Context, msg *model.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, booking_id, request_id, sender_id, receiver_id, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.QueryRow(
		ctx, query,
		msg.ID,
		msg.BookingID,
		msg.RequestID,
		msg.SenderID,
		msg.ReceiverID,
		msg.Content,
	).Scan(&msg.CreatedAt)

	if err != nil {
		return fmt.Errorf("create chat message: %w", err)
	}

	return nil
}

// List получает переписку, старые сообщения первыми
func (r *ChatRepository) List(ctx context.Context, kind model.ChatKind, contextID uuid.UUID) ([]*model.ChatMessage, error) {
	column, err := chatColumn(kind)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, booking_id, request_id, sender_id, receiver_id, content, read, created_at
		FROM chat_messages
		WHERE ` + column + ` = $1
		ORDER BY created_at ASC
	`

	rows, err := r.Query(ctx, query, contextID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*model.ChatMessage, 0)
	for rows.Next() {
		var msg model.ChatMessage
		err := rows.Scan(
			&msg.ID,
			&msg.BookingID,
			&msg.RequestID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Content,
			&msg.Read,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// MarkRead помечает непрочитанные сообщения получателя как прочитанные
func (r *ChatRepository) MarkRead(ctx context.Context, kind model.ChatKind, contextID, receiverID uuid.UUID) (int64, error) {
	column, err := chatColumn(kind)
	if err != nil {
		return 0, err
	}

	query := `
		UPDATE chat_messages
		SET read = TRUE
		WHERE ` + column + ` = $1 AND receiver_id = $2 AND read = FALSE
	`

	affected, err := r.ExecAffected(ctx, query, contextID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("mark chat messages read: %w", err)
	}

	return affected, nil
}
