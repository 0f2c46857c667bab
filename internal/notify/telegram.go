// Package notify delivers booking events to users over Telegram.
package notify

import (
	"context"

	"github.com/Freeeeeet/carpool/internal/metrics"
	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender is the part of *bot.Bot used for delivery.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier queues events and sends them from a single worker.
// Notify never blocks: events are dropped when the queue is full.
type TelegramNotifier struct {
	sender MessageSender
	queue  chan model.BookingEvent
	logger *zap.Logger
}

func NewTelegramNotifier(sender MessageSender, buffer int, logger *zap.Logger) *TelegramNotifier {
	if buffer <= 0 {
		buffer = 100
	}
	return &TelegramNotifier{
		sender: sender,
		queue:  make(chan model.BookingEvent, buffer),
		logger: logger,
	}
}

func (n *TelegramNotifier) Notify(_ context.Context, event model.BookingEvent) {
	if event.Recipient == nil || event.Recipient.TelegramChatID == nil {
		return
	}

	select {
	case n.queue <- event:
	default:
		metrics.NotificationDropped()
		n.logger.Warn("Notification queue full, dropping event",
			zap.String("kind", string(event.Kind)),
			zap.String("user_id", event.Recipient.ID.String()),
		)
	}
}

// Run sends queued events until ctx is cancelled.
func (n *TelegramNotifier) Run(ctx context.Context) error {
	n.logger.Info("Starting telegram notifier")

	for {
		select {
		case event := <-n.queue:
			n.deliver(ctx, event)
		case <-ctx.Done():
			n.logger.Info("Telegram notifier stopped")
			return nil
		}
	}
}

func (n *TelegramNotifier) deliver(ctx context.Context, event model.BookingEvent) {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    *event.Recipient.TelegramChatID,
		Text:      FormatEvent(event),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		n.logger.Warn("Failed to send notification",
			zap.String("kind", string(event.Kind)),
			zap.String("user_id", event.Recipient.ID.String()),
			zap.Error(err),
		)
		return
	}

	n.logger.Debug("Notification sent",
		zap.String("kind", string(event.Kind)),
		zap.String("user_id", event.Recipient.ID.String()),
	)
}
