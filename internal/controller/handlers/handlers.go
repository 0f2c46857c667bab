// Package handlers implements the Telegram bot commands.
package handlers

import (
	"context"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/notify"
	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// TokenResolver turns an API token into a caller.
type TokenResolver interface {
	Resolve(token string) (model.Caller, error)
}

type Handlers struct {
	sender         notify.MessageSender
	tokens         TokenResolver
	userService    *service.UserService
	rideService    *service.RideService
	bookingService *service.BookingService
	logger         *zap.Logger
}

// NewHandlers builds the command handlers. Replies go through sender, usually the bot itself.
func NewHandlers(
	sender notify.MessageSender,
	tokens TokenResolver,
	userService *service.UserService,
	rideService *service.RideService,
	bookingService *service.BookingService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		sender:         sender,
		tokens:         tokens,
		userService:    userService,
		rideService:    rideService,
		bookingService: bookingService,
		logger:         logger,
	}
}

func (h *Handlers) reply(ctx context.Context, chatID int64, text string) {
	_, err := h.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		h.logger.Warn("Failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
