package handlers

import (
	"context"
	"errors"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser finds the account linked to the chat of the update.
// Returns false after replying if there is none.
func (h *Handlers) requireUser(ctx context.Context, update *models.Update) (*model.User, bool) {
	chatID := update.Message.Chat.ID

	user, err := h.userService.GetByTelegramChatID(ctx, chatID)
	if errors.Is(err, service.ErrUserNotFound) {
		h.reply(ctx, chatID, "🔗 This chat is not linked yet. Use /link &lt;token&gt; first.")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to get user by chat", zap.Int64("chat_id", chatID), zap.Error(err))
		h.reply(ctx, chatID, "❌ Something went wrong. Try again later.")
		return nil, false
	}

	return user, true
}

func callerOf(user *model.User) model.Caller {
	return model.Caller{ID: user.ID, Role: model.RoleUser, Phone: user.Phone}
}
