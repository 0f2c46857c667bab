package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/notify"
	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const dateFormat = "02.01.2006 15:04"

// HandleStart handles /start
func (h *Handlers) HandleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	name := ""
	if update.Message.From != nil {
		name = update.Message.From.FirstName
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n\n"+
			"This bot sends you updates about your carpool bookings.\n\n"+
			"To receive them, copy your token from the app and send:\n"+
			"<code>/link &lt;token&gt;</code>\n\n"+
			"/help - list of commands",
		html.EscapeString(name),
	)
	h.reply(ctx, update.Message.Chat.ID, text)
}

// HandleHelp handles /help
func (h *Handlers) HandleHelp(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := "📚 Commands:\n\n" +
		"/link &lt;token&gt; - link this chat to your account\n" +
		"/unlink - stop notifications in this chat\n" +
		"/mybookings - your bookings as a passenger\n" +
		"/myrides - rides you drive\n" +
		"/help - this message"
	h.reply(ctx, update.Message.Chat.ID, text)
}

// HandleLink handles /link <token>. The chat is moved over if another account had it.
func (h *Handlers) HandleLink(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	token := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/link"))
	if token == "" {
		h.reply(ctx, chatID, "Usage: <code>/link &lt;token&gt;</code>")
		return
	}

	caller, err := h.tokens.Resolve(token)
	if err != nil {
		h.reply(ctx, chatID, "❌ The token is invalid or expired.")
		return
	}

	if _, err := h.userService.EnsureUser(ctx, caller); err != nil {
		h.logger.Error("Failed to ensure user", zap.String("user_id", caller.ID.String()), zap.Error(err))
		h.reply(ctx, chatID, "❌ Something went wrong. Try again later.")
		return
	}

	if previous, err := h.userService.GetByTelegramChatID(ctx, chatID); err == nil && previous.ID != caller.ID {
		if err := h.setChat(ctx, callerOf(previous), 0); err != nil {
			h.logger.Error("Failed to unlink previous account", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}

	if err := h.setChat(ctx, caller, chatID); err != nil {
		h.logger.Error("Failed to link chat", zap.String("user_id", caller.ID.String()), zap.Error(err))
		h.reply(ctx, chatID, "❌ Something went wrong. Try again later.")
		return
	}

	h.logger.Info("Telegram chat linked",
		zap.String("user_id", caller.ID.String()),
		zap.Int64("chat_id", chatID),
	)
	h.reply(ctx, chatID, "✅ Chat linked. Booking updates will arrive here.")
}

// HandleUnlink handles /unlink
func (h *Handlers) HandleUnlink(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user, ok := h.requireUser(ctx, update)
	if !ok {
		return
	}

	if err := h.setChat(ctx, callerOf(user), 0); err != nil {
		h.logger.Error("Failed to unlink chat", zap.String("user_id", user.ID.String()), zap.Error(err))
		h.reply(ctx, update.Message.Chat.ID, "❌ Something went wrong. Try again later.")
		return
	}
	h.reply(ctx, update.Message.Chat.ID, "🔕 Notifications turned off.")
}

// HandleMyBookings handles /mybookings
func (h *Handlers) HandleMyBookings(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user, ok := h.requireUser(ctx, update)
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListMyBookings(ctx, callerOf(user))
	if err != nil {
		h.logger.Error("Failed to list bookings", zap.String("user_id", user.ID.String()), zap.Error(err))
		h.reply(ctx, update.Message.Chat.ID, "❌ Something went wrong. Try again later.")
		return
	}

	if len(bookings) == 0 {
		h.reply(ctx, update.Message.Chat.ID, "🎫 You have no bookings yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎫 <b>Your bookings</b>\n")
	for _, b := range bookings {
		sb.WriteString("\n")
		sb.WriteString(FormatBooking(b))
	}
	h.reply(ctx, update.Message.Chat.ID, sb.String())
}

// HandleMyRides handles /myrides
func (h *Handlers) HandleMyRides(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user, ok := h.requireUser(ctx, update)
	if !ok {
		return
	}

	rides, err := h.rideService.ListMyRides(ctx, callerOf(user))
	if err != nil {
		h.logger.Error("Failed to list rides", zap.String("user_id", user.ID.String()), zap.Error(err))
		h.reply(ctx, update.Message.Chat.ID, "❌ Something went wrong. Try again later.")
		return
	}

	if len(rides) == 0 {
		h.reply(ctx, update.Message.Chat.ID, "🚗 You have not published any rides.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🚗 <b>Your rides</b>\n")
	for _, r := range rides {
		sb.WriteString("\n")
		sb.WriteString(FormatRide(r))
	}
	h.reply(ctx, update.Message.Chat.ID, sb.String())
}

func (h *Handlers) setChat(ctx context.Context, caller model.Caller, chatID int64) error {
	_, err := h.userService.UpdateProfile(ctx, caller, service.ProfilePatch{TelegramChatID: &chatID})
	return err
}

// FormatBooking renders one line per booking
func FormatBooking(b *model.Booking) string {
	d := notify.GetStatusDisplay(b.Status)
	route := ""
	if b.Ride != nil {
		route = fmt.Sprintf(" %s → %s, %s",
			html.EscapeString(b.Ride.PickupLocation),
			html.EscapeString(b.Ride.DropLocation),
			b.Ride.DepartsAt.Format(dateFormat),
		)
	}
	return fmt.Sprintf("%s%s (%d seats) - %s", d.Emoji, route, b.Seats, d.Text)
}

func FormatRide(r *model.Ride) string {
	emoji := map[model.RideStatus]string{
		model.RideStatusActive:    "🟢",
		model.RideStatusCancelled: "❌",
		model.RideStatusCompleted: "🏁",
	}[r.Status]

	return fmt.Sprintf("%s %s → %s, %s (%d/%d seats free)",
		emoji,
		html.EscapeString(r.PickupLocation),
		html.EscapeString(r.DropLocation),
		r.DepartsAt.Format(dateFormat),
		r.AvailableSeats,
		r.TotalSeats,
	)
}
