package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/carpool/internal/identity"
	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/repository/memory"
	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	sent []*bot.SendMessageParams
}

func (s *recordingSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.sent = append(s.sent, params)
	return &models.Message{}, nil
}

func (s *recordingSender) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1].Text
}

type fixture struct {
	h      *Handlers
	sender *recordingSender
	tokens *identity.JWTProvider
	users  *memory.UserRepository
	rides  *memory.RideRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	rides := memory.NewRideRepository(store)
	bookings := memory.NewBookingRepository(store)

	sender := &recordingSender{}
	tokens := identity.NewJWTProvider("secret", "carpool", time.Hour)

	h := NewHandlers(
		sender,
		tokens,
		service.NewUserService(users, logger),
		service.NewRideService(rides, logger),
		service.NewBookingService(store, rides, bookings, users, nil, service.BookingOptions{}, logger),
		logger,
	)
	return &fixture{h: h, sender: sender, tokens: tokens, users: users, rides: rides}
}

func message(chatID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		Chat: models.Chat{ID: chatID},
		From: &models.User{ID: chatID, FirstName: "Ivan"},
		Text: text,
	}}
}

func TestHandleStart(t *testing.T) {
	f := newFixture(t)
	f.h.HandleStart(context.Background(), nil, message(1, "/start"))
	assert.Contains(t, f.sender.last(t), "Ivan")
	assert.Equal(t, int64(1), f.sender.sent[0].ChatID)
}

func TestHandleLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	token, _, err := f.tokens.Issue(userID, "+79001234567", model.RoleUser)
	require.NoError(t, err)

	f.h.HandleLink(ctx, nil, message(42, "/link "+token))
	assert.Contains(t, f.sender.last(t), "Chat linked")

	user, err := f.users.GetByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, user.TelegramChatID)
	assert.Equal(t, int64(42), *user.TelegramChatID)

	// the same chat linked by another account moves over
	otherID := uuid.New()
	otherToken, _, err := f.tokens.Issue(otherID, "+79007654321", model.RoleUser)
	require.NoError(t, err)
	f.h.HandleLink(ctx, nil, message(42, "/link "+otherToken))

	user, err = f.users.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, user.TelegramChatID)

	linked, err := f.users.GetByTelegramChatID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, linked)
	assert.Equal(t, otherID, linked.ID)
}

func TestHandleLinkRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	f.h.HandleLink(context.Background(), nil, message(7, "/link"))
	assert.Contains(t, f.sender.last(t), "Usage")

	f.h.HandleLink(context.Background(), nil, message(7, "/link garbage"))
	assert.Contains(t, f.sender.last(t), "invalid or expired")
}

func TestHandleMyRidesRequiresLink(t *testing.T) {
	f := newFixture(t)
	f.h.HandleMyRides(context.Background(), nil, message(99, "/myrides"))
	assert.Contains(t, f.sender.last(t), "not linked")
}

func TestHandleMyRidesAndUnlink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	chatID := int64(5)
	driver := &model.User{ID: uuid.New(), TelegramChatID: &chatID}
	require.NoError(t, f.users.Create(ctx, driver))
	require.NoError(t, f.users.UpdateProfile(ctx, driver))
	require.NoError(t, f.rides.Create(ctx, &model.Ride{
		ID:             uuid.New(),
		DriverID:       driver.ID,
		PickupLocation: "Park <north>",
		DropLocation:   "Mall",
		DepartsAt:      time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC),
		TotalSeats:     3,
		AvailableSeats: 2,
		Status:         model.RideStatusActive,
	}))

	f.h.HandleMyRides(ctx, nil, message(chatID, "/myrides"))
	text := f.sender.last(t)
	assert.Contains(t, text, "Park &lt;north&gt; → Mall")
	assert.Contains(t, text, "01.05.2026 08:30")
	assert.Contains(t, text, "2/3 seats free")

	f.h.HandleUnlink(ctx, nil, message(chatID, "/unlink"))
	assert.Contains(t, f.sender.last(t), "turned off")

	stored, err := f.users.GetByID(ctx, driver.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TelegramChatID)
}

func TestFormatBooking(t *testing.T) {
	b := &model.Booking{
		Seats:  2,
		Status: model.BookingStatusAccepted,
		Ride: &model.Ride{
			PickupLocation: "A",
			DropLocation:   "B",
			DepartsAt:      time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
		},
	}
	assert.Equal(t, "✅ A → B, 02.01.2026 03:04 (2 seats) - Accepted", FormatBooking(b))
}
