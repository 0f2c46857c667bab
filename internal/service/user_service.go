package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfilePatch is a partial profile update. Nil fields are left as is.
type ProfilePatch struct {
	Name           *string
	Photo          *string
	CarModel       *string
	CarNumber      *string
	TelegramChatID *int64
}

type UserService struct {
	userRepo UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// EnsureUser returns the caller's profile, creating it on first contact
func (s *UserService) EnsureUser(ctx context.Context, caller model.Caller) (*model.User, error) {
	existing, err := s.userRepo.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	user := &model.User{
		ID:    caller.ID,
		Phone: caller.Phone,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.String("user_id", user.ID.String()),
	)

	return user, nil
}

// GetProfile returns the caller's own profile
func (s *UserService) GetProfile(ctx context.Context, caller model.Caller) (*model.User, error) {
	return s.GetByID(ctx, caller.ID)
}

// GetByID returns a user by id
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetByTelegramChatID returns the user linked to a Telegram chat
func (s *UserService) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error) {
	user, err := s.userRepo.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get user by telegram chat: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies the patch to the caller's profile
func (s *UserService) UpdateProfile(ctx context.Context, caller model.Caller, patch ProfilePatch) (*model.User, error) {
	user, err := s.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Photo != nil {
		user.Photo = *patch.Photo
	}
	if patch.CarModel != nil {
		user.CarModel = *patch.CarModel
	}
	if patch.CarNumber != nil {
		user.CarNumber = *patch.CarNumber
	}
	if patch.TelegramChatID != nil {
		chatID := *patch.TelegramChatID
		if chatID == 0 {
			user.TelegramChatID = nil
		} else {
			user.TelegramChatID = &chatID
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User profile updated",
		zap.String("user_id", user.ID.String()),
	)

	return user, nil
}
