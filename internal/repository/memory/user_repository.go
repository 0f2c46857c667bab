package memory

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
)

type UserRepository struct {
	s *Store
}

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.d.users[user.ID]; ok {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	user.CreatedAt = r.s.now()
	r.s.d.users[user.ID] = copyUser(user)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	defer r.s.lock(ctx)()
	return copyUser(r.s.d.users[id]), nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	defer r.s.lock(ctx)()

	users := make(map[uuid.UUID]*model.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.d.users[id]; ok {
			users[id] = copyUser(u)
		}
	}
	return users, nil
}

func (r *UserRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.d.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.d.users[user.ID]
	if !ok {
		return fmt.Errorf("update user %s: %w", user.ID, model.ErrRecordNotFound)
	}
	stored.Name = user.Name
	stored.Photo = user.Photo
	stored.CarModel = user.CarModel
	stored.CarNumber = user.CarNumber
	stored.TelegramChatID = copyUser(user).TelegramChatID
	return nil
}

func (r *UserRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, total int) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.d.users[id]
	if !ok {
		return fmt.Errorf("update rating of user %s: %w", id, model.ErrRecordNotFound)
	}
	stored.Rating = rating
	stored.TotalRatings = total
	return nil
}

func (r *UserRepository) IncrementRideCounters(ctx context.Context, driverID uuid.UUID, passengerIDs []uuid.UUID) error {
	defer r.s.lock(ctx)()

	if u, ok := r.s.d.users[driverID]; ok {
		u.TotalRidesAsDriver++
	}
	for _, id := range passengerIDs {
		if u, ok := r.s.d.users[id]; ok {
			u.TotalRidesAsPassenger++
		}
	}
	return nil
}
