package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, phone, name, photo, car_model, car_number, telegram_chat_id, rating,
	total_ratings, total_rides_as_driver, total_rides_as_passenger, created_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(pool)}
}

func scanUser(row scanner) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Phone,
		&user.Name,
		&user.Photo,
		&user.CarModel,
		&user.CarNumber,
		&user.TelegramChatID,
		&user.Rating,
		&user.TotalRatings,
		&user.TotalRidesAsDriver,
		&user.TotalRidesAsPassenger,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create создаёт пользователя. Если ID уже есть, ничего не делает
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, phone, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at
	`

	err := r.QueryRow(ctx, query, user.ID, user.Phone, user.Name).Scan(&user.CreatedAt)
	if err != nil && !base.IsNotFound(err) {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // user not found
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// GetByTelegramChatID ищет пользователя, привязавшего этот чат
func (r *UserRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_chat_id = $1`

	user, err := scanUser(r.QueryRow(ctx, query, chatID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by telegram chat: %w", err)
	}

	return user, nil
}

// GetByIDs получает сразу несколько пользователей по ID
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	defer rows.Close()

	users := make(map[uuid.UUID]*model.User, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users[user.ID] = user
	}

	return users, rows.Err()
}

// UpdateProfile обновляет редактируемые поля профиля
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, photo = $2, car_model = $3, car_number = $4, telegram_chat_id = $5
		WHERE id = $6
	`

	affected, err := r.ExecAffected(
		ctx, query,
		user.Name,
		user.Photo,
		user.CarModel,
		user.CarNumber,
		user.TelegramChatID,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update user %s: %w", user.ID, model.ErrRecordNotFound)
	}

	return nil
}

// UpdateRating сохраняет пересчитанный рейтинг
func (r *UserRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, total int) error {
	query := `UPDATE users SET rating = $1, total_ratings = $2 WHERE id = $3`

	affected, err := r.ExecAffected(ctx, query, rating, total, id)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update rating of user %s: %w", id, model.ErrRecordNotFound)
	}

	return nil
}

// IncrementRideCounters засчитывает завершённую поездку водителю и каждому пассажиру
func (r *UserRepository) IncrementRideCounters(ctx context.Context, driverID uuid.UUID, passengerIDs []uuid.UUID) error {
	_, err := r.ExecAffected(ctx,
		`UPDATE users SET total_rides_as_driver = total_rides_as_driver + 1 WHERE id = $1`,
		driverID,
	)
	if err != nil {
		return fmt.Errorf("increment driver rides: %w", err)
	}

	if len(passengerIDs) == 0 {
		return nil
	}

	_, err = r.ExecAffected(ctx,
		`UPDATE users SET total_rides_as_passenger = total_rides_as_passenger + 1 WHERE id = ANY($1)`,
		passengerIDs,
	)
	if err != nil {
		return fmt.Errorf("increment passenger rides: %w", err)
	}

	return nil
}
