package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/Freeeeeet/carpool/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepository struct {
	*base.Repository
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{Repository: base.NewRepository(pool)}
}

// Create сохраняет отзыв
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (id, ride_id, reviewer_id, reviewee_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.QueryRow(
		ctx, query,
		review.ID,
		review.RideID,
		review.ReviewerID,
		review.RevieweeID,
		review.Rating,
		review.Comment,
	).Scan(&review.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create review: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

// Exists проверяет, оставлял ли автор уже отзыв этому пользователю за поездку
func (r *ReviewRepository) Exists(ctx context.Context, rideID, reviewerID, revieweeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM reviews
			WHERE ride_id = $1 AND reviewer_id = $2 AND reviewee_id = $3
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, rideID, reviewerID, revieweeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}

	return exists, nil
}

// ListByReviewee получает отзывы о пользователе, новые первыми
func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeID uuid.UUID) ([]*model.Review, error) {
	query := `
		SELECT id, ride_id, reviewer_id, reviewee_id, rating, comment, created_at
		FROM reviews
		WHERE reviewee_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, revieweeID)
	if err != nil {
		return nil, fmt.Errorf("get reviews by reviewee: %w", err)
	}
	defer rows.Close()

	reviews := make([]*model.Review, 0)
	for rows.Next() {
		var review model.Review
		err := rows.Scan(
			&review.ID,
			&review.RideID,
			&review.ReviewerID,
			&review.RevieweeID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, &review)
	}

	return reviews, rows.Err()
}

// RatingStats получает средний рейтинг и количество отзывов пользователя
func (r *ReviewRepository) RatingStats(ctx context.Context, revieweeID uuid.UUID) (float64, int, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
		FROM reviews
		WHERE reviewee_id = $1
	`

	var avg float64
	var count int
	if err := r.QueryRow(ctx, query, revieweeID).Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("get rating stats: %w", err)
	}

	return avg, count, nil
}
