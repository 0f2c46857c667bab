package memory

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
)

type ReviewRepository struct {
	s *Store
}

func NewReviewRepository(s *Store) *ReviewRepository {
	return &ReviewRepository{s: s}
}

func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	defer r.s.lock(ctx)()

	for _, rv := range r.s.d.reviews {
		if rv.RideID == review.RideID && rv.ReviewerID == review.ReviewerID && rv.RevieweeID == review.RevieweeID {
			return fmt.Errorf("create review: %w", model.ErrAlreadyExists)
		}
	}
	review.CreatedAt = r.s.now()
	c := *review
	r.s.d.reviews = append(r.s.d.reviews, &c)
	return nil
}

func (r *ReviewRepository) Exists(ctx context.Context, rideID, reviewerID, revieweeID uuid.UUID) (bool, error) {
	defer r.s.lock(ctx)()

	for _, rv := range r.s.d.reviews {
		if rv.RideID == rideID && rv.ReviewerID == reviewerID && rv.RevieweeID == revieweeID {
			return true, nil
		}
	}
	return false, nil
}

// ListByReviewee returns reviews about the user, newest first.
func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeID uuid.UUID) ([]*model.Review, error) {
	defer r.s.lock(ctx)()

	result := make([]*model.Review, 0)
	for i := len(r.s.d.reviews) - 1; i >= 0; i-- {
		if rv := r.s.d.reviews[i]; rv.RevieweeID == revieweeID {
			c := *rv
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *ReviewRepository) RatingStats(ctx context.Context, revieweeID uuid.UUID) (float64, int, error) {
	defer r.s.lock(ctx)()

	var sum, count int
	for _, rv := range r.s.d.reviews {
		if rv.RevieweeID == revieweeID {
			sum += rv.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}
