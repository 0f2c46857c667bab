package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService struct {
	tx          Transactor
	reviewRepo  ReviewRepository
	rideRepo    RideRepository
	bookingRepo BookingRepository
	userRepo    UserRepository
	logger      *zap.Logger
}

func NewReviewService(
	tx Transactor,
	reviewRepo ReviewRepository,
	rideRepo RideRepository,
	bookingRepo BookingRepository,
	userRepo UserRepository,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		tx:          tx,
		reviewRepo:  reviewRepo,
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// CreateReview rates another participant of a completed ride and refreshes their rating.
func (s *ReviewService) CreateReview(ctx context.Context, caller model.Caller, rideID, revieweeID uuid.UUID, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, invalidf("rating must be between 1 and 5")
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, fmt.Errorf("get ride: %w", err)
	}
	if ride == nil {
		return nil, ErrRideNotFound
	}
	if ride.Status != model.RideStatusCompleted {
		return nil, ErrRideNotCompleted
	}

	if ride.DriverID != caller.ID {
		ok, err := s.bookingRepo.HasCompleted(ctx, rideID, caller.ID)
		if err != nil {
			return nil, fmt.Errorf("check ride participation: %w", err)
		}
		if !ok {
			return nil, ErrNotRideParticipant
		}
	}

	if revieweeID == caller.ID {
		return nil, ErrSelfReview
	}

	if ride.DriverID != revieweeID {
		ok, err := s.bookingRepo.HasCompleted(ctx, rideID, revieweeID)
		if err != nil {
			return nil, fmt.Errorf("check reviewee participation: %w", err)
		}
		if !ok {
			return nil, invalidf("reviewee was not part of this ride")
		}
	}

	reviewee, err := s.userRepo.GetByID(ctx, revieweeID)
	if err != nil {
		return nil, fmt.Errorf("get reviewee: %w", err)
	}
	if reviewee == nil {
		return nil, ErrUserNotFound
	}

	exists, err := s.reviewRepo.Exists(ctx, rideID, caller.ID, revieweeID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	review := &model.Review{
		ID:         uuid.New(),
		RideID:     rideID,
		ReviewerID: caller.ID,
		RevieweeID: revieweeID,
		Rating:     rating,
		Comment:    comment,
	}

	var avg float64
	var total int
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.reviewRepo.Create(ctx, review); err != nil {
			if errors.Is(err, model.ErrAlreadyExists) {
				return ErrDuplicateReview
			}
			return fmt.Errorf("create review: %w", err)
		}

		var err error
		avg, total, err = s.reviewRepo.RatingStats(ctx, revieweeID)
		if err != nil {
			return fmt.Errorf("get rating stats: %w", err)
		}
		avg = roundRating(avg)

		if err := s.userRepo.UpdateRating(ctx, revieweeID, avg, total); err != nil {
			return fmt.Errorf("update rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("ride_id", rideID.String()),
		zap.String("reviewee_id", revieweeID.String()),
		zap.Int("rating", rating),
		zap.Float64("new_rating", avg),
		zap.Int("total_ratings", total),
	)

	return review, nil
}

// ListForUser returns reviews about a user, newest first
func (s *ReviewService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Review, error) {
	return s.reviewRepo.ListByReviewee(ctx, userID)
}

// roundRating keeps one decimal.
func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
