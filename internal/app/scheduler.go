package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/carpool/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RideFinder lists active rides that departed before a moment.
type RideFinder interface {
	ListDueForCompletion(ctx context.Context, before time.Time) ([]*model.Ride, error)
}

// RideCompleter completes a ride on behalf of a caller.
type RideCompleter interface {
	CompleteRide(ctx context.Context, caller model.Caller, rideID uuid.UUID) (*model.Ride, error)
}

// Scheduler runs background jobs
type Scheduler struct {
	rides     RideFinder
	completer RideCompleter
	interval  time.Duration
	after     time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewScheduler(rides RideFinder, completer RideCompleter, interval, after time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		rides:     rides,
		completer: completer,
		interval:  interval,
		after:     after,
		now:       time.Now,
		logger:    logger,
	}
}

// Run completes overdue rides every interval until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting background scheduler",
		zap.Duration("interval", s.interval),
		zap.Duration("complete_after", s.after),
	)

	// first pass right at startup
	s.completeOverdueRides(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.completeOverdueRides(ctx)
		case <-ctx.Done():
			s.logger.Info("Background scheduler stopped")
			return nil
		}
	}
}

// completeOverdueRides finishes rides that departed more than `after` ago.
// It returns the number of rides completed.
func (s *Scheduler) completeOverdueRides(ctx context.Context) int {
	rides, err := s.rides.ListDueForCompletion(ctx, s.now().Add(-s.after))
	if err != nil {
		s.logger.Error("Failed to list overdue rides", zap.Error(err))
		return 0
	}

	completed := 0
	for _, ride := range rides {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.completer.CompleteRide(ctx, model.SystemCaller, ride.ID); err != nil {
			s.logger.Warn("Failed to auto-complete ride",
				zap.String("ride_id", ride.ID.String()),
				zap.Error(err),
			)
			continue
		}
		completed++
	}

	if completed > 0 {
		s.logger.Info("Overdue rides completed", zap.Int("count", completed))
	}
	return completed
}
