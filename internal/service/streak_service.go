package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/models"
	"github.com/Jam232006/pulse-lms/internal/repository"
)

// streakGapToleranceDays is the maximum day gap that still counts as
// consecutive.
const streakGapToleranceDays = 3

// StreakService maintains per-user consecutive-submission streaks.
type StreakService interface {
	Update(ctx context.Context, userID uint, submissionDate time.Time) (int, error)
	Current(ctx context.Context, userID uint) (int, error)
}

type streakService struct {
	repo   repository.StreakRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewStreakService constructs the streak tracker.
func NewStreakService(repo repository.StreakRepository, logger zerolog.Logger) StreakService {
	return &streakService{
		repo:   repo,
		logger: logger.With().Str("component", "streak_service").Logger(),
		now:    time.Now,
	}
}

// Update advances the streak for a submission on the given date and returns
// the resulting current streak. Same-day repeats are idempotent; a gap of up
// to three days extends the streak; longer gaps reset it to 1. Submission
// dates earlier than the stored date are ignored so replayed events cannot
// retroactively shrink a streak.
func (s *streakService) Update(ctx context.Context, userID uint, submissionDate time.Time) (int, error) {
	date := normalizeDate(submissionDate)

	streak, err := s.repo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}

		streak = models.SubmissionStreak{
			UserID:             userID,
			CurrentStreak:      1,
			LongestStreak:      1,
			LastSubmissionDate: date,
		}
		if err := s.repo.Save(ctx, &streak); err != nil {
			return 0, err
		}

		s.logger.Debug().Uint("user_id", userID).Msg("streak started")
		return 1, nil
	}

	diffDays := daysBetween(normalizeDate(streak.LastSubmissionDate), date)
	switch {
	case diffDays == 0:
		return streak.CurrentStreak, nil
	case diffDays < 0:
		s.logger.Debug().
			Uint("user_id", userID).
			Int("diff_days", diffDays).
			Msg("ignoring out-of-order submission date")
		return streak.CurrentStreak, nil
	case diffDays <= streakGapToleranceDays:
		streak.CurrentStreak++
	default:
		streak.CurrentStreak = 1
	}

	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}
	streak.LastSubmissionDate = date

	if err := s.repo.Save(ctx, &streak); err != nil {
		return 0, err
	}

	return streak.CurrentStreak, nil
}

// Current returns the user's current streak, or 0 when none exists.
func (s *streakService) Current(ctx context.Context, userID uint) (int, error) {
	streak, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return streak.CurrentStreak, nil
}

// normalizeDate truncates a timestamp to local midnight.
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween returns the whole-day difference between two normalized dates.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
