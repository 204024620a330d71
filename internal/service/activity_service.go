package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Jam232006/pulse-lms/internal/dto"
	"github.com/Jam232006/pulse-lms/internal/models"
	"github.com/Jam232006/pulse-lms/internal/repository"
)

// ActivityService records engagement events and triggers the downstream
// streak, alert and risk side-effects.
type ActivityService interface {
	Log(ctx context.Context, req dto.ActivityLogRequest) (dto.ActivityLogResponse, error)
	ListByUser(ctx context.Context, userID uint) ([]dto.ActivityLogResponse, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	users     repository.UserRepository
	streaks   StreakService
	risks     RiskService
	alerts    AlertService
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewActivityService constructs the activity service.
func NewActivityService(
	repo repository.ActivityLogRepository,
	users repository.UserRepository,
	streaks StreakService,
	risks RiskService,
	alerts AlertService,
	validate *validator.Validate,
	logger zerolog.Logger,
) ActivityService {
	return &activityService{
		repo:      repo,
		users:     users,
		streaks:   streaks,
		risks:     risks,
		alerts:    alerts,
		validator: validate,
		logger:    logger.With().Str("component", "activity_service").Logger(),
		now:       time.Now,
	}
}

// Log persists the activity entry, then runs the side-effect chain: streak
// update for submitted work, assignment alert fan-out, risk recalculation.
// Only the entry write is fatal; every side-effect is logged and ignored so
// the logging operation itself never fails on alerting or scoring trouble.
func (s *activityService) Log(ctx context.Context, req dto.ActivityLogRequest) (dto.ActivityLogResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityLogResponse{}, err
	}

	submissionDate := s.now()
	if req.SubmissionDate != nil {
		submissionDate = *req.SubmissionDate
	}

	entry := models.ActivityLog{
		UserID:         req.UserID,
		ActivityType:   req.ActivityType,
		SubmissionDate: submissionDate,
		DueDate:        req.DueDate,
		Status:         req.Status,
	}
	if req.Status == models.ActivityStatusSubmitted && req.DueDate != nil {
		entry.ResponseTimeDays = lateness(*req.DueDate, submissionDate)
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		s.logger.Error().Err(err).Uint("user_id", req.UserID).Msg("failed to persist activity log")
		return dto.ActivityLogResponse{}, err
	}

	s.runSideEffects(ctx, entry)

	return dto.NewActivityLogResponse(entry), nil
}

// ListByUser returns the user's activity history, newest first.
func (s *activityService) ListByUser(ctx context.Context, userID uint) ([]dto.ActivityLogResponse, error) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewActivityLogResponseSlice(entries), nil
}

func (s *activityService) runSideEffects(ctx context.Context, entry models.ActivityLog) {
	if entry.Status == models.ActivityStatusSubmitted && entry.IsGradedType() {
		if _, err := s.streaks.Update(ctx, entry.UserID, entry.SubmissionDate); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", entry.UserID).Msg("streak update failed")
		}
	}

	if entry.IsGradedType() && entry.DueDate != nil {
		if user, err := s.users.GetWithMentor(ctx, entry.UserID); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", entry.UserID).Msg("skipping alert fan-out, user lookup failed")
		} else {
			s.alerts.AssignmentLogged(ctx, AssignmentEvent{
				StudentID:    user.ID,
				StudentName:  user.Name,
				MentorID:     user.MentorID,
				ActivityType: entry.ActivityType,
				Title:        capitalize(entry.ActivityType) + " activity",
				DueDate:      *entry.DueDate,
				Status:       entry.Status,
			})
		}
	}

	if _, err := s.risks.Calculate(ctx, entry.UserID); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", entry.UserID).Msg("risk recalculation failed after activity log")
	}
}

// lateness returns whole days past the due date, floored at zero.
func lateness(due, submitted time.Time) int {
	days := daysBetween(normalizeDate(due), normalizeDate(submitted))
	if days < 0 {
		return 0
	}
	return days
}
