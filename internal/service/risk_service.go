package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/dto"
	"github.com/Jam232006/pulse-lms/internal/models"
	"github.com/Jam232006/pulse-lms/internal/observability"
	"github.com/Jam232006/pulse-lms/internal/repository"
)

const (
	activityWindowDays = 28

	// defaultBaseline seeds activity deviation for users with no prior
	// window, no stored baseline and no current activity.
	defaultBaseline = 10
)

// ErrRiskNotFound indicates no stored risk record exists for the user.
var ErrRiskNotFound = errors.New("risk score not found")

// RiskService computes and persists composite disengagement scores.
type RiskService interface {
	Calculate(ctx context.Context, userID uint) (dto.RiskResponse, error)
	Get(ctx context.Context, userID uint) (dto.RiskScoreResponse, error)
	History(ctx context.Context, userID uint, limit int) ([]dto.RiskHistoryPoint, error)
}

type riskService struct {
	activities  repository.ActivityLogRepository
	submissions repository.SubmissionRepository
	users       repository.UserRepository
	risks       repository.RiskRepository
	streaks     StreakService
	alerts      AlertService
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewRiskService constructs the risk scorer.
func NewRiskService(
	activities repository.ActivityLogRepository,
	submissions repository.SubmissionRepository,
	users repository.UserRepository,
	risks repository.RiskRepository,
	streaks StreakService,
	alerts AlertService,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) RiskService {
	return &riskService{
		activities:  activities,
		submissions: submissions,
		users:       users,
		risks:       risks,
		streaks:     streaks,
		alerts:      alerts,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "risk_service").Logger(),
		tracer:      otel.Tracer("github.com/Jam232006/pulse-lms/internal/service/risk"),
		now:         time.Now,
	}
}

// Calculate scores the user across five metrics, persists the result and
// triggers alert side-effects. Any persistence failure rejects the whole
// calculation; alert dispatch is attempted only after the score write
// completes and its failures are logged, never propagated.
func (s *riskService) Calculate(ctx context.Context, userID uint) (dto.RiskResponse, error) {
	ctx, span := s.tracer.Start(ctx, "risk.calculate",
		trace.WithAttributes(attribute.Int64("risk.user_id", int64(userID))))
	defer span.End()

	user, err := s.users.GetWithMentor(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user_lookup_failed")
		return dto.RiskResponse{}, err
	}

	logs, err := s.activities.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return dto.RiskResponse{}, err
	}

	scored, err := s.submissions.ListScoredByStudent(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return dto.RiskResponse{}, err
	}

	streak, err := s.streaks.Current(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return dto.RiskResponse{}, err
	}

	storedBaseline := 0.0
	if stored, err := s.risks.GetScore(ctx, userID); err == nil {
		storedBaseline = stored.BaselineActivityScore
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.RiskResponse{}, err
	}

	now := s.now()
	windowStart := now.AddDate(0, 0, -activityWindowDays)
	priorStart := now.AddDate(0, 0, -2*activityWindowDays)

	current, err := s.activities.CountInWindow(ctx, userID, windowStart, now)
	if err != nil {
		span.RecordError(err)
		return dto.RiskResponse{}, err
	}

	prior, err := s.activities.CountInWindow(ctx, userID, priorStart, windowStart)
	if err != nil {
		span.RecordError(err)
		return dto.RiskResponse{}, err
	}

	breakdown := dto.RiskBreakdown{
		SubmissionIntegrity: submissionIntegrity(logs),
		ScorePenalty:        scorePenalty(scored),
		ConsistencyBonus:    consistencyBonus(streak),
	}

	var baseline float64
	breakdown.ActivityDeviation, baseline = activityDeviation(float64(current), float64(prior), storedBaseline)
	breakdown.TemporalInactivity = temporalInactivity(logs, now)

	total := breakdown.SubmissionIntegrity +
		breakdown.ActivityDeviation +
		breakdown.TemporalInactivity +
		breakdown.ScorePenalty +
		breakdown.ConsistencyBonus
	total = math.Max(0, total)
	level := models.RiskLevelFor(total)

	record := models.RiskScore{
		UserID:                userID,
		BaselineActivityScore: baseline,
		CurrentActivityScore:  float64(current),
		RiskScore:             total,
		RiskLevel:             level,
		LastUpdated:           now,
	}
	if err := s.risks.UpsertScore(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "score_write_failed")
		return dto.RiskResponse{}, err
	}

	if err := s.risks.AppendHistory(ctx, &models.RiskHistory{
		UserID:     userID,
		RiskScore:  total,
		RiskLevel:  level,
		RecordedAt: now,
	}); err != nil {
		span.RecordError(err)
		return dto.RiskResponse{}, err
	}

	s.invalidateHistoryCache(ctx, userID)
	observability.RiskCalculations().WithLabelValues(level).Inc()
	span.SetAttributes(
		attribute.Float64("risk.score", total),
		attribute.String("risk.level", level),
	)

	s.dispatchAlerts(ctx, user, total, level)

	return dto.RiskResponse{
		UserID:        userID,
		Score:         total,
		RiskLevel:     level,
		Breakdown:     breakdown,
		CurrentWindow: float64(current),
		Baseline:      baseline,
		CalculatedAt:  now,
	}, nil
}

// Get returns the stored risk record for a user.
func (s *riskService) Get(ctx context.Context, userID uint) (dto.RiskScoreResponse, error) {
	score, err := s.risks.GetScore(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RiskScoreResponse{}, ErrRiskNotFound
		}
		return dto.RiskScoreResponse{}, err
	}

	return dto.NewRiskScoreResponse(score), nil
}

// History returns the risk graph series, newest first, cached in redis.
// Cache failures degrade to the database read.
func (s *riskService) History(ctx context.Context, userID uint, limit int) ([]dto.RiskHistoryPoint, error) {
	cacheKey := historyCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var points []dto.RiskHistoryPoint
			if unmarshalErr := json.Unmarshal([]byte(cached), &points); unmarshalErr == nil {
				return points, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read risk history cache")
		}
	}

	entries, err := s.risks.ListHistory(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	points := dto.NewRiskHistoryPoints(entries)

	if s.cache != nil {
		if payload, err := json.Marshal(points); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store risk history cache")
			}
		}
	}

	return points, nil
}

// dispatchAlerts runs after the score is durably written. High risk emits a
// student-facing alert plus the mentor/admin fan-out; any other level
// auto-closes stale risk alerts.
func (s *riskService) dispatchAlerts(ctx context.Context, user models.User, score float64, level string) {
	if level != models.RiskLevelHigh {
		if _, err := s.alerts.ResolveRiskAlerts(ctx, user.ID); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to auto-resolve risk alerts")
		}
		return
	}

	studentID := user.ID
	if _, err := s.alerts.Create(ctx, CreateAlertInput{
		UserID:        studentID,
		RecipientID:   &studentID,
		RecipientRole: models.RoleStudent,
		AlertType:     models.AlertTypeRiskChange,
		RiskLevel:     &level,
		Message:       fmt.Sprintf("Your engagement risk is now %s (score %.2f). Reach out to your mentor for support.", level, score),
	}); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", studentID).Msg("failed to dispatch student risk alert")
	}

	s.alerts.RiskLevelChanged(ctx, RiskEvent{
		StudentID:   user.ID,
		StudentName: user.Name,
		MentorID:    user.MentorID,
		Score:       score,
		RiskLevel:   level,
	})
}

func (s *riskService) invalidateHistoryCache(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, historyCacheKey(userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate risk history cache")
	}
}

func historyCacheKey(userID uint) string {
	return fmt.Sprintf("risk:history:%d", userID)
}

// submissionIntegrity penalises missed and late graded work: 3 points per
// miss, 2 for submissions more than two days late, 1 for one or two days.
func submissionIntegrity(logs []models.ActivityLog) float64 {
	score := 0.0
	for _, entry := range logs {
		if !entry.IsGradedType() {
			continue
		}
		switch {
		case entry.Status == models.ActivityStatusMissed:
			score += 3
		case entry.Status == models.ActivityStatusSubmitted && entry.ResponseTimeDays > 2:
			score += 2
		case entry.Status == models.ActivityStatusSubmitted && entry.ResponseTimeDays >= 1:
			score += 1
		}
	}
	return score
}

// activityDeviation compares the trailing 28-day activity count against a
// baseline and returns the penalty plus the baseline used, which is
// persisted for the next pass.
func activityDeviation(current, prior, storedBaseline float64) (float64, float64) {
	baseline := prior
	if baseline <= 0 {
		baseline = storedBaseline
	}
	if baseline <= 0 {
		baseline = current
	}
	if baseline <= 0 {
		baseline = defaultBaseline
	}

	dropPct := (baseline - current) / baseline * 100
	switch {
	case dropPct >= 40:
		return 3, baseline
	case dropPct >= 25:
		return 2, baseline
	case dropPct >= 10:
		return 1, baseline
	default:
		return 0, baseline
	}
}

// temporalInactivity penalises how long the user has been silent. Logs are
// ordered newest first; a user with no activity at all gets the maximum.
func temporalInactivity(logs []models.ActivityLog, now time.Time) float64 {
	if len(logs) == 0 {
		return 4
	}

	days := int(now.Sub(logs[0].SubmissionDate).Hours() / 24)
	switch {
	case days >= 14:
		return 4
	case days >= 7:
		return 2
	case days >= 3:
		return 1
	default:
		return 0
	}
}

// scorePenalty adds a hundredth of a point per lost point across scored
// submissions. Fractional and unbounded.
func scorePenalty(submissions []models.Submission) float64 {
	penalty := 0.0
	for _, submission := range submissions {
		penalty += submission.LostPoints() * 0.01
	}
	return penalty
}

// consistencyBonus discounts the score for active streaks.
func consistencyBonus(streak int) float64 {
	switch {
	case streak >= 10:
		return -2
	case streak >= 5:
		return -1
	default:
		return 0
	}
}
