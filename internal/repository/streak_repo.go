package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Jam232006/pulse-lms/internal/models"
)

// StreakRepository persists per-user submission streak state.
type StreakRepository interface {
	Get(ctx context.Context, userID uint) (models.SubmissionStreak, error)
	Save(ctx context.Context, streak *models.SubmissionStreak) error
}

type streakRepository struct {
	db *gorm.DB
}

// NewStreakRepository constructs a GORM-backed streak repository.
func NewStreakRepository(db *gorm.DB) StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) Get(ctx context.Context, userID uint) (models.SubmissionStreak, error) {
	var streak models.SubmissionStreak
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&streak).Error; err != nil {
		return models.SubmissionStreak{}, err
	}

	return streak, nil
}

// Save upserts the streak row keyed on user_id, overwriting prior state.
func (r *streakRepository) Save(ctx context.Context, streak *models.SubmissionStreak) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"current_streak",
				"longest_streak",
				"last_submission_date",
				"updated_at",
			}),
		}).
		Create(streak).Error
}
