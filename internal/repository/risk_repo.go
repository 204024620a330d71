package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Jam232006/pulse-lms/internal/models"
)

// RiskRepository persists composite risk scores and their audit trail.
type RiskRepository interface {
	GetScore(ctx context.Context, userID uint) (models.RiskScore, error)
	UpsertScore(ctx context.Context, score *models.RiskScore) error
	AppendHistory(ctx context.Context, entry *models.RiskHistory) error
	ListHistory(ctx context.Context, userID uint, limit int) ([]models.RiskHistory, error)
}

type riskRepository struct {
	db *gorm.DB
}

// NewRiskRepository constructs a GORM-backed risk repository.
func NewRiskRepository(db *gorm.DB) RiskRepository {
	return &riskRepository{db: db}
}

func (r *riskRepository) GetScore(ctx context.Context, userID uint) (models.RiskScore, error) {
	var score models.RiskScore
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&score).Error; err != nil {
		return models.RiskScore{}, err
	}

	return score, nil
}

// UpsertScore writes the score as a single insert-or-update statement keyed
// on user_id, so concurrent recalculations degrade to last-writer-wins
// without corrupting the row.
func (r *riskRepository) UpsertScore(ctx context.Context, score *models.RiskScore) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"baseline_activity_score",
				"current_activity_score",
				"risk_score",
				"risk_level",
				"last_updated",
			}),
		}).
		Create(score).Error
}

func (r *riskRepository) AppendHistory(ctx context.Context, entry *models.RiskHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *riskRepository) ListHistory(ctx context.Context, userID uint, limit int) ([]models.RiskHistory, error) {
	if limit <= 0 || limit > 365 {
		limit = 90
	}

	var entries []models.RiskHistory
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
