package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/models"
)

// ActivityLogRepository persists engagement events for users.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	Update(ctx context.Context, entry *models.ActivityLog) error
	ListByUser(ctx context.Context, userID uint) ([]models.ActivityLog, error)
	FindPending(ctx context.Context, userID uint, activityType string, dueDate time.Time) (models.ActivityLog, error)
	CountInWindow(ctx context.Context, userID uint, from, to time.Time) (int64, error)
	LatestByUser(ctx context.Context, userID uint) (models.ActivityLog, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository constructs the activity log repository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepository) Update(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *activityLogRepository) ListByUser(ctx context.Context, userID uint) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submission_date DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *activityLogRepository) FindPending(ctx context.Context, userID uint, activityType string, dueDate time.Time) (models.ActivityLog, error) {
	var entry models.ActivityLog
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("activity_type = ?", activityType).
		Where("status = ?", models.ActivityStatusPending).
		Where("due_date = ?", dueDate).
		Order("created_at DESC").
		First(&entry).Error; err != nil {
		return models.ActivityLog{}, err
	}

	return entry, nil
}

func (r *activityLogRepository) CountInWindow(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Where("user_id = ?", userID).
		Where("submission_date >= ? AND submission_date < ?", from, to).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *activityLogRepository) LatestByUser(ctx context.Context, userID uint) (models.ActivityLog, error) {
	var entry models.ActivityLog
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submission_date DESC").
		First(&entry).Error; err != nil {
		return models.ActivityLog{}, err
	}

	return entry, nil
}
