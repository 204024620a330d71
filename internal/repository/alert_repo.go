package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/models"
)

// AlertRepository persists notification records. The open-alert lookup is
// the dedup primitive: recipient is matched NULL-safely so broadcast alerts
// (nil recipient) deduplicate against each other.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	FindOpen(ctx context.Context, userID uint, recipientID *uint, recipientRole, alertType string) (models.Alert, error)
	GetByID(ctx context.Context, id uint) (models.Alert, error)
	ListByRecipient(ctx context.Context, recipientID uint, role string, unresolvedOnly bool) ([]models.Alert, error)
	Resolve(ctx context.Context, id uint) error
	ResolveOpen(ctx context.Context, userID uint, recipientID *uint, recipientRole string, alertTypes []string) (int64, error)
	ResolveByTypes(ctx context.Context, userID uint, alertTypes []string) (int64, error)
}

type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository constructs a GORM-backed alert repository.
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func recipientScope(query *gorm.DB, recipientID *uint) *gorm.DB {
	if recipientID == nil {
		return query.Where("recipient_id IS NULL")
	}
	return query.Where("recipient_id = ?", *recipientID)
}

func (r *alertRepository) FindOpen(ctx context.Context, userID uint, recipientID *uint, recipientRole, alertType string) (models.Alert, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("recipient_role = ?", recipientRole).
		Where("alert_type = ?", alertType).
		Where("resolved = ?", false)
	query = recipientScope(query, recipientID)

	var alert models.Alert
	if err := query.Order("created_at DESC").First(&alert).Error; err != nil {
		return models.Alert{}, err
	}

	return alert, nil
}

func (r *alertRepository) GetByID(ctx context.Context, id uint) (models.Alert, error) {
	var alert models.Alert
	if err := r.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		return models.Alert{}, err
	}

	return alert, nil
}

func (r *alertRepository) ListByRecipient(ctx context.Context, recipientID uint, role string, unresolvedOnly bool) ([]models.Alert, error) {
	query := r.db.WithContext(ctx).
		Where("(recipient_id = ? OR (recipient_id IS NULL AND recipient_role = ?))", recipientID, role)
	if unresolvedOnly {
		query = query.Where("resolved = ?", false)
	}

	var alerts []models.Alert
	if err := query.Order("alert_date DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}

	return alerts, nil
}

func (r *alertRepository) Resolve(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"resolved": true, "updated_at": time.Now()}).Error
}

func (r *alertRepository) ResolveOpen(ctx context.Context, userID uint, recipientID *uint, recipientRole string, alertTypes []string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Alert{}).
		Where("user_id = ?", userID).
		Where("recipient_role = ?", recipientRole).
		Where("alert_type IN ?", alertTypes).
		Where("resolved = ?", false)
	query = recipientScope(query, recipientID)

	result := query.Updates(map[string]interface{}{"resolved": true, "updated_at": time.Now()})
	return result.RowsAffected, result.Error
}

func (r *alertRepository) ResolveByTypes(ctx context.Context, userID uint, alertTypes []string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Alert{}).
		Where("user_id = ?", userID).
		Where("alert_type IN ?", alertTypes).
		Where("resolved = ?", false).
		Updates(map[string]interface{}{"resolved": true, "updated_at": time.Now()})
	return result.RowsAffected, result.Error
}
