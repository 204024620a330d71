package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/models"
)

// ClassRepository exposes class membership used during assignment fan-out.
type ClassRepository interface {
	GetByID(ctx context.Context, id uint) (models.Class, error)
	ListStudents(ctx context.Context, classID uint) ([]models.User, error)
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository constructs a GORM-backed class repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) ListStudents(ctx context.Context, classID uint) ([]models.User, error) {
	var students []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN class_members ON class_members.student_id = users.id").
		Where("class_members.class_id = ?", classID).
		Order("users.id ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}
