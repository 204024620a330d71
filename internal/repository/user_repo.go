package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/models"
)

// UserRepository provides access to user records and mentor linkage.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetWithMentor(ctx context.Context, id uint) (models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a GORM-backed user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) GetWithMentor(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Mentor").First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}
