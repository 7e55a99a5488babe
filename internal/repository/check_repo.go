package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/evalhub/gradehub-api/internal/models"
)

// CheckRepository defines persistence operations for check specs.
type CheckRepository interface {
	ListByHomework(ctx context.Context, homeworkID uint) ([]models.CheckSpec, error)
	GetByName(ctx context.Context, homeworkID uint, name string) (models.CheckSpec, error)
	Create(ctx context.Context, check *models.CheckSpec) error
	Update(ctx context.Context, check *models.CheckSpec) error
	Delete(ctx context.Context, homeworkID uint, name string) error
	DeleteByHomework(ctx context.Context, homeworkID uint) error
	NextPosition(ctx context.Context, homeworkID uint) (int, error)
}

type checkRepository struct {
	db *gorm.DB
}

// NewCheckRepository instantiates a GORM-backed repository.
func NewCheckRepository(db *gorm.DB) CheckRepository {
	return &checkRepository{db: db}
}

func (r *checkRepository) ListByHomework(ctx context.Context, homeworkID uint) ([]models.CheckSpec, error) {
	var checks []models.CheckSpec
	err := r.db.WithContext(ctx).
		Where("homework_id = ?", homeworkID).
		Order("position ASC, id ASC").
		Find(&checks).Error
	if err != nil {
		return nil, err
	}

	return checks, nil
}

func (r *checkRepository) GetByName(ctx context.Context, homeworkID uint, name string) (models.CheckSpec, error) {
	var check models.CheckSpec
	err := r.db.WithContext(ctx).
		First(&check, "homework_id = ? AND name = ?", homeworkID, name).Error
	if err != nil {
		return models.CheckSpec{}, err
	}

	return check, nil
}

func (r *checkRepository) Create(ctx context.Context, check *models.CheckSpec) error {
	return r.db.WithContext(ctx).Create(check).Error
}

func (r *checkRepository) Update(ctx context.Context, check *models.CheckSpec) error {
	return r.db.WithContext(ctx).Save(check).Error
}

func (r *checkRepository) Delete(ctx context.Context, homeworkID uint, name string) error {
	result := r.db.WithContext(ctx).
		Where("homework_id = ? AND name = ?", homeworkID, name).
		Delete(&models.CheckSpec{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *checkRepository) DeleteByHomework(ctx context.Context, homeworkID uint) error {
	return r.db.WithContext(ctx).
		Where("homework_id = ?", homeworkID).
		Delete(&models.CheckSpec{}).Error
}

func (r *checkRepository) NextPosition(ctx context.Context, homeworkID uint) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.CheckSpec{}).
		Where("homework_id = ?", homeworkID).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}
