package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/evalhub/gradehub-api/internal/models"
)

// HomeworkRepository defines persistence operations for homework definitions.
type HomeworkRepository interface {
	List(ctx context.Context) ([]models.Homework, error)
	GetByName(ctx context.Context, name string) (models.Homework, error)
	Create(ctx context.Context, homework *models.Homework) error
	Update(ctx context.Context, homework *models.Homework) error
	Delete(ctx context.Context, name string) error
}

type homeworkRepository struct {
	db *gorm.DB
}

// NewHomeworkRepository instantiates a GORM-backed repository.
func NewHomeworkRepository(db *gorm.DB) HomeworkRepository {
	return &homeworkRepository{db: db}
}

func (r *homeworkRepository) List(ctx context.Context) ([]models.Homework, error) {
	var homeworks []models.Homework
	err := r.db.WithContext(ctx).
		Preload("Checks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Order("name ASC").
		Find(&homeworks).Error
	if err != nil {
		return nil, err
	}

	return homeworks, nil
}

func (r *homeworkRepository) GetByName(ctx context.Context, name string) (models.Homework, error) {
	var homework models.Homework
	err := r.db.WithContext(ctx).
		Preload("Checks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		First(&homework, "name = ?", name).Error
	if err != nil {
		return models.Homework{}, err
	}

	return homework, nil
}

func (r *homeworkRepository) Create(ctx context.Context, homework *models.Homework) error {
	return r.db.WithContext(ctx).Create(homework).Error
}

func (r *homeworkRepository) Update(ctx context.Context, homework *models.Homework) error {
	return r.db.WithContext(ctx).Save(homework).Error
}

func (r *homeworkRepository) Delete(ctx context.Context, name string) error {
	result := r.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Homework{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
