package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/evalhub/gradehub-api/internal/models"
)

// GradedSubmissionRepository defines persistence operations for graded
// attempts. Rows are append-only; nothing updates or rewrites them except a
// full homework reset.
type GradedSubmissionRepository interface {
	Create(ctx context.Context, submission *models.GradedSubmission) error
	GetByID(ctx context.Context, id string) (models.GradedSubmission, error)
	ListByHomework(ctx context.Context, homeworkID uint) ([]models.GradedSubmission, error)
	ListByLearner(ctx context.Context, homeworkID uint, learnerID string) ([]models.GradedSubmission, error)
	CountByHomework(ctx context.Context, homeworkID uint) (int64, error)
	DeleteByHomework(ctx context.Context, homeworkID uint) error
}

type gradedSubmissionRepository struct {
	db *gorm.DB
}

// NewGradedSubmissionRepository instantiates a GORM-backed repository.
func NewGradedSubmissionRepository(db *gorm.DB) GradedSubmissionRepository {
	return &gradedSubmissionRepository{db: db}
}

func (r *gradedSubmissionRepository) Create(ctx context.Context, submission *models.GradedSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *gradedSubmissionRepository) GetByID(ctx context.Context, id string) (models.GradedSubmission, error) {
	var submission models.GradedSubmission
	if err := r.db.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return models.GradedSubmission{}, err
	}

	return submission, nil
}

func (r *gradedSubmissionRepository) ListByHomework(ctx context.Context, homeworkID uint) ([]models.GradedSubmission, error) {
	var submissions []models.GradedSubmission
	err := r.db.WithContext(ctx).
		Where("homework_id = ?", homeworkID).
		Order("submitted_at ASC, created_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *gradedSubmissionRepository) ListByLearner(ctx context.Context, homeworkID uint, learnerID string) ([]models.GradedSubmission, error) {
	var submissions []models.GradedSubmission
	err := r.db.WithContext(ctx).
		Where("homework_id = ? AND learner_id = ?", homeworkID, learnerID).
		Order("submitted_at ASC, created_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *gradedSubmissionRepository) CountByHomework(ctx context.Context, homeworkID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.GradedSubmission{}).
		Where("homework_id = ?", homeworkID).
		Count(&total).Error
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (r *gradedSubmissionRepository) DeleteByHomework(ctx context.Context, homeworkID uint) error {
	return r.db.WithContext(ctx).
		Where("homework_id = ?", homeworkID).
		Delete(&models.GradedSubmission{}).Error
}
