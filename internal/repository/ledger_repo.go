package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/evalhub/gradehub-api/internal/models"
)

// LedgerRepository defines persistence operations for best-attempt tracking.
type LedgerRepository interface {
	Get(ctx context.Context, homeworkID uint, learnerID string) (models.LedgerEntry, error)
	ListByHomework(ctx context.Context, homeworkID uint) ([]models.LedgerEntry, error)
	Save(ctx context.Context, entry *models.LedgerEntry) error
	DeleteByHomework(ctx context.Context, homeworkID uint) error
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository instantiates a GORM-backed repository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Get(ctx context.Context, homeworkID uint, learnerID string) (models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		First(&entry, "homework_id = ? AND learner_id = ?", homeworkID, learnerID).Error
	if err != nil {
		return models.LedgerEntry{}, err
	}

	return entry, nil
}

func (r *ledgerRepository) ListByHomework(ctx context.Context, homeworkID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("homework_id = ?", homeworkID).
		Order("learner_id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *ledgerRepository) Save(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *ledgerRepository) DeleteByHomework(ctx context.Context, homeworkID uint) error {
	return r.db.WithContext(ctx).
		Where("homework_id = ?", homeworkID).
		Delete(&models.LedgerEntry{}).Error
}
