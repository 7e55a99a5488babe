package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evalhub/gradehub-api/internal/dto"
	"github.com/evalhub/gradehub-api/internal/models"
	"github.com/evalhub/gradehub-api/internal/repository"
)

// ErrLearnerNotFound indicates the learner has no graded submissions on the
// homework.
var ErrLearnerNotFound = errors.New("learner not found")

// LedgerService reads the per-homework grade ledger.
type LedgerService interface {
	GetLedger(ctx context.Context, homeworkName string) (dto.LedgerResponse, error)
	GetLearner(ctx context.Context, homeworkName, learnerID string) (dto.LearnerGradeResponse, error)
}

type ledgerService struct {
	homeworks   repository.HomeworkRepository
	submissions repository.GradedSubmissionRepository
	ledger      repository.LedgerRepository
	logger      zerolog.Logger
}

// NewLedgerService constructs the ledger read service.
func NewLedgerService(
	homeworks repository.HomeworkRepository,
	submissions repository.GradedSubmissionRepository,
	ledger repository.LedgerRepository,
	logger zerolog.Logger,
) LedgerService {
	return &ledgerService{
		homeworks:   homeworks,
		submissions: submissions,
		ledger:      ledger,
		logger:      logger.With().Str("component", "ledger_service").Logger(),
	}
}

func (s *ledgerService) GetLedger(ctx context.Context, homeworkName string) (dto.LedgerResponse, error) {
	homework, err := s.homeworks.GetByName(ctx, homeworkName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LedgerResponse{}, ErrHomeworkNotFound
		}
		return dto.LedgerResponse{}, err
	}

	entries, err := s.ledger.ListByHomework(ctx, homework.ID)
	if err != nil {
		return dto.LedgerResponse{}, err
	}

	learners := make([]dto.LearnerGradeResponse, 0, len(entries))
	for _, entry := range entries {
		learner, err := s.buildLearner(ctx, entry)
		if err != nil {
			return dto.LedgerResponse{}, err
		}
		learners = append(learners, learner)
	}

	return dto.LedgerResponse{
		HomeworkName: homework.Name,
		MaxScore:     homework.MaxScore,
		Learners:     learners,
	}, nil
}

func (s *ledgerService) GetLearner(ctx context.Context, homeworkName, learnerID string) (dto.LearnerGradeResponse, error) {
	homework, err := s.homeworks.GetByName(ctx, homeworkName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LearnerGradeResponse{}, ErrHomeworkNotFound
		}
		return dto.LearnerGradeResponse{}, err
	}

	entry, err := s.ledger.Get(ctx, homework.ID, learnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LearnerGradeResponse{}, ErrLearnerNotFound
		}
		return dto.LearnerGradeResponse{}, err
	}

	return s.buildLearner(ctx, entry)
}

func (s *ledgerService) buildLearner(ctx context.Context, entry models.LedgerEntry) (dto.LearnerGradeResponse, error) {
	learner := dto.LearnerGradeResponse{
		LearnerID:       entry.LearnerID,
		SubmissionCount: entry.SubmissionCount,
		BestScore:       entry.BestScore,
	}

	if entry.BestSubmissionID != "" {
		best, err := s.submissions.GetByID(ctx, entry.BestSubmissionID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.LearnerGradeResponse{}, err
			}
			s.logger.Warn().
				Str("learner_id", entry.LearnerID).
				Str("submission_id", entry.BestSubmissionID).
				Msg("ledger references a missing submission")
		} else {
			response := dto.NewGradedSubmissionResponseFromModel(best)
			learner.BestSubmission = &response
		}
	}

	return learner, nil
}
