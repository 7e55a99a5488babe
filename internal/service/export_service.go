package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/evalhub/gradehub-api/internal/dto"
)

// ExportService renders a homework's grade ledger in downloadable formats.
type ExportService interface {
	ExportCSV(ctx context.Context, homeworkName string) ([]byte, error)
	ExportJSON(ctx context.Context, homeworkName string) ([]byte, error)
}

type exportService struct {
	ledger LedgerService
	logger zerolog.Logger
}

// NewExportService constructs the export service on top of the ledger reads.
func NewExportService(ledger LedgerService, logger zerolog.Logger) ExportService {
	return &exportService{
		ledger: ledger,
		logger: logger.With().Str("component", "export_service").Logger(),
	}
}

// ExportCSV writes one row per learner: identity, best score, percentage, and
// the per-check points of the best submission in homework check order.
func (s *exportService) ExportCSV(ctx context.Context, homeworkName string) ([]byte, error) {
	ledger, err := s.ledger.GetLedger(ctx, homeworkName)
	if err != nil {
		return nil, err
	}

	checkNames := collectCheckNames(ledger)

	header := []string{"learner_id", "submission_count", "best_score", "max_score", "percentage"}
	header = append(header, checkNames...)

	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, learner := range ledger.Learners {
		percentage := 0.0
		if ledger.MaxScore > 0 {
			percentage = learner.BestScore / ledger.MaxScore * 100
		}

		row := []string{
			learner.LearnerID,
			strconv.Itoa(learner.SubmissionCount),
			formatScore(learner.BestScore),
			formatScore(ledger.MaxScore),
			fmt.Sprintf("%.1f", percentage),
		}

		for _, checkName := range checkNames {
			value := ""
			if learner.BestSubmission != nil {
				for _, result := range learner.BestSubmission.Results {
					if result.CheckName == checkName {
						value = formatScore(result.PointsEarned)
						break
					}
				}
			}
			row = append(row, value)
		}

		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	s.logger.Info().Str("homework", homeworkName).Int("learners", len(ledger.Learners)).Msg("ledger exported as csv")
	return buffer.Bytes(), nil
}

// ExportJSON renders the full ledger, best submissions included.
func (s *exportService) ExportJSON(ctx context.Context, homeworkName string) ([]byte, error) {
	ledger, err := s.ledger.GetLedger(ctx, homeworkName)
	if err != nil {
		return nil, err
	}

	payload, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("homework", homeworkName).Int("learners", len(ledger.Learners)).Msg("ledger exported as json")
	return payload, nil
}

// collectCheckNames derives the column order from the first best submission
// that carries results; all submissions share the homework's check order.
func collectCheckNames(ledger dto.LedgerResponse) []string {
	for _, learner := range ledger.Learners {
		if learner.BestSubmission == nil {
			continue
		}
		names := make([]string, 0, len(learner.BestSubmission.Results))
		for _, result := range learner.BestSubmission.Results {
			names = append(names, result.CheckName)
		}
		return names
	}
	return nil
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
