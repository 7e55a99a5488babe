package dto

import (
	"time"

	"github.com/evalhub/gradehub-api/internal/grader"
	"github.com/evalhub/gradehub-api/internal/models"
)

// GradeSubmissionRequest carries one learner attempt: named artifacts keyed the
// way the homework checks expect them.
type GradeSubmissionRequest struct {
	LearnerID string         `json:"learner_id" validate:"required,min=1,max=255"`
	Artifacts map[string]any `json:"artifacts" validate:"required"`
}

// CheckResultResponse serializes one normalized check outcome.
type CheckResultResponse struct {
	CheckName       string  `json:"check_name"`
	Description     string  `json:"description,omitempty"`
	PointsPossible  float64 `json:"points_possible"`
	PointsEarned    float64 `json:"points_earned"`
	Status          string  `json:"status"`
	Feedback        string  `json:"feedback"`
	ExecutionTimeMS float64 `json:"execution_time_ms"`
}

// GradedSubmissionResponse serializes one graded attempt.
type GradedSubmissionResponse struct {
	ID           string                `json:"id"`
	HomeworkName string                `json:"homework_name"`
	LearnerID    string                `json:"learner_id"`
	SubmittedAt  time.Time             `json:"submitted_at"`
	TotalScore   float64               `json:"total_score"`
	MaxScore     float64               `json:"max_score"`
	Percentage   float64               `json:"percentage"`
	Results      []CheckResultResponse `json:"results"`
}

// NewGradedSubmissionResponse converts a grading record into a DTO.
func NewGradedSubmissionResponse(record grader.SubmissionRecord) GradedSubmissionResponse {
	results := make([]CheckResultResponse, 0, len(record.Results))
	for _, result := range record.Results {
		results = append(results, CheckResultResponse{
			CheckName:       result.CheckName,
			Description:     result.Description,
			PointsPossible:  result.PointsPossible,
			PointsEarned:    result.PointsEarned,
			Status:          result.Status,
			Feedback:        result.Feedback,
			ExecutionTimeMS: float64(result.ExecutionTime.Microseconds()) / 1000,
		})
	}

	return GradedSubmissionResponse{
		ID:           record.ID,
		HomeworkName: record.HomeworkName,
		LearnerID:    record.LearnerID,
		SubmittedAt:  record.SubmissionTime,
		TotalScore:   record.TotalScore,
		MaxScore:     record.MaxScore,
		Percentage:   record.Percentage,
		Results:      results,
	}
}

// NewGradedSubmissionResponseFromModel converts a stored attempt into a DTO.
func NewGradedSubmissionResponseFromModel(model models.GradedSubmission) GradedSubmissionResponse {
	return NewGradedSubmissionResponse(model.Record())
}

// LearnerGradeResponse summarizes one learner's standing on a homework.
type LearnerGradeResponse struct {
	LearnerID       string                    `json:"learner_id"`
	SubmissionCount int                       `json:"submission_count"`
	BestScore       float64                   `json:"best_score"`
	BestSubmission  *GradedSubmissionResponse `json:"best_submission,omitempty"`
}

// LedgerResponse serializes the grade ledger for one homework.
type LedgerResponse struct {
	HomeworkName string                 `json:"homework_name"`
	MaxScore     float64                `json:"max_score"`
	Learners     []LearnerGradeResponse `json:"learners"`
}

// DistributionResponse serializes descriptive statistics for one metric.
type DistributionResponse struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// StatsResponse serializes homework-level grade statistics. Message carries the
// explicit empty state when nothing has been graded yet.
type StatsResponse struct {
	HomeworkName     string                `json:"homework_name"`
	TotalLearners    int                   `json:"total_learners"`
	TotalSubmissions int                   `json:"total_submissions"`
	Score            *DistributionResponse `json:"score,omitempty"`
	Percentage       *DistributionResponse `json:"percentage,omitempty"`
	Message          string                `json:"message,omitempty"`
}

// NewDistributionResponse converts the computed distribution.
func NewDistributionResponse(dist grader.Distribution) *DistributionResponse {
	return &DistributionResponse{
		Mean:   dist.Mean,
		Median: dist.Median,
		Std:    dist.Std,
		Min:    dist.Min,
		Max:    dist.Max,
	}
}
