package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/evalhub/gradehub-api/internal/grader"
)

// GradedSubmission is the persisted, append-only record of one graded attempt.
// Results stores the normalized per-check outcomes, Artifacts a human-readable
// snapshot of what the learner submitted.
type GradedSubmission struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	HomeworkID   uint              `gorm:"not null;index" json:"homework_id"`
	HomeworkName string            `gorm:"size:255;not null;index" json:"homework_name"`
	LearnerID    string            `gorm:"size:255;not null;index" json:"learner_id"`
	SubmittedAt  time.Time         `gorm:"not null;index" json:"submitted_at"`
	TotalScore   float64           `gorm:"not null" json:"total_score"`
	MaxScore     float64           `gorm:"not null" json:"max_score"`
	Percentage   float64           `gorm:"not null" json:"percentage"`
	Results      datatypes.JSON    `gorm:"type:json" json:"-"`
	Artifacts    datatypes.JSONMap `gorm:"type:json" json:"artifacts"`
	CreatedAt    time.Time         `json:"created_at"`
}

// SetResults serializes the normalized check outcomes into the JSON column.
func (s *GradedSubmission) SetResults(results []grader.CheckResult) {
	data, err := json.Marshal(results)
	if err != nil {
		s.Results = datatypes.JSON([]byte("[]"))
		return
	}
	s.Results = datatypes.JSON(data)
}

// ResultList deserializes the stored check outcomes.
func (s GradedSubmission) ResultList() []grader.CheckResult {
	if len(s.Results) == 0 {
		return nil
	}

	var results []grader.CheckResult
	if err := json.Unmarshal(s.Results, &results); err != nil {
		return nil
	}
	return results
}

// Record rebuilds the in-memory grading record from the stored row.
func (s GradedSubmission) Record() grader.SubmissionRecord {
	return grader.SubmissionRecord{
		ID:             s.ID,
		HomeworkName:   s.HomeworkName,
		LearnerID:      s.LearnerID,
		SubmissionTime: s.SubmittedAt,
		TotalScore:     s.TotalScore,
		MaxScore:       s.MaxScore,
		Percentage:     s.Percentage,
		Results:        s.ResultList(),
	}
}

// NewGradedSubmission maps a grading record onto its storage row.
func NewGradedSubmission(homeworkID uint, record grader.SubmissionRecord, artifacts datatypes.JSONMap) GradedSubmission {
	row := GradedSubmission{
		ID:           record.ID,
		HomeworkID:   homeworkID,
		HomeworkName: record.HomeworkName,
		LearnerID:    record.LearnerID,
		SubmittedAt:  record.SubmissionTime,
		TotalScore:   record.TotalScore,
		MaxScore:     record.MaxScore,
		Percentage:   record.Percentage,
		Artifacts:    artifacts,
	}
	row.SetResults(record.Results)
	return row
}
