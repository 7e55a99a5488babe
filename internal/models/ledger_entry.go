package models

import (
	"time"

	"github.com/evalhub/gradehub-api/internal/grader"
)

// LedgerEntry tracks the best graded attempt per learner per homework. History
// lives in GradedSubmission rows; this row only carries the promotion state.
type LedgerEntry struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	HomeworkID       uint      `gorm:"not null;index:idx_ledger_homework_learner,unique" json:"homework_id"`
	LearnerID        string    `gorm:"size:255;not null;index:idx_ledger_homework_learner,unique" json:"learner_id"`
	BestScore        float64   `gorm:"not null" json:"best_score"`
	BestSubmissionID string    `gorm:"size:36;not null" json:"best_submission_id"`
	SubmissionCount  int       `gorm:"not null;default:0" json:"submission_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Fold applies one graded record to the entry through the domain promotion
// policy (grader.LearnerGradeEntry.Merge), so the tie-break rule lives in one
// place. It reports whether the best pointer moved to the new record.
func (e *LedgerEntry) Fold(record grader.SubmissionRecord) bool {
	domain := grader.LearnerGradeEntry{LearnerID: e.LearnerID, BestScore: e.BestScore}
	if e.SubmissionCount > 0 {
		prior := grader.SubmissionRecord{ID: e.BestSubmissionID, TotalScore: e.BestScore}
		domain.BestSubmission = &prior
	}

	domain.Merge(record)
	e.SubmissionCount++

	promoted := domain.BestSubmission != nil && domain.BestSubmission.ID == record.ID
	if promoted {
		e.BestScore = domain.BestScore
		e.BestSubmissionID = record.ID
	}
	return promoted
}
