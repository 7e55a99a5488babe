package grader

// LearnerGradeEntry tracks one learner's submission history for a homework
// together with the best-scoring submission seen so far. BestScore is
// monotonically non-decreasing over the entry's lifetime.
type LearnerGradeEntry struct {
	LearnerID      string
	Submissions    []SubmissionRecord
	BestScore      float64
	BestSubmission *SubmissionRecord
}

// Merge appends the record to the history and promotes it to best only when
// its total is strictly greater than the current best, so an exact tie keeps
// the earlier submission. The first record always becomes the initial best.
// Merge does not deduplicate; submission identity is the caller's concern.
func (e *LearnerGradeEntry) Merge(record SubmissionRecord) {
	e.Submissions = append(e.Submissions, record)

	if e.BestSubmission == nil || record.TotalScore > e.BestScore {
		e.BestScore = record.TotalScore
		best := record
		e.BestSubmission = &best
	}
}
