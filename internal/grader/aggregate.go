package grader

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Engine grades one submission against a homework's checks. Checks run
// strictly one after another in their declared order; a failure inside any
// check is recorded against that check only.
type Engine struct {
	sandbox Sandbox
	now     func() time.Time
}

// Option customises engine construction.
type Option func(*Engine)

// WithSandbox swaps the execution sandbox.
func WithSandbox(sandbox Sandbox) Option {
	return func(e *Engine) { e.sandbox = sandbox }
}

// WithClock fixes the engine clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds a grading engine with the default sandbox.
func NewEngine(opts ...Option) *Engine {
	engine := &Engine{
		sandbox: NewSandbox(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Grade runs every check against the submission and aggregates the results
// into an immutable SubmissionRecord. It never fails for an individual check;
// a check without a runnable scores ERROR and the loop continues.
func (e *Engine) Grade(ctx context.Context, homeworkName, learnerID string, checks []Check, submission Submission) SubmissionRecord {
	record := SubmissionRecord{
		ID:             uuid.NewString(),
		HomeworkName:   homeworkName,
		LearnerID:      learnerID,
		SubmissionTime: e.now().UTC(),
		Results:        make([]CheckResult, 0, len(checks)),
	}

	for _, check := range checks {
		record.MaxScore += check.Points

		if check.Run == nil {
			record.Results = append(record.Results, CheckResult{
				CheckName:      check.Name,
				Description:    check.Description,
				PointsPossible: check.Points,
				Status:         StatusError,
				Feedback:       "no runnable found for check " + check.Name,
			})
			continue
		}

		outcome := e.sandbox.Run(ctx, check, submission)
		record.Results = append(record.Results, Normalize(check, outcome))
	}

	for _, result := range record.Results {
		record.TotalScore += result.PointsEarned
	}

	if record.MaxScore > 0 {
		record.Percentage = record.TotalScore / record.MaxScore * 100
	}

	return record
}
